// Package config loads the static service configuration.
//
// Values are resolved in increasing order of precedence: built-in defaults, an optional
// YAML file, an optional .env file and finally the process environment. Configuration is
// read once at startup.
package config
