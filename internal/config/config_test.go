package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"HOST", "PORT", "CACHE_PATH", "SOURCE_URL",
	"REFRESH_HOUR", "TIMEZONE", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every key so the host environment cannot leak into a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "localhost:3000", cfg.Addr())
	assert.Equal(t, 3, cfg.RefreshHour)
	assert.Equal(t, "Australia/Sydney", cfg.Timezone)
}

func TestLoadFrom_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlFile := writeFile(t, dir, "config.yaml", `
host: 0.0.0.0
port: 8080
cache_path: /var/cache/yaml.json
refresh_hour: 4
log_format: text
`)
	envFile := writeFile(t, dir, ".env", "PORT=9090\nCACHE_PATH=/var/cache/dotenv.json\n")
	t.Setenv("CACHE_PATH", "/var/cache/env.json")

	cfg, err := LoadFrom(yamlFile, envFile)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host, "YAML over default")
	assert.Equal(t, 4, cfg.RefreshHour, "YAML over default")
	assert.Equal(t, "text", cfg.LogFormat, "YAML over default")
	assert.Equal(t, 9090, cfg.Port, ".env over YAML")
	assert.Equal(t, "/var/cache/env.json", cfg.CachePath, "environment over .env")
	assert.Equal(t, "info", cfg.LogLevel, "default kept")
}

func TestLoadFrom_DotenvDoesNotTouchEnvironment(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, t.TempDir(), ".env", "TIMEZONE=UTC\n")

	cfg, err := LoadFrom("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "", os.Getenv("TIMEZONE"))
}

func TestLoadFrom_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unknown yaml key", yaml: "prot: 3000\n"},
		{name: "malformed yaml", yaml: "port: [\n"},
		{name: "port out of range", yaml: "port: 70000\n"},
		{name: "hour out of range", yaml: "refresh_hour: 24\n"},
		{name: "bad timezone", yaml: "timezone: Mars/Olympus\n"},
		{name: "bad log level", yaml: "log_level: loud\n"},
		{name: "bad log format", yaml: "log_format: xml\n"},
		{name: "non-numeric port", env: map[string]string{"PORT": "http"}},
		{name: "non-numeric hour", env: map[string]string{"REFRESH_HOUR": "three"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			yamlFile := ""
			if tt.yaml != "" {
				yamlFile = writeFile(t, dir, "config.yaml", tt.yaml)
			}

			_, err := LoadFrom(yamlFile, filepath.Join(dir, "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoadFrom_EmptyConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := LoadFrom(writeFile(t, dir, "config.yaml", ""), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestConfig_Location(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Australia/Sydney", loc.String())
}

func TestConfig_Addr(t *testing.T) {
	cfg := Default()
	cfg.Host = "::1"
	cfg.Port = 8080
	assert.Equal(t, "[::1]:8080", cfg.Addr())
}
