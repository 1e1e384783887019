package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/term-dates/internal/logger"
	"github.com/pfrederiksen/term-dates/internal/scraper"
	"github.com/pfrederiksen/term-dates/internal/storage"
)

// DefaultEnvFile is the .env file read by Load
const DefaultEnvFile = ".env"

// Config holds the service configuration
type Config struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	CachePath   string `yaml:"cache_path"`
	SourceURL   string `yaml:"source_url"`
	RefreshHour int    `yaml:"refresh_hour"`
	Timezone    string `yaml:"timezone"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Host:        "localhost",
		Port:        3000,
		CachePath:   storage.DefaultPath,
		SourceURL:   scraper.AcademicCalendarURL,
		RefreshHour: 3,
		Timezone:    "Australia/Sydney",
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// Load reads configFile (optional, "" to skip) and .env from the working directory,
// then applies the environment
func Load(configFile string) (*Config, error) {
	return LoadFrom(configFile, DefaultEnvFile)
}

// LoadFrom is Load with an explicit .env path. A missing .env file is not an error;
// a missing configFile is.
func LoadFrom(configFile, envFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := cfg.loadYAML(configFile); err != nil {
			return nil, err
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"HOST", &c.Host},
		{"CACHE_PATH", &c.CachePath},
		{"SOURCE_URL", &c.SourceURL},
		{"TIMEZONE", &c.Timezone},
		{"LOG_LEVEL", &c.LogLevel},
		{"LOG_FORMAT", &c.LogFormat},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Port},
		{"REFRESH_HOUR", &c.RefreshHour},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", i.key, v, err)
		}
		*i.dst = n
	}
	return nil
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.RefreshHour < 0 || c.RefreshHour > 23 {
		return fmt.Errorf("refresh_hour must be between 0 and 23, got %d", c.RefreshHour)
	}
	if c.CachePath == "" {
		return errors.New("cache_path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logger.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// Location loads the configured time zone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Logger builds a logger from the configured level and format
func (c *Config) Logger() *logger.Logger {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		level = logger.LevelInfo
	}
	format, err := logger.ParseFormat(c.LogFormat)
	if err != nil {
		format = logger.FormatJSON
	}
	return logger.NewWithFormat(level, format, os.Stderr)
}
