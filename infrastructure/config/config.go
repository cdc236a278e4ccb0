// Package config gathers the settings of the command line from the
// environment, an optional .env file and flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mstoykov/envconfig"
	"gopkg.in/guregu/null.v3"

	"ui_automation/domain/entities"
)

// Driver names a browser backend.
type Driver string

const (
	DriverMemory     Driver = "memory"
	DriverPlaywright Driver = "playwright"
	DriverSelenium   Driver = "selenium"
)

// ParseDriver - converts a textual driver name
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case DriverMemory, DriverPlaywright, DriverSelenium:
		return d, nil
	default:
		return "", fmt.Errorf("unknown browser driver %q", s)
	}
}

// Config holds the engine defaults and the browser settings.
type Config struct {
	Timeout       entities.NullDuration   `envconfig:"LOCATOR_TIMEOUT"`
	RetryInterval entities.NullDuration   `envconfig:"LOCATOR_RETRY_INTERVAL"`
	Visibility    entities.NullVisibility `envconfig:"LOCATOR_VISIBILITY"`
	Safely        null.Bool               `envconfig:"LOCATOR_SAFELY"`
	Descriptors   null.String             `envconfig:"LOCATOR_DESCRIPTORS"`

	Driver       null.String `envconfig:"BROWSER_DRIVER"`
	DriverPath   null.String `envconfig:"BROWSER_DRIVER_PATH"`
	ChromeBinary null.String `envconfig:"CHROME_BINARY_PATH"`
	Headless     null.Bool   `envconfig:"BROWSER_HEADLESS"`

	LogLevel null.String `envconfig:"LOG_LEVEL"`
}

// NewConfig creates a Config with the default values, none of them marked
// as set.
func NewConfig() Config {
	return Config{
		Timeout:       entities.NewNullDuration(entities.DefaultTimeout, false),
		RetryInterval: entities.NewNullDuration(entities.DefaultRetryInterval, false),
		Safely:        null.NewBool(false, false),
		Descriptors:   null.NewString("components.yaml", false),
		Driver:        null.NewString(string(DriverMemory), false),
		Headless:      null.NewBool(true, false),
		LogLevel:      null.NewString("info", false),
	}
}

// Apply saves the set values of cfg in the receiver.
func (c Config) Apply(cfg Config) Config {
	if cfg.Timeout.Valid {
		c.Timeout = cfg.Timeout
	}
	if cfg.RetryInterval.Valid {
		c.RetryInterval = cfg.RetryInterval
	}
	if cfg.Visibility.Valid {
		c.Visibility = cfg.Visibility
	}
	if cfg.Safely.Valid {
		c.Safely = cfg.Safely
	}
	if cfg.Descriptors.Valid && cfg.Descriptors.String != "" {
		c.Descriptors = cfg.Descriptors
	}
	if cfg.Driver.Valid && cfg.Driver.String != "" {
		c.Driver = cfg.Driver
	}
	if cfg.DriverPath.Valid && cfg.DriverPath.String != "" {
		c.DriverPath = cfg.DriverPath
	}
	if cfg.ChromeBinary.Valid && cfg.ChromeBinary.String != "" {
		c.ChromeBinary = cfg.ChromeBinary
	}
	if cfg.Headless.Valid {
		c.Headless = cfg.Headless
	}
	if cfg.LogLevel.Valid && cfg.LogLevel.String != "" {
		c.LogLevel = cfg.LogLevel
	}
	return c
}

// Load reads the optional .env files and then the environment on top of
// the defaults. A missing .env is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	var env Config
	if err := envconfig.Process("", &env); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg := NewConfig().Apply(env)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be checked while decoding.
func (c Config) Validate() error {
	if _, err := ParseDriver(c.Driver.String); err != nil {
		return err
	}
	if c.Timeout.Duration < 0 {
		return fmt.Errorf("timeout %s is negative", c.Timeout.Duration)
	}
	if c.RetryInterval.Duration <= 0 {
		return fmt.Errorf("retry interval must be positive, got %s", c.RetryInterval.Duration)
	}
	return nil
}

// BrowserDriver returns the configured backend.
func (c Config) BrowserDriver() Driver {
	d, err := ParseDriver(c.Driver.String)
	if err != nil {
		return DriverMemory
	}
	return d
}

// SearchOptions returns the engine defaults. Only the values that were set
// explicitly are marked as set, so that component declarations still take
// precedence over built-in defaults.
func (c Config) SearchOptions() entities.SearchOptions {
	opts := entities.SearchOptions{
		Visibility: c.Visibility,
		Safely:     c.Safely,
	}
	if c.Timeout.Valid {
		opts = opts.WithTimeout(c.Timeout.Duration)
	}
	if c.RetryInterval.Valid {
		opts = opts.WithRetryInterval(c.RetryInterval.Duration)
	}
	return opts
}
