// Package config loads simplefs settings from a config file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-simplefs/internal/device"
)

// Config holds the settings shared by every simplefs command
type Config struct {
	// Image is the path of the disk image file
	Image string `mapstructure:"image"`

	// Blocks is the size in blocks of images created by mkimage
	Blocks uint32 `mapstructure:"blocks"`

	// LogLevel is a logrus level name
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is text or json
	LogFormat string `mapstructure:"log_format"`

	// Output is table, json or yaml
	Output string `mapstructure:"output"`

	// Timeout bounds one command; zero means no deadline
	Timeout time.Duration `mapstructure:"timeout"`

	// Device tunes how the image file is opened
	Device device.ImageConfig `mapstructure:"device"`
}

// Defaults
const (
	DefaultImage     = "simplefs.img"
	DefaultBlocks    = 200
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultOutput    = "table"
)

// New returns a viper instance with the simplefs search paths, defaults and
// SIMPLEFS_ environment binding set up
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("simplefs-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.simplefs")
	v.AddConfigPath("/etc/simplefs")

	v.SetDefault("image", DefaultImage)
	v.SetDefault("blocks", DefaultBlocks)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("device.sync", false)
	v.SetDefault("device.read_only", false)

	// SIMPLEFS_DEVICE_SYNC maps to device.sync
	v.SetEnvPrefix("SIMPLEFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file into v and decodes the result.
// configFile overrides the search paths; a missing file on the search paths is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	if c.Image == "" {
		return fmt.Errorf("image path must not be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (must be text or json)", c.LogFormat)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q (must be table, json or yaml)", c.Output)
	}
	return nil
}

// NewLogger builds a logrus logger from the log settings
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return logger, nil
}
