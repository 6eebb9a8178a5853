package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read or parse the YAML configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that the loaded configuration is invalid.
var ErrValidateConfig = errors.New("configuration validation failed")

// DefaultTimestampFormat names output archives, e.g. backup_2025-04-24_21-00-00.tar.gz.
const DefaultTimestampFormat = "2006-01-02_15-04-05"

// Config represents the top-level YAML configuration file.
type Config struct {
	Backup   BackupConfig   `mapstructure:"backup"   yaml:"backup"`
	Exclude  []string       `mapstructure:"exclude"  yaml:"exclude,omitempty"`
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`
}

// BackupConfig contains the options for one backup run.
type BackupConfig struct {
	Roots           []string `mapstructure:"roots"            yaml:"roots"`
	Type            string   `mapstructure:"type"             yaml:"type"`
	Compression     string   `mapstructure:"compression"      yaml:"compression"`
	OutputDirectory string   `mapstructure:"output_directory" yaml:"output_directory"`
	Output          string   `mapstructure:"output"           yaml:"output,omitempty"`
	TimestampFormat string   `mapstructure:"timestamp_format" yaml:"timestamp_format"`
}

// MetadataConfig locates the persisted run-timestamp record.
type MetadataConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// Load reads the configuration from the given YAML file using Viper
// and unmarshals into the Config struct.
func (c *Config) Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read config %s: %v", ErrLoadConfig, path, err)
	}

	if err := v.UnmarshalExact(c); err != nil {
		return fmt.Errorf("%w: unmarshal config: %v", ErrLoadConfig, err)
	}

	c.applyDefaults()
	return nil
}

// applyDefaults fills zero-valued fields so a minimal config file still works.
func (c *Config) applyDefaults() {
	if c.Backup.Type == "" {
		c.Backup.Type = "full"
	}
	if c.Backup.Compression == "" {
		c.Backup.Compression = "default"
	}
	if c.Backup.TimestampFormat == "" {
		c.Backup.TimestampFormat = DefaultTimestampFormat
	}
	if c.Backup.OutputDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Backup.OutputDirectory = wd
		}
	}
	if c.Metadata.Directory == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Metadata.Directory = filepath.Join(home, ".fsbackup")
		}
	}
}

// Validate checks that the configuration can drive a backup run.
func (c *Config) Validate() error {
	if len(c.Backup.Roots) == 0 {
		return fmt.Errorf("%w: no backup roots configured", ErrValidateConfig)
	}
	switch c.Backup.Type {
	case "full", "incremental", "differential":
	default:
		return fmt.Errorf("%w: unknown backup type %q", ErrValidateConfig, c.Backup.Type)
	}
	switch c.Backup.Compression {
	case "fast", "default", "best":
	default:
		return fmt.Errorf("%w: unknown compression level %q", ErrValidateConfig, c.Backup.Compression)
	}
	if c.Metadata.Directory == "" {
		return fmt.Errorf("%w: metadata directory is not set", ErrValidateConfig)
	}
	return nil
}
