// Package config loads toolkit configuration from file and environment.
// Config lives at ~/.config/dearly/config.yaml (or under
// $XDG_CONFIG_HOME); environment variables use the DEARLY_ prefix.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// StoreConfig locates the persistent stores.
type StoreConfig struct {
	// RecordsPath is the record store (Badger) directory.
	RecordsPath string `mapstructure:"records_path"`

	// BlobsPath is the image blob store directory.
	BlobsPath string `mapstructure:"blobs_path"`
}

// ExportConfig configures archive export.
type ExportConfig struct {
	// JPEGQuality is the fixed lossy re-encode quality.
	JPEGQuality int `mapstructure:"jpeg_quality"`

	// IncludeHistory exports edit history by default.
	IncludeHistory bool `mapstructure:"include_history"`

	// OutputDir is where exported archives are written. Empty means the
	// current directory.
	OutputDir string `mapstructure:"output_dir"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// Config is the application configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Export  ExportConfig  `mapstructure:"export"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/dearly/config.yaml
//   - $HOME/.config/dearly/config.yaml
//
// Environment variables are prefixed with DEARLY_ (e.g.
// DEARLY_EXPORT_JPEG_QUALITY).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "dearly"))
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "dearly"))

	v.SetEnvPrefix("DEARLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in store paths if present
	for _, p := range []*string{&cfg.Store.RecordsPath, &cfg.Store.BlobsPath, &cfg.Export.OutputDir} {
		if strings.HasPrefix(*p, "~") {
			*p = filepath.Join(homeDir, (*p)[1:])
		}
	}

	return &cfg, nil
}

// setDefaults registers every default value on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.records_path", filepath.Join(DataDir(), "records"))
	v.SetDefault("store.blobs_path", filepath.Join(DataDir(), "blobs"))
	v.SetDefault("export.jpeg_quality", DefaultJPEGQuality)
	v.SetDefault("export.include_history", DefaultIncludeHistory)
	v.SetDefault("export.output_dir", "")
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", DefaultComponentLevels)
}

// DataDir returns the data directory for stores, under the XDG data home.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "dearly")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "dearly"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "dearly"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}
