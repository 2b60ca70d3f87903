package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "rmps"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "RMPS"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
// It uses the global viper instance so cobra flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the config file (if any), environment
// variables, and defaults, then validates the result.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// addConfigPaths registers the directories searched for a config file.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "rmps"))
	}
	l.v.AddConfigPath("/etc/rmps")
}

// setupEnvironmentVariables configures RMPS_* environment overrides,
// e.g. RMPS_EXTRACTION_MIN_CONFIDENCE=0.9.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)

	l.v.SetDefault("database.path", defaults.Database.Path)
	l.v.SetDefault("storage.base_dir", defaults.Storage.BaseDir)

	l.v.SetDefault("extraction.barcode_enabled", defaults.Extraction.BarcodeEnabled)
	l.v.SetDefault("extraction.barcode_format", defaults.Extraction.BarcodeFormat)
	l.v.SetDefault("extraction.ocr_enabled", defaults.Extraction.OCREnabled)
	l.v.SetDefault("extraction.min_confidence", defaults.Extraction.MinConfidence)
	l.v.SetDefault("extraction.ocr_resize_width", defaults.Extraction.OCRResizeWidth)
	l.v.SetDefault("extraction.ocr_resize_height", defaults.Extraction.OCRResizeHeight)
	l.v.SetDefault("extraction.ocr_region.left", defaults.Extraction.OCRRegion.Left)
	l.v.SetDefault("extraction.ocr_region.top", defaults.Extraction.OCRRegion.Top)
	l.v.SetDefault("extraction.ocr_region.right", defaults.Extraction.OCRRegion.Right)
	l.v.SetDefault("extraction.ocr_region.bottom", defaults.Extraction.OCRRegion.Bottom)

	l.v.SetDefault("batch.workers", defaults.Batch.Workers)
	l.v.SetDefault("batch.document_timeout_sec", defaults.Batch.DocumentTimeout)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
}
