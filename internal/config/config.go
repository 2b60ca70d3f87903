// Package config defines the process-wide configuration for the sheet
// identifier extraction engine and loads it from files, environment
// variables, and defaults. Components receive the relevant sub-struct at
// construction time; nothing reads configuration after startup.
package config

import (
	"fmt"
	"strings"
)

// Config is the complete configuration for the rmps application.
type Config struct {
	LogLevel   string           `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database" json:"database"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage" json:"storage"`
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction" json:"extraction"`
	Batch      BatchConfig      `mapstructure:"batch" yaml:"batch" json:"batch"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server" json:"server"`
}

// DatabaseConfig locates the relational store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// StorageConfig locates the scanned image files.
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir" json:"base_dir"`
}

// ROIConfig is the OCR region of interest, in pixels of the resized scan.
type ROIConfig struct {
	Left   int `mapstructure:"left" yaml:"left" json:"left"`
	Top    int `mapstructure:"top" yaml:"top" json:"top"`
	Right  int `mapstructure:"right" yaml:"right" json:"right"`
	Bottom int `mapstructure:"bottom" yaml:"bottom" json:"bottom"`
}

// ExtractionConfig controls the barcode/OCR extraction pipeline.
type ExtractionConfig struct {
	BarcodeEnabled  bool      `mapstructure:"barcode_enabled" yaml:"barcode_enabled" json:"barcode_enabled"`
	BarcodeFormat   string    `mapstructure:"barcode_format" yaml:"barcode_format" json:"barcode_format"`
	OCREnabled      bool      `mapstructure:"ocr_enabled" yaml:"ocr_enabled" json:"ocr_enabled"`
	MinConfidence   float64   `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	OCRResizeWidth  int       `mapstructure:"ocr_resize_width" yaml:"ocr_resize_width" json:"ocr_resize_width"`
	OCRResizeHeight int       `mapstructure:"ocr_resize_height" yaml:"ocr_resize_height" json:"ocr_resize_height"`
	OCRRegion       ROIConfig `mapstructure:"ocr_region" yaml:"ocr_region" json:"ocr_region"`
}

// BatchConfig controls batch fan-out.
type BatchConfig struct {
	Workers         int `mapstructure:"workers" yaml:"workers" json:"workers"`
	DocumentTimeout int `mapstructure:"document_timeout_sec" yaml:"document_timeout_sec" json:"document_timeout_sec"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin  string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec  int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// DefaultConfig returns the configuration used when nothing else overrides
// it. The resize geometry corresponds to an A4 sheet scanned at 200 dpi,
// with the ID strip printed across the top of the page.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{Path: "rmps.db"},
		Storage:  StorageConfig{BaseDir: "data/scans"},
		Extraction: ExtractionConfig{
			BarcodeEnabled:  true,
			BarcodeFormat:   "code128",
			OCREnabled:      true,
			MinConfidence:   0.80,
			OCRResizeWidth:  1654,
			OCRResizeHeight: 2339,
			OCRRegion:       ROIConfig{Left: 413, Top: 100, Right: 1240, Bottom: 320},
		},
		Batch: BatchConfig{
			Workers:         5,
			DocumentTimeout: 30,
		},
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8080,
			CORSOrigin:  "*",
			MaxUploadMB: 50,
			TimeoutSec:  60,
		},
	}
}

// Validate checks the configuration for values that would only fail later,
// deep inside a batch run.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Extraction.MinConfidence < 0.0 || c.Extraction.MinConfidence > 1.0 {
		return fmt.Errorf("invalid extraction.min_confidence: %f (must be between 0.0 and 1.0)", c.Extraction.MinConfidence)
	}
	if c.Extraction.OCRResizeWidth <= 0 || c.Extraction.OCRResizeHeight <= 0 {
		return fmt.Errorf("invalid OCR resize dimensions: %dx%d (must be positive)",
			c.Extraction.OCRResizeWidth, c.Extraction.OCRResizeHeight)
	}
	roi := c.Extraction.OCRRegion
	if roi.Right < roi.Left || roi.Bottom < roi.Top {
		return fmt.Errorf("invalid OCR region: (%d,%d)-(%d,%d) is inverted", roi.Left, roi.Top, roi.Right, roi.Bottom)
	}
	if !c.Extraction.BarcodeEnabled && !c.Extraction.OCREnabled {
		return fmt.Errorf("at least one of extraction.barcode_enabled and extraction.ocr_enabled must be set")
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	if c.Batch.DocumentTimeout <= 0 {
		return fmt.Errorf("invalid batch document timeout: %d (must be positive)", c.Batch.DocumentTimeout)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid server timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
