// Package config provides XML-based configuration management for the converter server.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"PDFConverter"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int     `xml:"Port"`
	BindAddress       string  `xml:"BindAddress"`
	PublicBaseURL     string  `xml:"PublicBaseURL"` // prefix for download URLs; empty means relative
	EnableCORS        bool    `xml:"EnableCORS"`
	AllowOrigins      string  `xml:"AllowOrigins"`
	ReadHeaderTimeout int     `xml:"ReadHeaderTimeoutSeconds"`
	ReadTimeout       int     `xml:"ReadTimeoutSeconds"`  // whole request, upload body included
	WriteTimeout      int     `xml:"WriteTimeoutSeconds"` // raised to ReadTimeout if lower
	IdleTimeout       int     `xml:"IdleTimeoutSeconds"`
	BodyLimit         string  `xml:"BodyLimit"`
	RateLimit         float64 `xml:"RequestsPerSecond"` // 0 disables rate limiting
	RateBurst         int     `xml:"RequestBurst"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory      string `xml:"DataDirectory"`
	UploadsDirectory   string `xml:"UploadsDirectory"`
	ConvertedDirectory string `xml:"ConvertedDirectory"`
	UseTempDir         bool   `xml:"UseTempDirectory"` // place both areas under os.TempDir()
	MaxUploadSizeMB    int64  `xml:"MaxUploadSizeMB"`
}

// ProcessingConfig contains conversion and cleanup settings
type ProcessingConfig struct {
	MaxConcurrentConversions int  `xml:"MaxConcurrentConversions"`
	MinDelayMillis           int  `xml:"MinDelayMillis"`
	MaxDelayMillis           int  `xml:"MaxDelayMillis"`
	SweepIntervalMinutes     int  `xml:"SweepIntervalMinutes"`
	RetentionHours           int  `xml:"RetentionHours"`
	SweepUploads             bool `xml:"SweepUploads"`
	JobRetentionMinutes      int  `xml:"JobRetentionMinutes"`
	EnableCompression        bool `xml:"EnableCompression"`
	CompressionLevel         int  `xml:"CompressionLevel"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFormat            string `xml:"LogFormat"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:              3000,
			BindAddress:       "0.0.0.0",
			EnableCORS:        true,
			AllowOrigins:      "*",
			ReadHeaderTimeout: 30,
			ReadTimeout:       900,
			WriteTimeout:      1200,
			IdleTimeout:       120,
			BodyLimit:         "1G",
			RateLimit:         20,
			RateBurst:         40,
		},
		Storage: StorageConfig{
			DataDirectory:      "./data",
			UploadsDirectory:   "./data/uploads",
			ConvertedDirectory: "./data/converted",
			MaxUploadSizeMB:    50,
		},
		Processing: ProcessingConfig{
			MaxConcurrentConversions: 1,
			MinDelayMillis:           1000,
			MaxDelayMillis:           5000,
			SweepIntervalMinutes:     60,
			RetentionHours:           24,
			SweepUploads:             true,
			JobRetentionMinutes:      30,
			EnableCompression:        true,
			CompressionLevel:         5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "text",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- PDF to Word Converter Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		c.Server.PublicBaseURL = base
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.ConvertedDirectory = filepath.Join(dataDir, "converted")
	}
	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		c.Storage.UploadsDirectory = dir
	}
	if dir := os.Getenv("CONVERTED_DIR"); dir != "" {
		c.Storage.ConvertedDirectory = dir
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location.
// In temp-dir mode the areas live under os.TempDir() instead.
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Storage.UseTempDir {
		c.Storage.UploadsDirectory = filepath.Join(os.TempDir(), "uploads")
		c.Storage.ConvertedDirectory = filepath.Join(os.TempDir(), "converted")
	}
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.UploadsDirectory) {
		c.Storage.UploadsDirectory = filepath.Join(configDir, c.Storage.UploadsDirectory)
	}
	if !filepath.IsAbs(c.Storage.ConvertedDirectory) {
		c.Storage.ConvertedDirectory = filepath.Join(configDir, c.Storage.ConvertedDirectory)
	}
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetConvertedDir returns the absolute converted directory path
func (c *AppConfig) GetConvertedDir() string {
	return c.Storage.ConvertedDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// Timeouts holds the http.Server timeouts derived from the config.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

// ServerTimeouts returns the HTTP server timeouts. The read timeout covers the
// whole upload body, so the write timeout, which starts at the same moment, is
// never allowed below it.
func (c *AppConfig) ServerTimeouts() Timeouts {
	seconds := func(v, def int) time.Duration {
		if v <= 0 {
			v = def
		}
		return time.Duration(v) * time.Second
	}
	t := Timeouts{
		ReadHeader: seconds(c.Server.ReadHeaderTimeout, 30),
		Read:       seconds(c.Server.ReadTimeout, 900),
		Write:      seconds(c.Server.WriteTimeout, 1200),
		Idle:       seconds(c.Server.IdleTimeout, 120),
	}
	if t.Write < t.Read {
		t.Write = t.Read
	}
	return t
}

// MaxUploadBytes returns the per-file upload limit in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	if c.Storage.MaxUploadSizeMB <= 0 {
		return 50 << 20
	}
	return c.Storage.MaxUploadSizeMB << 20
}

// SweepInterval returns how often stale temporary files are swept.
func (c *AppConfig) SweepInterval() time.Duration {
	if c.Processing.SweepIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Processing.SweepIntervalMinutes) * time.Minute
}

// Retention returns the age after which temporary files are deleted.
func (c *AppConfig) Retention() time.Duration {
	if c.Processing.RetentionHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Processing.RetentionHours) * time.Hour
}

// SweepDirs returns the storage areas the sweep should visit.
func (c *AppConfig) SweepDirs() []string {
	if c.Processing.SweepUploads {
		return []string{c.Storage.UploadsDirectory, c.Storage.ConvertedDirectory}
	}
	return []string{c.Storage.ConvertedDirectory}
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.ConvertedDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
