// Package config provides XML-based configuration management for air-gapped deployment.
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
	XMLName xml.Name `xml:"BidConverter"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Conversion inputs and rendering options
	Conversion ConversionConfig `xml:"Conversion"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	OutputDirectory  string `xml:"OutputDirectory"`
}

// ConversionConfig points at the reference material a conversion run reads.
type ConversionConfig struct {
	ToolchestDirectory string  `xml:"ToolchestDirectory"`
	GearIconsDirectory string  `xml:"GearIconsDirectory"`
	MappingFile        string  `xml:"MappingFile"`
	IconOverridesFile  string  `xml:"IconOverridesFile"`
	AppearancePDF      string  `xml:"AppearanceReferencePDF"`
	LayerPDF           string  `xml:"LayerReferencePDF"`
	RenderMode         string  `xml:"RenderMode"` // "compound" or "combined"
	FallbackWidth      float64 `xml:"FallbackWidth"`
	FallbackHeight     float64 `xml:"FallbackHeight"`
}

// ProcessingConfig contains retention and response settings
type ProcessingConfig struct {
	FileRetentionMinutes   int  `xml:"FileRetentionMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes"`
	EnableCompression      bool `xml:"EnableCompression"`
	CompressionLevel       int  `xml:"CompressionLevel"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowIconEditing bool   `xml:"AllowIconEditing"`
	AllowedFileTypes string `xml:"AllowedFileTypes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  120,
			WriteTimeout: 120,
			IdleTimeout:  120,
			BodyLimit:    "50M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/temp/uploads",
			OutputDirectory:  "./data/temp/output",
		},
		Conversion: ConversionConfig{
			ToolchestDirectory: "./toolchest",
			GearIconsDirectory: "./samples/icons/gearIcons",
			MappingFile:        "./data/mapping.md",
			IconOverridesFile:  "./data/icon_overrides.json",
			AppearancePDF:      "./samples/maps/DeploymentMap.pdf",
			LayerPDF:           "./samples/maps/LayerReference.pdf",
			RenderMode:         "compound",
			FallbackWidth:      28,
			FallbackHeight:     33.6,
		},
		Processing: ProcessingConfig{
			FileRetentionMinutes:   60,
			CleanupIntervalMinutes: 5,
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Security: SecurityConfig{
			AllowIconEditing: true,
			AllowedFileTypes: ".pdf",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
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

	header := []byte(xml.Header + "\n<!-- Bid Converter Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
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

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if toolchest := os.Getenv("TOOLCHEST_DIR"); toolchest != "" {
		c.Conversion.ToolchestDirectory = toolchest
	}

	if mode := os.Getenv("RENDER_MODE"); mode != "" {
		c.Conversion.RenderMode = mode
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	paths := []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.OutputDirectory,
		&c.Conversion.ToolchestDirectory,
		&c.Conversion.GearIconsDirectory,
		&c.Conversion.MappingFile,
		&c.Conversion.IconOverridesFile,
		&c.Conversion.AppearancePDF,
		&c.Conversion.LayerPDF,
	}
	for _, p := range paths {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// Retention returns how long uploaded and converted files are kept.
func (c *AppConfig) Retention() time.Duration {
	if c.Processing.FileRetentionMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Processing.FileRetentionMinutes) * time.Minute
}

// CleanupInterval returns the expiry sweep period.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Processing.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.OutputDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
