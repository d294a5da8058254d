package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds input/output paths and preview, server and logging settings.
type Config struct {
	// Paths
	BaseDir   string `yaml:"base_dir"`
	OutputDir string `yaml:"output_dir"`

	// Preview settings
	PreviewSize int     `yaml:"preview_size"`
	Supersample int     `yaml:"supersample"`
	Workers     int     `yaml:"workers"`
	Format      string  `yaml:"format"`
	Yaw         float64 `yaml:"yaw"`
	Pitch       float64 `yaml:"pitch"`

	// Server
	Listen string `yaml:"listen"`

	LogLevel string `yaml:"log_level"`
}

// Load reads a YAML (or JSON) config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Size > 0 {
		c.PreviewSize = flags.Size
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Listen != "" {
		c.Listen = flags.Listen
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}

	// Resolve relative paths against base dir
	if c.OutputDir == "" {
		c.OutputDir = c.BaseDir
	} else if !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(c.BaseDir, c.OutputDir)
	}

	// Defaults for preview settings
	if c.PreviewSize <= 0 {
		c.PreviewSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = "webp"
	}
	if c.Yaw == 0 && c.Pitch == 0 {
		c.Yaw, c.Pitch = 12, -15
	}

	if c.Listen == "" {
		c.Listen = "127.0.0.1:8087"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir string
	Size      int
	Workers   int
	Format    string
	Listen    string
	LogLevel  string
}
