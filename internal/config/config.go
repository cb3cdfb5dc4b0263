package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"parkan-material/internal/material"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	BaseDir        string `json:"base_dir"`
	ArchivePath    string `json:"archive"`         // material NRes archive
	TextureDir     string `json:"texture_dir"`     // loose texture images
	TextureArchive string `json:"texture_archive"` // NRes archive of TEXM textures
	OutputDir      string `json:"output_dir"`

	// Table and environment
	TableCapacity int  `json:"table_capacity"`
	BumpMapping   bool `json:"bump_mapping"`
	TextureMode6  bool `json:"texture_mode6"`
	Strict        bool `json:"strict"`

	// Render settings
	SwatchSize  int `json:"swatch_size"`
	Supersample int `json:"supersample"`
	Frames      int `json:"frames"`
	FrameStepMs int `json:"frame_step_ms"`
	Workers     int `json:"workers"`

	LogLevel string `json:"log_level"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Archive != "" {
		c.ArchivePath = flags.Archive
	}
	if flags.TextureDir != "" {
		c.TextureDir = flags.TextureDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	// Relative paths are taken against the base dir
	c.ArchivePath = c.abs(c.ArchivePath)
	c.TextureDir = c.abs(c.TextureDir)
	c.TextureArchive = c.abs(c.TextureArchive)
	c.OutputDir = c.abs(c.OutputDir)

	if c.OutputDir == "" && c.ArchivePath != "" {
		stem := strings.TrimSuffix(filepath.Base(c.ArchivePath), filepath.Ext(c.ArchivePath))
		c.OutputDir = filepath.Join(filepath.Dir(c.ArchivePath), stem+"-swatches")
	}
	if c.TextureDir == "" && c.ArchivePath != "" {
		c.TextureDir = filepath.Dir(c.ArchivePath)
	}

	if c.TableCapacity <= 0 {
		c.TableCapacity = material.DefaultCapacity
	}
	if c.SwatchSize <= 0 {
		c.SwatchSize = 64
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Frames <= 0 {
		c.Frames = 8
	}
	if c.FrameStepMs <= 0 {
		c.FrameStepMs = 100
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Environment returns the graphics capabilities used to decode materials.
func (c *Config) Environment() material.Environment {
	return material.Environment{BumpMapping: c.BumpMapping, TextureMode6: c.TextureMode6}
}

// FrameStep returns the animation time between rendered frames.
func (c *Config) FrameStep() time.Duration {
	return time.Duration(c.FrameStepMs) * time.Millisecond
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Archive    string
	TextureDir string
	OutputDir  string
	Workers    int
	LogLevel   string
}
