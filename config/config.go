package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultSourceDir     = "src"
	DefaultOutputDir     = "dist"
	DefaultLayoutFile    = "_layout.html"
	DefaultPageExtension = ".html"
	DefaultDebounceMs    = 150
)

// MarkdownConfig tunes the markdown fill mode.
type MarkdownConfig struct {
	HighlightPrefix string `json:"highlightPrefix"`
}

// Config encapsulates build and watch options.
type Config struct {
	SourceDir         string         `json:"sourceDir"`
	OutputDir         string         `json:"outputDir"`
	LayoutFile        string         `json:"layoutFile"`
	PageExtension     string         `json:"pageExtension"`
	Watch             bool           `json:"watch"`
	LogLevel          string         `json:"logLevel"`
	DebounceMs        int            `json:"debounceMs"`
	TransientSuffixes []string       `json:"transientSuffixes"`
	MinifyOutput      bool           `json:"minifyOutput"`
	Markdown          MarkdownConfig `json:"markdown"`
	Debounce          time.Duration  `json:"-"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.applyDefaults()
	return cfg
}

// Load reads configuration from disk and applies sane defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(bytes, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() error {
	c.SourceDir = strings.TrimSpace(c.SourceDir)
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	c.LayoutFile = strings.TrimSpace(c.LayoutFile)
	if c.LayoutFile == "" {
		c.LayoutFile = DefaultLayoutFile
	}
	c.PageExtension = strings.ToLower(strings.TrimSpace(c.PageExtension))
	if c.PageExtension == "" {
		c.PageExtension = DefaultPageExtension
	}
	if !strings.HasPrefix(c.PageExtension, ".") {
		c.PageExtension = "." + c.PageExtension
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DebounceMs <= 0 {
		c.DebounceMs = DefaultDebounceMs
	}
	if c.TransientSuffixes == nil {
		c.TransientSuffixes = []string{".tmp"}
	}
	c.Markdown.HighlightPrefix = strings.TrimSpace(c.Markdown.HighlightPrefix)
	if c.Markdown.HighlightPrefix == "" {
		c.Markdown.HighlightPrefix = "z-"
	}
	c.Debounce = time.Duration(c.DebounceMs) * time.Millisecond
	return nil
}

// Validate checks option consistency. It is exported so callers can
// re-validate after applying command-line overrides.
func (c *Config) Validate() error {
	var errs []error
	if filepath.Base(c.LayoutFile) != c.LayoutFile {
		errs = append(errs, fmt.Errorf("layoutFile must be a bare file name, got %q", c.LayoutFile))
	}
	if !strings.EqualFold(filepath.Ext(c.LayoutFile), c.PageExtension) {
		errs = append(errs, fmt.Errorf("layoutFile %q must use the page extension %q", c.LayoutFile, c.PageExtension))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logLevel %q", c.LogLevel))
	}
	if c.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("debounce must be positive"))
	}
	if sameDir(c.SourceDir, c.OutputDir) {
		errs = append(errs, fmt.Errorf("outputDir must differ from sourceDir"))
	}
	return errors.Join(errs...)
}

// SetDebounce overrides the debounce window.
func (c *Config) SetDebounce(d time.Duration) {
	if d <= 0 {
		return
	}
	c.Debounce = d
	c.DebounceMs = int(d / time.Millisecond)
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
