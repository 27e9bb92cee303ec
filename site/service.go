package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/iedon/slotmerge/config"
	"github.com/iedon/slotmerge/renderer"
)

const (
	missingRetries    = 3
	missingRetryDelay = 10 * time.Millisecond
)

// Service orchestrates slot discovery, page normalization, merging and
// asset synchronisation for one source tree.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	renderer *renderer.Renderer

	srcDir     string
	outDir     string
	layoutPath string

	retries    int
	retryDelay time.Duration
}

// New validates the source tree and constructs a Service. It returns
// ErrSourceNotFound or ErrLayoutNotFound before touching the output tree.
func New(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(cfg.SourceDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, cfg.SourceDir)
	}
	srcDir, err := canonicalPath(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source dir: %w", err)
	}

	layoutPath := filepath.Join(srcDir, cfg.LayoutFile)
	if info, err := os.Stat(layoutPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, filepath.Join(cfg.SourceDir, cfg.LayoutFile))
	}

	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}

	return &Service{
		cfg:    cfg,
		logger: logger,
		renderer: renderer.New(renderer.Options{
			ClassPrefix: cfg.Markdown.HighlightPrefix,
			Minify:      cfg.MinifyOutput,
		}),
		srcDir:     srcDir,
		outDir:     outDir,
		layoutPath: layoutPath,
		retries:    missingRetries,
		retryDelay: missingRetryDelay,
	}, nil
}

// SourceDir returns the canonical source root.
func (s *Service) SourceDir() string {
	return s.srcDir
}

// OutputDir returns the absolute output root.
func (s *Service) OutputDir() string {
	return s.outDir
}

// LayoutPath returns the canonical layout file path.
func (s *Service) LayoutPath() string {
	return s.layoutPath
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
