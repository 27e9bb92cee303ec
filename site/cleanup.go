package site

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iedon/slotmerge/fsutil"
)

// expectedOutputs lists, relative to the output root, every file a build of
// the current source tree produces.
func (s *Service) expectedOutputs() (map[string]struct{}, error) {
	expected := make(map[string]struct{})
	pages, err := s.listPages()
	if err != nil {
		return nil, err
	}
	for _, pg := range pages {
		expected[pg.Name] = struct{}{}
	}
	err = s.walkAssets(func(_, rel string) {
		expected[rel] = struct{}{}
	})
	if err != nil {
		return nil, fmt.Errorf("walk assets: %w", err)
	}
	return expected, nil
}

// Clean removes output files with no source counterpart, then prunes empty
// directories. It creates the output root when missing and returns the
// number of removed files.
func (s *Service) Clean() (int, error) {
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}
	expected, err := s.expectedOutputs()
	if err != nil {
		return 0, err
	}

	var stale []string
	err = filepath.WalkDir(s.outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.outDir, path)
		if err != nil {
			return nil
		}
		if _, ok := expected[rel]; !ok {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan output dir: %w", err)
	}

	removed := 0
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Cleanup failed", "path", path, "error", err)
			continue
		}
		removed++
		s.logger.Info("Cleanup removed", "path", filepath.ToSlash(mustRel(s.outDir, path)))
	}

	dirs, err := fsutil.RemoveEmptyDirs(s.outDir)
	if err != nil {
		return removed, fmt.Errorf("prune output dirs: %w", err)
	}
	for _, dir := range dirs {
		s.logger.Debug("Cleanup removed dir", "path", filepath.ToSlash(mustRel(s.outDir, dir)))
	}
	return removed, nil
}

func mustRel(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
