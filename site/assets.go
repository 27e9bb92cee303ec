package site

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iedon/slotmerge/fsutil"
)

// syncAssets mirrors non-page files into the output tree, copying only those
// whose content differs. It returns the number of files copied.
func (s *Service) syncAssets() int {
	copied := 0
	err := s.walkAssets(func(src, rel string) {
		dst := filepath.Join(s.outDir, rel)
		if _, err := os.Stat(dst); err == nil {
			same, err := fsutil.SameContent(src, dst)
			if err == nil && same {
				return
			}
		}
		if err := fsutil.CopyFile(src, dst); err != nil {
			s.logger.Warn("Asset copy failed", "asset", filepath.ToSlash(rel), "error", err)
			return
		}
		copied++
		s.logger.Info("Copied", "asset", filepath.ToSlash(rel))
	})
	if err != nil {
		s.logger.Warn("Asset walk failed", "error", err)
	}
	return copied
}

// walkAssets calls fn for every asset below the source root with its path
// relative to that root. The output tree is skipped when it is nested in
// the source tree.
func (s *Service) walkAssets(fn func(src, rel string)) error {
	return filepath.WalkDir(s.srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.srcDir {
				return err
			}
			s.logger.Debug("Skip unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != s.srcDir && s.isOutputDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.hasPageExt(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.srcDir, path)
		if err != nil {
			return nil
		}
		fn(path, rel)
		return nil
	})
}

func (s *Service) isOutputDir(path string) bool {
	return pathsEquivalent(path, s.outDir)
}

// removeOutput deletes the output artifact mirroring a removed source path.
// It reports whether anything was removed.
func (s *Service) removeOutput(path string) bool {
	if s.matchesLayout(path) {
		return false
	}
	rel, ok := s.relToSource(path)
	if !ok {
		s.logger.Debug("Ignore removal outside source", "path", path)
		return false
	}
	target := filepath.Join(s.outDir, rel)
	if !strings.HasPrefix(target, s.outDir+string(filepath.Separator)) {
		return false
	}
	info, err := os.Lstat(target)
	if err != nil {
		return false
	}
	if info.IsDir() {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		s.logger.Warn("Remove output failed", "path", filepath.ToSlash(rel), "error", err)
		return false
	}
	s.logger.Info("Removed", "path", filepath.ToSlash(rel))
	return true
}
