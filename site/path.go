package site

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

func (s *Service) isLayoutName(name string) bool {
	return strings.EqualFold(name, s.cfg.LayoutFile)
}

func (s *Service) hasPageExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), s.cfg.PageExtension)
}

func (s *Service) isPageName(name string) bool {
	return s.hasPageExt(name) && !s.isLayoutName(name)
}

func pathsEquivalent(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	canonA, errA := filepath.EvalSymlinks(a)
	canonB, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && canonA == canonB
}

// matchesLayout reports whether path names the layout file, directly, via
// its canonical path, or by file name directly under the source root.
func (s *Service) matchesLayout(path string) bool {
	if pathsEquivalent(path, s.layoutPath) {
		return true
	}
	if !s.isLayoutName(filepath.Base(path)) {
		return false
	}
	parent := filepath.Dir(path)
	return pathsEquivalent(parent, s.srcDir) || pathsEquivalent(parent, s.cfg.SourceDir)
}

func (s *Service) absolute(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.srcDir, path)
}

// resolvePage maps a change notification to a page eligible for a partial
// rebuild.
func (s *Service) resolvePage(path string) (string, bool) {
	candidate := s.absolute(path)
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	}
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", false
	}
	if filepath.Dir(candidate) != s.srcDir {
		return "", false
	}
	if s.matchesLayout(candidate) || !s.isPageName(filepath.Base(candidate)) {
		return "", false
	}
	return candidate, true
}

// missingWithRetry tolerates editors that replace files via delete+create.
func (s *Service) missingWithRetry(path string) bool {
	candidate := s.absolute(path)
	if _, err := os.Lstat(candidate); err == nil {
		return false
	}
	for range s.retries {
		time.Sleep(s.retryDelay)
		if _, err := os.Lstat(candidate); err == nil {
			return false
		}
	}
	return true
}

// relToSource returns path relative to the source root, or false when path
// lies outside it.
func (s *Service) relToSource(path string) (string, bool) {
	rel, err := filepath.Rel(s.srcDir, s.absolute(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
