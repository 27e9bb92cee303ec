package site

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

type buildPlan struct {
	full    bool
	reason  string
	pages   []page
	removed []string
}

// plan decides between a full and a partial rebuild for a batch of changed
// paths. A nil or empty batch always yields a full rebuild.
func (s *Service) plan(changes []string) (buildPlan, error) {
	var p buildPlan
	if len(changes) == 0 {
		p.full, p.reason = true, "initial build"
	}

	seen := make(map[string]struct{}, len(changes))
	for _, change := range changes {
		if s.matchesLayout(s.absolute(change)) {
			p.full, p.reason = true, "layout changed"
			continue
		}
		if s.missingWithRetry(change) {
			p.removed = append(p.removed, s.absolute(change))
			if !p.full {
				p.full, p.reason = true, "path removed"
			}
			continue
		}
		path, ok := s.resolvePage(change)
		if !ok {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		p.pages = append(p.pages, s.newPage(path))
	}

	if !p.full {
		all, err := s.listPages()
		if err != nil {
			return p, err
		}
		for _, pg := range all {
			if _, err := os.Stat(pg.OutputPath); err != nil {
				p.full, p.reason = true, fmt.Sprintf("output missing for %s", pg.Name)
				break
			}
		}
	}

	if p.full {
		all, err := s.listPages()
		if err != nil {
			return p, err
		}
		p.pages = all
		return p, nil
	}

	slices.SortFunc(p.pages, func(a, b page) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return p, nil
}

// listPages returns every page directly under the source root, sorted by
// file name.
func (s *Service) listPages() ([]page, error) {
	entries, err := os.ReadDir(s.srcDir)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	var pages []page
	for _, entry := range entries {
		if entry.IsDir() || !s.isPageName(entry.Name()) {
			continue
		}
		pages = append(pages, s.newPage(filepath.Join(s.srcDir, entry.Name())))
	}
	return pages, nil
}

func (s *Service) newPage(source string) page {
	name := filepath.Base(source)
	return page{
		Name:       name,
		Source:     source,
		OutputPath: filepath.Join(s.outDir, name),
	}
}
