package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iedon/slotmerge/fsutil"
	"github.com/iedon/slotmerge/slot"
)

// Build runs one pass of the pipeline. changes lists the paths reported by
// the watcher since the previous build; nil requests a full build.
func (s *Service) Build(ctx context.Context, changes []string) Report {
	start := time.Now()
	var report Report

	finish := func() Report {
		report.Duration = time.Since(start)
		ms := report.Duration.Milliseconds()
		if report.Err != nil {
			s.logger.Error("Build aborted", "error", report.Err, "ms", humanize.Comma(ms))
			return report
		}
		s.logger.Info(fmt.Sprintf("Build complete in %s ms", humanize.Comma(ms)),
			"full", report.Full,
			"built", report.Built,
			"unchanged", report.Unchanged,
			"failed", report.Failed,
			"copied", report.Copied,
			"removed", report.Removed,
		)
		return report
	}

	if err := ctx.Err(); err != nil {
		report.Err = err
		return finish()
	}

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		report.Err = fmt.Errorf("create output dir: %w", err)
		return finish()
	}

	layoutBytes, err := os.ReadFile(s.layoutPath)
	if err != nil {
		report.Err = fmt.Errorf("%w: %v", ErrLayoutNotFound, err)
		return finish()
	}
	layout := string(layoutBytes)

	cat, err := slot.Discover(layout)
	if err != nil {
		report.Err = fmt.Errorf("discover slots: %w", err)
		return finish()
	}
	s.reportCatalog(cat)

	plan, err := s.plan(changes)
	if err != nil {
		report.Err = err
		return finish()
	}
	report.Full = plan.full
	report.Pages = len(plan.pages)
	if plan.full {
		s.logger.Debug("Full rebuild", "reason", plan.reason, "pages", len(plan.pages))
	} else {
		s.logger.Debug("Partial rebuild", "pages", len(plan.pages))
	}

	for _, path := range plan.removed {
		if s.removeOutput(path) {
			report.Removed++
		}
	}

	for _, pg := range plan.pages {
		written, normalized, err := s.buildPage(layout, cat, pg)
		if normalized {
			report.Normalized++
		}
		if err != nil {
			report.Failed++
			s.logPageError(err)
			continue
		}
		if written {
			report.Built++
		} else {
			report.Unchanged++
		}
	}

	report.Copied = s.syncAssets()
	return finish()
}

func (s *Service) reportCatalog(cat *slot.Catalog) {
	if cat.Len() == 0 {
		s.logger.Warn("Layout declares no slots", "layout", s.cfg.LayoutFile)
	}
	for _, name := range cat.Duplicates {
		s.logger.Warn("Duplicate slot name in layout, later declaration ignored", "slot", name)
	}
	for _, name := range cat.InvalidModes {
		s.logger.Warn("Unrecognised slot-mode, using html", "slot", name)
	}
}

// buildPage normalizes one page in place and writes its merged output. It
// reports whether the output file was written and whether the page source
// was rewritten.
func (s *Service) buildPage(layout string, cat *slot.Catalog, pg page) (bool, bool, error) {
	raw, err := os.ReadFile(pg.Source)
	if err != nil {
		return false, false, &PageError{Page: pg.Name, Err: fmt.Errorf("read page: %w", err)}
	}
	original := string(raw)

	providers, err := slot.Extract(slot.ToLF(original))
	if err != nil {
		return false, false, &PageError{Page: pg.Name, Err: fmt.Errorf("extract slots: %w", err)}
	}
	if unknown := cat.Unknown(providers); len(unknown) > 0 {
		return false, false, &PageError{Page: pg.Name, Slots: unknown, Err: ErrUnknownSlot}
	}

	norm := slot.Normalize(cat, providers, original)
	if len(norm.Missing) > 0 {
		s.logger.Info("AutoAdd missing slots", "page", pg.Name, "slots", norm.Missing)
	}
	if norm.Reordered {
		s.logger.Info("Reorder slots to layout order", "page", pg.Name)
	}

	normalized := false
	if norm.Changed {
		wrote, err := fsutil.WriteIfChanged(pg.Source, []byte(norm.Text))
		if err != nil {
			return false, false, &PageError{Page: pg.Name, Err: fmt.Errorf("rewrite page: %w", err)}
		}
		if wrote {
			normalized = true
			s.logger.Info("Normalize wrote", "page", pg.Name)
		}
	}

	merged, unlocated, err := slot.Merge(layout, cat, norm.Resolved, s.renderer.RenderMarkdown)
	if err != nil {
		return false, normalized, &PageError{Page: pg.Name, Err: err}
	}
	if len(unlocated) > 0 {
		s.logger.Warn("Slot tag not found in layout text, left unfilled", "page", pg.Name, "slots", unlocated)
	}
	out, err := s.renderer.MinifyHTML([]byte(merged))
	if err != nil {
		return false, normalized, &PageError{Page: pg.Name, Err: fmt.Errorf("minify: %w", err)}
	}

	wrote, err := fsutil.WriteIfChanged(pg.OutputPath, out)
	if err != nil {
		return false, normalized, &PageError{Page: pg.Name, Err: fmt.Errorf("write output: %w", err)}
	}
	if wrote {
		s.logger.Info("Built", "page", pg.Name, "output", filepath.Join(filepath.Base(s.outDir), pg.Name))
	} else {
		s.logger.Debug("Unchanged", "page", pg.Name)
	}
	return wrote, normalized, nil
}

func (s *Service) logPageError(err error) {
	var pe *PageError
	if errors.As(err, &pe) {
		if len(pe.Slots) > 0 {
			s.logger.Error("Page build failed", "page", pe.Page, "slots", pe.Slots, "error", pe.Err)
			return
		}
		s.logger.Error("Page build failed", "page", pe.Page, "error", pe.Err)
		return
	}
	s.logger.Error("Page build failed", "error", err)
}
