// Package watch turns a stream of filesystem change notifications into
// debounced rebuilds.
//
// Typical usage:
//
//	sched := watch.New(svc, watch.Options{Root: svc.SourceDir(), Debounce: 150 * time.Millisecond})
//	src, _ := watch.NewSource(svc.SourceDir(), sched, logger)
//	go src.Run(ctx)
//	sched.Run(ctx)
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/iedon/slotmerge/site"
)

// DefaultDebounce is the quiet period used when Options.Debounce is unset.
const DefaultDebounce = 150 * time.Millisecond

// Builder runs one build for a batch of changed paths.
type Builder interface {
	Build(ctx context.Context, changes []string) site.Report
}

// Options tunes the scheduler.
type Options struct {
	// Root resolves relative notification paths. Default: working directory.
	Root string
	// Debounce is the quiet period after the last notification before a
	// build fires. Default: DefaultDebounce.
	Debounce time.Duration
	// TransientSuffixes lists path suffixes, such as editor temp files, that
	// never schedule a build. Matched case-insensitively.
	TransientSuffixes []string
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Root != "" {
		if abs, err := filepath.Abs(o.Root); err == nil {
			o.Root = abs
		}
	}
}

// Stats are point-in-time counters.
type Stats struct {
	Notifications int64
	Dropped       int64
	Builds        int64
	Failures      int64
}

// Scheduler coalesces notifications and invokes the builder once per quiet
// period. The pending set is the only state shared with producers.
type Scheduler struct {
	builder Builder
	opts    Options

	mu        sync.Mutex
	pending   map[string]struct{}
	lastEvent time.Time
	wake      chan struct{}

	notifications atomic.Int64
	dropped       atomic.Int64
	builds        atomic.Int64
	failures      atomic.Int64
}

// New creates a Scheduler. Call Run to start the consumer loop.
func New(builder Builder, opts Options) *Scheduler {
	opts.defaults()
	return &Scheduler{
		builder: builder,
		opts:    opts,
		pending: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Stats returns the current counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Notifications: s.notifications.Load(),
		Dropped:       s.dropped.Load(),
		Builds:        s.builds.Load(),
		Failures:      s.failures.Load(),
	}
}

// Notify records a changed path. It reports false when the path was
// dropped as a transient write.
func (s *Scheduler) Notify(path string) bool {
	if s.transient(path) {
		s.dropped.Add(1)
		return false
	}
	key := s.normalize(path)

	s.mu.Lock()
	s.pending[key] = struct{}{}
	s.lastEvent = time.Now()
	s.mu.Unlock()
	s.notifications.Add(1)

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Pending returns the number of paths waiting for the next build.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run blocks until ctx is cancelled, firing one build per debounce window
// that closes with pending changes. A build in progress always completes.
func (s *Scheduler) Run(ctx context.Context) {
	log := s.opts.Logger
	log.Info("watch: started", "debounce", s.opts.Debounce)

	for {
		wait := s.opts.Debounce
		s.mu.Lock()
		n, last := len(s.pending), s.lastEvent
		s.mu.Unlock()
		if n > 0 {
			elapsed := time.Since(last)
			if elapsed >= s.opts.Debounce {
				s.flush(ctx)
				continue
			}
			wait = s.opts.Debounce - elapsed
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("watch: stopped")
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) flush(ctx context.Context) {
	changes := s.drain()
	if len(changes) == 0 {
		return
	}
	s.opts.Logger.Debug("watch: rebuilding", "changes", len(changes))
	report := s.builder.Build(ctx, changes)
	s.builds.Add(1)
	if !report.OK() {
		s.failures.Add(1)
	}
}

func (s *Scheduler) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	changes := make([]string, 0, len(s.pending))
	for path := range s.pending {
		changes = append(changes, path)
	}
	clear(s.pending)
	sort.Strings(changes)
	return changes
}

func (s *Scheduler) transient(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range s.opts.TransientSuffixes {
		if suffix != "" && strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// normalize makes path absolute against Root, resolves symlinks when the
// path still exists and converts it to NFC so that one file reported under
// different spellings collapses to a single pending entry.
func (s *Scheduler) normalize(path string) string {
	if !filepath.IsAbs(path) {
		if s.opts.Root != "" {
			path = filepath.Join(s.opts.Root, path)
		} else if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return norm.NFC.String(path)
}
