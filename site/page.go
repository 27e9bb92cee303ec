package site

import (
	"time"
)

type page struct {
	Name       string
	Source     string
	OutputPath string
}

// Report summarizes one build.
type Report struct {
	Full       bool
	Pages      int
	Built      int
	Unchanged  int
	Normalized int
	Failed     int
	Copied     int
	Removed    int
	Duration   time.Duration
	// Err is set when the build could not start, e.g. an unreadable layout.
	Err error
}

// OK reports whether every page in the build succeeded.
func (r Report) OK() bool {
	return r.Err == nil && r.Failed == 0
}
