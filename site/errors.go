package site

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceNotFound signals a missing or non-directory source root.
	ErrSourceNotFound = errors.New("source directory not found")
	// ErrLayoutNotFound signals that the source root has no layout file.
	ErrLayoutNotFound = errors.New("layout file not found")
	// ErrUnknownSlot is wrapped by page errors naming slots the layout lacks.
	ErrUnknownSlot = errors.New("unknown slot")
)

// PageError reports why a single page was skipped.
type PageError struct {
	Page  string
	Slots []string
	Err   error
}

func (e *PageError) Error() string {
	if len(e.Slots) > 0 {
		return fmt.Sprintf("%s: %v: %s", e.Page, e.Err, strings.Join(e.Slots, ", "))
	}
	return fmt.Sprintf("%s: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
