package entities

import (
	"fmt"
	"time"
)

// NavigationError - the target URL could not be loaded in time
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError - a locator resolved to zero or several visible elements
type ElementNotFoundError struct {
	Locator    Locator
	Matches    int
	OutOfRange bool
}

// Ambiguous - more than one visible element matched and none was pinned
func (e *ElementNotFoundError) Ambiguous() bool {
	return !e.OutOfRange && e.Matches > 1
}

func (e *ElementNotFoundError) Error() string {
	switch {
	case e.OutOfRange:
		return fmt.Sprintf("element %s: index out of range, %d visible matches", e.Locator, e.Matches)
	case e.Ambiguous():
		return fmt.Sprintf("element %s is ambiguous: %d visible matches", e.Locator, e.Matches)
	default:
		return fmt.Sprintf("element %s not found", e.Locator)
	}
}

// TimeoutError - a visibility or load-state wait exceeded its budget
type TimeoutError struct {
	What    string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.What)
	}
	return fmt.Sprintf("timed out after %s waiting for %s: %v", e.Timeout, e.What, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// LayoutUnavailableError - the element has no rendered box to interact with
type LayoutUnavailableError struct {
	Locator Locator
	Box     *BoundingBox
}

func (e *LayoutUnavailableError) Error() string {
	if e.Box == nil {
		return fmt.Sprintf("element %s has no bounding box", e.Locator)
	}
	return fmt.Sprintf("element %s is not laid out (%vx%v)", e.Locator, e.Box.Width, e.Box.Height)
}

// StepError ties a failure to the probe step that produced it
type StepError struct {
	Probe string
	Index int
	Kind  StepKind
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("probe %s: step %d (%s): %v", e.Probe, e.Index+1, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
