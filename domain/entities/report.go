package entities

import "time"

// RunStatus represents the outcome of a probe run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Evidence is a screenshot written by a capture step
type Evidence struct {
	Path       string    `json:"path"`
	Bytes      int       `json:"bytes"`
	CapturedAt time.Time `json:"captured_at"`
}

// StepResult records how a single step went
type StepResult struct {
	Index       int           `json:"index"`
	Kind        StepKind      `json:"kind"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration"`
	Point       *Point        `json:"point,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Report summarises one probe run
type Report struct {
	Probe      string       `json:"probe"`
	Driver     string       `json:"driver"`
	Device     string       `json:"device"`
	Status     RunStatus    `json:"status"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepResult `json:"steps"`
	Evidence   []Evidence   `json:"evidence,omitempty"`
	MarkupDump string       `json:"markup_dump,omitempty"` // path of the failure markup file
	Error      string       `json:"error,omitempty"`
}

// LaunchOptions configures a browser session
type LaunchOptions struct {
	Device            Device
	Headless          bool
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration // scroll, box reads, screenshots and pointer input
}
