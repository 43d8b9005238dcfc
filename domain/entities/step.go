package entities

import (
	"errors"
	"fmt"
	"time"
)

// StepKind represents the type of step a probe can perform
type StepKind string

const (
	StepNavigate    StepKind = "navigate"
	StepWaitLoad    StepKind = "wait-load"
	StepLocate      StepKind = "locate"
	StepWaitVisible StepKind = "wait-visible"
	StepInteract    StepKind = "interact"
	StepCapture     StepKind = "capture"
)

// LoadState is a page-load condition
type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// InteractionKind represents a pointer gesture
type InteractionKind string

const (
	InteractionClick InteractionKind = "click"
	InteractionDrag  InteractionKind = "drag"
)

// Interaction describes where and how to dispatch a pointer gesture
type Interaction struct {
	Kind     InteractionKind `yaml:"kind" json:"kind"`
	At       Anchor          `yaml:"at,omitempty" json:"at,omitempty"`
	To       Anchor          `yaml:"to,omitempty" json:"to,omitempty"` // drag end
	Fraction float64         `yaml:"fraction,omitempty" json:"fraction,omitempty"`
}

// Click - click at anchor
func Click(at Anchor) *Interaction {
	return &Interaction{Kind: InteractionClick, At: at}
}

// Drag - press at from, release at to
func Drag(from, to Anchor) *Interaction {
	return &Interaction{Kind: InteractionDrag, At: from, To: to}
}

// Step represents a single probe step
type Step struct {
	Kind        StepKind      `yaml:"kind" json:"kind"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	URL         string        `yaml:"url,omitempty" json:"url,omitempty"`
	WaitUntil   LoadState     `yaml:"wait_until,omitempty" json:"wait_until,omitempty"`
	Locator     *Locator      `yaml:"locator,omitempty" json:"locator,omitempty"`
	Ref         string        `yaml:"ref,omitempty" json:"ref,omitempty"` // element stored by a locate step
	As          string        `yaml:"as,omitempty" json:"as,omitempty"`   // name to store a located element under
	Interaction *Interaction  `yaml:"interaction,omitempty" json:"interaction,omitempty"`
	Path        string        `yaml:"path,omitempty" json:"path,omitempty"`
	FullPage    bool          `yaml:"full_page,omitempty" json:"full_page,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Binds - whether the step stores the element it finds under As
func (s Step) Binds() bool {
	switch s.Kind {
	case StepLocate:
		return true
	case StepWaitVisible:
		return s.Locator != nil && s.Ref == ""
	}
	return false
}

// Validate - checks that the step carries what its kind needs
func (s Step) Validate() error {
	switch s.Kind {
	case StepNavigate:
		if s.URL == "" {
			return errors.New("navigate step needs a url")
		}
	case StepWaitLoad:
		switch s.WaitUntil {
		case LoadStateLoad, LoadStateDOMContentLoaded, LoadStateNetworkIdle:
		default:
			return fmt.Errorf("wait-load step has unknown state %q", s.WaitUntil)
		}
	case StepLocate:
		if s.Locator == nil {
			return errors.New("locate step needs a locator")
		}
		if s.As == "" {
			return errors.New("locate step needs a name in as")
		}
	case StepWaitVisible:
		if s.Locator == nil && s.Ref == "" {
			return errors.New("wait-visible step needs a locator or ref")
		}
	case StepInteract:
		if s.Locator == nil && s.Ref == "" {
			return errors.New("interact step needs a locator or ref")
		}
		if s.Interaction == nil {
			return errors.New("interact step needs an interaction")
		}
		switch s.Interaction.Kind {
		case InteractionClick:
		case InteractionDrag:
			if s.Interaction.To == "" {
				return errors.New("drag interaction needs a to anchor")
			}
		default:
			return fmt.Errorf("unknown interaction %q", s.Interaction.Kind)
		}
	case StepCapture:
		if s.Path == "" {
			return errors.New("capture step needs a path")
		}
	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}

	if s.As != "" && !s.Binds() {
		return fmt.Errorf("%s step cannot store an element as %q", s.Kind, s.As)
	}
	if s.Locator != nil {
		if err := s.Locator.Validate(); err != nil {
			return err
		}
	}
	if s.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", s.Timeout)
	}
	return nil
}

// Describe - short description for logs
func (s Step) Describe() string {
	if s.Description != "" {
		return s.Description
	}
	switch s.Kind {
	case StepNavigate:
		return "navigate to " + s.URL
	case StepWaitLoad:
		return "wait for " + string(s.WaitUntil)
	case StepLocate:
		return fmt.Sprintf("locate %s as %s", s.Locator, s.As)
	case StepWaitVisible:
		return "wait for " + s.target() + " to be visible"
	case StepInteract:
		if s.Interaction == nil {
			return "interact with " + s.target()
		}
		at := s.Interaction.At
		if at == "" {
			at = AnchorCenter
		}
		return fmt.Sprintf("%s %s at %s", s.Interaction.Kind, s.target(), at)
	case StepCapture:
		return "capture " + s.Path
	}
	return string(s.Kind)
}

func (s Step) target() string {
	if s.Ref != "" {
		return s.Ref
	}
	if s.Locator != nil {
		return s.Locator.String()
	}
	return "?"
}
