package entities

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Probe is one scripted navigate-locate-interact-capture sequence
type Probe struct {
	Name    string `yaml:"name" json:"name"`
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Device  string `yaml:"device,omitempty" json:"device,omitempty"` // empty = desktop viewport
	Steps   []Step `yaml:"steps" json:"steps"`
}

// Validate - checks the probe and each of its steps
func (p Probe) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("probe needs a name")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("probe %s has no steps", p.Name)
	}
	if p.Device != "" {
		if _, ok := LookupDevice(p.Device); !ok {
			return fmt.Errorf("probe %s: unknown device %q", p.Name, p.Device)
		}
	}

	named := make(map[string]bool)
	for i, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return &StepError{Probe: p.Name, Index: i, Kind: step.Kind, Err: err}
		}
		if step.Ref != "" && !named[step.Ref] {
			return &StepError{Probe: p.Name, Index: i, Kind: step.Kind,
				Err: fmt.Errorf("ref %q is not located by an earlier step", step.Ref)}
		}
		if step.As != "" && step.Binds() {
			named[step.As] = true
		}
	}
	return nil
}

// ResolveURL - resolves a step URL against the probe base URL
func (p Probe) ResolveURL(raw string) (string, error) {
	target, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if target.IsAbs() || p.BaseURL == "" {
		return target.String(), nil
	}

	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", p.BaseURL, err)
	}
	return base.ResolveReference(target).String(), nil
}
