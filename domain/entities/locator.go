package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Locator describes how to find one element on the rendered page
type Locator struct {
	Role   string   `yaml:"role,omitempty" json:"role,omitempty"`     // ARIA role, explicit or implicit
	Name   string   `yaml:"name,omitempty" json:"name,omitempty"`     // accessible name filter for Role
	Text   string   `yaml:"text,omitempty" json:"text,omitempty"`     // visible text filter
	CSS    string   `yaml:"css,omitempty" json:"css,omitempty"`       // CSS selector
	Within *Locator `yaml:"within,omitempty" json:"within,omitempty"` // parent scope
	Index  *int     `yaml:"index,omitempty" json:"index,omitempty"`   // n-th visible match, -1 = last
	Exact  bool     `yaml:"exact,omitempty" json:"exact,omitempty"`
}

// ByRole - locator for an accessible role with an optional name
func ByRole(role, name string) Locator {
	return Locator{Role: role, Name: name}
}

// ByCSS - locator for a CSS selector
func ByCSS(css string) Locator {
	return Locator{CSS: css}
}

// ByText - locator for elements whose visible text contains text
func ByText(text string) Locator {
	return Locator{Text: text}
}

// In - returns a copy of the locator scoped to parent
func (l Locator) In(parent Locator) Locator {
	l.Within = &parent
	return l
}

// Nth - returns a copy of the locator pinned to the n-th visible match
func (l Locator) Nth(n int) Locator {
	l.Index = &n
	return l
}

// First - shorthand for Nth(0)
func (l Locator) First() Locator {
	return l.Nth(0)
}

// WithText - returns a copy filtered by visible text
func (l Locator) WithText(text string) Locator {
	l.Text = text
	return l
}

// ExactMatch - returns a copy matching Name and Text exactly
func (l Locator) ExactMatch() Locator {
	l.Exact = true
	return l
}

// Validate - checks that the locator selects something
func (l Locator) Validate() error {
	if l.Role == "" && l.CSS == "" && l.Text == "" {
		return errors.New("locator needs at least one of role, css or text")
	}
	if l.Name != "" && l.Role == "" {
		return fmt.Errorf("locator name %q requires a role", l.Name)
	}
	if l.Within != nil {
		if err := l.Within.Validate(); err != nil {
			return fmt.Errorf("within: %w", err)
		}
	}
	return nil
}

// WaitIndex - index of the match a visibility wait should observe
func (l Locator) WaitIndex() int {
	if l.Index == nil {
		return 0
	}
	return *l.Index
}

// Pick - chooses one entry out of the visible matches.
// Without a pinned index exactly one visible match is required.
func (l Locator) Pick(visible int) (int, error) {
	if l.Index == nil {
		if visible != 1 {
			return 0, &ElementNotFoundError{Locator: l, Matches: visible}
		}
		return 0, nil
	}

	idx := *l.Index
	if idx < 0 {
		idx += visible
	}
	if idx < 0 || idx >= visible {
		return 0, &ElementNotFoundError{Locator: l, Matches: visible, OutOfRange: true}
	}
	return idx, nil
}

// String - human readable form used in logs and errors
func (l Locator) String() string {
	var parts []string
	if l.Within != nil {
		parts = append(parts, l.Within.String(), ">>")
	}
	if l.CSS != "" {
		parts = append(parts, l.CSS)
	}
	if l.Role != "" {
		role := "role=" + l.Role
		if l.Name != "" {
			role += fmt.Sprintf("[name=%q]", l.Name)
		}
		parts = append(parts, role)
	}
	if l.Text != "" {
		parts = append(parts, fmt.Sprintf("has-text=%q", l.Text))
	}
	if l.Exact {
		parts = append(parts, "exact")
	}
	if l.Index != nil {
		parts = append(parts, fmt.Sprintf("nth=%d", *l.Index))
	}
	return strings.Join(parts, " ")
}
