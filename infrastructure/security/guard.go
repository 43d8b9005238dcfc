package security

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"ui_probe/domain/entities"
	"ui_probe/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Guard keeps probes on the application under test and inside the artifact directory
type Guard struct {
	origin       *url.URL
	artifactDir  string
	allowForeign bool
	logger       *logrus.Logger
}

// NewGuard - baseURL is the application under test
func NewGuard(baseURL, artifactDir string, allowForeign bool, logger *logrus.Logger) (*Guard, error) {
	origin, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Guard{
		origin:       origin,
		artifactDir:  filepath.Clean(artifactDir),
		allowForeign: allowForeign,
		logger:       logger,
	}, nil
}

// Check - rejects navigation to other origins and captures outside the artifact directory
func (g *Guard) Check(probe entities.Probe) error {
	bound := make(map[string]entities.Locator)
	for i, step := range probe.Steps {
		switch step.Kind {
		case entities.StepNavigate:
			target, err := probe.ResolveURL(step.URL)
			if err != nil {
				return &entities.StepError{Probe: probe.Name, Index: i, Kind: step.Kind, Err: err}
			}
			if !g.allowForeign && !g.sameOrigin(target) {
				return &entities.StepError{Probe: probe.Name, Index: i, Kind: step.Kind,
					Err: fmt.Errorf("%s is outside %s://%s", target, g.origin.Scheme, g.origin.Host)}
			}
		case entities.StepCapture:
			if !g.insideArtifacts(step.Path) {
				return &entities.StepError{Probe: probe.Name, Index: i, Kind: step.Kind,
					Err: fmt.Errorf("capture path %s is outside %s", step.Path, g.artifactDir)}
			}
		}

		if step.Binds() && step.As != "" && step.Locator != nil {
			bound[step.As] = *step.Locator
		}
		// rate a ref by the locator it was bound from
		if loc, ok := bound[step.Ref]; ok && step.Locator == nil {
			step.Locator = &loc
		}

		if level := g.RiskLevel(step); level == "high" {
			g.logger.WithFields(logrus.Fields{
				"probe": probe.Name,
				"step":  i + 1,
			}).Warnf("High risk step: %s", step.Describe())
		}
	}
	return nil
}

// RiskLevel - classifies how much a step can change the application state
func (g *Guard) RiskLevel(step entities.Step) string {
	switch step.Kind {
	case entities.StepNavigate:
		if target, err := url.Parse(step.URL); err == nil && target.IsAbs() && !g.sameOrigin(target.String()) {
			return "high"
		}
		return "low"
	case entities.StepInteract:
		if step.Interaction != nil && step.Interaction.Kind == entities.InteractionDrag {
			return "medium"
		}
		if step.Locator != nil && isDestructive(*step.Locator) {
			return "high"
		}
		return "medium"
	}
	return "low"
}

func (g *Guard) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, g.origin.Scheme) && strings.EqualFold(u.Host, g.origin.Host)
}

func (g *Guard) insideArtifacts(path string) bool {
	if g.artifactDir == "" || g.artifactDir == "." {
		return filepath.IsLocal(path)
	}
	rel, err := filepath.Rel(g.artifactDir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return filepath.IsLocal(rel)
}

// isDestructive - locators that look like they delete or reset something
func isDestructive(loc entities.Locator) bool {
	keywords := []string{"delete", "remove", "clear", "reset", "logout"}
	text := strings.ToLower(loc.Name + " " + loc.Text + " " + loc.CSS)
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	if loc.Within != nil {
		return isDestructive(*loc.Within)
	}
	return false
}

// Ensure Guard implements the Guard interface
var _ interfaces.Guard = (*Guard)(nil)
