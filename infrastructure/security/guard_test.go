package security

import (
	"testing"

	"ui_probe/domain/entities"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T, allowForeign bool) (*Guard, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	g, err := NewGuard("http://localhost:3000", "artifacts", allowForeign, logger)
	require.NoError(t, err)
	return g, hook
}

func probeOf(steps ...entities.Step) entities.Probe {
	return entities.Probe{Name: "guarded", BaseURL: "http://localhost:3000", Steps: steps}
}

func TestNewGuardRejectsRelativeBase(t *testing.T) {
	t.Parallel()
	_, err := NewGuard("/app", "artifacts", false, logrus.New())
	assert.Error(t, err)
}

func TestCheckNavigation(t *testing.T) {
	t.Parallel()
	g, _ := newTestGuard(t, false)

	assert.NoError(t, g.Check(probeOf(entities.Step{Kind: entities.StepNavigate, URL: "/mixer"})))
	assert.NoError(t, g.Check(probeOf(entities.Step{Kind: entities.StepNavigate, URL: "HTTP://LOCALHOST:3000/"})))

	err := g.Check(probeOf(entities.Step{Kind: entities.StepNavigate, URL: "https://example.com/"}))
	var stepErr *entities.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, entities.StepNavigate, stepErr.Kind)

	assert.Error(t, g.Check(probeOf(entities.Step{Kind: entities.StepNavigate, URL: "http://localhost:4000/"})))

	open, _ := newTestGuard(t, true)
	assert.NoError(t, open.Check(probeOf(entities.Step{Kind: entities.StepNavigate, URL: "https://example.com/"})))
}

func TestCheckCapturePath(t *testing.T) {
	t.Parallel()
	g, _ := newTestGuard(t, false)

	assert.NoError(t, g.Check(probeOf(entities.Step{Kind: entities.StepCapture, Path: "artifacts/a.png"})))
	assert.NoError(t, g.Check(probeOf(entities.Step{Kind: entities.StepCapture, Path: "artifacts/deep/b.png"})))
	assert.Error(t, g.Check(probeOf(entities.Step{Kind: entities.StepCapture, Path: "artifacts/../escape.png"})))
	assert.Error(t, g.Check(probeOf(entities.Step{Kind: entities.StepCapture, Path: "/tmp/a.png"})))
}

func TestRiskLevel(t *testing.T) {
	t.Parallel()
	g, hook := newTestGuard(t, true)

	reset := entities.ByRole("button", "Reset pattern")
	play := entities.ByRole("button", "Play")
	slider := entities.ByCSS(".slider")

	assert.Equal(t, "low", g.RiskLevel(entities.Step{Kind: entities.StepNavigate, URL: "/"}))
	assert.Equal(t, "high", g.RiskLevel(entities.Step{Kind: entities.StepNavigate, URL: "https://example.com"}))
	assert.Equal(t, "medium", g.RiskLevel(entities.Step{Kind: entities.StepInteract, Locator: &play, Interaction: entities.Click("")}))
	assert.Equal(t, "high", g.RiskLevel(entities.Step{Kind: entities.StepInteract, Locator: &reset, Interaction: entities.Click("")}))
	assert.Equal(t, "medium", g.RiskLevel(entities.Step{Kind: entities.StepInteract, Locator: &slider,
		Interaction: entities.Drag(entities.AnchorLeftEdge, entities.AnchorRightEdge)}))
	assert.Equal(t, "low", g.RiskLevel(entities.Step{Kind: entities.StepCapture, Path: "artifacts/a.png"}))

	require.NoError(t, g.Check(probeOf(entities.Step{Kind: entities.StepInteract, Locator: &reset, Interaction: entities.Click("")})))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestCheckRatesRefsByBoundLocator(t *testing.T) {
	t.Parallel()
	g, hook := newTestGuard(t, false)

	reset := entities.ByRole("button", "Reset pattern")
	play := entities.ByRole("button", "Play")

	require.NoError(t, g.Check(probeOf(
		entities.Step{Kind: entities.StepLocate, Locator: &play, As: "play"},
		entities.Step{Kind: entities.StepInteract, Ref: "play", Interaction: entities.Click("")},
	)))
	assert.Empty(t, hook.AllEntries())

	require.NoError(t, g.Check(probeOf(
		entities.Step{Kind: entities.StepLocate, Locator: &reset, As: "reset"},
		entities.Step{Kind: entities.StepInteract, Ref: "reset", Interaction: entities.Click(entities.AnchorCenter)},
	)))
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 2, entry.Data["step"])

	hook.Reset()
	require.NoError(t, g.Check(probeOf(
		entities.Step{Kind: entities.StepWaitVisible, Locator: &reset, As: "reset"},
		entities.Step{Kind: entities.StepInteract, Ref: "reset", Interaction: entities.Click("")},
	)))
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "High risk step")
}
