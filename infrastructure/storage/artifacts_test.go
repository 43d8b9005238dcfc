package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ui_probe/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeYAML = `
base_url: http://localhost:3000
device: iPhone 11
steps:
  - kind: navigate
    url: /
    wait_until: networkidle
  - kind: wait-visible
    locator:
      css: canvas
      index: 0
    timeout: 10s
  - kind: locate
    as: swing
    locator:
      css: '[data-orientation="horizontal"]'
      within:
        css: div.grid
        text: Swing
        index: -1
  - kind: interact
    ref: swing
    interaction:
      kind: click
      at: right-edge
  - kind: capture
    path: out/swing.png
    full_page: true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadProbe(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "swing-max.yaml", probeYAML)

	p, err := NewArtifactStore(t.TempDir()).LoadProbe(path)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, "swing-max", p.Name)
	assert.Equal(t, "iPhone 11", p.Device)
	require.Len(t, p.Steps, 5)

	assert.Equal(t, entities.LoadStateNetworkIdle, p.Steps[0].WaitUntil)
	assert.Equal(t, 10*time.Second, p.Steps[1].Timeout)
	require.NotNil(t, p.Steps[1].Locator.Index)
	assert.Equal(t, 0, *p.Steps[1].Locator.Index)

	within := p.Steps[2].Locator.Within
	require.NotNil(t, within)
	assert.Equal(t, "Swing", within.Text)
	assert.Equal(t, -1, *within.Index)

	assert.Equal(t, entities.AnchorRightEdge, p.Steps[3].Interaction.At)
	assert.True(t, p.Steps[4].FullPage)
}

func TestLoadProbeErrors(t *testing.T) {
	t.Parallel()
	store := NewArtifactStore(t.TempDir())

	_, err := store.LoadProbe(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = store.LoadProbe(writeFile(t, "typo.yaml", "name: x\nstep: []\n"))
	assert.Error(t, err)

	_, err = store.LoadProbe(writeFile(t, "bad.yaml", "name: [\n"))
	assert.Error(t, err)
}

func TestReportRoundTrip(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "artifacts")
	store := NewArtifactStore(dir)

	report := entities.Report{
		Probe:  "kit selection/808",
		Driver: "playwright/chromium",
		Status: entities.RunStatusFailed,
		Steps: []entities.StepResult{
			{Index: 0, Kind: entities.StepInteract, Point: &entities.Point{X: 1, Y: 2}, Error: "boom"},
		},
		Error: "boom",
	}

	path, err := store.SaveReport(report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kit_selection_808.report.json"), path)

	loaded, err := store.LoadReport(report.Probe)
	require.NoError(t, err)
	assert.Equal(t, report.Status, loaded.Status)
	assert.Equal(t, report.Steps, loaded.Steps)
}

func TestSaveMarkup(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewArtifactStore(dir)

	path, err := store.SaveMarkup("swing", "<html>first</html>")
	require.NoError(t, err)
	_, err = store.SaveMarkup("swing", "<html>second</html>")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>second</html>", string(data))
	assert.Equal(t, filepath.Join(dir, "swing.failure.html"), path)
}
