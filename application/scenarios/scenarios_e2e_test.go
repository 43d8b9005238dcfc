//go:build e2e

package scenarios

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ui_probe/application/probe"
	"ui_probe/domain/entities"
	"ui_probe/infrastructure/browser"
	"ui_probe/infrastructure/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sequencerPage = `<!doctype html>
<html><head><style>
  body { font-family: sans-serif; margin: 16px; }
  .grid { display: grid; gap: 8px; }
  .track { position: relative; width: 240px; height: 20px; background: #ddd; }
  .thumb { position: absolute; top: 2px; width: 16px; height: 16px; background: #333; }
  [role=listbox] { border: 1px solid #999; width: 180px; }
  [role=option] { padding: 4px; }
</style></head>
<body>
<div class="grid">
  <div class="grid">
    <span>Drum Kit</span>
    <button role="combobox" aria-expanded="false" id="kit">Acoustic</button>
    <div role="listbox" id="kits" hidden>
      <div role="option">Acoustic</div>
      <div role="option">808</div>
      <div role="option">909</div>
    </div>
  </div>
  <div class="grid">
    <span id="swing-label">Swing: 0%</span>
    <div class="track" data-orientation="horizontal" id="swing">
      <span class="thumb" role="slider" aria-valuemin="0" aria-valuemax="100" aria-valuenow="0"></span>
    </div>
  </div>
</div>
<script>
  const kit = document.getElementById('kit');
  const kits = document.getElementById('kits');
  kit.addEventListener('click', () => { kits.hidden = !kits.hidden; });
  kits.querySelectorAll('[role=option]').forEach((o) => o.addEventListener('click', () => {
    kit.textContent = o.textContent;
    kits.hidden = true;
  }));
  const swing = document.getElementById('swing');
  swing.addEventListener('click', (e) => {
    const r = swing.getBoundingClientRect();
    const value = Math.round((e.clientX - r.left) / r.width * 100);
    const thumb = swing.querySelector('[role=slider]');
    thumb.setAttribute('aria-valuenow', value);
    thumb.style.left = (value / 100 * (r.width - 16)) + 'px';
    document.getElementById('swing-label').textContent = 'Swing: ' + value + '%';
  });
</script>
</body></html>`

const beatRingPage = `<!doctype html>
<html><body>
<canvas width="300" height="300"></canvas>
<h2>Mixer</h2>
<div data-orientation="horizontal" style="position:relative;width:300px;height:20px;background:#ddd">
  <span role="slider" style="position:absolute;width:16px;height:16px"></span>
</div>
<div data-orientation="horizontal" style="position:relative;width:300px;height:20px;background:#ddd">
  <span role="slider" style="position:absolute;width:16px;height:16px"></span>
</div>
<script>
  const c = document.querySelector('canvas').getContext('2d');
  c.arc(150, 150, 120, 0, 2 * Math.PI);
  c.stroke();
</script>
</body></html>`

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/beat-ring", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(beatRingPage))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sequencerPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBuiltinsAgainstFixture(t *testing.T) {
	srv := fixtureServer(t)
	s := Settings{BaseURL: srv.URL, ArtifactDir: t.TempDir()}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	r := probe.NewRunner(browser.NewPlaywrightLauncher("chromium", logger), storage.NewArtifactStore(s.ArtifactDir), nil, logger,
		probe.Options{Headless: true, NavigationTimeout: 20 * time.Second, WaitTimeout: 5 * time.Second})

	// the swing click must land at the track maximum
	swing := SwingProbe(s)
	maxed := entities.ByText("Swing: 100%")
	swing.Steps = append(swing.Steps, entities.Step{Kind: entities.StepWaitVisible, Locator: &maxed})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reports, err := r.RunAll(ctx, []entities.Probe{KitSelectionProbe(s), SliderMobileProbe(s), swing})
	require.NoError(t, err)
	for _, report := range reports {
		assert.Equal(t, entities.RunStatusCompleted, report.Status, report.Probe)
	}

	assert.FileExists(t, filepath.Join(s.ArtifactDir, "verification.png"))
	assert.FileExists(t, filepath.Join(s.ArtifactDir, "verification_mobile.png"))
}
