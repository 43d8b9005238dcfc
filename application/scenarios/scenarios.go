// Package scenarios holds the built-in verification probes for the beat sequencer UI.
package scenarios

import (
	"path/filepath"
	"sort"
	"time"

	"ui_probe/domain/entities"
)

const (
	KitSelection = "kit-selection"
	SliderMobile = "slider-mobile"
	Swing        = "swing"

	// MobileDevice is the viewport of the slider-mobile probe
	MobileDevice = "iPhone 11"

	canvasTimeout = 10 * time.Second
)

// sliderRoot matches the root of a horizontal slider widget, which wraps the track and the thumb
const sliderRoot = `[data-orientation="horizontal"]:has([role="slider"])`

// controlGroup matches the grid wrapping a labelled control, e.g. "Drum Kit" or "Swing: 12%".
// Layout grids containing the label come first in document order, the control's own grid is the last match.
func controlGroup(label string) entities.Locator {
	return entities.ByCSS("div.grid").WithText(label).Nth(-1)
}

// Settings parameterise the built-in probes
type Settings struct {
	BaseURL     string
	ArtifactDir string
}

func (s Settings) artifact(name string) string {
	return filepath.Join(s.ArtifactDir, name)
}

// KitSelectionProbe - opens the "Drum Kit" dropdown and picks "808"
func KitSelectionProbe(s Settings) entities.Probe {
	trigger := entities.ByRole("combobox", "").In(controlGroup("Drum Kit"))
	option := entities.ByRole("option", "808").ExactMatch()

	return entities.Probe{
		Name:    KitSelection,
		BaseURL: s.BaseURL,
		Steps: []entities.Step{
			{Kind: entities.StepNavigate, URL: "/"},
			{Kind: entities.StepWaitVisible, Locator: &trigger},
			{Kind: entities.StepLocate, Locator: &trigger, As: "kit-trigger"},
			{Kind: entities.StepInteract, Ref: "kit-trigger", Interaction: entities.Click(entities.AnchorCenter),
				Description: "open the drum kit dropdown"},
			{Kind: entities.StepWaitVisible, Locator: &option, As: "kit-808"},
			{Kind: entities.StepInteract, Ref: "kit-808", Interaction: entities.Click(entities.AnchorCenter),
				Description: "select the 808 kit"},
			{Kind: entities.StepWaitVisible, Locator: ptr(trigger.WithText("808")),
				Description: "wait for the dropdown to show 808"},
			{Kind: entities.StepCapture, Path: s.artifact("verification.png")},
		},
	}
}

// SliderMobileProbe - renders the beat ring on a phone and clicks the first slider midpoint
func SliderMobileProbe(s Settings) entities.Probe {
	canvas := entities.ByCSS("canvas").First()
	mixer := entities.ByRole("heading", "Mixer")
	firstThumb := entities.ByRole("slider", "").First()
	firstSlider := entities.ByCSS(sliderRoot).First()

	return entities.Probe{
		Name:    SliderMobile,
		BaseURL: s.BaseURL,
		Device:  MobileDevice,
		Steps: []entities.Step{
			{Kind: entities.StepNavigate, URL: "/beat-ring"},
			{Kind: entities.StepWaitLoad, WaitUntil: entities.LoadStateNetworkIdle},
			{Kind: entities.StepWaitVisible, Locator: &canvas, Timeout: canvasTimeout},
			{Kind: entities.StepWaitVisible, Locator: &mixer},
			{Kind: entities.StepWaitVisible, Locator: &firstThumb},
			{Kind: entities.StepInteract, Locator: &firstSlider, Interaction: entities.Click(entities.AnchorCenter),
				Description: "click the middle of the first slider"},
			{Kind: entities.StepCapture, Path: s.artifact("verification_mobile.png")},
		},
	}
}

// SwingProbe - sets the swing slider to its maximum by clicking the right end of the track
func SwingProbe(s Settings) entities.Probe {
	swing := entities.ByCSS(sliderRoot).In(controlGroup("Swing"))

	return entities.Probe{
		Name:    Swing,
		BaseURL: s.BaseURL,
		Steps: []entities.Step{
			{Kind: entities.StepNavigate, URL: "/"},
			{Kind: entities.StepWaitVisible, Locator: &swing},
			{Kind: entities.StepLocate, Locator: &swing, As: "swing"},
			{Kind: entities.StepInteract, Ref: "swing", Interaction: entities.Click(entities.AnchorRightEdge),
				Description: "click the right end of the swing slider"},
			{Kind: entities.StepCapture, Path: s.artifact("verification.png")},
		},
	}
}

var builtins = map[string]func(Settings) entities.Probe{
	KitSelection: KitSelectionProbe,
	SliderMobile: SliderMobileProbe,
	Swing:        SwingProbe,
}

// Names - built-in probe names in run order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get - builds a built-in probe by name
func Get(name string, s Settings) (entities.Probe, bool) {
	build, ok := builtins[name]
	if !ok {
		return entities.Probe{}, false
	}
	return build(s), true
}

// All - every built-in probe in run order
func All(s Settings) []entities.Probe {
	probes := make([]entities.Probe, 0, len(builtins))
	for _, name := range Names() {
		probes = append(probes, builtins[name](s))
	}
	return probes
}

func ptr[T any](v T) *T {
	return &v
}
