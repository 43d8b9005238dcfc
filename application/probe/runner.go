package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ui_probe/domain/entities"
	"ui_probe/domain/interfaces"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const markupReadTimeout = 5 * time.Second

// Options holds the runner defaults applied to steps without their own timeout
type Options struct {
	Headless          bool
	NavigationTimeout time.Duration
	WaitTimeout       time.Duration
	MarkupDumpLimit   int
}

// Runner executes probes step by step against one browser session per run
type Runner struct {
	launcher interfaces.Launcher
	storage  interfaces.Storage
	guard    interfaces.Guard
	logger   *logrus.Logger
	opts     Options
	now      func() time.Time
}

// NewRunner - creates new probe runner. storage and guard may be nil.
func NewRunner(launcher interfaces.Launcher, storage interfaces.Storage, guard interfaces.Guard, logger *logrus.Logger, opts Options) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 5 * time.Second
	}
	return &Runner{
		launcher: launcher,
		storage:  storage,
		guard:    guard,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// Run - executes the probe and always returns its report.
// The browser session is released before Run returns, on every path.
func (r *Runner) Run(ctx context.Context, probe entities.Probe) (entities.Report, error) {
	log := r.logger.WithFields(logrus.Fields{
		"probe":  probe.Name,
		"driver": r.launcher.Name(),
	})

	report := entities.Report{
		Probe:     probe.Name,
		Driver:    r.launcher.Name(),
		Device:    probe.Device,
		Status:    entities.RunStatusRunning,
		StartedAt: r.now(),
	}
	if report.Device == "" {
		report.Device = entities.DesktopDevice.Name
	}

	err := r.run(ctx, probe, &report, log)

	report.FinishedAt = r.now()
	if err != nil {
		report.Status = entities.RunStatusFailed
		report.Error = err.Error()
		log.WithError(err).Error("Probe failed")
	} else {
		report.Status = entities.RunStatusCompleted
		log.WithField("duration", report.FinishedAt.Sub(report.StartedAt)).Info("Probe completed")
	}

	if r.storage != nil {
		path, serr := r.storage.SaveReport(report)
		if serr != nil {
			log.WithError(serr).Warn("Failed to save report")
		} else {
			log.WithField("report", path).Debug("Report saved")
		}
	}

	return report, err
}

// RunAll - runs probes in order and aggregates their failures
func (r *Runner) RunAll(ctx context.Context, probes []entities.Probe) ([]entities.Report, error) {
	var (
		reports []entities.Report
		errs    error
	)
	for _, p := range probes {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		report, err := r.Run(ctx, p)
		reports = append(reports, report)
		errs = multierr.Append(errs, err)
	}
	return reports, errs
}

func (r *Runner) run(ctx context.Context, probe entities.Probe, report *entities.Report, log *logrus.Entry) (err error) {
	if err := probe.Validate(); err != nil {
		return err
	}
	if r.guard != nil {
		if err := r.guard.Check(probe); err != nil {
			return err
		}
	}

	device, ok := entities.LookupDevice(probe.Device)
	if !ok {
		return fmt.Errorf("unknown device %q", probe.Device)
	}

	log.WithField("device", device.Name).Info("Launching browser")
	session, err := r.launcher.Launch(ctx, entities.LaunchOptions{
		Device:            device,
		Headless:          r.opts.Headless,
		NavigationTimeout: r.opts.NavigationTimeout,
		ActionTimeout:     r.opts.WaitTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close browser session")
			err = multierr.Append(err, fmt.Errorf("failed to close browser session: %w", cerr))
		}
	}()

	exec := &execution{
		runner:   r,
		probe:    probe,
		page:     session,
		elements: make(map[string]interfaces.Element),
		locators: make(map[string]entities.Locator),
		report:   report,
	}

	for i, step := range probe.Steps {
		stepLog := log.WithFields(logrus.Fields{"step": i + 1, "kind": step.Kind})

		if cerr := ctx.Err(); cerr != nil {
			return &entities.StepError{Probe: probe.Name, Index: i, Kind: step.Kind, Err: cerr}
		}

		stepLog.Info(step.Describe())
		started := r.now()
		point, serr := exec.do(ctx, step)

		result := entities.StepResult{
			Index:       i,
			Kind:        step.Kind,
			Description: step.Describe(),
			Duration:    r.now().Sub(started),
			Point:       point,
		}
		if serr != nil {
			result.Error = serr.Error()
		}
		report.Steps = append(report.Steps, result)

		if serr != nil {
			stepLog.WithError(serr).Error("Step failed")
			r.dumpMarkup(ctx, session, probe.Name, report, stepLog)
			return &entities.StepError{Probe: probe.Name, Index: i, Kind: step.Kind, Err: serr}
		}
		if point != nil {
			stepLog.WithFields(logrus.Fields{"x": point.X, "y": point.Y}).Debug("Pointer dispatched")
		}
	}

	return nil
}

// dumpMarkup - stores the page markup of a failed run for later inspection
func (r *Runner) dumpMarkup(ctx context.Context, page interfaces.Page, probe string, report *entities.Report, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markupReadTimeout)
	defer cancel()

	markup, err := page.Content(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read page content")
		return
	}

	dump := truncateString(markup, r.opts.MarkupDumpLimit)
	if r.storage == nil {
		log.WithField("markup", dump).Error("Page content")
		return
	}

	path, err := r.storage.SaveMarkup(probe, markup)
	if err != nil {
		log.WithError(err).Warn("Failed to save page content")
		log.WithField("markup", dump).Error("Page content")
		return
	}
	report.MarkupDump = path
	log.WithField("path", path).Error("Page content saved")
	log.WithField("markup", dump).Debug("Page content")
}

// execution is the per-run state: the page and the elements located so far
type execution struct {
	runner   *Runner
	probe    entities.Probe
	page     interfaces.Page
	elements map[string]interfaces.Element
	locators map[string]entities.Locator
	report   *entities.Report
}

func (e *execution) do(ctx context.Context, step entities.Step) (*entities.Point, error) {
	switch step.Kind {
	case entities.StepNavigate:
		return nil, e.navigate(ctx, step)
	case entities.StepWaitLoad:
		return nil, e.page.WaitForLoad(ctx, step.WaitUntil, e.timeout(step, e.runner.opts.NavigationTimeout))
	case entities.StepLocate:
		el, err := e.locate(ctx, *step.Locator)
		if err != nil {
			return nil, err
		}
		e.remember(step.As, el, *step.Locator)
		return nil, nil
	case entities.StepWaitVisible:
		return nil, e.waitVisible(ctx, step)
	case entities.StepInteract:
		return e.interact(ctx, step)
	case entities.StepCapture:
		return nil, e.capture(ctx, step)
	}
	return nil, fmt.Errorf("unknown step kind %q", step.Kind)
}

func (e *execution) navigate(ctx context.Context, step entities.Step) error {
	target, err := e.probe.ResolveURL(step.URL)
	if err != nil {
		return &entities.NavigationError{URL: step.URL, Err: err}
	}
	until := step.WaitUntil
	if until == "" {
		until = entities.LoadStateLoad
	}
	return e.page.Navigate(ctx, target, until, e.timeout(step, e.runner.opts.NavigationTimeout))
}

// locate - resolves a locator to exactly one visible element
func (e *execution) locate(ctx context.Context, loc entities.Locator) (interfaces.Element, error) {
	matches := e.page.Query(loc)
	count, err := matches.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", loc, err)
	}

	visible := make([]interfaces.Element, 0, count)
	for i := 0; i < count; i++ {
		el := matches.Nth(i)
		ok, err := el.IsVisible(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check visibility of %s: %w", loc, err)
		}
		if ok {
			visible = append(visible, el)
		}
	}

	idx, err := loc.Pick(len(visible))
	if err != nil {
		return nil, err
	}
	return visible[idx], nil
}

func (e *execution) waitVisible(ctx context.Context, step entities.Step) error {
	timeout := e.timeout(step, e.runner.opts.WaitTimeout)

	if step.Ref != "" {
		el, ok := e.elements[step.Ref]
		if !ok {
			return fmt.Errorf("no element located as %q", step.Ref)
		}
		return el.WaitVisible(ctx, timeout)
	}

	loc := *step.Locator
	if err := e.page.Query(loc).Nth(loc.WaitIndex()).WaitVisible(ctx, timeout); err != nil {
		return err
	}
	if step.As == "" {
		return nil
	}
	el, err := e.locate(ctx, loc)
	if err != nil {
		return err
	}
	e.remember(step.As, el, loc)
	return nil
}

func (e *execution) interact(ctx context.Context, step entities.Step) (*entities.Point, error) {
	el, loc, err := e.target(ctx, step)
	if err != nil {
		return nil, err
	}

	// a detached or hidden element has no box and cannot be scrolled
	if _, err := e.layout(ctx, el, loc); err != nil {
		return nil, err
	}
	if err := el.ScrollIntoView(ctx); err != nil {
		return nil, fmt.Errorf("failed to scroll %s into view: %w", loc, err)
	}
	box, err := e.layout(ctx, el, loc)
	if err != nil {
		return nil, err
	}

	in := step.Interaction
	at, err := box.PointAt(in.At, in.Fraction)
	if err != nil {
		return nil, err
	}

	switch in.Kind {
	case entities.InteractionClick:
		if err := e.page.ClickAt(ctx, at); err != nil {
			return nil, fmt.Errorf("failed to click at (%.1f, %.1f): %w", at.X, at.Y, err)
		}
	case entities.InteractionDrag:
		to, err := box.PointAt(in.To, in.Fraction)
		if err != nil {
			return nil, err
		}
		if err := e.page.Drag(ctx, at, to); err != nil {
			return nil, fmt.Errorf("failed to drag from (%.1f, %.1f) to (%.1f, %.1f): %w", at.X, at.Y, to.X, to.Y, err)
		}
	default:
		return nil, fmt.Errorf("unknown interaction %q", in.Kind)
	}

	return &at, nil
}

// layout - the rendered box of el, LayoutUnavailableError when there is none
func (e *execution) layout(ctx context.Context, el interfaces.Element, loc entities.Locator) (*entities.BoundingBox, error) {
	box, err := el.BoundingBox(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read bounding box of %s: %w", loc, err)
	}
	if box == nil || box.Empty() {
		return nil, &entities.LayoutUnavailableError{Locator: loc, Box: box}
	}
	return box, nil
}

func (e *execution) target(ctx context.Context, step entities.Step) (interfaces.Element, entities.Locator, error) {
	if step.Ref != "" {
		el, ok := e.elements[step.Ref]
		if !ok {
			return nil, entities.Locator{}, fmt.Errorf("no element located as %q", step.Ref)
		}
		return el, e.locators[step.Ref], nil
	}
	el, err := e.locate(ctx, *step.Locator)
	return el, *step.Locator, err
}

func (e *execution) capture(ctx context.Context, step entities.Step) error {
	data, err := e.page.Screenshot(ctx, step.FullPage)
	if err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}
	if len(data) == 0 {
		return errors.New("screenshot is empty")
	}

	if err := os.MkdirAll(filepath.Dir(step.Path), 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(step.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}

	e.report.Evidence = append(e.report.Evidence, entities.Evidence{
		Path:       step.Path,
		Bytes:      len(data),
		CapturedAt: e.runner.now(),
	})
	return nil
}

func (e *execution) remember(name string, el interfaces.Element, loc entities.Locator) {
	e.elements[name] = el
	e.locators[name] = loc
}

func (e *execution) timeout(step entities.Step, fallback time.Duration) time.Duration {
	if step.Timeout > 0 {
		return step.Timeout
	}
	return fallback
}

// truncateString - truncates string to maximum length, no limit when maxLen <= 0
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
