package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ui_probe/domain/entities"
	"ui_probe/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const (
	dragSteps            = 10
	defaultActionTimeout = 5 * time.Second
)

// PlaywrightLauncher starts sessions through playwright-go
type PlaywrightLauncher struct {
	browserName string
	logger      *logrus.Logger
}

// NewPlaywrightLauncher - creates launcher for chromium, firefox or webkit
func NewPlaywrightLauncher(browserName string, logger *logrus.Logger) *PlaywrightLauncher {
	if browserName == "" {
		browserName = "chromium"
	}
	return &PlaywrightLauncher{browserName: browserName, logger: logger}
}

func (l *PlaywrightLauncher) Name() string {
	return "playwright/" + l.browserName
}

// Launch - starts playwright, the browser, a context for the device and one page
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts entities.LaunchOptions) (_ interfaces.Session, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	s := &playwrightSession{pw: pw, logger: l.logger, actionTimeout: actionTimeout(opts)}
	defer func() {
		if err != nil {
			err = multierr.Append(err, s.Close())
		}
	}()

	browserType, err := l.browserType(pw)
	if err != nil {
		return nil, err
	}

	s.browser, err = browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.context, err = s.browser.NewContext(contextOptions(pw, opts.Device))
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	if opts.NavigationTimeout > 0 {
		s.context.SetDefaultNavigationTimeout(float64(opts.NavigationTimeout.Milliseconds()))
	}
	s.context.SetDefaultTimeout(float64(s.actionTimeout.Milliseconds()))

	s.page, err = s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	s.page.OnDialog(func(dialog playwright.Dialog) {
		l.logger.WithField("message", dialog.Message()).Debug("Dismissing dialog")
		dialog.Dismiss()
	})

	l.logger.WithFields(logrus.Fields{
		"browser":  l.browserName,
		"device":   opts.Device.Name,
		"headless": opts.Headless,
	}).Debug("Browser session started")

	return s, nil
}

func (l *PlaywrightLauncher) browserType(pw *playwright.Playwright) (playwright.BrowserType, error) {
	switch l.browserName {
	case "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("unknown browser %q", l.browserName)
}

// contextOptions - prefers playwright's own device registry, falls back to our descriptor
func contextOptions(pw *playwright.Playwright, device entities.Device) playwright.BrowserNewContextOptions {
	if d, ok := pw.Devices[device.Name]; ok && d != nil {
		opts := playwright.BrowserNewContextOptions{
			Viewport:          d.Viewport,
			DeviceScaleFactor: playwright.Float(d.DeviceScaleFactor),
			IsMobile:          playwright.Bool(d.IsMobile),
			HasTouch:          playwright.Bool(d.HasTouch),
		}
		if d.UserAgent != "" {
			opts.UserAgent = playwright.String(d.UserAgent)
		}
		return opts
	}
	return deviceContextOptions(device)
}

func deviceContextOptions(device entities.Device) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  device.Width,
			Height: device.Height,
		},
		IsMobile: playwright.Bool(device.IsMobile),
		HasTouch: playwright.Bool(device.HasTouch),
	}
	if device.DeviceScaleFactor > 0 {
		opts.DeviceScaleFactor = playwright.Float(device.DeviceScaleFactor)
	}
	if device.UserAgent != "" {
		opts.UserAgent = playwright.String(device.UserAgent)
	}
	return opts
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  *logrus.Logger

	actionTimeout time.Duration
}

// Navigate - navigates to the specified URL
func (s *playwrightSession) Navigate(ctx context.Context, url string, until entities.LoadState, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return &entities.NavigationError{URL: url, Err: err}
	}

	_, err = s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil(until),
		Timeout:   playwright.Float(ms),
	})
	if err != nil {
		return &entities.NavigationError{URL: url, Err: err}
	}
	return nil
}

// WaitForLoad - waits until the page reaches the load state
func (s *playwrightSession) WaitForLoad(ctx context.Context, state entities.LoadState, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return &entities.TimeoutError{What: "load state " + string(state), Timeout: timeout, Err: err}
	}

	err = s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: playwright.Float(ms),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return &entities.TimeoutError{What: "load state " + string(state), Timeout: timeout, Err: err}
		}
		return fmt.Errorf("failed to wait for load state %s: %w", state, err)
	}
	return nil
}

// Query - builds a playwright locator for the locator description
func (s *playwrightSession) Query(loc entities.Locator) interfaces.Elements {
	return &playwrightElements{locator: s.build(loc), desc: loc.String(), timeout: s.actionTimeout}
}

func (s *playwrightSession) build(loc entities.Locator) playwright.Locator {
	scope := s.page.Locator(":root")
	if loc.Within != nil {
		scope = s.build(*loc.Within)
		// a pinned index narrows the scope; top-level indexes are resolved by the runner
		if loc.Within.Index != nil {
			scope = scope.Nth(*loc.Within.Index)
		}
	}

	var l playwright.Locator
	if loc.CSS != "" {
		l = scope.Locator(loc.CSS)
	}

	if loc.Role != "" {
		opts := playwright.LocatorGetByRoleOptions{Exact: playwright.Bool(loc.Exact)}
		if loc.Name != "" {
			opts.Name = loc.Name
		}
		byRole := scope.GetByRole(playwright.AriaRole(loc.Role), opts)
		if l == nil {
			l = byRole
		} else {
			l = l.And(byRole)
		}
	}

	if loc.Text != "" {
		if l == nil {
			return scope.GetByText(loc.Text, playwright.LocatorGetByTextOptions{Exact: playwright.Bool(loc.Exact)})
		}
		l = l.Filter(playwright.LocatorFilterOptions{HasText: textMatcher(loc)})
	}
	return l
}

func textMatcher(loc entities.Locator) interface{} {
	if loc.Exact {
		return regexp.MustCompile("^\\s*" + regexp.QuoteMeta(loc.Text) + "\\s*$")
	}
	return loc.Text
}

// ClickAt - clicks at viewport coordinates
func (s *playwrightSession) ClickAt(ctx context.Context, p entities.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.Mouse().Click(p.X, p.Y)
}

// Drag - presses at from and releases at to
func (s *playwrightSession) Drag(ctx context.Context, from, to entities.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mouse := s.page.Mouse()
	if err := mouse.Move(from.X, from.Y); err != nil {
		return err
	}
	if err := mouse.Down(); err != nil {
		return err
	}
	if err := mouse.Move(to.X, to.Y, playwright.MouseMoveOptions{Steps: playwright.Int(dragSteps)}); err != nil {
		return multierr.Append(err, mouse.Up())
	}
	return mouse.Up()
}

// Screenshot - takes a PNG screenshot of the current page
func (s *playwrightSession) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms, err := budget(ctx, s.actionTimeout)
	if err != nil {
		return nil, err
	}
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  playwright.Float(ms),
	})
}

// Content - returns the page markup
func (s *playwrightSession) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

// Close - closes the context, the browser and the playwright driver
func (s *playwrightSession) Close() error {
	var closeErr error

	if s.context != nil {
		if err := s.context.Close(); err != nil && !isClosedError(err) {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to close context: %w", err))
		}
		s.context = nil
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil && !isClosedError(err) {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to close browser: %w", err))
		}
		s.browser = nil
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		s.pw = nil
	}

	return closeErr
}

type playwrightElements struct {
	locator playwright.Locator
	desc    string
	timeout time.Duration
}

func (e *playwrightElements) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return e.locator.Count()
}

func (e *playwrightElements) Nth(i int) interfaces.Element {
	return &playwrightElement{
		locator: e.locator.Nth(i),
		desc:    fmt.Sprintf("%s nth=%d", e.desc, i),
		timeout: e.timeout,
	}
}

type playwrightElement struct {
	locator playwright.Locator
	desc    string
	timeout time.Duration // budget for scroll and box reads
}

func (e *playwrightElement) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.locator.IsVisible()
}

// WaitVisible - waits for the element to become visible
func (e *playwrightElement) WaitVisible(ctx context.Context, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return &entities.TimeoutError{What: e.desc, Timeout: timeout, Err: err}
	}

	err = e.locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(ms),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return &entities.TimeoutError{What: e.desc, Timeout: timeout, Err: err}
		}
		return fmt.Errorf("failed to wait for %s: %w", e.desc, err)
	}
	return nil
}

func (e *playwrightElement) ScrollIntoView(ctx context.Context) error {
	ms, err := budget(ctx, e.timeout)
	if err != nil {
		return err
	}
	err = e.locator.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(ms),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return &entities.TimeoutError{What: e.desc + " to scroll into view", Timeout: e.timeout, Err: err}
	}
	return err
}

// BoundingBox - returns nil when the element is detached or not rendered
func (e *playwrightElement) BoundingBox(ctx context.Context) (*entities.BoundingBox, error) {
	ms, err := budget(ctx, e.timeout)
	if err != nil {
		return nil, err
	}
	// BoundingBox would wait for a detached element to reappear
	count, err := e.locator.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	rect, err := e.locator.BoundingBox(playwright.LocatorBoundingBoxOptions{Timeout: playwright.Float(ms)})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, nil
		}
		return nil, err
	}
	if rect == nil {
		return nil, nil
	}
	return &entities.BoundingBox{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, nil
}

func waitUntil(state entities.LoadState) *playwright.WaitUntilState {
	switch state {
	case entities.LoadStateDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	case entities.LoadStateNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	}
	return playwright.WaitUntilStateLoad
}

func loadState(state entities.LoadState) *playwright.LoadState {
	switch state {
	case entities.LoadStateDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	case entities.LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle
	}
	return playwright.LoadStateLoad
}

func actionTimeout(opts entities.LaunchOptions) time.Duration {
	if opts.ActionTimeout <= 0 {
		return defaultActionTimeout
	}
	return opts.ActionTimeout
}

// budget - converts the timeout to milliseconds, clamped to the context deadline
func budget(ctx context.Context, timeout time.Duration) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}
	// zero means "no timeout" to playwright
	ms := timeout.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return float64(ms), nil
}

// isClosedError - errors from objects the browser already tore down
func isClosedError(err error) bool {
	if errors.Is(err, playwright.ErrTargetClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}

var _ interfaces.Launcher = (*PlaywrightLauncher)(nil)
