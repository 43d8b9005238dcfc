package browser

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ui_probe/domain/entities"
	"ui_probe/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"go.uber.org/multierr"
)

//go:embed query.js
var queryScript string

const (
	pollInterval    = 100 * time.Millisecond
	networkQuietFor = 500 * time.Millisecond
)

// SeleniumOptions configures the chromedriver backed launcher
type SeleniumOptions struct {
	DriverPath   string // empty = search PATH and common locations
	ChromeBinary string // empty = search common locations
	Port         int
}

// SeleniumLauncher starts Chrome sessions through chromedriver
type SeleniumLauncher struct {
	opts   SeleniumOptions
	logger *logrus.Logger
}

// NewSeleniumLauncher - creates new chromedriver launcher
func NewSeleniumLauncher(opts SeleniumOptions, logger *logrus.Logger) *SeleniumLauncher {
	if opts.Port == 0 {
		opts.Port = 9515
	}
	return &SeleniumLauncher{opts: opts, logger: logger}
}

func (l *SeleniumLauncher) Name() string {
	return "selenium/chrome"
}

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("chromedriver %s: %w", configured, err)
		}
		return configured, nil
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", errors.New("chromedriver not found, install it or set PROBE_CHROMEDRIVER_PATH")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	chromePaths := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// chromeCapabilities - command line and emulation settings for the device
func chromeCapabilities(opts entities.LaunchOptions, binary string) chrome.Capabilities {
	caps := chrome.Capabilities{
		Path: binary,
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--hide-scrollbars",
		},
		// moveto/click/buttondown are legacy wire protocol endpoints
		W3C: false,
	}
	if opts.Headless {
		caps.Args = append(caps.Args, "--headless=new")
	}

	device := opts.Device
	if device.IsMobile {
		touch := device.HasTouch
		caps.MobileEmulation = &chrome.MobileEmulation{
			DeviceMetrics: &chrome.DeviceMetrics{
				Width:      uint(device.Width),
				Height:     uint(device.Height),
				PixelRatio: device.DeviceScaleFactor,
				Touch:      &touch,
			},
			UserAgent: device.UserAgent,
		}
	} else {
		caps.Args = append(caps.Args, fmt.Sprintf("--window-size=%d,%d", device.Width, device.Height))
	}
	return caps
}

// Launch - starts chromedriver and a Chrome session
func (l *SeleniumLauncher) Launch(ctx context.Context, opts entities.LaunchOptions) (_ interfaces.Session, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	driverPath, err := findChromeDriver(l.opts.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	l.logger.Debugf("Using ChromeDriver at: %s", driverPath)

	binary := findChromeBinary(l.opts.ChromeBinary)
	if binary != "" {
		l.logger.Debugf("Using Chrome binary at: %s", binary)
	}

	service, err := selenium.NewChromeDriverService(driverPath, l.opts.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}
	s := &seleniumSession{service: service, logger: l.logger}
	defer func() {
		if err != nil {
			err = multierr.Append(err, s.Close())
		}
	}()

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCapabilities(opts, binary))

	s.wd, err = selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", l.opts.Port))
	if err != nil {
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome not found, set PROBE_CHROME_BINARY: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	if opts.NavigationTimeout > 0 {
		if err := s.wd.SetPageLoadTimeout(opts.NavigationTimeout); err != nil {
			return nil, fmt.Errorf("failed to set page load timeout: %w", err)
		}
	}

	return s, nil
}

type seleniumSession struct {
	wd      selenium.WebDriver
	service *selenium.Service
	logger  *logrus.Logger
}

// Navigate - navigates browser to specified URL
func (s *seleniumSession) Navigate(ctx context.Context, url string, until entities.LoadState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return &entities.NavigationError{URL: url, Err: err}
	}
	if err := s.wd.SetPageLoadTimeout(clamp(ctx, timeout)); err != nil {
		return &entities.NavigationError{URL: url, Err: err}
	}

	s.logger.Debugf("Navigating to: %s", url)
	started := time.Now()
	if err := s.wd.Get(url); err != nil {
		return &entities.NavigationError{URL: url, Err: err}
	}

	if until == entities.LoadStateNetworkIdle {
		left := timeout - time.Since(started)
		if err := s.WaitForLoad(ctx, until, left); err != nil {
			return &entities.NavigationError{URL: url, Err: err}
		}
	}
	return nil
}

// WaitForLoad - polls document.readyState; network-idle also waits for the resource list to settle
func (s *seleniumSession) WaitForLoad(ctx context.Context, state entities.LoadState, timeout time.Duration) error {
	want := "complete"
	if state == entities.LoadStateDOMContentLoaded {
		want = "interactive"
	}

	var (
		lastCount   = -1
		quietSince  time.Time
		condErr     error
		networkIdle = state == entities.LoadStateNetworkIdle
	)
	cond := func(wd selenium.WebDriver) (bool, error) {
		if condErr = ctx.Err(); condErr != nil {
			return false, condErr
		}
		res, err := wd.ExecuteScript(`return [document.readyState, performance.getEntriesByType('resource').length];`, nil)
		if err != nil {
			condErr = err
			return false, err
		}
		values, _ := res.([]interface{})
		if len(values) != 2 {
			return false, nil
		}
		ready, _ := values[0].(string)
		if ready != "complete" && ready != want {
			return false, nil
		}
		if !networkIdle {
			return true, nil
		}

		count := getInt(values[1])
		if count != lastCount {
			lastCount = count
			quietSince = time.Now()
			return false, nil
		}
		return time.Since(quietSince) >= networkQuietFor, nil
	}

	err := s.wd.WaitWithTimeoutAndInterval(cond, clamp(ctx, timeout), pollInterval)
	if err == nil {
		return nil
	}
	if condErr != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to wait for load state %s: %w", state, condErr)
	}
	return &entities.TimeoutError{What: "load state " + string(state), Timeout: timeout, Err: err}
}

func (s *seleniumSession) Query(loc entities.Locator) interfaces.Elements {
	return &seleniumElements{session: s, loc: loc}
}

// findAll - runs the query engine in the page
func (s *seleniumSession) findAll(loc entities.Locator) ([]selenium.WebElement, error) {
	script := queryScript + "\nreturn queryAll(arguments[0]);"
	raw, err := s.wd.ExecuteScriptRaw(script, []interface{}{loc})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", loc, err)
	}
	return s.wd.DecodeElements(raw)
}

// ClickAt - moves the pointer relative to the document root and clicks
func (s *seleniumSession) ClickAt(ctx context.Context, p entities.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.moveTo(p); err != nil {
		return err
	}
	return s.wd.Click(selenium.LeftButton)
}

// Drag - presses at from and releases at to
func (s *seleniumSession) Drag(ctx context.Context, from, to entities.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.moveTo(from); err != nil {
		return err
	}
	if err := s.wd.ButtonDown(); err != nil {
		return err
	}
	if err := s.moveTo(to); err != nil {
		return multierr.Append(err, s.wd.ButtonUp())
	}
	return s.wd.ButtonUp()
}

// moveTo - viewport point to an offset from the top-left corner of <html>
func (s *seleniumSession) moveTo(p entities.Point) error {
	root, err := s.wd.FindElement(selenium.ByTagName, "html")
	if err != nil {
		return fmt.Errorf("failed to find document root: %w", err)
	}
	res, err := s.wd.ExecuteScript(`return [window.scrollX, window.scrollY];`, nil)
	if err != nil {
		return fmt.Errorf("failed to read scroll offset: %w", err)
	}
	var scrollX, scrollY int
	if values, ok := res.([]interface{}); ok && len(values) == 2 {
		scrollX, scrollY = getInt(values[0]), getInt(values[1])
	}
	return root.MoveTo(int(p.X)+scrollX, int(p.Y)+scrollY)
}

// Screenshot - takes screenshot of current page; the viewport only
func (s *seleniumSession) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fullPage {
		s.logger.Debug("Full page screenshots are not supported by chromedriver, capturing the viewport")
	}
	return s.wd.Screenshot()
}

func (s *seleniumSession) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.wd.PageSource()
}

// Close - closes browser and stops ChromeDriver service
func (s *seleniumSession) Close() error {
	var closeErr error
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to quit webdriver: %w", err))
		}
		s.wd = nil
	}
	if s.service != nil {
		if err := s.service.Stop(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to stop chromedriver: %w", err))
		}
		s.service = nil
	}
	return closeErr
}

type seleniumElements struct {
	session *seleniumSession
	loc     entities.Locator
}

func (e *seleniumElements) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	found, err := e.session.findAll(e.loc)
	if err != nil {
		return 0, err
	}
	return len(found), nil
}

func (e *seleniumElements) Nth(i int) interfaces.Element {
	return &seleniumElement{session: e.session, loc: e.loc, index: i}
}

// seleniumElement re-runs its query on every call, like a playwright locator
type seleniumElement struct {
	session *seleniumSession
	loc     entities.Locator
	index   int
}

func (e *seleniumElement) resolve() (selenium.WebElement, error) {
	found, err := e.session.findAll(e.loc)
	if err != nil {
		return nil, err
	}
	idx := e.index
	if idx < 0 {
		idx += len(found)
	}
	if idx < 0 || idx >= len(found) {
		return nil, nil
	}
	return found[idx], nil
}

func (e *seleniumElement) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	el, err := e.resolve()
	if err != nil || el == nil {
		return false, err
	}
	return el.IsDisplayed()
}

// WaitVisible - polls until the element exists and is displayed
func (e *seleniumElement) WaitVisible(ctx context.Context, timeout time.Duration) error {
	var condErr error
	cond := func(selenium.WebDriver) (bool, error) {
		if condErr = ctx.Err(); condErr != nil {
			return false, condErr
		}
		ok, err := e.IsVisible(ctx)
		condErr = err
		return ok, err
	}

	err := e.session.wd.WaitWithTimeoutAndInterval(cond, clamp(ctx, timeout), pollInterval)
	if err == nil {
		return nil
	}
	if condErr != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to wait for %s: %w", e.loc, condErr)
	}
	return &entities.TimeoutError{What: fmt.Sprintf("%s nth=%d", e.loc, e.index), Timeout: timeout, Err: err}
}

func (e *seleniumElement) ScrollIntoView(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, err := e.resolve()
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("element %s nth=%d is gone", e.loc, e.index)
	}
	_, err = e.session.wd.ExecuteScript(`arguments[0].scrollIntoView({block: 'center', inline: 'center'});`, []interface{}{el})
	return err
}

// BoundingBox - returns nil when the element is gone or not rendered
func (e *seleniumElement) BoundingBox(ctx context.Context) (*entities.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := e.resolve()
	if err != nil || el == nil {
		return nil, err
	}

	res, err := e.session.wd.ExecuteScript(`
		const r = arguments[0].getBoundingClientRect();
		if (!arguments[0].isConnected || r.width === 0 && r.height === 0 && arguments[0].getClientRects().length === 0) return null;
		return {x: r.x, y: r.y, width: r.width, height: r.height};
	`, []interface{}{el})
	if err != nil {
		return nil, err
	}
	rect, ok := res.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return &entities.BoundingBox{
		X:      getFloat(rect, "x"),
		Y:      getFloat(rect, "y"),
		Width:  getFloat(rect, "width"),
		Height: getFloat(rect, "height"),
	}, nil
}

// clamp - caps the timeout at the context deadline
func clamp(ctx context.Context, timeout time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			return left
		}
	}
	return timeout
}

// getFloat - extracts float value from map
func getFloat(m map[string]interface{}, key string) float64 {
	switch val := m[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	}
	return 0
}

// getInt - converts a decoded JSON number
func getInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	}
	return 0
}

var _ interfaces.Launcher = (*SeleniumLauncher)(nil)
