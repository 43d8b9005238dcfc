package browser

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"ui_probe/domain/entities"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLauncherNames(t *testing.T) {
	t.Parallel()
	logger := logrus.New()

	assert.Equal(t, "playwright/chromium", NewPlaywrightLauncher("", logger).Name())
	assert.Equal(t, "playwright/webkit", NewPlaywrightLauncher("webkit", logger).Name())
	assert.Equal(t, "selenium/chrome", NewSeleniumLauncher(SeleniumOptions{}, logger).Name())
	assert.Equal(t, 9515, NewSeleniumLauncher(SeleniumOptions{}, logger).opts.Port)
}

func TestDeviceContextOptions(t *testing.T) {
	t.Parallel()

	phone, ok := entities.LookupDevice("iPhone 11")
	require.True(t, ok)

	opts := deviceContextOptions(phone)
	require.NotNil(t, opts.Viewport)
	assert.Equal(t, 414, opts.Viewport.Width)
	assert.Equal(t, 715, opts.Viewport.Height)
	assert.Equal(t, 2.0, *opts.DeviceScaleFactor)
	assert.True(t, *opts.IsMobile)
	assert.True(t, *opts.HasTouch)
	assert.Contains(t, *opts.UserAgent, "iPhone")

	opts = deviceContextOptions(entities.DesktopDevice)
	assert.Equal(t, 1280, opts.Viewport.Width)
	assert.False(t, *opts.IsMobile)
	assert.Nil(t, opts.UserAgent)
}

func TestLoadStates(t *testing.T) {
	t.Parallel()

	assert.Equal(t, playwright.WaitUntilStateLoad, waitUntil(entities.LoadStateLoad))
	assert.Equal(t, playwright.WaitUntilStateLoad, waitUntil(""))
	assert.Equal(t, playwright.WaitUntilStateDomcontentloaded, waitUntil(entities.LoadStateDOMContentLoaded))
	assert.Equal(t, playwright.WaitUntilStateNetworkidle, waitUntil(entities.LoadStateNetworkIdle))

	assert.Equal(t, playwright.LoadStateLoad, loadState(entities.LoadStateLoad))
	assert.Equal(t, playwright.LoadStateNetworkidle, loadState(entities.LoadStateNetworkIdle))
}

func TestBudget(t *testing.T) {
	t.Parallel()

	ms, err := budget(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, ms)

	ms, err = budget(context.Background(), 100*time.Microsecond)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ms)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ms, err = budget(ctx, time.Minute)
	require.NoError(t, err)
	assert.LessOrEqual(t, ms, 1000.0)

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = budget(cancelled, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestActionTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, defaultActionTimeout, actionTimeout(entities.LaunchOptions{}))
	assert.Equal(t, defaultActionTimeout, actionTimeout(entities.LaunchOptions{ActionTimeout: -time.Second}))
	assert.Equal(t, 750*time.Millisecond, actionTimeout(entities.LaunchOptions{ActionTimeout: 750 * time.Millisecond}))
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Minute, clamp(context.Background(), time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.LessOrEqual(t, clamp(ctx, time.Minute), time.Second)
}

func TestTextMatcher(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Swing", textMatcher(entities.ByText("Swing")))

	re, ok := textMatcher(entities.ByText("8.5 (x)").ExactMatch()).(*regexp.Regexp)
	require.True(t, ok)
	assert.True(t, re.MatchString(" 8.5 (x) "))
	assert.False(t, re.MatchString("808.5 (x)"))
}

func TestChromeCapabilities(t *testing.T) {
	t.Parallel()

	phone, _ := entities.LookupDevice("iPhone 11")
	caps := chromeCapabilities(entities.LaunchOptions{Device: phone, Headless: true}, "/usr/bin/chromium")

	assert.Equal(t, "/usr/bin/chromium", caps.Path)
	assert.False(t, caps.W3C)
	assert.Contains(t, caps.Args, "--headless=new")
	require.NotNil(t, caps.MobileEmulation)
	require.NotNil(t, caps.MobileEmulation.DeviceMetrics)
	assert.Equal(t, uint(414), caps.MobileEmulation.DeviceMetrics.Width)
	assert.Equal(t, 2.0, caps.MobileEmulation.DeviceMetrics.PixelRatio)
	assert.True(t, *caps.MobileEmulation.DeviceMetrics.Touch)
	assert.Equal(t, phone.UserAgent, caps.MobileEmulation.UserAgent)

	caps = chromeCapabilities(entities.LaunchOptions{Device: entities.DesktopDevice}, "")
	assert.Nil(t, caps.MobileEmulation)
	assert.NotContains(t, caps.Args, "--headless=new")
	assert.Contains(t, caps.Args, "--window-size=1280,720")
}

func TestFindChromeDriverConfigured(t *testing.T) {
	t.Parallel()

	_, err := findChromeDriver("/definitely/not/here/chromedriver")
	assert.Error(t, err)

	assert.Equal(t, "/opt/chrome", findChromeBinary("/opt/chrome"))
}

func TestDecodedNumbers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, getInt(3.9))
	assert.Equal(t, 4, getInt(4))
	assert.Equal(t, 0, getInt("4"))

	rect := map[string]interface{}{"x": 1.5, "width": 10, "height": "tall"}
	assert.Equal(t, 1.5, getFloat(rect, "x"))
	assert.Equal(t, 10.0, getFloat(rect, "width"))
	assert.Equal(t, 0.0, getFloat(rect, "height"))
	assert.Equal(t, 0.0, getFloat(rect, "y"))
}

func TestQueryScriptEmbedded(t *testing.T) {
	t.Parallel()

	assert.True(t, strings.Contains(queryScript, "function queryAll(spec)"))
}
