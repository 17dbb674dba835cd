package browser_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jpltour/pkg/browser"
	"jpltour/pkg/browser/browsertest"
	"jpltour/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Logger
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })
	return logs
}

func TestLocatorFind(t *testing.T) {
	logs := observe(t)
	ctx := context.Background()

	fake := browsertest.New("s1")
	fake.Add("#a", &browsertest.Element{Text: "first"}, &browsertest.Element{Text: "second"})
	loc := browser.NewLocator(fake)

	el, found, err := loc.Find(ctx, browser.ByCSS, "#a", nil)
	require.NoError(t, err)
	require.True(t, found)
	text, err := fake.Text(ctx, el)
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	all, err := loc.FindAll(ctx, browser.ByCSS, "#a", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Zero(t, logs.Len())

	_, found, err = loc.Find(ctx, browser.ByCSS, "#missing", nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestLocatorFindAllEmptyIsNotAnError(t *testing.T) {
	observe(t)
	els, err := browser.NewLocator(browsertest.New("s1")).FindAll(context.Background(), browser.ByCSS, "tr", nil)
	require.NoError(t, err)
	assert.Empty(t, els)
}

func TestQuietLocatorDoesNotLogMisses(t *testing.T) {
	logs := observe(t)
	loc := browser.NewLocator(browsertest.New("s1")).Quiet()

	_, found, err := loc.Find(context.Background(), browser.ByCSS, ".tour-error", nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, logs.Len())
}

func TestLocatorFindOrFail(t *testing.T) {
	observe(t)
	ctx := context.Background()
	fake := browsertest.New("s1")
	row := (&browsertest.Element{}).Child("button", &browsertest.Element{Text: "Reserve"})
	fake.Add("tr", row)
	loc := browser.NewLocator(fake)

	rowEl, err := loc.FindOrFail(ctx, browser.ByCSS, "tr", nil)
	require.NoError(t, err)
	btn, err := loc.FindOrFail(ctx, browser.ByCSS, "button", rowEl)
	require.NoError(t, err)
	assert.Equal(t, "Reserve", btn.(*browsertest.Element).Text)

	_, err = loc.FindOrFail(ctx, browser.ByCSS, "a", rowEl)
	assert.ErrorIs(t, err, browser.ErrElementNotFound)
	var nf *browser.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "a", nf.Selector)
}

func TestLocatorPropagatesDriverErrors(t *testing.T) {
	observe(t)
	fake := browsertest.New("s1")
	fake.FindErr = browsertest.ErrCrashed

	_, _, err := browser.NewLocator(fake).Find(context.Background(), browser.ByCSS, "tr", nil)
	assert.ErrorIs(t, err, browsertest.ErrCrashed)
	assert.False(t, errors.Is(err, browser.ErrElementNotFound))
}

func TestWaitUntilVisible(t *testing.T) {
	observe(t)
	ctx := context.Background()
	fake := browsertest.New("s1")
	fake.Add("#results", &browsertest.Element{Visible: true})
	fake.Add("#hidden", &browsertest.Element{Visible: false})
	loc := browser.NewLocator(fake)

	assert.NoError(t, loc.WaitUntilVisible(ctx, browser.ByCSS, "#results", time.Second))

	err := loc.WaitUntilVisible(ctx, browser.ByCSS, "#hidden", 50*time.Millisecond)
	assert.ErrorIs(t, err, browser.ErrTimeoutExceeded)
}

func TestWaitUntilVisibleCancelledIsNotTimeout(t *testing.T) {
	observe(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := browser.NewLocator(browsertest.New("s1")).WaitUntilVisible(ctx, browser.ByCSS, "#x", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, browser.ErrTimeoutExceeded))
}

func TestSaveFullPageScreenshot(t *testing.T) {
	observe(t)
	fake := browsertest.New("s1")
	fake.Add("body", &browsertest.Element{})
	path := filepath.Join(t.TempDir(), "shot.png")

	require.NoError(t, browser.SaveFullPageScreenshot(context.Background(), fake, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fake.ScreenshotPNG, data)
	assert.Equal(t, []browser.Size{{Width: 1280, Height: 2400}, {Width: 1280, Height: 800}}, fake.Resizes)
	assert.Equal(t, browser.Size{Width: 1280, Height: 800}, fake.Window)
}

func TestSaveFullPageScreenshotRestoresWindowOnFailure(t *testing.T) {
	observe(t)
	fake := browsertest.New("s1")
	fake.Add("body", &browsertest.Element{})
	fake.ScreenshotErr = errors.New("capture failed")

	err := browser.SaveFullPageScreenshot(context.Background(), fake, filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
	assert.Equal(t, browser.Size{Width: 1280, Height: 800}, fake.Window)
}

func TestEnsureNoRunningInstance(t *testing.T) {
	prev := browser.ListProcesses
	t.Cleanup(func() { browser.ListProcesses = prev })

	browser.ListProcesses = func(context.Context) ([]browser.ProcessInfo, error) {
		return []browser.ProcessInfo{
			{PID: int32(os.Getpid()), Name: "chromedriver-test"},
			{PID: 1, Name: "init"},
		}, nil
	}
	assert.NoError(t, browser.EnsureNoRunningInstance(context.Background(), "chromedriver"))

	browser.ListProcesses = func(context.Context) ([]browser.ProcessInfo, error) {
		return []browser.ProcessInfo{{PID: 4242, Name: "ChromeDriver"}}, nil
	}
	err := browser.EnsureNoRunningInstance(context.Background(), "chromedriver")
	assert.ErrorIs(t, err, browser.ErrAlreadyRunning)

	assert.NoError(t, browser.EnsureNoRunningInstance(context.Background(), ""))
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "css", browser.ByCSS.String())
	assert.Equal(t, "xpath", browser.ByXPath.String())
	assert.Equal(t, "id", browser.ByID.String())
}
