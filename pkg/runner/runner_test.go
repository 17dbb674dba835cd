package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jpltour/pkg/browser"
	"jpltour/pkg/browser/browsertest"
	"jpltour/pkg/config"
	"jpltour/pkg/history"
	"jpltour/pkg/notify"
	"jpltour/pkg/reserve"
	"jpltour/pkg/state"
	"jpltour/pkg/tour"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsHTML = `<div id="tour-results"><table>
<tr><th>Tour Date</th><th>Start Time</th><th>Reserve</th></tr>
<tr><td>3/5/2025</td><td>1:00 PM</td><td><a href="#r1">Reserve</a></td></tr>
<tr><td>3/12/2025</td><td>10:00 AM</td><td><a href="#r2">Reserve</a></td></tr>
</table></div>`

type fakePrompter struct {
	answer string
}

func (p *fakePrompter) Interactive() bool { return true }

func (p *fakePrompter) Confirm(ctx context.Context, question string) (string, error) {
	return p.answer, nil
}

type recorder struct {
	runs []history.Run
	err  error
}

func (r *recorder) Record(ctx context.Context, run history.Run) error {
	r.runs = append(r.runs, run)
	return r.err
}

type env struct {
	cfg     *config.Config
	fake    *browsertest.Fake
	control *browsertest.Element
	ctrl    *Controller
	hist    *recorder
}

// newEnv builds a tour page with two tours, the first one reservable.
func newEnv(t *testing.T, session string) *env {
	t.Helper()
	cfg := config.Default()
	cfg.State.Path = filepath.Join(t.TempDir(), "jpl_tour.state.json")
	cfg.Tour.ScreenshotPath = ""
	cfg.Tour.SettleDelay = 0
	cfg.Run.WaitMin, cfg.Run.WaitMax = 0, 0
	cfg.Reserve.From, cfg.Reserve.To = "", ""
	cfg.Browser.SingleInstance = false
	sel := cfg.Tour.Selectors

	e := &env{cfg: cfg, fake: browsertest.New(session), hist: &recorder{}}
	f := e.fake

	f.Add(sel.TourType, (&browsertest.Element{}).Child("option",
		&browsertest.Element{Text: "Visitor Day Tour", Attrs: map[string]string{"value": "visitor-day"}},
	))
	f.Add(sel.GroupSize, &browsertest.Element{})
	f.Add(sel.Submit, &browsertest.Element{Attrs: map[string]string{}})
	f.Add(sel.Summary, &browsertest.Element{Text: "3 tours available"})

	e.control = &browsertest.Element{Name: "reserve", OnClick: func() {
		f.Set(sel.Countdown, &browsertest.Element{Text: "07:30", Visible: true})
	}}
	tableEl := (&browsertest.Element{}).Child("tr",
		(&browsertest.Element{}).Child("td, th",
			&browsertest.Element{Text: "Tour Date"},
			&browsertest.Element{Text: "Start Time"},
			&browsertest.Element{Text: "Reserve"},
		),
		(&browsertest.Element{}).Child("td, th",
			&browsertest.Element{Text: "3/5/2025"},
			&browsertest.Element{Text: "1:00 PM"},
			(&browsertest.Element{}).Child(sel.ReserveControl, e.control),
		),
	)
	f.Add(sel.Results, (&browsertest.Element{Visible: true, HTML: resultsHTML}).Child("table", tableEl))

	e.ctrl = New(cfg, func(context.Context) (browser.Driver, error) { return f, nil }, &fakePrompter{answer: "yes"}).
		WithHistory(e.hist)
	e.ctrl.TuneScraper = func(s *tour.Scraper) {
		s.Sleep = func(context.Context, time.Duration) error { return nil }
	}
	return e
}

func (e *env) seed(t *testing.T, mutate func(*state.State)) {
	t.Helper()
	st := state.Default()
	mutate(st)
	require.NoError(t, state.Save(e.cfg.State.Path, st))
}

func (e *env) saved(t *testing.T) *state.State {
	t.Helper()
	st, err := state.Load(e.cfg.State.Path)
	require.NoError(t, err)
	return st
}

func titles(res *notify.RunResult) []string {
	out := make([]string, len(res.Notifications))
	for i, n := range res.Notifications {
		out[i] = n.Title
	}
	return out
}

func TestRunReportsAvailabilityChange(t *testing.T) {
	e := newEnv(t, "abc123")
	e.seed(t, func(st *state.State) {
		st.BrowserSession = "previous"
		st.TourAvailable = "No tours found."
	})

	res, err := e.ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{tour.TitleAvailability, tour.TitleDetails}, titles(res))
	assert.Equal(t, notify.New(tour.TitleAvailability, "3 tours available"), res.Notifications[0])
	assert.Contains(t, res.Notifications[1].Content, "3/12/2025")
	assert.Equal(t, notify.OutcomeSuccess, res.Outcome())

	st := e.saved(t)
	assert.Equal(t, "3 tours available", st.TourAvailable)
	assert.Equal(t, "abc123", st.BrowserSession)
	assert.True(t, st.ContinuePressingReserve)
	assert.Empty(t, e.fake.Clicked[1:], "only the search form is submitted")
	assert.Equal(t, 1, e.fake.ShutdownCalls)

	require.Len(t, e.hist.runs, 1)
	assert.Equal(t, "cli", e.hist.runs[0].Trigger)
	assert.Equal(t, "abc123", e.hist.runs[0].Session)
	assert.Equal(t, reserve.Idle.String(), e.hist.runs[0].ReserveState)
}

func TestRunSecondRunIsQuiet(t *testing.T) {
	e := newEnv(t, "first")
	_, err := e.ctrl.Run(context.Background())
	require.NoError(t, err)

	e.fake.Session = "second"
	res, err := e.ctrl.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Notifications)
	assert.True(t, res.Empty())
}

func TestRunAbortsOnSessionReuse(t *testing.T) {
	e := newEnv(t, "abc123")
	e.seed(t, func(st *state.State) { st.BrowserSession = "abc123" })

	res, err := e.ctrl.Run(context.Background())
	require.ErrorIs(t, err, ErrSessionReuse)

	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "SessionReuseError: "), res.Errors[0])
	assert.Empty(t, e.fake.Navigated, "no scraping after a reused session")
	assert.Equal(t, 1, e.fake.ShutdownCalls)
	assert.Equal(t, notify.OutcomeErrors, res.Outcome())
}

func TestRunPersistsSessionWhenPipelineFails(t *testing.T) {
	e := newEnv(t, "abc123")
	e.seed(t, func(st *state.State) { st.BrowserSession = "old" })
	e.fake.NavigateErr = browsertest.ErrCrashed

	res, err := e.ctrl.Run(context.Background())
	require.ErrorIs(t, err, browsertest.ErrCrashed)

	assert.Len(t, res.Errors, 1)
	assert.Equal(t, "abc123", e.saved(t).BrowserSession)
	assert.Equal(t, 1, e.fake.ShutdownCalls)
}

func TestRunResultsTimeout(t *testing.T) {
	e := newEnv(t, "abc123")
	e.fake.Set(e.cfg.Tour.Selectors.Results, &browsertest.Element{Visible: false})

	res, err := e.ctrl.Run(context.Background())
	require.ErrorIs(t, err, browser.ErrTimeoutExceeded)

	kind, _ := notify.SplitEntry(res.Errors[0])
	assert.Equal(t, "TimeoutExceeded", kind)
	assert.Equal(t, "abc123", e.saved(t).BrowserSession)
}

func TestRunRecoversFromMalformedState(t *testing.T) {
	e := newEnv(t, "abc123")
	require.NoError(t, os.WriteFile(e.cfg.State.Path, []byte("{not json"), 0o644))

	res, err := e.ctrl.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	kind, _ := notify.SplitEntry(res.Warnings[0])
	assert.Equal(t, "StateParseError", kind)
	assert.Equal(t, notify.OutcomeWarnings, res.Outcome())
	assert.Equal(t, "3 tours available", e.saved(t).TourAvailable)
}

func TestRunReportsStateWriteFailure(t *testing.T) {
	e := newEnv(t, "abc123")
	e.cfg.State.Path = filepath.Join(t.TempDir(), "missing", "state.json")

	res, err := e.ctrl.Run(context.Background())
	require.ErrorIs(t, err, state.ErrStateWrite)

	kind, _ := notify.SplitEntry(res.Errors[len(res.Errors)-1])
	assert.Equal(t, "StateWriteError", kind)
	assert.NotEmpty(t, res.Notifications)
}

func TestRunReservesCandidate(t *testing.T) {
	e := newEnv(t, "abc123")
	e.cfg.Reserve.From, e.cfg.Reserve.To = "2025-03-31", "2025-03-01"

	var waited []time.Duration
	e.ctrl.TuneAutomaton = func(a *reserve.Automaton) {
		a.After = func(d time.Duration) <-chan time.Time {
			waited = append(waited, d)
			ch := make(chan time.Time, 1)
			ch <- time.Now()
			return ch
		}
	}

	res, err := e.ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []*browsertest.Element{e.control}, e.fake.Clicked[1:])
	assert.Equal(t, []time.Duration{12*time.Minute + 30*time.Second}, waited)
	assert.Equal(t, []string{
		tour.TitleAvailability,
		tour.TitleDetails,
		reserve.TitlePressed,
		reserve.TitleContinue,
	}, titles(res))
	assert.False(t, e.saved(t).ContinuePressingReserve)
	assert.Equal(t, reserve.ContinueDisabled.String(), e.hist.runs[0].ReserveState)
	assert.False(t, e.ctrl.Interrupt(), "no wait in progress after the run")
}

func TestRunSkipsReservationOnceConfirmed(t *testing.T) {
	e := newEnv(t, "abc123")
	e.cfg.Reserve.From, e.cfg.Reserve.To = "2025-03-01", "2025-03-31"
	e.seed(t, func(st *state.State) { st.ContinuePressingReserve = false })

	_, err := e.ctrl.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, e.fake.Clicked, 1, "only the search form is submitted")
}

func TestRunJitter(t *testing.T) {
	e := newEnv(t, "abc123")
	e.cfg.Run.WaitMin, e.cfg.Run.WaitMax = 2, 5

	var slept []time.Duration
	e.ctrl.Rand = func(n int64) int64 { return n - 1 }
	e.ctrl.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := e.ctrl.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, slept)
}

func TestRunFactoryError(t *testing.T) {
	e := newEnv(t, "abc123")
	e.ctrl.factory = func(context.Context) (browser.Driver, error) {
		return nil, errors.New("chrome not found")
	}

	res, err := e.ctrl.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, res.Errors[0], "chrome not found")
	assert.FileExists(t, e.cfg.State.Path)
}

func TestRunHistoryFailureIsWarning(t *testing.T) {
	e := newEnv(t, "abc123")
	e.hist.err = errors.New("database is locked")

	res, err := e.ctrl.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "HistoryError")
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrSessionReuse, "SessionReuseError"},
		{errors.Join(tour.ErrFormSubmission, browser.ErrElementNotFound), "FormSubmissionError"},
		{&browser.NotFoundError{Selector: "#x"}, "ElementNotFound"},
		{browser.ErrTimeoutExceeded, "TimeoutExceeded"},
		{state.ErrStateWrite, "StateWriteError"},
		{context.Canceled, "Cancelled"},
		{errors.New("other"), "Error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), tt.err.Error())
	}
}
