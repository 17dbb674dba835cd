package reserve

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"jpltour/pkg/browser"
	"jpltour/pkg/browser/browsertest"
	"jpltour/pkg/notify"
	"jpltour/pkg/state"
	"jpltour/pkg/tour"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countdownSel = "#reservation-countdown"

type fakePrompter struct {
	interactive bool
	answer      string
	err         error
	asked       int
}

func (p *fakePrompter) Interactive() bool { return p.interactive }

func (p *fakePrompter) Confirm(ctx context.Context, question string) (string, error) {
	p.asked++
	return p.answer, p.err
}

type fixture struct {
	fake      *browsertest.Fake
	control   *browsertest.Element
	countdown *browsertest.Element
	target    *tour.Target
	prompter  *fakePrompter
	automaton *Automaton

	mu     sync.Mutex
	waited []time.Duration
}

// newFixture builds a page where clicking Reserve reveals countdownText.
func newFixture(t *testing.T, countdownText string) *fixture {
	t.Helper()
	f := &fixture{
		fake:      browsertest.New("s1"),
		countdown: &browsertest.Element{Text: countdownText, Visible: true},
		prompter:  &fakePrompter{interactive: true, answer: "yes"},
	}
	f.control = &browsertest.Element{Name: "reserve", OnClick: func() {
		f.fake.Set(countdownSel, f.countdown)
	}}
	f.target = &tour.Target{
		Row:     tour.Row{Date: "3/5/2025", Index: 3},
		Details: []string{"Date: 3/5/2025", "Time: 1:00 PM"},
		Control: f.control,
	}
	f.automaton = New(f.fake, Config{
		CountdownSelector: countdownSel,
		CountdownTimeout:  100 * time.Millisecond,
		Margin:            DefaultMargin,
		StatePath:         "jpl_tour.state.json",
	}, f.prompter)
	f.automaton.After = func(d time.Duration) <-chan time.Time {
		f.mu.Lock()
		f.waited = append(f.waited, d)
		f.mu.Unlock()
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return f
}

func TestRunWithoutTargetStaysIdle(t *testing.T) {
	f := newFixture(t, "07:30")
	res := &notify.RunResult{}

	got, err := f.automaton.Run(context.Background(), nil, state.Default(), res)
	require.NoError(t, err)
	assert.Equal(t, Idle, got)
	assert.Empty(t, f.fake.Clicked)
	assert.True(t, res.Empty())
}

func TestRunDisabledByStateStaysIdle(t *testing.T) {
	f := newFixture(t, "07:30")
	st := state.Default()
	st.ContinuePressingReserve = false

	got, err := f.automaton.Run(context.Background(), f.target, st, &notify.RunResult{})
	require.NoError(t, err)
	assert.Equal(t, Idle, got)
	assert.Empty(t, f.fake.Clicked)
}

func TestRunConfirmedDisablesFurtherAttempts(t *testing.T) {
	f := newFixture(t, "07:30")
	f.prompter.answer = "  Yes \n"
	st := state.Default()
	res := &notify.RunResult{}

	got, err := f.automaton.Run(context.Background(), f.target, st, res)
	require.NoError(t, err)

	assert.Equal(t, ContinueDisabled, got)
	assert.Equal(t, []time.Duration{12*time.Minute + 30*time.Second}, f.waited)
	assert.Equal(t, []*browsertest.Element{f.control}, f.fake.Clicked)
	assert.Equal(t, 1, f.prompter.asked)
	assert.False(t, st.ContinuePressingReserve)
	assert.Equal(t, []notify.Notification{
		notify.New(TitlePressed, "Date: 3/5/2025\nTime: 1:00 PM"),
		notify.New(TitleContinue, "false"),
	}, res.Notifications)
}

func TestRunNotConfirmedKeepsTrying(t *testing.T) {
	for _, answer := range []string{"no", "", "maybe", "nope"} {
		t.Run(answer, func(t *testing.T) {
			f := newFixture(t, "01:00")
			f.prompter.answer = answer
			st := state.Default()
			res := &notify.RunResult{}

			got, err := f.automaton.Run(context.Background(), f.target, st, res)
			require.NoError(t, err)
			assert.Equal(t, ContinueEnabled, got)
			assert.True(t, st.ContinuePressingReserve)
			assert.Len(t, res.Notifications, 1)
		})
	}
}

func TestRunPromptErrorKeepsTrying(t *testing.T) {
	f := newFixture(t, "01:00")
	f.prompter.err = errors.New("stdin closed")

	got, err := f.automaton.Run(context.Background(), f.target, state.Default(), &notify.RunResult{})
	require.NoError(t, err)
	assert.Equal(t, ContinueEnabled, got)
}

func TestRunWithoutTerminalWarns(t *testing.T) {
	f := newFixture(t, "01:00")
	f.prompter.interactive = false
	res := &notify.RunResult{}

	got, err := f.automaton.Run(context.Background(), f.target, state.Default(), res)
	require.NoError(t, err)
	assert.Equal(t, ContinueEnabled, got)
	assert.Zero(t, f.prompter.asked)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "ConfirmationSkipped: "))
	assert.Contains(t, res.Warnings[0], "jpl_tour.state.json")
}

func TestRunMissingControlIsElementNotFound(t *testing.T) {
	f := newFixture(t, "01:00")
	f.target.Control = nil

	got, err := f.automaton.Run(context.Background(), f.target, state.Default(), &notify.RunResult{})
	assert.ErrorIs(t, err, browser.ErrElementNotFound)
	assert.Equal(t, CandidateFound, got)
}

func TestRunStaleControlIsElementNotFound(t *testing.T) {
	f := newFixture(t, "01:00")
	f.target.Control = "not a node"

	_, err := f.automaton.Run(context.Background(), f.target, state.Default(), &notify.RunResult{})
	assert.ErrorIs(t, err, browser.ErrElementNotFound)
}

func TestRunCountdownNeverAppears(t *testing.T) {
	f := newFixture(t, "01:00")
	f.control.OnClick = nil
	st := state.Default()

	got, err := f.automaton.Run(context.Background(), f.target, st, &notify.RunResult{})
	assert.ErrorIs(t, err, browser.ErrTimeoutExceeded)
	assert.Equal(t, AwaitingCountdown, got)
	assert.True(t, st.ContinuePressingReserve)
	assert.Empty(t, f.waited)
}

func TestRunCountdownStaysEmpty(t *testing.T) {
	f := newFixture(t, "   ")

	_, err := f.automaton.Run(context.Background(), f.target, state.Default(), &notify.RunResult{})
	assert.ErrorIs(t, err, browser.ErrTimeoutExceeded)
}

func TestRunUnparsableCountdownWaitsMarginOnly(t *testing.T) {
	f := newFixture(t, "soon")
	res := &notify.RunResult{}

	got, err := f.automaton.Run(context.Background(), f.target, state.Default(), res)
	require.NoError(t, err)
	assert.Equal(t, ContinueDisabled, got)
	assert.Equal(t, []time.Duration{DefaultMargin}, f.waited)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "CountdownParseError: "))
}

func TestInterruptShortensCountdownWait(t *testing.T) {
	f := newFixture(t, "59:59")
	f.automaton.After = func(time.Duration) <-chan time.Time { return nil }

	done := make(chan State, 1)
	go func() {
		got, err := f.automaton.Run(context.Background(), f.target, state.Default(), &notify.RunResult{})
		assert.NoError(t, err)
		done <- got
	}()

	require.Eventually(t, f.automaton.Interrupt, time.Second, time.Millisecond)
	select {
	case got := <-done:
		assert.Equal(t, ContinueDisabled, got)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Interrupt")
	}
	assert.False(t, f.automaton.Interrupt(), "no wait in progress")
}

func TestCancelledContextShortensCountdownWait(t *testing.T) {
	f := newFixture(t, "59:59")
	f.automaton.After = func(time.Duration) <-chan time.Time { return nil }
	f.prompter.err = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan State, 1)
	go func() {
		got, _ := f.automaton.Run(ctx, f.target, state.Default(), &notify.RunResult{})
		done <- got
	}()

	require.Eventually(t, f.automaton.waiting, time.Second, time.Millisecond)
	cancel()
	select {
	case got := <-done:
		assert.Equal(t, ContinueEnabled, got)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestParseCountdown(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"07:30", 7*time.Minute + 30*time.Second},
		{"0:05", 5 * time.Second},
		{"Time remaining: 14:59", 14*time.Minute + 59*time.Second},
		{"120:00", 2 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseCountdown(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "soon", "7:6", "07-30"} {
		_, err := ParseCountdown(bad)
		assert.ErrorIs(t, err, ErrCountdownParse, bad)
	}
}

func TestWaitDurationAddsMargin(t *testing.T) {
	d, err := WaitDuration("07:30", DefaultMargin)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Minute+30*time.Second, d)
}

func TestIsAffirmative(t *testing.T) {
	for _, yes := range []string{"y", "Y", "yes", " YES\n", "yeah", "Yep", "true", "1"} {
		assert.True(t, IsAffirmative(yes), yes)
	}
	for _, no := range []string{"", "n", "no", "false", "0", "yess", "sure"} {
		assert.False(t, IsAffirmative(no), no)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AwaitingOperatorConfirmation", AwaitingOperatorConfirmation.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestTerminalPrompterOnPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	var out bytes.Buffer
	p := &TerminalPrompter{In: r, Out: &out}
	assert.False(t, p.Interactive())

	_, err = w.WriteString("yes\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	answer, err := p.Confirm(context.Background(), "Reserved?")
	require.NoError(t, err)
	assert.Equal(t, "yes\n", answer)
	assert.Equal(t, "Reserved? ", out.String())
}
