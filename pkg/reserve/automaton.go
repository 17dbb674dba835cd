// Package reserve presses the Reserve control for a matching tour and waits
// for the operator to finish the booking.
package reserve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"jpltour/pkg/browser"
	"jpltour/pkg/logger"
	"jpltour/pkg/notify"
	"jpltour/pkg/state"
	"jpltour/pkg/tour"

	"go.uber.org/zap"
)

// State is a step of one reservation attempt.
type State int

const (
	Idle State = iota
	CandidateFound
	Pressed
	AwaitingCountdown
	AwaitingOperatorConfirmation
	ContinueEnabled
	ContinueDisabled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case CandidateFound:
		return "CandidateFound"
	case Pressed:
		return "Pressed"
	case AwaitingCountdown:
		return "AwaitingCountdown"
	case AwaitingOperatorConfirmation:
		return "AwaitingOperatorConfirmation"
	case ContinueEnabled:
		return "ContinueEnabled"
	case ContinueDisabled:
		return "ContinueDisabled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	TitlePressed  = "Reserve pressed"
	TitleContinue = "Continue pressing Reserve"
)

// Config holds what the automaton needs besides the browser.
type Config struct {
	CountdownSelector string
	CountdownTimeout  time.Duration
	Margin            time.Duration
	// StatePath is named in the warning when nobody can confirm.
	StatePath string
}

// Automaton makes at most one reservation attempt per Run.
type Automaton struct {
	loc      *browser.Locator
	cfg      Config
	prompter Prompter

	// After is the countdown timer. Tests replace it.
	After func(d time.Duration) <-chan time.Time

	mu        sync.Mutex
	state     State
	interrupt chan struct{}
}

// New builds an automaton on d. A zero cfg.Margin means DefaultMargin.
func New(d browser.Driver, cfg Config, prompter Prompter) *Automaton {
	if cfg.Margin == 0 {
		cfg.Margin = DefaultMargin
	}
	return &Automaton{
		loc:      browser.NewLocator(d),
		cfg:      cfg,
		prompter: prompter,
		After:    time.After,
		state:    Idle,
	}
}

// State returns the current step.
func (a *Automaton) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Automaton) enter(ctx context.Context, s State) {
	a.mu.Lock()
	prev := a.state
	a.state = s
	a.mu.Unlock()
	logger.FromContext(ctx).Debug("Reservation state",
		zap.Stringer("from", prev),
		zap.Stringer("to", s))
}

// Interrupt cuts the countdown wait short. It returns false when no wait is
// in progress, so the caller can handle the signal some other way.
func (a *Automaton) Interrupt() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.interrupt == nil {
		return false
	}
	close(a.interrupt)
	a.interrupt = nil
	return true
}

func (a *Automaton) waiting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interrupt != nil
}

// Run presses the target's control when st allows it, waits out the
// countdown, asks for confirmation and stores the decision in st. It returns
// the final step reached.
func (a *Automaton) Run(ctx context.Context, target *tour.Target, st *state.State, res *notify.RunResult) (State, error) {
	log := logger.Named(ctx, "reserve")
	a.enter(ctx, Idle)

	if target == nil || !st.ContinuePressingReserve {
		return Idle, nil
	}
	a.enter(ctx, CandidateFound)
	log.Info("Pressing Reserve", zap.Strings("tour", target.Details))

	if target.Control == nil {
		return CandidateFound, &browser.NotFoundError{By: browser.ByCSS, Selector: "reserve control"}
	}
	if err := a.loc.Driver().Click(ctx, target.Control); err != nil {
		if errors.Is(err, browser.ErrStaleElement) {
			return CandidateFound, fmt.Errorf("%w: %v", browser.ErrElementNotFound, err)
		}
		return CandidateFound, fmt.Errorf("press reserve: %w", err)
	}
	a.enter(ctx, Pressed)
	res.Notify(notify.New(TitlePressed, strings.Join(target.Details, "\n")))

	a.enter(ctx, AwaitingCountdown)
	text, err := a.countdownText(ctx)
	if err != nil {
		return AwaitingCountdown, err
	}

	wait, err := WaitDuration(text, a.cfg.Margin)
	if err != nil {
		log.Warn("Failed to parse countdown, waiting for the margin only", zap.Error(err))
		res.Warn("CountdownParseError", err.Error())
		wait = a.cfg.Margin
	}
	log.Info("Waiting for the reservation to be completed",
		zap.String("countdown", text),
		zap.Duration("wait", wait))
	if a.wait(ctx, wait) {
		log.Info("Countdown wait interrupted")
	}

	a.enter(ctx, AwaitingOperatorConfirmation)
	confirmed := a.confirm(ctx, res)

	n, changed, err := st.SetContinuePressingReserve(!confirmed, TitleContinue)
	if err != nil {
		return AwaitingOperatorConfirmation, err
	}
	if changed {
		res.Notify(n)
	}

	final := ContinueEnabled
	if confirmed {
		final = ContinueDisabled
	}
	a.enter(ctx, final)
	return final, nil
}

// countdownText waits for the countdown to show non-empty text.
func (a *Automaton) countdownText(ctx context.Context) (string, error) {
	sel := a.cfg.CountdownSelector
	if err := a.loc.WaitUntilVisible(ctx, browser.ByCSS, sel, a.cfg.CountdownTimeout); err != nil {
		return "", err
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.CountdownTimeout)
	defer cancel()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		el, found, err := a.loc.Quiet().Find(waitCtx, browser.ByCSS, sel, nil)
		if err == nil && found {
			text, err := a.loc.Driver().Text(waitCtx, el)
			if err == nil && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text), nil
			}
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("%w: countdown %q stayed empty for %s", browser.ErrTimeoutExceeded, sel, a.cfg.CountdownTimeout)
		case <-ticker.C:
		}
	}
}

// wait sleeps for d and reports whether it was cut short by Interrupt or ctx.
func (a *Automaton) wait(ctx context.Context, d time.Duration) bool {
	ch := make(chan struct{})
	a.mu.Lock()
	a.interrupt = ch
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.interrupt = nil
		a.mu.Unlock()
	}()

	select {
	case <-a.After(d):
		return false
	case <-ch:
		return true
	case <-ctx.Done():
		return true
	}
}

func (a *Automaton) confirm(ctx context.Context, res *notify.RunResult) bool {
	log := logger.Named(ctx, "reserve")

	if a.prompter == nil || !a.prompter.Interactive() {
		msg := fmt.Sprintf("no interactive input to confirm the booking; set CONTINUE_PRESSING_RESERVE to false in %s once it is done", a.cfg.StatePath)
		log.Warn("Cannot ask for confirmation", zap.String("hint", msg))
		res.Warn("ConfirmationSkipped", msg)
		return false
	}

	answer, err := a.prompter.Confirm(ctx, "Was the tour reserved successfully? [y/N]")
	if err != nil {
		log.Warn("No confirmation received", zap.Error(err))
		return false
	}
	ok := IsAffirmative(answer)
	log.Info("Operator answered", zap.String("answer", strings.TrimSpace(answer)), zap.Bool("reserved", ok))
	return ok
}
