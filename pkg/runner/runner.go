// Package runner executes one complete run: browser start, scrape, change
// notifications, the reservation attempt and the final state save.
package runner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"jpltour/pkg/browser"
	"jpltour/pkg/config"
	"jpltour/pkg/history"
	"jpltour/pkg/logger"
	"jpltour/pkg/notify"
	"jpltour/pkg/reserve"
	"jpltour/pkg/state"
	"jpltour/pkg/tour"
	"jpltour/pkg/utils/dateutils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder stores finished runs. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, r history.Run) error
}

// Controller owns the state file and the browser for the length of a run.
type Controller struct {
	cfg      *config.Config
	factory  browser.Factory
	prompter reserve.Prompter
	history  Recorder

	// Trigger is stored with each history record ("cli" or "cron").
	Trigger string

	// Sleep, Rand and Now are replaced by tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Rand  func(n int64) int64
	Now   func() time.Time
	// Tune adjusts each scraper and automaton before use.
	TuneScraper   func(*tour.Scraper)
	TuneAutomaton func(*reserve.Automaton)

	mu        sync.Mutex
	automaton *reserve.Automaton
}

func New(cfg *config.Config, factory browser.Factory, prompter reserve.Prompter) *Controller {
	return &Controller{
		cfg:      cfg,
		factory:  factory,
		prompter: prompter,
		Trigger:  "cli",
		Sleep:    sleep,
		Rand:     rand.Int64N,
		Now:      time.Now,
	}
}

// WithHistory records every run in r.
func (c *Controller) WithHistory(r Recorder) *Controller {
	c.history = r
	return c
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Interrupt shortens a reservation countdown wait in progress. It returns
// false when there is nothing to interrupt.
func (c *Controller) Interrupt() bool {
	c.mu.Lock()
	a := c.automaton
	c.mu.Unlock()
	return a != nil && a.Interrupt()
}

func (c *Controller) setAutomaton(a *reserve.Automaton) {
	c.mu.Lock()
	c.automaton = a
	c.mu.Unlock()
}

// Run performs one run. The state file is saved on every path, and the
// returned error is the first fatal one, which is also in res.Errors.
func (c *Controller) Run(ctx context.Context) (*notify.RunResult, error) {
	runID := logger.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logger.WithRunID(ctx, runID)
	}
	log := logger.Named(ctx, "runner")
	started := c.Now()
	res := &notify.RunResult{}
	statePath := c.cfg.State.Path

	log.Info("Starting run", zap.String("state", statePath))

	st, err := state.Load(statePath)
	if err != nil {
		res.Warn("StateParseError", err.Error())
	}

	final, err := c.execute(ctx, st, res)
	if err != nil {
		log.Error("Run failed", zap.String("kind", Kind(err)), zap.Error(err))
		res.Fail(Kind(err), err)
	}

	if saveErr := state.Save(statePath, st); saveErr != nil {
		log.Error("Failed to save state", zap.Error(saveErr))
		res.Fail("StateWriteError", saveErr)
		if err == nil {
			err = saveErr
		}
	}

	c.record(ctx, runID, st, final, started, res)

	log.Info("Run finished",
		zap.Stringer("outcome", res.Outcome()),
		zap.Int("notifications", len(res.Notifications)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int("errors", len(res.Errors)))
	return res, err
}

func (c *Controller) execute(ctx context.Context, st *state.State, res *notify.RunResult) (reserve.State, error) {
	log := logger.Named(ctx, "runner")

	if err := c.jitter(ctx); err != nil {
		return reserve.Idle, err
	}

	if c.cfg.Browser.SingleInstance {
		if err := browser.EnsureNoRunningInstance(ctx, c.cfg.Browser.ProcessName); err != nil {
			return reserve.Idle, err
		}
	}

	d, err := c.factory(ctx)
	if err != nil {
		return reserve.Idle, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if err := d.Shutdown(); err != nil {
			log.Warn("Failed to shut down browser", zap.Error(err))
		}
	}()

	session := d.SessionID()
	if session != "" && session == st.BrowserSession {
		return reserve.Idle, fmt.Errorf("%w: %s", ErrSessionReuse, session)
	}
	if _, _, err := st.SetIfChanged(state.BrowserSession, session, ""); err != nil {
		return reserve.Idle, err
	}
	log.Info("Browser session started", zap.String("session", session))

	opts := tour.Options{ContinuePressingReserve: st.ContinuePressingReserve}
	if c.cfg.Reserve.Enabled() {
		r, err := dateutils.ParseRange(c.cfg.Reserve.From, c.cfg.Reserve.To)
		if err != nil {
			return reserve.Idle, fmt.Errorf("reserve date range: %w", err)
		}
		opts.Range = &r
	}

	scraper := tour.NewScraper(d, c.cfg.Tour, c.cfg.Browser.PageTimeoutDuration())
	if c.TuneScraper != nil {
		c.TuneScraper(scraper)
	}
	facts, err := scraper.Scrape(ctx, opts, res)
	if err != nil {
		return reserve.Idle, err
	}

	notes, err := tour.Compose(st, facts)
	res.Notify(notes...)
	if err != nil {
		return reserve.Idle, err
	}

	if facts.Target == nil {
		return reserve.Idle, nil
	}

	a := reserve.New(d, reserve.Config{
		CountdownSelector: c.cfg.Tour.Selectors.Countdown,
		CountdownTimeout:  time.Duration(c.cfg.Reserve.CountdownTimeout) * time.Second,
		Margin:            time.Duration(c.cfg.Reserve.CountdownMargin) * time.Second,
		StatePath:         c.cfg.State.Path,
	}, c.prompter)
	if c.TuneAutomaton != nil {
		c.TuneAutomaton(a)
	}
	c.setAutomaton(a)
	defer c.setAutomaton(nil)

	return a.Run(ctx, facts.Target, st, res)
}

// jitter sleeps a uniform random time in [WaitMin, WaitMax] seconds.
func (c *Controller) jitter(ctx context.Context) error {
	lo, hi := c.cfg.Run.WaitMin, c.cfg.Run.WaitMax
	if hi <= 0 || hi < lo {
		return nil
	}
	if lo < 0 {
		lo = 0
	}
	secs := int64(lo) + c.Rand(int64(hi-lo)+1)
	if secs == 0 {
		return nil
	}
	d := time.Duration(secs) * time.Second
	logger.Named(ctx, "runner").Info("Waiting before start", zap.Duration("delay", d))
	return c.Sleep(ctx, d)
}

func (c *Controller) record(ctx context.Context, runID string, st *state.State, final reserve.State, started time.Time, res *notify.RunResult) {
	if c.history == nil {
		return
	}
	// a cancelled run is still recorded
	err := c.history.Record(context.WithoutCancel(ctx), history.Run{
		RunID:        runID,
		Trigger:      c.Trigger,
		Session:      st.BrowserSession,
		ReserveState: final.String(),
		StartedAt:    started,
		FinishedAt:   c.Now(),
		Result:       res,
	})
	if err != nil {
		logger.Named(ctx, "runner").Warn("Failed to record run history", zap.Error(err))
		res.Warn("HistoryError", err.Error())
	}
}
