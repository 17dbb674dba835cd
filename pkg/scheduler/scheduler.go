// Package scheduler repeats runs on a cron schedule for watch mode.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jpltour/pkg/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job statuses
const (
	JobStatusScheduled = "scheduled"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

var (
	ErrInvalidSchedule = errors.New("invalid cron expression")
	ErrAlreadyStarted  = errors.New("watcher already started")
)

// RunFunc performs one run. The run id is also attached to ctx.
type RunFunc func(ctx context.Context, runID string) error

// Job describes the watched run.
type Job struct {
	Name    string    `json:"name"`
	Cron    string    `json:"cron"`
	NextRun time.Time `json:"next_run"`
	LastRun time.Time `json:"last_run"`
	LastID  string    `json:"last_id"`
	Runs    int       `json:"runs"`
	Status  string    `json:"status"`
	EntryID cron.EntryID
}

// Watcher runs a RunFunc on a cron schedule, one run at a time. Scheduled
// ticks, RunNow and TryRun share one in-progress flag, so a run started by
// any of them makes the others skip.
type Watcher struct {
	cron *cron.Cron
	ctx  context.Context
	run  RunFunc
	log  cronLogger
	// job is the scheduled entry wrapped in the recover chain.
	job cron.Job

	mu      sync.RWMutex
	info    Job
	started bool
	running bool
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

// NewWatcher validates spec and prepares the schedule. Runs inherit ctx.
func NewWatcher(ctx context.Context, name, spec string, run RunFunc) (*Watcher, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, spec, err)
	}

	cl := cronLogger{l: logger.Sugar.Named("cron")}
	w := &Watcher{
		cron: cron.New(cron.WithLogger(cl)),
		ctx:  ctx,
		run:  run,
		log:  cl,
		info: Job{Name: name, Cron: spec, Status: JobStatusScheduled},
	}
	w.job = cron.NewChain(cron.Recover(cl)).Then(cron.FuncJob(w.scheduled))

	entryID, err := w.cron.AddJob(spec, w.job)
	if err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}
	w.info.EntryID = entryID
	return w, nil
}

// Start runs the schedule until the watcher's context is cancelled.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	w.mu.Unlock()

	w.cron.Start()
	w.updateNextRun()

	info := w.Status()
	logger.Info("Watching for tour changes",
		zap.String("job_name", info.Name),
		zap.String("cron", info.Cron),
		zap.Time("next_run", info.NextRun))

	<-w.ctx.Done()
	logger.Info("Watcher context cancelled")
	return nil
}

// Shutdown stops scheduling and waits for a running job, bounded by ctx.
func (w *Watcher) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down watcher")
	cronCtx := w.cron.Stop()

	select {
	case <-cronCtx.Done():
		logger.Info("Watcher stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Watcher shutdown timeout, a run may still be in progress")
		return ctx.Err()
	}
}

// RunNow runs the job outside the schedule and waits for it. It is skipped
// when a run is already in progress.
func (w *Watcher) RunNow() {
	w.job.Run()
}

// TryRun starts a run in the background. It reports false, starting nothing,
// when a run is already in progress.
func (w *Watcher) TryRun() bool {
	runID, ok := w.claim()
	if !ok {
		return false
	}
	job := cron.NewChain(cron.Recover(w.log)).Then(cron.FuncJob(func() { w.execute(runID) }))
	go job.Run()
	return true
}

// Status returns a snapshot of the job.
func (w *Watcher) Status() Job {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.info
}

func (w *Watcher) scheduled() {
	runID, ok := w.claim()
	if !ok {
		logger.Info("Run skipped, previous run still in progress", zap.String("job_name", w.info.Name))
		return
	}
	w.execute(runID)
}

// claim marks the job running and assigns the run id. It fails while another
// run holds the job.
func (w *Watcher) claim() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return "", false
	}
	runID := uuid.NewString()
	w.running = true
	w.info.Status = JobStatusRunning
	w.info.LastRun = time.Now()
	w.info.LastID = runID
	w.info.Runs++
	return runID, true
}

func (w *Watcher) execute(runID string) {
	ctx := logger.WithRunID(w.ctx, runID)
	log := logger.Named(ctx, "scheduler")
	name := w.info.Name

	// a panicking run is released as failed; cron.Recover logs the panic
	status := JobStatusFailed
	defer func() {
		w.mu.Lock()
		w.info.Status = status
		w.running = false
		w.mu.Unlock()
		w.updateNextRun()
	}()

	log.Info("Executing scheduled run", zap.String("job_name", name))
	if err := w.run(ctx, runID); err != nil {
		log.Error("Scheduled run failed", zap.String("job_name", name), zap.Error(err))
		return
	}
	status = JobStatusCompleted
	log.Info("Scheduled run completed", zap.String("job_name", name))
}

func (w *Watcher) updateNextRun() {
	entry := w.cron.Entry(w.info.EntryID)
	w.mu.Lock()
	defer w.mu.Unlock()
	if entry.Valid() && !entry.Next.IsZero() {
		w.info.NextRun = entry.Next
		return
	}
	if schedule, err := cron.ParseStandard(w.info.Cron); err == nil {
		w.info.NextRun = schedule.Next(time.Now())
	}
}
