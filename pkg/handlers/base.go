// Package handlers serves the watch-mode status API.
package handlers

import (
	"context"
	"time"

	"jpltour/internal/models"
	"jpltour/pkg/config"
	"jpltour/pkg/scheduler"
)

const ServiceName = "jpltour"

// Watcher is the part of scheduler.Watcher the API uses.
type Watcher interface {
	Status() scheduler.Job
	TryRun() bool
}

// RunLister lists recorded runs. *history.Store implements it.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// HandlerService holds what the handlers read from.
type HandlerService struct {
	config  *config.Config
	watcher Watcher
	history RunLister
	version string
	started time.Time
}

// NewHandlerService builds the handlers. history may be nil when the run
// history is disabled.
func NewHandlerService(cfg *config.Config, watcher Watcher, history RunLister, version string) *HandlerService {
	return &HandlerService{
		config:  cfg,
		watcher: watcher,
		history: history,
		version: version,
		started: time.Now(),
	}
}
