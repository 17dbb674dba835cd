package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"jpltour/pkg/response"
	"jpltour/pkg/state"

	"github.com/gin-gonic/gin"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// GetState returns the persisted state file.
func (h *HandlerService) GetState(c *gin.Context) {
	st, err := state.Load(h.config.State.Path)
	if err != nil {
		if errors.Is(err, state.ErrStateParse) {
			response.Error(c, http.StatusUnprocessableEntity, "state file could not be parsed", err)
			return
		}
		_ = c.Error(err)
		return
	}
	response.JSON(c, http.StatusOK, st)
}

// GetRuns lists recent runs, newest first. ?limit= caps the count.
func (h *HandlerService) GetRuns(c *gin.Context) {
	if h.history == nil {
		response.Error(c, http.StatusNotFound, "run history is disabled", nil)
		return
	}

	limit := defaultRunLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxRunLimit {
			response.Error(c, http.StatusBadRequest, "limit must be between 1 and 200", nil)
			return
		}
		limit = n
	}

	runs, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list runs", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// TriggerRun starts a run now. 202 means the run was started; 409 means
// another run held the job and nothing was started.
func (h *HandlerService) TriggerRun(c *gin.Context) {
	if !h.watcher.TryRun() {
		response.Error(c, http.StatusConflict, "a run is already in progress", nil)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"message": "run triggered"})
}
