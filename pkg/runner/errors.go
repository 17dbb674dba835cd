package runner

import (
	"context"
	"errors"

	"jpltour/pkg/browser"
	"jpltour/pkg/state"
	"jpltour/pkg/tour"
)

// ErrSessionReuse means the browser came up with the session id of the
// previous run, i.e. no fresh session was started.
var ErrSessionReuse = errors.New("browser session identifier unchanged since the previous run")

// Kind names the class of err as it appears in RunResult entries.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrSessionReuse):
		return "SessionReuseError"
	case errors.Is(err, tour.ErrFormSubmission):
		return "FormSubmissionError"
	case errors.Is(err, browser.ErrElementNotFound):
		return "ElementNotFound"
	case errors.Is(err, browser.ErrTimeoutExceeded), errors.Is(err, context.DeadlineExceeded):
		return "TimeoutExceeded"
	case errors.Is(err, browser.ErrAlreadyRunning):
		return "BrowserAlreadyRunning"
	case errors.Is(err, state.ErrStateWrite):
		return "StateWriteError"
	case errors.Is(err, state.ErrStateParse):
		return "StateParseError"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	default:
		return "Error"
	}
}
