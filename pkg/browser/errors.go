package browser

import (
	"errors"
	"fmt"
)

var (
	ErrElementNotFound  = errors.New("element not found")
	ErrTimeoutExceeded  = errors.New("timeout exceeded")
	ErrScopeUnsupported = errors.New("scoped lookup not supported for this strategy")
	ErrStaleElement     = errors.New("element handle does not belong to this browser")
	ErrAlreadyRunning   = errors.New("browser driver process already running")
)

// NotFoundError names the selector that matched nothing.
type NotFoundError struct {
	By       Strategy
	Selector string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no element matching %s %q", e.By, e.Selector)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}
