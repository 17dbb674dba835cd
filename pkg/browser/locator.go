package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jpltour/pkg/logger"

	"go.uber.org/zap"
)

// Locator looks up elements through a Driver. Misses are logged at error
// level; a Quiet locator skips that for lookups where absence is expected.
type Locator struct {
	driver Driver
	quiet  bool
}

func NewLocator(d Driver) *Locator {
	return &Locator{driver: d}
}

// Quiet returns a copy of l that does not log misses.
func (l *Locator) Quiet() *Locator {
	return &Locator{driver: l.driver, quiet: true}
}

// Driver returns the underlying driver.
func (l *Locator) Driver() Driver {
	return l.driver
}

// Find returns the first match. found is false when nothing matched; err is
// only set when the driver failed.
func (l *Locator) Find(ctx context.Context, by Strategy, selector string, scope Element) (el Element, found bool, err error) {
	els, err := l.FindAll(ctx, by, selector, scope)
	if err != nil {
		return nil, false, err
	}
	if len(els) == 0 {
		return nil, false, nil
	}
	return els[0], true, nil
}

// FindAll returns every match, possibly none.
func (l *Locator) FindAll(ctx context.Context, by Strategy, selector string, scope Element) ([]Element, error) {
	els, err := l.driver.FindElements(ctx, by, selector, scope)
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", by, selector, err)
	}
	if len(els) == 0 {
		l.miss(ctx, by, selector)
	}
	return els, nil
}

// FindOrFail is Find that turns a miss into a *NotFoundError.
func (l *Locator) FindOrFail(ctx context.Context, by Strategy, selector string, scope Element) (Element, error) {
	el, found, err := l.Find(ctx, by, selector, scope)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{By: by, Selector: selector}
	}
	return el, nil
}

// WaitUntilVisible blocks until selector is visible. Running out of time is
// reported as ErrTimeoutExceeded.
func (l *Locator) WaitUntilVisible(ctx context.Context, by Strategy, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := l.driver.WaitVisible(waitCtx, by, selector)
	if err == nil {
		return nil
	}

	// the parent being cancelled is not a timeout
	if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || waitCtx.Err() != nil) {
		err = fmt.Errorf("%w: %s %q not visible after %s", ErrTimeoutExceeded, by, selector, timeout)
	}
	if !l.quiet {
		logger.FromContext(ctx).Error("Element did not become visible",
			zap.Stringer("by", by),
			zap.String("selector", selector),
			zap.Duration("timeout", timeout),
			zap.Error(err))
	}
	return err
}

func (l *Locator) miss(ctx context.Context, by Strategy, selector string) {
	if l.quiet {
		return
	}
	logger.FromContext(ctx).Error("Element not found",
		zap.Stringer("by", by),
		zap.String("selector", selector))
}
