// Package browser wraps the Chrome instance that scrapes the tour page.
//
// Callers program against Driver; Chrome is the chromedp implementation and
// browsertest.Fake is an in-memory one for tests. Locator adds the lookup
// contract on top: Find, FindAll, FindOrFail and WaitUntilVisible.
package browser

import (
	"context"
	"fmt"
)

// Strategy says how a selector is interpreted.
type Strategy int

const (
	ByCSS Strategy = iota
	ByXPath
	ByID
)

func (s Strategy) String() string {
	switch s {
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	case ByID:
		return "id"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Element is an opaque handle to a DOM node, valid only for the driver that
// returned it.
type Element interface{}

// Size is a window or document size in CSS pixels.
type Size struct {
	Width  int
	Height int
}

// Driver is the browser capability used by the scraper and the reservation
// automaton. Every call blocks and honors ctx cancellation and deadline.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// FindElements never fails on zero matches; it returns an empty slice.
	// A nil scope searches the whole document.
	FindElements(ctx context.Context, by Strategy, selector string, scope Element) ([]Element, error)
	// WaitVisible blocks until a match is visible or ctx is done.
	WaitVisible(ctx context.Context, by Strategy, selector string) error
	Click(ctx context.Context, el Element) error
	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	SetValue(ctx context.Context, el Element, value string) error
	OuterHTML(ctx context.Context, el Element) (string, error)
	// Screenshot returns a PNG of el.
	Screenshot(ctx context.Context, el Element) ([]byte, error)
	WindowSize(ctx context.Context) (Size, error)
	SetWindowSize(ctx context.Context, size Size) error
	// ScrollSize is the full document size, used for full page screenshots.
	ScrollSize(ctx context.Context) (Size, error)
	SessionID() string
	// Shutdown is safe to call more than once.
	Shutdown() error
}

// Factory starts a new driver.
type Factory func(ctx context.Context) (Driver, error)
