// Package browsertest provides an in-memory browser.Driver for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"

	"jpltour/pkg/browser"
)

// Element is a fake DOM node. Children are keyed by selector and are what a
// lookup scoped to this element returns.
type Element struct {
	Name     string
	Text     string
	HTML     string
	Value    string
	Attrs    map[string]string
	Visible  bool
	Children map[string][]*Element
	// OnClick runs when the element is clicked, e.g. to reveal a countdown.
	OnClick  func()
	ClickErr error
}

// Child adds children under selector and returns e.
func (e *Element) Child(selector string, els ...*Element) *Element {
	if e.Children == nil {
		e.Children = make(map[string][]*Element)
	}
	e.Children[selector] = append(e.Children[selector], els...)
	return e
}

// Fake implements browser.Driver over a selector-to-elements map. The
// strategy of a lookup is ignored: selectors are matched as plain strings.
type Fake struct {
	mu sync.Mutex

	Session       string
	Elements      map[string][]*Element
	Window        browser.Size
	Scroll        browser.Size
	ScreenshotPNG []byte
	NavigateErr   error
	ScreenshotErr error
	// FindErr makes every lookup fail, to simulate a crashed tab.
	FindErr error

	Navigated     []string
	Clicked       []*Element
	Resizes       []browser.Size
	ShutdownCalls int
}

var _ browser.Driver = (*Fake)(nil)

func New(session string) *Fake {
	return &Fake{
		Session:       session,
		Elements:      make(map[string][]*Element),
		Window:        browser.Size{Width: 1280, Height: 800},
		Scroll:        browser.Size{Width: 1280, Height: 2400},
		ScreenshotPNG: []byte("\x89PNG"),
	}
}

// Add appends document-level matches for selector.
func (f *Fake) Add(selector string, els ...*Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Elements[selector] = append(f.Elements[selector], els...)
}

// Set replaces the document-level matches for selector.
func (f *Fake) Set(selector string, els ...*Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Elements[selector] = els
}

func element(el browser.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return nil, browser.ErrStaleElement
	}
	return e, nil
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigated = append(f.Navigated, url)
	return f.NavigateErr
}

func (f *Fake) FindElements(ctx context.Context, by browser.Strategy, selector string, scope browser.Element) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FindErr != nil {
		return nil, f.FindErr
	}

	matches := f.Elements[selector]
	if scope != nil {
		if by == browser.ByXPath {
			return nil, browser.ErrScopeUnsupported
		}
		parent, err := element(scope)
		if err != nil {
			return nil, err
		}
		matches = parent.Children[selector]
	}

	els := make([]browser.Element, len(matches))
	for i, m := range matches {
		els[i] = m
	}
	return els, nil
}

// WaitVisible succeeds when any match is visible and otherwise fails at
// once with context.DeadlineExceeded instead of waiting out the deadline.
func (f *Fake) WaitVisible(ctx context.Context, by browser.Strategy, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.Elements[selector] {
		if e.Visible {
			return nil
		}
	}
	return context.DeadlineExceeded
}

func (f *Fake) Click(ctx context.Context, el browser.Element) error {
	e, err := element(el)
	if err != nil {
		return err
	}
	if e.ClickErr != nil {
		return e.ClickErr
	}

	f.mu.Lock()
	f.Clicked = append(f.Clicked, e)
	f.mu.Unlock()

	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (f *Fake) Text(ctx context.Context, el browser.Element) (string, error) {
	e, err := element(el)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

func (f *Fake) Attribute(ctx context.Context, el browser.Element, name string) (string, bool, error) {
	e, err := element(el)
	if err != nil {
		return "", false, err
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (f *Fake) SetValue(ctx context.Context, el browser.Element, value string) error {
	e, err := element(el)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e.Value = value
	return nil
}

func (f *Fake) OuterHTML(ctx context.Context, el browser.Element) (string, error) {
	e, err := element(el)
	if err != nil {
		return "", err
	}
	return e.HTML, nil
}

func (f *Fake) Screenshot(ctx context.Context, el browser.Element) ([]byte, error) {
	if _, err := element(el); err != nil {
		return nil, err
	}
	if f.ScreenshotErr != nil {
		return nil, f.ScreenshotErr
	}
	return f.ScreenshotPNG, nil
}

func (f *Fake) WindowSize(ctx context.Context) (browser.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Window, nil
}

func (f *Fake) SetWindowSize(ctx context.Context, size browser.Size) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Window = size
	f.Resizes = append(f.Resizes, size)
	return nil
}

func (f *Fake) ScrollSize(ctx context.Context) (browser.Size, error) {
	return f.Scroll, nil
}

func (f *Fake) SessionID() string {
	return f.Session
}

func (f *Fake) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ShutdownCalls++
	return nil
}

// ErrCrashed is a convenience error for FindErr.
var ErrCrashed = errors.New("tab crashed")
