package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jpltour/pkg/logger"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Options configures a Chrome instance.
type Options struct {
	ExecPath    string
	Headless    bool
	PageTimeout time.Duration
	Window      Size
}

// Chrome drives a local Chrome through the DevTools protocol.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	pageTimeout time.Duration
	sessionID   string
	once        sync.Once
	shutdownErr error
}

var _ Driver = (*Chrome)(nil)

// NewChrome launches Chrome and opens a fresh tab. The browser lives until
// Shutdown is called or parent is cancelled.
func NewChrome(parent context.Context, opts Options) (*Chrome, error) {
	allocOpts := GetBrowserOptions(opts.Headless, opts.Window)
	if path := GetChromePathWithFallback(opts.ExecPath); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
		logger.Debug("Using Chrome path", zap.String("path", path))
	} else {
		logger.Warn("Chrome path not found, using system default")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar.Debugf),
		chromedp.WithErrorf(logger.Sugar.Debugf),
	)

	// the first Run starts the browser
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	c := &Chrome{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		pageTimeout: opts.PageTimeout,
	}
	if cc := chromedp.FromContext(ctx); cc != nil && cc.Target != nil {
		c.sessionID = string(cc.Target.TargetID)
	}
	return c, nil
}

// ChromeFactory adapts NewChrome to Factory.
func ChromeFactory(opts Options) Factory {
	return func(ctx context.Context) (Driver, error) {
		return NewChrome(ctx, opts)
	}
}

// run executes actions on the tab while honoring the caller's ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func node(el Element) (*cdp.Node, error) {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return nil, ErrStaleElement
	}
	return n, nil
}

func nodeIDs(n *cdp.Node) []cdp.NodeID {
	return []cdp.NodeID{n.NodeID}
}

func queryOptions(by Strategy, scope Element) ([]chromedp.QueryOption, error) {
	var opts []chromedp.QueryOption
	switch by {
	case ByCSS:
		opts = append(opts, chromedp.ByQueryAll)
	case ByID:
		opts = append(opts, chromedp.ByID)
	case ByXPath:
		if scope != nil {
			return nil, ErrScopeUnsupported
		}
		opts = append(opts, chromedp.BySearch)
	default:
		return nil, fmt.Errorf("unknown strategy %s", by)
	}

	if scope != nil {
		n, err := node(scope)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromedp.FromNode(n))
	}
	return opts, nil
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if _, ok := ctx.Deadline(); !ok && c.pageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.pageTimeout)
		defer cancel()
	}
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) FindElements(ctx context.Context, by Strategy, selector string, scope Element) ([]Element, error) {
	opts, err := queryOptions(by, scope)
	if err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(selector, &nodes, append(opts, chromedp.AtLeast(0))...)); err != nil {
		return nil, err
	}

	els := make([]Element, len(nodes))
	for i, n := range nodes {
		els[i] = n
	}
	return els, nil
}

func (c *Chrome) WaitVisible(ctx context.Context, by Strategy, selector string) error {
	opts, err := queryOptions(by, nil)
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.WaitVisible(selector, opts...))
}

func (c *Chrome) Click(ctx context.Context, el Element) error {
	n, err := node(el)
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.MouseClickNode(n))
}

func (c *Chrome) Text(ctx context.Context, el Element) (string, error) {
	n, err := node(el)
	if err != nil {
		return "", err
	}
	var text string
	err = c.run(ctx, chromedp.Text(nodeIDs(n), &text, chromedp.ByNodeID))
	return text, err
}

func (c *Chrome) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	n, err := node(el)
	if err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	err = c.run(ctx, chromedp.AttributeValue(nodeIDs(n), name, &value, &ok, chromedp.ByNodeID))
	return value, ok, err
}

func (c *Chrome) SetValue(ctx context.Context, el Element, value string) error {
	n, err := node(el)
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.SetValue(nodeIDs(n), value, chromedp.ByNodeID))
}

func (c *Chrome) OuterHTML(ctx context.Context, el Element) (string, error) {
	n, err := node(el)
	if err != nil {
		return "", err
	}
	var html string
	err = c.run(ctx, chromedp.OuterHTML(nodeIDs(n), &html, chromedp.ByNodeID))
	return html, err
}

func (c *Chrome) Screenshot(ctx context.Context, el Element) ([]byte, error) {
	n, err := node(el)
	if err != nil {
		return nil, err
	}
	var buf []byte
	err = c.run(ctx, chromedp.Screenshot(nodeIDs(n), &buf, chromedp.ByNodeID))
	return buf, err
}

func (c *Chrome) WindowSize(ctx context.Context) (Size, error) {
	var size Size
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, bounds, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		size = Size{Width: int(bounds.Width), Height: int(bounds.Height)}
		return nil
	}))
	return size, err
}

func (c *Chrome) SetWindowSize(ctx context.Context, size Size) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		// a maximized window ignores width and height
		if err := browser.SetWindowBounds(windowID, &browser.Bounds{WindowState: browser.WindowStateNormal}).Do(ctx); err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{
			Width:  int64(size.Width),
			Height: int64(size.Height),
		}).Do(ctx)
	}))
}

func (c *Chrome) ScrollSize(ctx context.Context) (Size, error) {
	var size struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	err := c.run(ctx, chromedp.Evaluate(
		`({width: document.documentElement.scrollWidth, height: document.documentElement.scrollHeight})`,
		&size,
	))
	return Size{Width: size.Width, Height: size.Height}, err
}

func (c *Chrome) SessionID() string {
	return c.sessionID
}

// Shutdown closes the browser gracefully, then releases the allocator.
func (c *Chrome) Shutdown() error {
	c.once.Do(func() {
		c.shutdownErr = chromedp.Cancel(c.ctx)
		c.cancel()
		c.allocCancel()
		logger.Debug("Browser shut down", zap.String("session", c.sessionID))
	})
	return c.shutdownErr
}
