// Package tour scrapes the JPL tours page and turns what it finds into facts
// and change notifications.
package tour

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jpltour/pkg/browser"
	"jpltour/pkg/config"
	"jpltour/pkg/logger"
	"jpltour/pkg/notify"
	"jpltour/pkg/utils/dateutils"

	"go.uber.org/zap"
)

// Target is the reservation candidate found on the page.
type Target struct {
	Row     Row
	Details []string
	// Control is the reserve button or link, nil when the lookup failed.
	Control browser.Element
}

// Facts is what one scrape observed. A nil field was not observed and is
// left unchanged in state.
type Facts struct {
	NextTourMsg  *string
	Availability *string
	Table        *string
	Target       *Target
}

// Options steer candidate selection.
type Options struct {
	// Range enables candidate selection when set.
	Range *dateutils.Range
	// ContinuePressingReserve mirrors the persisted flag.
	ContinuePressingReserve bool
}

// Scraper runs the scrape pipeline against one browser.
type Scraper struct {
	loc         *browser.Locator
	cfg         *config.TourConfig
	sel         *config.SelectorsConfig
	pageTimeout time.Duration
	// Sleep waits for the page to settle after an action. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewScraper(d browser.Driver, cfg *config.TourConfig, pageTimeout time.Duration) *Scraper {
	return &Scraper{
		loc:         browser.NewLocator(d),
		cfg:         cfg,
		sel:         cfg.Selectors,
		pageTimeout: pageTimeout,
		Sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ptr(s string) *string { return &s }

// Scrape loads the tour page, searches for tours and collects the facts.
// Form and results-timeout failures are returned; table parse and
// screenshot failures are recorded as warnings in res.
func (s *Scraper) Scrape(ctx context.Context, opts Options, res *notify.RunResult) (*Facts, error) {
	log := logger.Named(ctx, "scraper")
	d := s.loc.Driver()
	facts := &Facts{}

	log.Info("Loading tour page", zap.String("url", s.cfg.URL))
	if err := d.Navigate(ctx, s.cfg.URL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", s.cfg.URL, err)
	}

	facts.NextTourMsg = s.nextRelease(ctx, log)

	if err := s.submitSearch(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormSubmission, err)
	}

	if err := s.loc.WaitUntilVisible(ctx, browser.ByCSS, s.sel.Results, s.pageTimeout); err != nil {
		return nil, err
	}
	if err := s.Sleep(ctx, s.cfg.SettleDelayDuration()); err != nil {
		return nil, err
	}

	defer s.screenshot(ctx, log, res)

	quiet := s.loc.Quiet()
	if label, found, err := quiet.Find(ctx, browser.ByCSS, s.sel.NoTours, nil); err != nil {
		return nil, err
	} else if found {
		text, err := d.Text(ctx, label)
		if err != nil {
			return nil, err
		}
		// an empty label is a placeholder, not a message
		if text = strings.TrimSpace(text); text != "" {
			log.Info("No tours available", zap.String("message", text))
			facts.Availability = ptr(text)
			return facts, nil
		}
		log.Debug("No-tours label is empty, reading the results table")
	}

	container, err := s.loc.FindOrFail(ctx, browser.ByCSS, s.sel.Results, nil)
	if err != nil {
		return nil, err
	}
	html, err := d.OuterHTML(ctx, container)
	if err != nil {
		return nil, err
	}

	tbl, parseErr := ParseTable(html)
	if parseErr != nil {
		log.Warn("Failed to parse tour table, keeping raw markup", zap.Error(parseErr))
		res.Warn("TableParseError", parseErr.Error())
		facts.Table = ptr(Unparsed(html))
	} else {
		facts.Table = ptr(RenderTable(tbl))
		log.Info("Parsed tour table", zap.Int("rows", len(tbl.Rows)))
	}

	availability, err := s.availability(ctx, tbl)
	if err != nil {
		return nil, err
	}
	facts.Availability = availability

	if tbl != nil && opts.Range != nil && opts.ContinuePressingReserve {
		if row, ok := SelectCandidate(tbl.Rows, *opts.Range); ok {
			facts.Target = s.target(ctx, log, container, tbl, row)
		} else {
			log.Info("No tour in the requested date range", zap.Stringer("range", opts.Range))
		}
	}
	return facts, nil
}

// nextRelease returns the text after the "Next Tours Release Date" heading,
// or nil when it is not on the page.
func (s *Scraper) nextRelease(ctx context.Context, log *zap.Logger) *string {
	el, found, err := s.loc.Quiet().Find(ctx, browser.ByXPath, s.sel.NextRelease, nil)
	if err != nil || !found {
		log.Info("Next tour release date not found, keeping previous value", zap.Error(err))
		return nil
	}
	text, err := s.loc.Driver().Text(ctx, el)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Info("Next tour release date is empty, keeping previous value", zap.Error(err))
		return nil
	}
	return ptr(strings.TrimSpace(text))
}

func (s *Scraper) submitSearch(ctx context.Context) error {
	d := s.loc.Driver()

	sel, err := s.loc.FindOrFail(ctx, browser.ByCSS, s.sel.TourType, nil)
	if err != nil {
		return err
	}
	value, err := s.optionValue(ctx, sel, s.cfg.TourType)
	if err != nil {
		return err
	}
	if err := d.SetValue(ctx, sel, value); err != nil {
		return fmt.Errorf("select tour type: %w", err)
	}

	size, err := s.loc.FindOrFail(ctx, browser.ByCSS, s.sel.GroupSize, nil)
	if err != nil {
		return err
	}
	if err := d.SetValue(ctx, size, strconv.Itoa(s.cfg.GroupSize)); err != nil {
		return fmt.Errorf("enter group size: %w", err)
	}

	submit, err := s.loc.FindOrFail(ctx, browser.ByCSS, s.sel.Submit, nil)
	if err != nil {
		return err
	}
	if _, disabled, err := d.Attribute(ctx, submit, "disabled"); err != nil {
		return err
	} else if disabled {
		return fmt.Errorf("submit button is disabled")
	}
	if aria, _, err := d.Attribute(ctx, submit, "aria-disabled"); err == nil && aria == "true" {
		return fmt.Errorf("submit button is disabled")
	}
	if err := d.Click(ctx, submit); err != nil {
		return fmt.Errorf("click submit: %w", err)
	}
	return nil
}

// optionValue finds the <option> whose visible label is label.
func (s *Scraper) optionValue(ctx context.Context, sel browser.Element, label string) (string, error) {
	d := s.loc.Driver()
	options, err := s.loc.FindAll(ctx, browser.ByCSS, "option", sel)
	if err != nil {
		return "", err
	}
	for _, opt := range options {
		text, err := d.Text(ctx, opt)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) != label {
			continue
		}
		if v, ok, err := d.Attribute(ctx, opt, "value"); err != nil {
			return "", err
		} else if ok {
			return v, nil
		}
		return label, nil
	}
	return "", fmt.Errorf("no %q option in tour type list", label)
}

// availability prefers the page's own summary and otherwise counts rows.
func (s *Scraper) availability(ctx context.Context, tbl *Table) (*string, error) {
	el, found, err := s.loc.Quiet().Find(ctx, browser.ByCSS, s.sel.Summary, nil)
	if err != nil {
		return nil, err
	}
	if found {
		text, err := s.loc.Driver().Text(ctx, el)
		if err != nil {
			return nil, err
		}
		if text = strings.TrimSpace(text); text != "" {
			return ptr(text), nil
		}
	}
	if tbl == nil {
		return nil, nil
	}
	return ptr(fmt.Sprintf("%d available tour(s)", len(tbl.Rows))), nil
}

// target locates the reserve control inside the candidate row. A failed
// lookup leaves Control nil; the automaton reports it when it tries to click.
func (s *Scraper) target(ctx context.Context, log *zap.Logger, container browser.Element, tbl *Table, row Row) *Target {
	t := &Target{Row: row, Details: tbl.Details(row)}
	log.Info("Found tour in the requested date range", zap.Strings("details", t.Details))

	control, err := s.control(ctx, container, tbl, row)
	if err != nil {
		log.Error("Failed to locate reserve control", zap.Int("row", row.Index), zap.Error(err))
		return t
	}
	t.Control = control
	return t
}

func (s *Scraper) control(ctx context.Context, container browser.Element, tbl *Table, row Row) (browser.Element, error) {
	tableEl, err := s.loc.FindOrFail(ctx, browser.ByCSS, "table", container)
	if err != nil {
		return nil, err
	}
	trs, err := s.loc.FindAll(ctx, browser.ByCSS, "tr", tableEl)
	if err != nil {
		return nil, err
	}
	if row.Index >= len(trs) {
		return nil, &browser.NotFoundError{By: browser.ByCSS, Selector: fmt.Sprintf("tr:nth-of-type(%d)", row.Index+1)}
	}

	scope := trs[row.Index]
	if tbl.ReserveCol >= 0 {
		cells, err := s.loc.FindAll(ctx, browser.ByCSS, "td, th", scope)
		if err != nil {
			return nil, err
		}
		if tbl.ReserveCol < len(cells) {
			scope = cells[tbl.ReserveCol]
		}
	}
	return s.loc.FindOrFail(ctx, browser.ByCSS, s.sel.ReserveControl, scope)
}

func (s *Scraper) screenshot(ctx context.Context, log *zap.Logger, res *notify.RunResult) {
	if s.cfg.ScreenshotPath == "" {
		return
	}
	if err := browser.SaveFullPageScreenshot(ctx, s.loc.Driver(), s.cfg.ScreenshotPath); err != nil {
		log.Warn("Failed to save screenshot", zap.Error(err))
		res.Warn("ScreenshotError", err.Error())
	}
}
