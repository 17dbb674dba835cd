package config

import (
	"fmt"
	"net/url"
	"strings"

	"jpltour/pkg/utils/dateutils"
)

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.validateBrowserConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrBrowserConfig, err)
	}
	if err := c.validateTourConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrTourConfig, err)
	}
	if err := c.validateReserveConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrReserveConfig, err)
	}
	if err := c.validateRunConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrRunConfig, err)
	}
	if err := c.validateNotifyConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotifyConfig, err)
	}
	if c.State.Path == "" {
		return fmt.Errorf("%w: state.path", ErrMissingRequired)
	}
	return nil
}

func (c *Config) validateBrowserConfig() error {
	b := c.Browser
	if b.PageTimeout <= 0 {
		return fmt.Errorf("%w: page_timeout must be positive", ErrInvalidValue)
	}
	if b.WindowWidth <= 0 || b.WindowHeight <= 0 {
		return fmt.Errorf("%w: window size must be positive", ErrInvalidValue)
	}
	if b.SingleInstance && b.ProcessName == "" {
		return fmt.Errorf("%w: process_name", ErrMissingRequired)
	}
	return nil
}

func (c *Config) validateTourConfig() error {
	t := c.Tour
	u, err := url.Parse(t.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: url %q", ErrInvalidValue, t.URL)
	}
	if t.TourType == "" {
		return fmt.Errorf("%w: tour_type", ErrMissingRequired)
	}
	if t.GroupSize < 1 {
		return fmt.Errorf("%w: group_size must be at least 1", ErrInvalidValue)
	}
	if t.SettleDelay < 0 {
		return fmt.Errorf("%w: settle_delay_ms cannot be negative", ErrInvalidValue)
	}

	s := t.Selectors
	required := map[string]string{
		"selectors.tour_type":       s.TourType,
		"selectors.group_size":      s.GroupSize,
		"selectors.submit":          s.Submit,
		"selectors.results":         s.Results,
		"selectors.reserve_control": s.ReserveControl,
		"selectors.countdown":       s.Countdown,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingRequired, name)
		}
	}
	return nil
}

func (c *Config) validateReserveConfig() error {
	r := c.Reserve
	if (r.From == "") != (r.To == "") {
		return fmt.Errorf("%w: both from and to are needed for a date range", ErrMissingRequired)
	}
	if r.Enabled() {
		if _, err := dateutils.ParseRange(r.From, r.To); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
	}
	if r.CountdownTimeout <= 0 {
		return fmt.Errorf("%w: countdown_timeout must be positive", ErrInvalidValue)
	}
	if r.CountdownMargin <= 0 {
		return fmt.Errorf("%w: countdown_margin must be positive", ErrInvalidValue)
	}
	return nil
}

func (c *Config) validateRunConfig() error {
	if c.Run.WaitMin < 0 || c.Run.WaitMax < 0 {
		return fmt.Errorf("%w: wait cannot be negative", ErrInvalidValue)
	}
	if c.Run.WaitMin > c.Run.WaitMax {
		return fmt.Errorf("%w: wait min %d exceeds max %d", ErrInvalidValue, c.Run.WaitMin, c.Run.WaitMax)
	}
	return nil
}

func (c *Config) validateNotifyConfig() error {
	n := c.Notify
	if n.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidValue)
	}
	if n.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries cannot be negative", ErrInvalidValue)
	}
	if strings.HasPrefix(n.Destination, "telegram:") && n.Telegram.BotToken == "" {
		return fmt.Errorf("%w: telegram.bot_token", ErrMissingRequired)
	}
	return nil
}
