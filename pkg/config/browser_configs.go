package config

import "time"

// BrowserConfig controls the Chrome instance driven by chromedp.
type BrowserConfig struct {
	ExecPath       string `json:"exec_path" yaml:"exec_path"` // empty: auto-detect
	Headless       bool   `json:"headless" yaml:"headless"`
	PageTimeout    int    `json:"page_timeout" yaml:"page_timeout"` // seconds
	WindowWidth    int    `json:"window_width" yaml:"window_width"`
	WindowHeight   int    `json:"window_height" yaml:"window_height"`
	SingleInstance bool   `json:"single_instance" yaml:"single_instance"`
	// ProcessName is matched against running process names by the single instance guard.
	ProcessName string `json:"process_name" yaml:"process_name"`
}

// NewBrowserConfig creates a browser configuration with default values populated from environment variables
func NewBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		ExecPath:       getEnv("BROWSER_BIN", ""),
		Headless:       getEnvBool("HEADLESS", true),
		PageTimeout:    getEnvInt("PAGE_TIMEOUT", 60),
		WindowWidth:    1280,
		WindowHeight:   800,
		SingleInstance: getEnvBool("SINGLE_INSTANCE", false),
		ProcessName:    "chromedriver",
	}
}

// PageTimeoutDuration returns the page timeout as a duration.
func (b *BrowserConfig) PageTimeoutDuration() time.Duration {
	return time.Duration(b.PageTimeout) * time.Second
}

// TourConfig describes the tour page and the search form values.
type TourConfig struct {
	URL            string           `json:"url" yaml:"url"`
	TourType       string           `json:"tour_type" yaml:"tour_type"`
	GroupSize      int              `json:"group_size" yaml:"group_size"`
	ScreenshotPath string           `json:"screenshot_path" yaml:"screenshot_path"`
	SettleDelay    int              `json:"settle_delay_ms" yaml:"settle_delay_ms"`
	Selectors      *SelectorsConfig `json:"selectors" yaml:"selectors"`
}

// NewTourConfig creates a tour configuration with default values populated from environment variables
func NewTourConfig() *TourConfig {
	return &TourConfig{
		URL:            getEnv("TOUR_URL", "https://www.jpl.nasa.gov/events/tours/"),
		TourType:       getEnv("TOUR_TYPE", "Visitor Day Tour"),
		GroupSize:      getEnvInt("GROUP_SIZE", 1),
		ScreenshotPath: getEnv("SCREENSHOT", "jpl_tours.png"),
		SettleDelay:    1500,
		Selectors:      NewSelectorsConfig(),
	}
}

// SettleDelayDuration is the pause after actions that re-render the page.
func (t *TourConfig) SettleDelayDuration() time.Duration {
	return time.Duration(t.SettleDelay) * time.Millisecond
}

// SelectorsConfig holds the page selectors. All are CSS except NextRelease,
// which is an XPath expression.
type SelectorsConfig struct {
	NextRelease    string `json:"next_release" yaml:"next_release"`
	TourType       string `json:"tour_type" yaml:"tour_type"`
	GroupSize      string `json:"group_size" yaml:"group_size"`
	Submit         string `json:"submit" yaml:"submit"`
	Results        string `json:"results" yaml:"results"`
	NoTours        string `json:"no_tours" yaml:"no_tours"`
	Summary        string `json:"summary" yaml:"summary"`
	ReserveControl string `json:"reserve_control" yaml:"reserve_control"`
	Countdown      string `json:"countdown" yaml:"countdown"`
}

func NewSelectorsConfig() *SelectorsConfig {
	return &SelectorsConfig{
		NextRelease:    `//*[contains(normalize-space(text()), "Next Tours Release Date")]/following-sibling::*[1]`,
		TourType:       "select#tour-type",
		GroupSize:      "input#tour-size",
		Submit:         "form#tour-search button[type='submit']",
		Results:        "#tour-results",
		NoTours:        "#tour-results .tour-error",
		Summary:        "#tour-results .tour-summary",
		ReserveControl: "a, button",
		Countdown:      "#reservation-countdown",
	}
}
