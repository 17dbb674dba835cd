package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the root configuration of jpltour.
type Config struct {
	Browser   *BrowserConfig   `json:"browser" yaml:"browser"`
	Tour      *TourConfig      `json:"tour" yaml:"tour"`
	Reserve   *ReserveConfig   `json:"reserve" yaml:"reserve"`
	Run       *RunConfig       `json:"run" yaml:"run"`
	State     *StateConfig     `json:"state" yaml:"state"`
	History   *HistoryConfig   `json:"history" yaml:"history"`
	Notify    *NotifyConfig    `json:"notify" yaml:"notify"`
	Scheduler *SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Server    *ServerConfig    `json:"server" yaml:"server"`
	App       *AppConfig       `json:"app" yaml:"app"`
}

// Default returns a configuration where every section holds its defaults.
func Default() *Config {
	return &Config{
		Browser:   NewBrowserConfig(),
		Tour:      NewTourConfig(),
		Reserve:   NewReserveConfig(),
		Run:       NewRunConfig(),
		State:     NewStateConfig(),
		History:   NewHistoryConfig(),
		Notify:    NewNotifyConfig(),
		Scheduler: NewSchedulerConfig(),
		Server:    NewServerConfig(),
		App:       NewAppConfig(),
	}
}

// fillDefaults replaces sections missing from a config file.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Browser == nil {
		c.Browser = def.Browser
	}
	if c.Tour == nil {
		c.Tour = def.Tour
	}
	if c.Tour.Selectors == nil {
		c.Tour.Selectors = def.Tour.Selectors
	}
	if c.Reserve == nil {
		c.Reserve = def.Reserve
	}
	if c.Run == nil {
		c.Run = def.Run
	}
	if c.State == nil {
		c.State = def.State
	}
	if c.History == nil {
		c.History = def.History
	}
	if c.Notify == nil {
		c.Notify = def.Notify
	}
	if c.Notify.Telegram == nil {
		c.Notify.Telegram = def.Notify.Telegram
	}
	if c.Notify.WeChat == nil {
		c.Notify.WeChat = def.Notify.WeChat
	}
	if c.Scheduler == nil {
		c.Scheduler = def.Scheduler
	}
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.App == nil {
		c.App = def.App
	}
}

// ApplyImplied sets values that follow from others. A reservation date range
// needs a visible browser: the operator completes the booking in it.
func (c *Config) ApplyImplied() {
	if c.Reserve.Enabled() {
		c.Browser.Headless = false
	}
}

const envPrefix = "JPLTOUR_"

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func parseStringList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
