package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration file at configPath. A missing file yields
// the defaults. File values are decoded over the defaults, so a partial section
// keeps the defaults of the fields it omits. Environment variables override
// file values.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	config := Default()
	if _, err := os.Stat(configPath); err == nil {
		if err := decodeFile(configPath, config); err != nil {
			return nil, err
		}
	}

	config.fillDefaults()
	mergeEnvVars(config)
	config.ApplyImplied()
	return config, nil
}

func decodeFile(configPath string, config *Config) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigNotFound, err)
	}

	switch ext := filepath.Ext(configPath); ext {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("%w: JSON parsing failed: %v", ErrInvalidFormat, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("%w: YAML parsing failed: %v", ErrInvalidFormat, err)
		}
	default:
		return fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}
	return nil
}

// SaveConfig writes config to configPath, picking the format by extension.
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		configPath = "./config.yaml"
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	switch ext := filepath.Ext(configPath); ext {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		return fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("config serialization failed: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// getDefaultConfigPath looks in the working directory, then ~/.jpltour.
func getDefaultConfigPath() string {
	paths := []string{
		"./config.yaml",
		"./config.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".jpltour", "config.yaml"),
			filepath.Join(homeDir, ".jpltour", "config.json"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return "./config.yaml"
}

// mergeEnvVars applies JPLTOUR_* variables on top of file values.
func mergeEnvVars(config *Config) {
	b := config.Browser
	b.ExecPath = getEnv("BROWSER_BIN", b.ExecPath)
	b.Headless = getEnvBool("HEADLESS", b.Headless)
	b.PageTimeout = getEnvInt("PAGE_TIMEOUT", b.PageTimeout)
	b.SingleInstance = getEnvBool("SINGLE_INSTANCE", b.SingleInstance)

	t := config.Tour
	t.URL = getEnv("TOUR_URL", t.URL)
	t.TourType = getEnv("TOUR_TYPE", t.TourType)
	t.GroupSize = getEnvInt("GROUP_SIZE", t.GroupSize)
	t.ScreenshotPath = getEnv("SCREENSHOT", t.ScreenshotPath)

	config.Reserve.From = getEnv("RESERVE_FROM", config.Reserve.From)
	config.Reserve.To = getEnv("RESERVE_TO", config.Reserve.To)

	config.Run.WaitMin = getEnvInt("WAIT_MIN", config.Run.WaitMin)
	config.Run.WaitMax = getEnvInt("WAIT_MAX", config.Run.WaitMax)

	config.State.Path = getEnv("STATE_FILE", config.State.Path)

	config.History.Enabled = getEnvBool("HISTORY_ENABLED", config.History.Enabled)
	config.History.Path = getEnv("HISTORY_DB", config.History.Path)

	n := config.Notify
	n.Destination = getEnv("NOTIFY", n.Destination)
	n.Timeout = getEnvInt("NOTIFY_TIMEOUT", n.Timeout)
	n.MaxRetries = getEnvInt("NOTIFY_MAX_RETRIES", n.MaxRetries)
	n.RetryDelay = getEnvInt("NOTIFY_RETRY_DELAY", n.RetryDelay)
	n.Telegram.BotToken = getEnv("TELEGRAM_TOKEN", n.Telegram.BotToken)
	if users := parseStringList(getEnv("WECHAT_MENTION_USERS", "")); len(users) > 0 {
		n.WeChat.MentionUsers = users
	}

	config.Scheduler.Cron = getEnv("CRON", config.Scheduler.Cron)
	config.Server.Listen = getEnv("LISTEN", config.Server.Listen)

	config.App.LogLevel = getEnv("LOG_LEVEL", config.App.LogLevel)
	config.App.LogFile = getEnv("LOG_FILE", config.App.LogFile)
	config.App.Development = getEnvBool("DEVELOPMENT", config.App.Development)
}
