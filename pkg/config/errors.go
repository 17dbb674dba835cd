package config

import "errors"

// Configuration-related error definitions using sentinel errors pattern
var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidFormat  = errors.New("invalid configuration file format")

	ErrMissingRequired = errors.New("missing required configuration item")
	ErrInvalidValue    = errors.New("invalid configuration value")

	ErrBrowserConfig  = errors.New("browser configuration error")
	ErrTourConfig     = errors.New("tour configuration error")
	ErrReserveConfig  = errors.New("reserve configuration error")
	ErrNotifyConfig   = errors.New("notification configuration error")
	ErrRunConfig      = errors.New("run configuration error")
	ErrSchedulerEmpty = errors.New("scheduler cron expression is empty")
)
