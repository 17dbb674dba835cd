package config

// ReserveConfig enables the reservation automaton for an ISO date range.
type ReserveConfig struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	// CountdownTimeout bounds the wait for the countdown to render, in seconds.
	CountdownTimeout int `json:"countdown_timeout" yaml:"countdown_timeout"`
	// CountdownMargin is added to the reported countdown, in seconds.
	CountdownMargin int `json:"countdown_margin" yaml:"countdown_margin"`
}

func NewReserveConfig() *ReserveConfig {
	return &ReserveConfig{
		From:             getEnv("RESERVE_FROM", ""),
		To:               getEnv("RESERVE_TO", ""),
		CountdownTimeout: 30,
		CountdownMargin:  300,
	}
}

// Enabled reports whether a reservation date range was configured.
func (r *ReserveConfig) Enabled() bool {
	return r.From != "" && r.To != ""
}

// RunConfig holds the start delay range, in seconds.
type RunConfig struct {
	WaitMin int `json:"wait_min" yaml:"wait_min"`
	WaitMax int `json:"wait_max" yaml:"wait_max"`
}

func NewRunConfig() *RunConfig {
	return &RunConfig{
		WaitMin: getEnvInt("WAIT_MIN", 0),
		WaitMax: getEnvInt("WAIT_MAX", 0),
	}
}

// StateConfig locates the persisted state file.
type StateConfig struct {
	Path string `json:"path" yaml:"path"`
}

func NewStateConfig() *StateConfig {
	return &StateConfig{Path: getEnv("STATE_FILE", "jpl_tour.state.json")}
}

// HistoryConfig controls the sqlite run history.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

func NewHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		Enabled: getEnvBool("HISTORY_ENABLED", true),
		Path:    getEnv("HISTORY_DB", "jpltour_history.db"),
	}
}

// SchedulerConfig is used by watch mode.
type SchedulerConfig struct {
	Cron string `json:"cron" yaml:"cron"`
}

func NewSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{Cron: getEnv("CRON", "*/15 * * * *")}
}

// ServerConfig is the status API served in watch mode.
type ServerConfig struct {
	// Listen is host:port; empty disables the API.
	Listen       string   `json:"listen" yaml:"listen"`
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Listen:       getEnv("LISTEN", ""),
		AllowOrigins: []string{"*"},
	}
}

// AppConfig represents application configuration settings
type AppConfig struct {
	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFile     string `json:"log_file" yaml:"log_file"`
	Development bool   `json:"development" yaml:"development"`
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", "./logs/jpltour.log"),
		Development: getEnvBool("DEVELOPMENT", true),
	}
}
