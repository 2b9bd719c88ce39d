package config

import "time"

// LoggerConfig is the root configuration for a logger instance.
type LoggerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Poller   PollerConfig   `yaml:"poller"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Database DBConfig       `yaml:"database"`
	Feed     FeedConfig     `yaml:"feed"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InstanceConfig identifies this logger.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ExchangeConfig holds exchange API settings and credentials.
type ExchangeConfig struct {
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	AppKey       string        `yaml:"app_key"`   // X-Application header
	CertFile     string        `yaml:"cert_file"` // Client certificate for non-interactive login
	KeyFile      string        `yaml:"key_file"`
	BettingURL   string        `yaml:"betting_url"`
	IdentityURL  string        `yaml:"identity_url"`
	CertLoginURL string        `yaml:"cert_login_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RateLimit    float64       `yaml:"rate_limit"` // Requests per second
	RateBurst    int           `yaml:"rate_burst"`
}

// CatalogConfig filters which events and markets are discovered each day.
type CatalogConfig struct {
	EventTypeIDs   []string `yaml:"event_type_ids"`
	Countries      []string `yaml:"countries"`
	MarketTypes    []string `yaml:"market_types"`
	MaxResults     int      `yaml:"max_results"`
	RunnerMetadata bool     `yaml:"runner_metadata"`
}

// PollerConfig holds adaptive poll scheduler settings.
type PollerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Cadence      []CadenceStep `yaml:"cadence"`
}

// CadenceStep is one row of the staircase: markets starting within Within
// are polled at most once per Every.
type CadenceStep struct {
	Within time.Duration `yaml:"within"`
	Every  time.Duration `yaml:"every"`
}

// ScheduleConfig holds the daily wake/sleep settings.
type ScheduleConfig struct {
	WakeAt            string        `yaml:"wake_at"`  // "15:04" local time
	Timezone          string        `yaml:"timezone"` // IANA zone, e.g. Europe/London
	RestartBackoff    time.Duration `yaml:"restart_backoff"`
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval"`
	RunOnStart        bool          `yaml:"run_on_start"`
}

// DBConfig holds the database connection.
type DBConfig struct {
	Driver   string `yaml:"driver"` // "postgres" or "memory"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
	Migrate  bool   `yaml:"migrate"` // Create missing tables on connect
}

// FeedConfig holds the optional Kafka snapshot feed.
type FeedConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
