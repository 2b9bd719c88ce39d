package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBettingURL        = "https://api.betfair.com/exchange/betting/rest/v1.0"
	DefaultIdentityURL       = "https://identitysso.betfair.com/api"
	DefaultCertLoginURL      = "https://identitysso-cert.betfair.com/api/certlogin"
	DefaultAPITimeout        = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRateLimit         = 5.0
	DefaultRateBurst         = 5
	DefaultEventTypeID       = "7" // Horse Racing
	DefaultMarketType        = "WIN"
	DefaultMaxResults        = 25
	DefaultTickInterval      = 250 * time.Millisecond
	DefaultFetchTimeout      = 10 * time.Second
	DefaultWakeAt            = "10:00"
	DefaultTimezone          = "Europe/London"
	DefaultRestartBackoff    = time.Minute
	DefaultKeepAliveInterval = 15 * time.Minute
	DefaultDBDriver          = DriverPostgres
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultMinConns          = 1
	DefaultFeedTopic         = "market_books"
	DefaultMetricsPort       = 9090
	DefaultMetricsPath       = "/metrics"
	DefaultLogLevel          = "info"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultCountries are the market countries discovered when none are configured.
var DefaultCountries = []string{"GB", "IE"}

// DefaultCadence is the staircase used when poller.cadence is empty.
// Polling speeds up as the scheduled start approaches; markets more than an
// hour out are not polled at all.
var DefaultCadence = []CadenceStep{
	{Within: 10 * time.Minute, Every: time.Second},
	{Within: 20 * time.Minute, Every: 5 * time.Second},
	{Within: 30 * time.Minute, Every: 15 * time.Second},
	{Within: 60 * time.Minute, Every: 60 * time.Second},
}

func (c *LoggerConfig) applyDefaults() {
	// Exchange defaults
	if c.Exchange.BettingURL == "" {
		c.Exchange.BettingURL = DefaultBettingURL
	}
	if c.Exchange.IdentityURL == "" {
		c.Exchange.IdentityURL = DefaultIdentityURL
	}
	if c.Exchange.CertLoginURL == "" {
		c.Exchange.CertLoginURL = DefaultCertLoginURL
	}
	if c.Exchange.Timeout == 0 {
		c.Exchange.Timeout = DefaultAPITimeout
	}
	if c.Exchange.MaxRetries == 0 {
		c.Exchange.MaxRetries = DefaultMaxRetries
	}
	if c.Exchange.RateLimit == 0 {
		c.Exchange.RateLimit = DefaultRateLimit
	}
	if c.Exchange.RateBurst == 0 {
		c.Exchange.RateBurst = DefaultRateBurst
	}

	// Catalog defaults
	if len(c.Catalog.EventTypeIDs) == 0 {
		c.Catalog.EventTypeIDs = []string{DefaultEventTypeID}
	}
	if len(c.Catalog.Countries) == 0 {
		c.Catalog.Countries = append([]string(nil), DefaultCountries...)
	}
	if len(c.Catalog.MarketTypes) == 0 {
		c.Catalog.MarketTypes = []string{DefaultMarketType}
	}
	if c.Catalog.MaxResults == 0 {
		c.Catalog.MaxResults = DefaultMaxResults
	}

	// Poller defaults
	if c.Poller.TickInterval == 0 {
		c.Poller.TickInterval = DefaultTickInterval
	}
	if c.Poller.FetchTimeout == 0 {
		c.Poller.FetchTimeout = DefaultFetchTimeout
	}
	if len(c.Poller.Cadence) == 0 {
		c.Poller.Cadence = append([]CadenceStep(nil), DefaultCadence...)
	}

	// Schedule defaults
	if c.Schedule.WakeAt == "" {
		c.Schedule.WakeAt = DefaultWakeAt
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = DefaultTimezone
	}
	if c.Schedule.RestartBackoff == 0 {
		c.Schedule.RestartBackoff = DefaultRestartBackoff
	}
	if c.Schedule.KeepAliveInterval == 0 {
		c.Schedule.KeepAliveInterval = DefaultKeepAliveInterval
	}

	// Database defaults
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDBDriver
	}
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Feed defaults
	if c.Feed.Topic == "" {
		c.Feed.Topic = DefaultFeedTopic
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
