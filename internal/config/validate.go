package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // Zone data for schedule.timezone on minimal hosts
)

// Validate checks that all required fields are set and values are valid.
func (c *LoggerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Exchange.validate("exchange"); err != nil {
		return err
	}

	if len(c.Catalog.EventTypeIDs) == 0 {
		return errors.New("catalog.event_type_ids must not be empty")
	}
	if c.Catalog.MaxResults < 1 || c.Catalog.MaxResults > 1000 {
		return fmt.Errorf("catalog.max_results must be between 1 and 1000, got %d", c.Catalog.MaxResults)
	}

	if c.Poller.TickInterval <= 0 {
		return errors.New("poller.tick_interval must be > 0")
	}
	if c.Poller.FetchTimeout <= 0 {
		return errors.New("poller.fetch_timeout must be > 0")
	}
	if err := validateCadence(c.Poller.Cadence); err != nil {
		return err
	}

	if _, _, err := c.Schedule.WakeClock(); err != nil {
		return err
	}
	if _, err := c.Schedule.Location(); err != nil {
		return err
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be postgres or memory, got %q", c.Database.Driver)
	}

	if c.Feed.Enabled && len(c.Feed.Brokers) == 0 {
		return errors.New("feed.brokers is required when feed is enabled")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}

	return nil
}

func (e *ExchangeConfig) validate(prefix string) error {
	if e.Username == "" {
		return fmt.Errorf("%s.username is required", prefix)
	}
	if e.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if e.AppKey == "" {
		return fmt.Errorf("%s.app_key is required", prefix)
	}
	if e.CertFile == "" {
		return fmt.Errorf("%s.cert_file is required", prefix)
	}
	if e.KeyFile == "" {
		return fmt.Errorf("%s.key_file is required", prefix)
	}
	if e.RateLimit <= 0 {
		return fmt.Errorf("%s.rate_limit must be > 0", prefix)
	}
	if e.RateBurst < 1 {
		return fmt.Errorf("%s.rate_burst must be >= 1", prefix)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// validateCadence requires strictly increasing windows.
func validateCadence(steps []CadenceStep) error {
	var prev time.Duration
	for i, s := range steps {
		if s.Within <= prev {
			return fmt.Errorf("poller.cadence[%d].within must be greater than %v", i, prev)
		}
		if s.Every < 0 {
			return fmt.Errorf("poller.cadence[%d].every must be >= 0", i)
		}
		prev = s.Within
	}
	return nil
}

// WakeClock parses WakeAt into hour and minute.
func (s ScheduleConfig) WakeClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", s.WakeAt)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.wake_at must be HH:MM, got %q", s.WakeAt)
	}
	return t.Hour(), t.Minute(), nil
}

// Location loads the configured time zone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", l.Level)
	}
}
