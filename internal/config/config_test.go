package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-logger
exchange:
  username: punter
  password: hunter2
  app_key: app-123
  cert_file: certs/client-2048.crt
  key_file: certs/client-2048.key
catalog:
  countries: [GB]
  market_types: [WIN, PLACE]
poller:
  tick_interval: 100ms
  cadence:
    - within: 5m
      every: 2s
database:
  host: localhost
  port: 5432
  name: betfairlogger
  user: postgres
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-logger" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-logger")
	}
	if cfg.Exchange.AppKey != "app-123" {
		t.Errorf("Exchange.AppKey = %q, want %q", cfg.Exchange.AppKey, "app-123")
	}
	if len(cfg.Catalog.MarketTypes) != 2 || cfg.Catalog.MarketTypes[1] != "PLACE" {
		t.Errorf("Catalog.MarketTypes = %v, want [WIN PLACE]", cfg.Catalog.MarketTypes)
	}
	if cfg.Poller.TickInterval != 100*time.Millisecond {
		t.Errorf("Poller.TickInterval = %v, want %v", cfg.Poller.TickInterval, 100*time.Millisecond)
	}
	if len(cfg.Poller.Cadence) != 1 || cfg.Poller.Cadence[0].Within != 5*time.Minute || cfg.Poller.Cadence[0].Every != 2*time.Second {
		t.Errorf("Poller.Cadence = %+v, want [{5m 2s}]", cfg.Poller.Cadence)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_BF_PASSWORD", "secret123")
	t.Setenv("TEST_DB_PASSWORD", "dbsecret")

	yaml := `
instance:
  id: test-logger
exchange:
  username: punter
  password: ${TEST_BF_PASSWORD}
database:
  host: localhost
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Exchange.Password != "secret123" {
		t.Errorf("Exchange.Password = %q, want %q", cfg.Exchange.Password, "secret123")
	}
	if cfg.Database.Password != "dbsecret" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "dbsecret")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-logger
database:
  host: localhost
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Exchange.BettingURL != DefaultBettingURL {
		t.Errorf("Exchange.BettingURL = %q, want default %q", cfg.Exchange.BettingURL, DefaultBettingURL)
	}
	if cfg.Exchange.Timeout != DefaultAPITimeout {
		t.Errorf("Exchange.Timeout = %v, want default %v", cfg.Exchange.Timeout, DefaultAPITimeout)
	}
	if len(cfg.Catalog.EventTypeIDs) != 1 || cfg.Catalog.EventTypeIDs[0] != DefaultEventTypeID {
		t.Errorf("Catalog.EventTypeIDs = %v, want [%s]", cfg.Catalog.EventTypeIDs, DefaultEventTypeID)
	}
	if len(cfg.Poller.Cadence) != len(DefaultCadence) {
		t.Errorf("len(Poller.Cadence) = %d, want %d", len(cfg.Poller.Cadence), len(DefaultCadence))
	}
	if cfg.Schedule.WakeAt != DefaultWakeAt {
		t.Errorf("Schedule.WakeAt = %q, want default %q", cfg.Schedule.WakeAt, DefaultWakeAt)
	}
	if cfg.Database.Driver != DefaultDBDriver {
		t.Errorf("Database.Driver = %q, want default %q", cfg.Database.Driver, DefaultDBDriver)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestValidate(t *testing.T) {
	validExchange := ExchangeConfig{
		Username: "u", Password: "p", AppKey: "k", CertFile: "c.crt", KeyFile: "c.key",
		RateLimit: 5, RateBurst: 5,
	}
	valid := func() LoggerConfig {
		cfg := LoggerConfig{
			Instance: InstanceConfig{ID: "test"},
			Exchange: validExchange,
			Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass"},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*LoggerConfig)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *LoggerConfig) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "missing app key",
			mutate:  func(c *LoggerConfig) { c.Exchange.AppKey = "" },
			wantErr: "exchange.app_key is required",
		},
		{
			name:    "missing database password",
			mutate:  func(c *LoggerConfig) { c.Database.Password = "" },
			wantErr: "database.password is required",
		},
		{
			name:    "memory driver skips database fields",
			mutate:  func(c *LoggerConfig) { c.Database = DBConfig{Driver: "memory"} },
			wantErr: "",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *LoggerConfig) { c.Database.Driver = "mysql" },
			wantErr: `database.driver must be postgres or memory, got "mysql"`,
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *LoggerConfig) {
				c.Database.MaxConns = 2
				c.Database.MinConns = 3
			},
			wantErr: "database.min_conns (3) cannot exceed max_conns (2)",
		},
		{
			name: "cadence not increasing",
			mutate: func(c *LoggerConfig) {
				c.Poller.Cadence = []CadenceStep{
					{Within: 10 * time.Minute, Every: time.Second},
					{Within: 5 * time.Minute, Every: 5 * time.Second},
				}
			},
			wantErr: "poller.cadence[1].within must be greater than 10m0s",
		},
		{
			name:    "bad wake time",
			mutate:  func(c *LoggerConfig) { c.Schedule.WakeAt = "10am" },
			wantErr: `schedule.wake_at must be HH:MM, got "10am"`,
		},
		{
			name:    "feed without brokers",
			mutate:  func(c *LoggerConfig) { c.Feed.Enabled = true },
			wantErr: "feed.brokers is required when feed is enabled",
		},
		{
			name:    "bad log level",
			mutate:  func(c *LoggerConfig) { c.Logging.Level = "trace" },
			wantErr: `logging.level must be debug, info, warn or error, got "trace"`,
		},
		{
			name:    "valid config",
			mutate:  func(c *LoggerConfig) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestScheduleHelpers(t *testing.T) {
	s := ScheduleConfig{WakeAt: "09:30", Timezone: "Europe/London"}

	h, m, err := s.WakeClock()
	if err != nil {
		t.Fatalf("WakeClock failed: %v", err)
	}
	if h != 9 || m != 30 {
		t.Errorf("WakeClock() = %d:%d, want 9:30", h, m)
	}

	loc, err := s.Location()
	if err != nil {
		t.Fatalf("Location failed: %v", err)
	}
	if loc.String() != "Europe/London" {
		t.Errorf("Location() = %q, want %q", loc.String(), "Europe/London")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := LoggingConfig{Level: tt.level}.SlogLevel()
			if err != nil {
				t.Fatalf("SlogLevel() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
