package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/betfair-logger/internal/config"
)

// applicationName tags sessions in pg_stat_activity.
const applicationName = "betfair-logger"

// BuildConnString builds a PostgreSQL connection URL from config.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("application_name", applicationName)

	// url.UserPassword escapes special characters in the password.
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Redacted returns the connection URL with the password masked, for logging.
func Redacted(cfg config.DBConfig) string {
	u, err := url.Parse(BuildConnString(cfg))
	if err != nil {
		return fmt.Sprintf("postgres://%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)
	}
	return u.Redacted()
}
