package exchange

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rickgao/betfair-logger/internal/auth"
	"github.com/rickgao/betfair-logger/internal/config"
)

// Client provides access to the exchange betting and identity APIs.
// It is safe for concurrent use.
type Client struct {
	bettingURL   string
	identityURL  string
	certLoginURL string
	creds        *auth.Credentials
	httpClient   *http.Client
	logger       *slog.Logger
	limiter      *rate.Limiter

	maxRetries   int
	retryBackoff time.Duration

	mu           sync.RWMutex
	sessionToken string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new exchange client. The client certificate, when
// present in creds, is presented on every TLS connection.
func NewClient(bettingURL string, creds *auth.Credentials, opts ...ClientOption) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = creds.TLSConfig()

	c := &Client{
		bettingURL: bettingURL,
		creds:      creds,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		logger:       slog.Default(),
		limiter:      rate.NewLimiter(rate.Limit(5), 5),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps betting API calls at perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithIdentityURLs sets the identity API base and the certificate login endpoint.
func WithIdentityURLs(identityURL, certLoginURL string) ClientOption {
	return func(c *Client) {
		c.identityURL = identityURL
		c.certLoginURL = certLoginURL
	}
}

// SessionToken returns the current session token, empty when logged out.
func (c *Client) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

func (c *Client) setSessionToken(token string) {
	c.mu.Lock()
	c.sessionToken = token
	c.mu.Unlock()
}

// NewClientFromConfig loads credentials and builds a client from the
// exchange section of the config file.
func NewClientFromConfig(cfg config.ExchangeConfig, logger *slog.Logger) (*Client, error) {
	creds, err := auth.LoadCredentials(cfg.Username, cfg.Password, cfg.AppKey, cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return NewClient(cfg.BettingURL, creds,
		WithLogger(logger),
		WithTimeout(cfg.Timeout),
		WithRetries(cfg.MaxRetries, time.Second),
		WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		WithIdentityURLs(cfg.IdentityURL, cfg.CertLoginURL),
	), nil
}
