package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rickgao/betfair-logger/internal/auth"
	"github.com/rickgao/betfair-logger/internal/version"
)

// Exchange error codes with special handling.
const (
	CodeInvalidSession = "INVALID_SESSION_INFORMATION"
	CodeNoSession      = "NO_SESSION"
	CodeTooMany        = "TOO_MANY_REQUESTS"
	CodeServiceBusy    = "SERVICE_BUSY"
	CodeTimeout        = "TIMEOUT_ERROR"
)

// APIError represents an error from the exchange API.
type APIError struct {
	StatusCode int
	Code       string // Exchange error code, empty when the body carried none
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("exchange api error %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("exchange api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	if e.StatusCode >= 500 || e.StatusCode == 429 {
		return true
	}
	switch e.Code {
	case CodeTooMany, CodeServiceBusy, CodeTimeout:
		return true
	}
	return false
}

// IsSessionError returns true if the session token was rejected.
func (e *APIError) IsSessionError() bool {
	return e.Code == CodeInvalidSession || e.Code == CodeNoSession
}

// IsSessionError reports whether err wraps an APIError rejecting the session.
func IsSessionError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsSessionError()
}

// faultBody is the error envelope returned by the betting API.
type faultBody struct {
	FaultCode   string `json:"faultcode"`
	FaultString string `json:"faultstring"`
	Detail      struct {
		APINGException struct {
			ErrorCode    string `json:"errorCode"`
			ErrorDetails string `json:"errorDetails"`
		} `json:"APINGException"`
	} `json:"detail"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Message:    http.StatusText(status),
		Body:       body,
	}

	var fault faultBody
	if json.Unmarshal(body, &fault) == nil {
		if code := fault.Detail.APINGException.ErrorCode; code != "" {
			apiErr.Code = code
		} else if fault.FaultString != "" {
			apiErr.Code = fault.FaultString
		}
	}
	return apiErr
}

// doRequest performs a single HTTP request. A nil payload sends no body.
func (c *Client) doRequest(ctx context.Context, method, fullURL string, header http.Header, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, method, fullURL string, header http.Header, payload []byte) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"url", fullURL,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		body, err := c.doRequest(ctx, method, fullURL, header, payload)
		if err == nil {
			return body, nil
		}

		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// call invokes a betting API operation with a JSON body. Every attempt,
// retries included, waits on the client rate limiter.
func (c *Client) call(ctx context.Context, operation string, params, result any) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", operation, err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set(auth.HeaderApplication, c.creds.AppKey)
	if token := c.SessionToken(); token != "" {
		header.Set(auth.HeaderAuthentication, token)
	}

	fullURL := strings.TrimSuffix(c.bettingURL, "/") + "/" + operation + "/"
	body, err := c.doWithRetry(ctx, http.MethodPost, fullURL, header, payload)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", operation, err)
	}

	return nil
}

// postForm performs an identity API form post without retries.
func (c *Client) postForm(ctx context.Context, fullURL string, form url.Values, result any) error {
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set(auth.HeaderApplication, c.creds.AppKey)
	if token := c.SessionToken(); token != "" {
		header.Set(auth.HeaderAuthentication, token)
	}

	var payload []byte
	if form != nil {
		payload = []byte(form.Encode())
	}

	body, err := c.doRequest(ctx, http.MethodPost, fullURL, header, payload)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
