package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// LoginResponse from the certificate login endpoint.
type LoginResponse struct {
	SessionToken string `json:"sessionToken"`
	LoginStatus  string `json:"loginStatus"`
}

// SessionResponse from the keepAlive and logout endpoints.
type SessionResponse struct {
	Token   string `json:"token"`
	Product string `json:"product"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

const statusSuccess = "SUCCESS"

// Login performs a non-interactive certificate login and stores the session
// token for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	if c.certLoginURL == "" {
		return errors.New("login: certificate login url is not configured")
	}

	form := url.Values{}
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	var resp LoginResponse
	if err := c.postForm(ctx, c.certLoginURL, form, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.LoginStatus != statusSuccess {
		return fmt.Errorf("login: status %s", resp.LoginStatus)
	}

	c.setSessionToken(resp.SessionToken)
	c.logger.Info("logged in to exchange")
	return nil
}

// KeepAlive extends the current session.
func (c *Client) KeepAlive(ctx context.Context) error {
	resp, err := c.sessionCall(ctx, "keepAlive")
	if err != nil {
		return fmt.Errorf("keep alive: %w", err)
	}
	if resp.Token != "" {
		c.setSessionToken(resp.Token)
	}
	return nil
}

// Logout ends the current session. The stored token is cleared even when the
// exchange rejects the request.
func (c *Client) Logout(ctx context.Context) error {
	if c.SessionToken() == "" {
		return nil
	}
	_, err := c.sessionCall(ctx, "logout")
	c.setSessionToken("")
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.logger.Info("logged out of exchange")
	return nil
}

func (c *Client) sessionCall(ctx context.Context, op string) (*SessionResponse, error) {
	if c.identityURL == "" {
		return nil, errors.New("identity url is not configured")
	}

	var resp SessionResponse
	fullURL := strings.TrimSuffix(c.identityURL, "/") + "/" + op
	if err := c.postForm(ctx, fullURL, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusSuccess {
		return nil, &APIError{StatusCode: 200, Code: resp.Error, Message: "status " + resp.Status}
	}
	return &resp, nil
}
