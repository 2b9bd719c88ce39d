// Package auth loads exchange credentials for non-interactive (certificate) login.
package auth

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
)

// Header names used by the exchange identity and betting APIs.
const (
	HeaderApplication    = "X-Application"
	HeaderAuthentication = "X-Authentication"
)

// Credentials holds the account login and the client certificate used for
// certificate login.
type Credentials struct {
	Username    string
	Password    string
	AppKey      string           // Application key from the developer portal
	Certificate *tls.Certificate // Client certificate registered with the account
}

// LoadCredentials loads credentials and the client certificate key pair.
func LoadCredentials(username, password, appKey, certFile, keyFile string) (*Credentials, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}
	if appKey == "" {
		return nil, errors.New("app key is required")
	}

	cert, err := LoadCertificate(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}

	return &Credentials{
		Username:    username,
		Password:    password,
		AppKey:      appKey,
		Certificate: cert,
	}, nil
}

// LoadCertificate loads a PEM certificate and private key pair.
func LoadCertificate(certFile, keyFile string) (*tls.Certificate, error) {
	if certFile == "" || keyFile == "" {
		return nil, errors.New("certificate and key paths are required")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("read key pair: %w", err)
	}
	return &cert, nil
}

// TLSConfig returns a client TLS config presenting the certificate, or nil
// when no certificate is loaded.
func (c *Credentials) TLSConfig() *tls.Config {
	if c == nil || c.Certificate == nil {
		return nil
	}
	return &tls.Config{
		Certificates: []tls.Certificate{*c.Certificate},
		MinVersion:   tls.VersionTLS12,
	}
}

// SignRequest sets the application header and, when a session token is
// present, the authentication header.
func (c *Credentials) SignRequest(req *http.Request, sessionToken string) {
	req.Header.Set(HeaderApplication, c.AppKey)
	if sessionToken != "" {
		req.Header.Set(HeaderAuthentication, sessionToken)
	}
}
