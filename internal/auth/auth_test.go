package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTestKeyPair generates a self-signed client certificate and writes it
// as PEM files, returning their paths.
func writeTestKeyPair(t *testing.T) (certPath, keyPath string) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "betfair-logger-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	dir := t.TempDir()
	certPath = filepath.Join(dir, "client-2048.crt")
	keyPath = filepath.Join(dir, "client-2048.key")

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)})

	if err := os.WriteFile(certPath, certPEM, 0600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certPath, keyPath
}

func TestLoadCredentials(t *testing.T) {
	certPath, keyPath := writeTestKeyPair(t)

	creds, err := LoadCredentials("punter", "hunter2", "app-key", certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}

	if creds.Username != "punter" {
		t.Errorf("Username = %q, want %q", creds.Username, "punter")
	}
	if creds.AppKey != "app-key" {
		t.Errorf("AppKey = %q, want %q", creds.AppKey, "app-key")
	}
	if creds.Certificate == nil {
		t.Fatal("Certificate is nil")
	}

	cfg := creds.TLSConfig()
	if cfg == nil || len(cfg.Certificates) != 1 {
		t.Fatalf("TLSConfig() should carry one certificate, got %+v", cfg)
	}
}

func TestLoadCredentials_Errors(t *testing.T) {
	certPath, keyPath := writeTestKeyPair(t)

	tests := []struct {
		name     string
		username string
		password string
		appKey   string
		cert     string
		key      string
		wantErr  string
	}{
		{"missing username", "", "p", "k", certPath, keyPath, "username is required"},
		{"missing password", "u", "", "k", certPath, keyPath, "password is required"},
		{"missing app key", "u", "p", "", certPath, keyPath, "app key is required"},
		{"missing cert path", "u", "p", "k", "", keyPath, "certificate and key paths are required"},
		{"nonexistent cert", "u", "p", "k", "/nonexistent.crt", keyPath, "read key pair"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCredentials(tt.username, tt.password, tt.appKey, tt.cert, tt.key)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCredentials_SignRequest(t *testing.T) {
	creds := &Credentials{AppKey: "app-key"}

	t.Run("without session", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)
		creds.SignRequest(req, "")

		if got := req.Header.Get(HeaderApplication); got != "app-key" {
			t.Errorf("%s = %q, want %q", HeaderApplication, got, "app-key")
		}
		if got := req.Header.Get(HeaderAuthentication); got != "" {
			t.Errorf("%s = %q, want empty", HeaderAuthentication, got)
		}
	})

	t.Run("with session", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)
		creds.SignRequest(req, "token-123")

		if got := req.Header.Get(HeaderAuthentication); got != "token-123" {
			t.Errorf("%s = %q, want %q", HeaderAuthentication, got, "token-123")
		}
	})
}

func TestTLSConfig_NoCertificate(t *testing.T) {
	var nilCreds *Credentials
	if nilCreds.TLSConfig() != nil {
		t.Error("nil credentials should have nil TLS config")
	}
	if (&Credentials{}).TLSConfig() != nil {
		t.Error("credentials without certificate should have nil TLS config")
	}
}
