// Package transport builds the HTTP clients used to reach the assessment
// service: a plain client, or HTTP/2 over mutual TLS 1.3.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
)

// Config names the PEM files for mutual TLS. All empty means plain HTTP(S).
type Config struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

// MTLS reports whether any TLS file is configured.
func (c Config) MTLS() bool {
	return c.CertFile != "" || c.KeyFile != "" || c.CAFile != ""
}

// New returns an HTTP client for cfg. Per-call deadlines come from the
// caller's context, so the client itself has no timeout.
func New(cfg Config) (*http.Client, error) {
	if !cfg.MTLS() {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.IdleConnTimeout = 90 * time.Second
		return &http.Client{Transport: t}, nil
	}
	return NewHTTP2Client(cfg.CertFile, cfg.KeyFile, cfg.CAFile)
}

// NewHTTP2Client creates an HTTP/2 client that presents certPath/keyPath
// and trusts only the CAs in caPath. TLS 1.3 is required.
func NewHTTP2Client(certPath, keyPath, caPath string) (*http.Client, error) {
	tlsConfig, err := mutualTLSConfig(certPath, keyPath, caPath)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &http2.Transport{TLSClientConfig: tlsConfig},
	}, nil
}

func mutualTLSConfig(certPath, keyPath, caPath string) (*tls.Config, error) {
	switch {
	case certPath == "":
		return nil, errors.New("client certificate path required")
	case keyPath == "":
		return nil, errors.New("client key path required")
	case caPath == "":
		return nil, errors.New("CA certificate path required")
	}

	clientCert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caPEM, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates found in %s", caPath)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS13,
		MaxVersion:   tls.VersionTLS13,
	}, nil
}
