// Package flowhttp performs one Request step's HTTP call: header merge,
// body encoding, retries with backoff, and metrics recording, per
// spec.md §4.6.
package flowhttp

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// NewClient builds an *http.Client tuned for sustained concurrent load.
// When dialAddr is non-empty the transport dials it instead of resolving
// the request URL's own host (the DNS-override path from
// internal/urlbuild); tlsServerName then pins TLS certificate
// verification to the logical hostname rather than the dialed IP.
func NewClient(timeout time.Duration, dialAddr, tlsServerName string) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	dialContext := dialer.DialContext
	if dialAddr != "" {
		dialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, dialAddr)
		}
	}

	var tlsConfig *tls.Config
	if dialAddr != "" && tlsServerName != "" {
		tlsConfig = &tls.Config{ServerName: tlsServerName}
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialContext,
		TLSClientConfig:       tlsConfig,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
