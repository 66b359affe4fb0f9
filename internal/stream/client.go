// Package stream is an HTTP client for the remote activity stream feed.
package stream

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds the feed endpoint and transport settings.
type Config struct {
	URL        string
	MaxResults int
	Username   string
	Password   string

	// RootCertificates are PEM files trusted in addition to the system pool.
	RootCertificates []string
	// HostnameVerification can be turned off for servers whose certificate
	// does not name the host; the chain is still verified.
	HostnameVerification bool

	Timeout time.Duration
	// Retries is the number of attempts per query; values below 1 mean 1.
	Retries int
}

// StatusError reports a non-2xx response from the feed.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("activity stream returned HTTP %d", e.StatusCode)
}

// Client queries the activity stream for one member at a time.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Client, loading any configured root certificates.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("parse stream url: %w", err)
	}

	tlsConfig, err := newTLSConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:        cfg,
		httpClient: newHTTPClient(cfg.Timeout, tlsConfig),
		logger:     logger,
	}, nil
}

// Query returns the member's most recent activity, capped at MaxResults.
func (c *Client) Query(ctx context.Context, member string) ([]byte, error) {
	return c.get(ctx, member)
}

// QueryAfter returns the member's activity updated after the given time in
// UNIX milliseconds.
func (c *Client) QueryAfter(ctx context.Context, member string, afterMillis int64) ([]byte, error) {
	return c.get(ctx, member, "update-date AFTER "+strconv.FormatInt(afterMillis, 10))
}

// QueryBetween returns the member's activity updated between the two times
// in UNIX milliseconds.
func (c *Client) QueryBetween(ctx context.Context, member string, startMillis, endMillis int64) ([]byte, error) {
	return c.get(ctx, member, fmt.Sprintf("update-date BETWEEN %d %d", startMillis, endMillis))
}

func (c *Client) get(ctx context.Context, member string, filters ...string) ([]byte, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse stream url: %w", err)
	}
	q := u.Query()
	q.Set("maxResults", strconv.Itoa(c.cfg.MaxResults))
	q.Add("streams", "user IS "+member)
	for _, f := range filters {
		q.Add("streams", f)
	}
	u.RawQuery = q.Encode()

	var body []byte
	err = retry(ctx, c.cfg.Retries, time.Second, 10*time.Second, func() error {
		var err error
		body, err = c.do(ctx, u.String())
		if err != nil {
			c.logger.Debug("stream query failed", "member", member, "err", err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query activity for %s: %w", member, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

func newHTTPClient(timeout time.Duration, tlsConfig *tls.Config) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		TLSClientConfig:     tlsConfig,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

func newTLSConfig(cfg Config, logger *slog.Logger) (*tls.Config, error) {
	if len(cfg.RootCertificates) == 0 && cfg.HostnameVerification {
		return nil, nil
	}

	roots, err := x509.SystemCertPool()
	if err != nil || roots == nil {
		roots = x509.NewCertPool()
	}
	for _, path := range cfg.RootCertificates {
		logger.Debug("loading root certificate", "path", path)
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read root certificate %s: %w", path, err)
		}
		if !roots.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("root certificate %s: no PEM certificates found", path)
		}
	}

	tlsConfig := &tls.Config{RootCAs: roots, MinVersion: tls.VersionTLS12}
	if !cfg.HostnameVerification {
		logger.Debug("hostname verification disabled")
		tlsConfig.InsecureSkipVerify = true
		tlsConfig.VerifyPeerCertificate = verifyChain(roots)
	}
	return tlsConfig, nil
}

// verifyChain checks the presented chain against roots without matching the
// server name.
func verifyChain(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("no peer certificates")
		}
		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("parse peer certificate: %w", err)
			}
			certs = append(certs, cert)
		}
		intermediates := x509.NewCertPool()
		for _, cert := range certs[1:] {
			intermediates.AddCert(cert)
		}
		_, err := certs[0].Verify(x509.VerifyOptions{Roots: roots, Intermediates: intermediates})
		return err
	}
}

// retry runs fn up to attempts times with doubling backoff. Client errors
// (4xx) are not retried.
func retry(ctx context.Context, attempts int, initial, max time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	d := initial
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
			if d < max {
				d *= 2
				if d > max {
					d = max
				}
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode < 500 {
			return err
		}
	}
	return err
}
