// Package fetch retrieves graph documents over HTTP. Each fetch is a single
// attempt bounded by a timeout and a size limit; there are no retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/c360studio/semview/source/parser"
	"github.com/c360studio/semview/source/weburl"
)

// Fetch defaults.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxSize   = 32 << 20
	DefaultUserAgent = "semview/1.0"
	maxRedirects     = 5
)

// acceptHeader prefers the graph media types the parser reads.
const acceptHeader = "text/turtle, application/n-triples;q=0.9, text/plain;q=0.5, */*;q=0.1"

var (
	// ErrSourceUnavailable wraps every network and HTTP status failure.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTooLarge is returned when a response exceeds the size limit.
	ErrTooLarge = errors.New("source too large")
)

// Config configures a Fetcher.
type Config struct {
	Timeout   time.Duration
	MaxSize   int64
	UserAgent string
	Policy    weburl.Policy
}

// Result is a fetched document.
type Result struct {
	Body        []byte
	ContentType string

	// URL is the final URL after redirects.
	URL        string
	StatusCode int
}

// Fetcher fetches graph documents with SSRF checks.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxSize   int64
	policy    weburl.Policy
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	dial := dialer.DialContext
	if !cfg.Policy.AllowPrivate {
		dial = safeDialContext(dialer)
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dial,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	policy := cfg.Policy
	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				if err := policy.Validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxSize:   cfg.MaxSize,
		policy:    policy,
	}
}

// safeDialContext resolves the host itself and refuses private addresses, so
// a public name cannot be rebound to an internal one between validation and
// connect.
func safeDialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("DNS lookup failed: %w", err)
		}
		for _, ipAddr := range ips {
			if weburl.IsPrivateIP(ipAddr.IP) {
				return nil, fmt.Errorf("connection to private IP %s is not allowed", ipAddr.IP)
			}
		}

		var lastErr error
		for _, ipAddr := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ipAddr.IP.String(), port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("no addresses for %s", host)
		}
		return nil, lastErr
	}
}

// Fetch retrieves rawURL once.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := f.policy.Validate(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrSourceUnavailable, resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if resp.ContentLength > f.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, resp.ContentLength, f.maxSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrSourceUnavailable, err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, f.maxSize)
	}

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
	}, nil
}

// Filename returns a name the parser registry can dispatch on. The content
// type wins over the URL path, and Turtle is the fallback.
func (r *Result) Filename() string {
	name := weburl.SourceName(r.URL)
	if ext := parser.ExtensionFromMimeType(r.ContentType); ext != "" {
		return name + ext
	}
	return name + ".ttl"
}
