package weburl

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"
)

// ErrBlockedURL is returned for URLs the policy refuses to fetch.
var ErrBlockedURL = errors.New("url not allowed")

// Pre-compiled CIDR networks for reserved ranges the net package does not
// classify.
var (
	cgnat    = mustCIDR("100.64.0.0/10") // carrier-grade NAT
	v6unique = mustCIDR("fc00::/7")
	v6link   = mustCIDR("fe80::/10")
)

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic("invalid CIDR " + s + ": " + err.Error())
	}
	return n
}

// Policy decides which URLs may be fetched.
type Policy struct {
	AllowHTTP    bool
	AllowPrivate bool
}

// Validate returns an error wrapping ErrBlockedURL when rawURL may not be
// fetched under p.
func (p Policy) Validate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL: %v", ErrBlockedURL, err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !p.AllowHTTP {
			return fmt.Errorf("%w: only HTTPS URLs are allowed", ErrBlockedURL)
		}
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrBlockedURL, parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrBlockedURL)
	}
	if p.AllowPrivate {
		return nil
	}

	lowHost := strings.ToLower(host)
	if lowHost == "localhost" || lowHost == "127.0.0.1" || lowHost == "::1" {
		return fmt.Errorf("%w: localhost URLs are not allowed", ErrBlockedURL)
	}
	if strings.HasSuffix(lowHost, ".local") || strings.HasSuffix(lowHost, ".internal") {
		return fmt.Errorf("%w: local domain URLs are not allowed", ErrBlockedURL)
	}
	if ip := net.ParseIP(host); ip != nil && IsPrivateIP(ip) {
		return fmt.Errorf("%w: private IP addresses are not allowed", ErrBlockedURL)
	}
	return nil
}

// IsPrivateIP checks if an IP is in private or reserved ranges.
func IsPrivateIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	return cgnat.Contains(ip) || v6unique.Contains(ip) || v6link.Contains(ip)
}

// SourceName returns a lowercase file-name base for rawURL: the last path
// segment without its extension, or the host when the path is empty.
func SourceName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "graph"
	}

	name := path.Base(strings.TrimRight(parsed.Path, "/"))
	if name == "." || name == "/" || name == "" {
		name = parsed.Hostname()
	} else {
		name = strings.TrimSuffix(name, path.Ext(name))
	}

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, name)
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	name = strings.Trim(name, "-")

	if len(name) > 64 {
		name = strings.TrimRight(name[:64], "-")
	}
	if name == "" {
		return "graph"
	}
	return name
}
