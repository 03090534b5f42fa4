// Package weburl validates source URLs before they are fetched.
//
// # URL Validation
//
// Policy.Validate checks a URL against the configured policy:
//
//   - Only http and https schemes; plain http only when AllowHTTP is set
//   - Localhost variants (localhost, 127.0.0.1, ::1) are blocked
//   - Local domains (.local, .internal) are blocked
//   - Private IP literals (RFC 1918, CGNAT, link-local) are blocked
//
// AllowPrivate lifts the last three checks, for ontologies served from an
// intranet.
//
// # IP Address Handling
//
// IsPrivateIP detects private and reserved addresses including IPv6 unique
// local, link-local, and IPv6-mapped IPv4 addresses. The fetcher also applies
// it to every resolved address at dial time, which defeats DNS rebinding.
//
// # Source Names
//
// SourceName derives a short file-name base from a URL:
//
//	https://example.org/ontologies/axiology.ttl → axiology
//	https://example.org/                       → example-org
package weburl
