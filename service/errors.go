package service

import (
	"errors"

	"github.com/c360studio/semview/export"
	"github.com/c360studio/semview/source/fetch"
	"github.com/c360studio/semview/source/parser"
	"github.com/c360studio/semview/source/weburl"
	"github.com/c360studio/semview/storage"
)

// Error codes shared by the HTTP and NATS surfaces.
const (
	CodeSyntax              = "syntax_error"
	CodeNotFound            = "not_found"
	CodeNodeNotFound        = "node_not_found"
	CodeFingerprintMismatch = "fingerprint_mismatch"
	CodeUnsupportedFormat   = "unsupported_format"
	CodeBlockedURL          = "blocked_url"
	CodeTooLarge            = "too_large"
	CodeSourceUnavailable   = "source_unavailable"
	CodeUnsupportedType     = "unsupported_media_type"
	CodeInternal            = "internal_error"
)

// Code classifies err for clients.
func Code(err error) string {
	switch {
	case errors.Is(err, parser.ErrSyntax):
		return CodeSyntax
	case errors.Is(err, parser.ErrUnsupportedType):
		return CodeUnsupportedType
	case errors.Is(err, storage.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrNodeNotFound):
		return CodeNodeNotFound
	case errors.Is(err, storage.ErrFingerprintMismatch):
		return CodeFingerprintMismatch
	case errors.Is(err, export.ErrUnsupportedFormat):
		return CodeUnsupportedFormat
	case errors.Is(err, weburl.ErrBlockedURL):
		return CodeBlockedURL
	case errors.Is(err, fetch.ErrTooLarge):
		return CodeTooLarge
	case errors.Is(err, fetch.ErrSourceUnavailable):
		return CodeSourceUnavailable
	}
	return CodeInternal
}
