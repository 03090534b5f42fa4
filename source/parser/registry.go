package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/semview/graph"
)

// Parser defines the interface for triple-notation parsers.
type Parser interface {
	// Parse parses a document into an immutable store. Parsing is
	// all-or-nothing: on error no store is returned.
	Parse(filename string, content []byte) (*graph.Store, error)

	// CanParse returns true if this parser handles the given MIME type.
	CanParse(mimeType string) bool

	// MimeType returns the primary MIME type for this parser.
	MimeType() string
}

// Registry manages graph parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser // keyed by primary MIME type
}

// DefaultRegistry is the global parser registry with default parsers.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new parser registry with default parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}
	r.Register(NewTurtleParser())
	return r
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.MimeType()] = p
}

// GetByMimeType returns a parser for the given MIME type.
func (r *Registry) GetByMimeType(mimeType string) Parser {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.parsers[mimeType]; ok {
		return p
	}
	for _, p := range r.parsers {
		if p.CanParse(mimeType) {
			return p
		}
	}
	return nil
}

// GetByExtension returns a parser for a file based on its extension.
func (r *Registry) GetByExtension(filename string) Parser {
	return r.GetByMimeType(MimeTypeFromExtension(filepath.Ext(filename)))
}

// Parse parses a document using the parser for its extension. Files without
// a recognised extension are read as Turtle.
func (r *Registry) Parse(filename string, content []byte) (*graph.Store, error) {
	p := r.GetByExtension(filename)
	if p == nil {
		if filepath.Ext(filename) != "" {
			return nil, fmt.Errorf("%w: no parser for file type %s", ErrUnsupportedType, filepath.Ext(filename))
		}
		p = r.GetByMimeType("text/turtle")
		if p == nil {
			return nil, fmt.Errorf("%w: no parser for file %s", ErrUnsupportedType, filename)
		}
	}
	return p.Parse(filename, content)
}

// ListMimeTypes returns all registered MIME types, sorted.
func (r *Registry) ListMimeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.parsers))
	for t := range r.parsers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// MimeTypeFromExtension returns the MIME type for a file extension.
func MimeTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".ttl", ".turtle":
		return "text/turtle"
	case ".nt":
		return "application/n-triples"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// ExtensionFromMimeType returns a typical file extension for a MIME type.
// Parameters such as charset are ignored.
func ExtensionFromMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "text/turtle", "application/x-turtle":
		return ".ttl"
	case "application/n-triples":
		return ".nt"
	case "text/plain":
		return ".txt"
	default:
		return ""
	}
}
