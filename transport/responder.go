// Package transport answers view, export and load requests over NATS
// request/reply, for renderers that sit on a message bus instead of HTTP.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/export"
	"github.com/c360studio/semview/service"
	"github.com/c360studio/semview/viewmodel"
)

// Subject suffixes under the configured prefix.
const (
	SubjectView   = "view"
	SubjectExport = "export"
	SubjectLoad   = "load"
)

// DefaultTimeout bounds the handling of one request.
const DefaultTimeout = 30 * time.Second

// ViewMessage requests a view of a loaded graph.
type ViewMessage struct {
	GraphID  string               `json:"graph_id" validate:"required"`
	Filters  viewmodel.Filters    `json:"filters"`
	MaxNodes int                  `json:"max_nodes,omitempty" validate:"gte=0"`
	Selected string               `json:"selected,omitempty"`
	Query    string               `json:"query,omitempty"`
	Types    []classifier.TypeTag `json:"types,omitempty"`
	Language *string              `json:"language,omitempty"`

	IncludeOther     bool `json:"include_other,omitempty"`
	IncludeTypeEdges bool `json:"include_type_edges,omitempty"`

	// Format is "render" (default) or "model".
	Format string `json:"format,omitempty" validate:"omitempty,oneof=render model"`
}

// ExportMessage requests a subgraph document.
type ExportMessage struct {
	GraphID string   `json:"graph_id" validate:"required"`
	URIs    []string `json:"uris" validate:"required,min=1,dive,required"`
	Format  string   `json:"format,omitempty"`
}

// LoadMessage loads a document given inline or by URL.
type LoadMessage struct {
	Name     string `json:"name,omitempty"`
	Document string `json:"document,omitempty" validate:"required_without=URL"`
	URL      string `json:"url,omitempty" validate:"omitempty,url"`
}

// ExportReply carries an exported document.
type ExportReply struct {
	Format   export.Format `json:"format"`
	MIMEType string        `json:"mime_type"`
	Triples  int           `json:"triples"`
	Body     string        `json:"body"`
	Note     string        `json:"note"`
}

// Reply is the envelope of every response.
type Reply struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ReplyError     `json:"error,omitempty"`
}

// ReplyError describes a failed request.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Config configures a Responder.
type Config struct {
	// SubjectPrefix prefixes every subject (default: semview).
	SubjectPrefix string
	// QueueGroup spreads requests across instances. Empty disables it.
	QueueGroup string
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Responder serves service operations on NATS subjects.
type Responder struct {
	svc      *service.Service
	prefix   string
	queue    string
	timeout  time.Duration
	validate *validator.Validate
	logger   *slog.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewResponder creates a Responder.
func NewResponder(svc *service.Service, cfg Config) *Responder {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "semview"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Responder{
		svc:      svc,
		prefix:   strings.TrimSuffix(cfg.SubjectPrefix, "."),
		queue:    cfg.QueueGroup,
		timeout:  cfg.Timeout,
		validate: validator.New(),
		logger:   cfg.Logger,
	}
}

// Subject returns the full subject for suffix.
func (r *Responder) Subject(suffix string) string {
	return r.prefix + "." + suffix
}

// Start subscribes on nc.
func (r *Responder) Start(nc *nats.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, suffix := range []string{SubjectView, SubjectExport, SubjectLoad} {
		subject := r.Subject(suffix)
		handler := func(msg *nats.Msg) {
			reply := r.Handle(context.Background(), msg.Subject, msg.Data)
			if err := msg.Respond(reply); err != nil {
				r.logger.Warn("Failed to send reply", "subject", msg.Subject, "error", err)
			}
		}

		var sub *nats.Subscription
		var err error
		if r.queue != "" {
			sub, err = nc.QueueSubscribe(subject, r.queue, handler)
		} else {
			sub, err = nc.Subscribe(subject, handler)
		}
		if err != nil {
			r.unsubscribeLocked()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		r.subs = append(r.subs, sub)
	}

	r.logger.Info("NATS responder started", "prefix", r.prefix, "queue", r.queue)
	return nil
}

// Stop drains the subscriptions.
func (r *Responder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribeLocked()
}

func (r *Responder) unsubscribeLocked() {
	for _, sub := range r.subs {
		if err := sub.Drain(); err != nil {
			r.logger.Debug("Drain failed", "subject", sub.Subject, "error", err)
		}
	}
	r.subs = nil
}

// Handle answers one request and returns the encoded Reply.
func (r *Responder) Handle(ctx context.Context, subject string, data []byte) []byte {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		result any
		err    error
	)
	switch strings.TrimPrefix(subject, r.prefix+".") {
	case SubjectView:
		result, err = r.handleView(ctx, data)
	case SubjectExport:
		result, err = r.handleExport(ctx, data)
	case SubjectLoad:
		result, err = r.handleLoad(ctx, data)
	default:
		err = &requestError{code: "unknown_subject", msg: "unknown subject " + subject}
	}

	if err != nil {
		r.logger.Debug("Request failed", "subject", subject, "error", err)
		return encodeError(err)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return encodeError(err)
	}
	out, _ := json.Marshal(Reply{OK: true, Data: payload})
	return out
}

func (r *Responder) handleView(ctx context.Context, data []byte) (any, error) {
	var msg ViewMessage
	if err := r.decode(data, &msg); err != nil {
		return nil, err
	}
	vm, err := r.svc.View(ctx, msg.GraphID, service.ViewRequest{
		Filters:  msg.Filters,
		MaxNodes: msg.MaxNodes,
		Selected: msg.Selected,
		Query:    msg.Query,
		Types:    msg.Types,
		Language: msg.Language,

		IncludeOther:     msg.IncludeOther,
		IncludeTypeEdges: msg.IncludeTypeEdges,
	})
	if err != nil {
		return nil, err
	}
	if msg.Format == "model" {
		return vm, nil
	}
	return vm.Render(), nil
}

func (r *Responder) handleExport(ctx context.Context, data []byte) (any, error) {
	var msg ExportMessage
	if err := r.decode(data, &msg); err != nil {
		return nil, err
	}
	res, err := r.svc.Export(ctx, msg.GraphID, service.ExportRequest{URIs: msg.URIs, Format: msg.Format})
	if err != nil {
		return nil, err
	}
	return ExportReply{
		Format:   res.Format.Name,
		MIMEType: res.Format.MIMEType,
		Triples:  res.Triples,
		Body:     res.Body,
		Note:     export.OverInclusionNote,
	}, nil
}

func (r *Responder) handleLoad(ctx context.Context, data []byte) (any, error) {
	var msg LoadMessage
	if err := r.decode(data, &msg); err != nil {
		return nil, err
	}
	if msg.URL != "" {
		return r.svc.LoadURL(ctx, msg.URL)
	}
	name := msg.Name
	if name == "" {
		name = "message.ttl"
	}
	return r.svc.LoadDocument(ctx, name, []byte(msg.Document))
}

func (r *Responder) decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &requestError{code: "invalid_json", msg: err.Error()}
	}
	if err := r.validate.Struct(v); err != nil {
		return &requestError{code: "validation_error", msg: err.Error()}
	}
	return nil
}

// requestError is a client mistake rather than a service failure.
type requestError struct {
	code string
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func encodeError(err error) []byte {
	re := &ReplyError{Code: service.Code(err), Message: err.Error()}
	if rerr, ok := err.(*requestError); ok {
		re.Code = rerr.code
	}
	out, _ := json.Marshal(Reply{OK: false, Error: re})
	return out
}
