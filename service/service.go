// Package service ties the snapshot repository, fetcher, view builder and
// exporter into the operations the HTTP API, NATS responder and CLI share.
// It holds no classification, label or view logic of its own.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/export"
	"github.com/c360studio/semview/graph"
	"github.com/c360studio/semview/labels"
	"github.com/c360studio/semview/source/fetch"
	"github.com/c360studio/semview/storage"
	"github.com/c360studio/semview/viewmodel"
)

// ErrNodeNotFound is returned by Detail for IRIs the graph never mentions.
var ErrNodeNotFound = errors.New("node not found")

// Recorder receives view and export measurements.
type Recorder interface {
	ViewBuilt(nodes int, truncated bool)
	Exported(format string, triples int)
}

type nopRecorder struct{}

func (nopRecorder) ViewBuilt(int, bool) {}
func (nopRecorder) Exported(string, int) {}

// ViewDefaults apply to every view request.
type ViewDefaults struct {
	MaxNodes         int
	IncludeOther     bool
	IncludeTypeEdges bool
}

// Config configures a Service.
type Config struct {
	Repository *storage.Repository

	// Fetcher loads URL sources. Optional; LoadURL fails without it.
	Fetcher *fetch.Fetcher

	Labels  labels.Options
	View    ViewDefaults
	Metrics Recorder
	Logger  *slog.Logger
}

// Service runs graph operations against cached snapshots.
type Service struct {
	repo    *storage.Repository
	fetcher *fetch.Fetcher
	labels  labels.Options
	view    ViewDefaults
	metrics Recorder
	logger  *slog.Logger
}

// New creates a Service.
func New(cfg Config) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		repo:    cfg.Repository,
		fetcher: cfg.Fetcher,
		labels:  cfg.Labels,
		view:    cfg.View,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Repository returns the snapshot repository.
func (s *Service) Repository() *storage.Repository {
	return s.repo
}

// LoadResult reports a loaded snapshot.
type LoadResult struct {
	ID      string         `json:"id"`
	Triples int            `json:"triples"`
	Nodes   int            `json:"nodes"`
	Source  string         `json:"source"`
	Cached  bool           `json:"cached"`
	Counts  map[string]int `json:"counts"`
}

func newLoadResult(snap *storage.Snapshot, cached bool) LoadResult {
	info := snap.Info()
	return LoadResult{
		ID:      snap.ID,
		Triples: info.Triples,
		Nodes:   info.Nodes,
		Source:  snap.Origin,
		Cached:  cached,
		Counts:  info.Counts,
	}
}

// LoadDocument parses content and caches the snapshot. origin names the
// source; its extension picks the parser.
func (s *Service) LoadDocument(ctx context.Context, origin string, content []byte) (LoadResult, error) {
	snap, cached, err := s.repo.Load(ctx, origin, content)
	if err != nil {
		return LoadResult{}, err
	}
	return newLoadResult(snap, cached), nil
}

// LoadURL fetches rawURL once and loads it.
func (s *Service) LoadURL(ctx context.Context, rawURL string) (LoadResult, error) {
	if s.fetcher == nil {
		return LoadResult{}, fmt.Errorf("%w: fetching is disabled", fetch.ErrSourceUnavailable)
	}
	res, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return LoadResult{}, err
	}
	s.logger.Debug("Fetched source", "url", rawURL, "bytes", len(res.Body), "content_type", res.ContentType)

	snap, cached, err := s.repo.Load(ctx, res.Filename(), res.Body)
	if err != nil {
		return LoadResult{}, err
	}
	result := newLoadResult(snap, cached)
	result.Source = rawURL
	return result, nil
}

// LoadFile reads and loads a local file.
func (s *Service) LoadFile(ctx context.Context, path string) (LoadResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	return s.LoadDocument(ctx, abs, content)
}

// Snapshot returns the snapshot for id.
func (s *Service) Snapshot(ctx context.Context, id string) (*storage.Snapshot, error) {
	return s.repo.Get(ctx, id)
}

// List summarizes the cached snapshots.
func (s *Service) List() []storage.SnapshotInfo {
	return s.repo.List()
}

// Delete drops the snapshot for id.
func (s *Service) Delete(ctx context.Context, id string) bool {
	return s.repo.Invalidate(ctx, id)
}

// builder assembles a view builder for snap using the configured label
// settings, optionally overriding the language.
func (s *Service) builder(snap *storage.Snapshot, language *string) *viewmodel.Builder {
	opts := s.labels
	if language != nil {
		opts.Language = *language
	}
	return viewmodel.NewBuilder(snap.Store, snap.Tags, labels.New(snap.Store, opts))
}

// ViewRequest selects what a view shows.
type ViewRequest struct {
	Filters  viewmodel.Filters    `json:"filters"`
	MaxNodes int                  `json:"max_nodes,omitempty" validate:"gte=0"`
	Selected string               `json:"selected,omitempty"`
	Query    string               `json:"query,omitempty"`
	Types    []classifier.TypeTag `json:"types,omitempty"`
	Language *string              `json:"language,omitempty"`

	IncludeOther     bool `json:"include_other,omitempty"`
	IncludeTypeEdges bool `json:"include_type_edges,omitempty"`
}

func (s *Service) viewOptions(req ViewRequest) viewmodel.Options {
	maxNodes := req.MaxNodes
	if maxNodes <= 0 {
		maxNodes = s.view.MaxNodes
	}
	return viewmodel.Options{
		MaxNodes:         maxNodes,
		Selected:         req.Selected,
		Query:            req.Query,
		Types:            req.Types,
		IncludeOther:     req.IncludeOther || s.view.IncludeOther,
		IncludeTypeEdges: req.IncludeTypeEdges || s.view.IncludeTypeEdges,
	}
}

// View builds the view model of snapshot id.
func (s *Service) View(ctx context.Context, id string, req ViewRequest) (viewmodel.ViewModel, error) {
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return viewmodel.ViewModel{}, err
	}
	vm := s.builder(snap, req.Language).Build(req.Filters, s.viewOptions(req))
	s.metrics.ViewBuilt(len(vm.Nodes), vm.Truncated())
	return vm, nil
}

// Nodes lists the node table of snapshot id.
func (s *Service) Nodes(ctx context.Context, id, query string, types []classifier.TypeTag) (viewmodel.Table, error) {
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return viewmodel.Table{}, err
	}
	return s.builder(snap, nil).Table(query, types), nil
}

// Detail describes one node of snapshot id.
func (s *Service) Detail(ctx context.Context, id, iri string) (viewmodel.Detail, error) {
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return viewmodel.Detail{}, err
	}
	detail, ok := s.builder(snap, nil).Describe(iri)
	if !ok {
		return viewmodel.Detail{}, fmt.Errorf("%w: %s", ErrNodeNotFound, iri)
	}
	return detail, nil
}

// Triples lists every triple of snapshot id.
func (s *Service) Triples(ctx context.Context, id string) ([]graph.Row, error) {
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return graph.Rows(snap.Store), nil
}

// ExportRequest selects the subgraph to export.
type ExportRequest struct {
	URIs   []string `json:"uris" validate:"required,min=1,dive,required"`
	Format string   `json:"format,omitempty"`
}

// Export serializes the subgraph of req.URIs in snapshot id.
func (s *Service) Export(ctx context.Context, id string, req ExportRequest) (export.Result, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return export.Result{}, err
	}
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return export.Result{}, err
	}
	res, err := export.NewExporter(snap.Store).Export(req.URIs, format)
	if err != nil {
		return export.Result{}, err
	}
	s.metrics.Exported(string(format), res.Triples)
	return res, nil
}
