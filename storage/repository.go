package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/graph"
)

// Default cache bounds.
const (
	DefaultCacheSize = 16
	DefaultCacheTTL  = 30 * time.Minute
)

// ParseFunc turns source bytes into a graph. origin is used to pick a parser
// and in error messages.
type ParseFunc func(origin string, content []byte) (*graph.Store, error)

// Recorder receives cache and parse measurements.
type Recorder interface {
	CacheHit()
	CacheMiss()
	CacheEvicted()
	SourceParsed(triples int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit() {}
func (nopRecorder) CacheMiss() {}
func (nopRecorder) CacheEvicted() {}
func (nopRecorder) SourceParsed(int, time.Duration) {}

// RepositoryConfig configures a Repository.
type RepositoryConfig struct {
	// Size bounds the number of cached snapshots.
	Size int

	// TTL expires snapshots that have not been re-added for this long.
	TTL time.Duration

	Parse      ParseFunc
	Classifier classifier.Options

	// Sources persists source documents. Optional.
	Sources SourceStore

	// Metrics receives cache measurements. Optional.
	Metrics Recorder

	Logger *slog.Logger
}

// Repository caches parsed snapshots keyed by source fingerprint. Identical
// content is parsed once; a snapshot is only ever returned for the exact
// bytes it was built from.
type Repository struct {
	cache   *expirable.LRU[string, *Snapshot]
	parse   ParseFunc
	opts    classifier.Options
	sources SourceStore
	metrics Recorder
	logger  *slog.Logger

	// mu guards origins. Never call into cache while holding it: the
	// eviction callback takes it.
	mu      sync.Mutex
	origins map[string]string

	// loadMu serializes parses so concurrent loads of the same bytes
	// share one snapshot.
	loadMu sync.Mutex
}

// NewRepository creates a repository. Parse is required.
func NewRepository(cfg RepositoryConfig) *Repository {
	if cfg.Size <= 0 {
		cfg.Size = DefaultCacheSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := &Repository{
		parse:   cfg.Parse,
		opts:    cfg.Classifier,
		sources: cfg.Sources,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		origins: make(map[string]string),
	}
	r.cache = expirable.NewLRU[string, *Snapshot](cfg.Size, r.onEvict, cfg.TTL)
	return r
}

func (r *Repository) onEvict(id string, snap *Snapshot) {
	r.metrics.CacheEvicted()

	r.mu.Lock()
	if r.origins[snap.Origin] == id {
		delete(r.origins, snap.Origin)
	}
	r.mu.Unlock()

	r.logger.Debug("Snapshot evicted", "id", id, "origin", snap.Origin)
}

// Load returns the snapshot for content, parsing it on a cache miss. cached
// reports whether an existing snapshot was reused.
func (r *Repository) Load(ctx context.Context, origin string, content []byte) (snap *Snapshot, cached bool, err error) {
	id := Fingerprint(content)

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if snap, ok := r.lookup(id); ok {
		r.metrics.CacheHit()
		r.remember(origin, id)
		return snap, true, nil
	}
	r.metrics.CacheMiss()

	snap, err = r.build(id, origin, content)
	if err != nil {
		return nil, false, err
	}
	r.cache.Add(id, snap)
	r.remember(origin, id)

	if r.sources != nil {
		src := Source{Fingerprint: id, Origin: origin, Content: content, StoredAt: snap.LoadedAt}
		if err := r.sources.Put(ctx, src); err != nil {
			r.logger.Warn("Failed to persist source", "id", id, "origin", origin, "error", err)
		}
	}
	return snap, false, nil
}

// Get returns the snapshot for id. A snapshot that left the cache is rebuilt
// from the source store when one is configured.
func (r *Repository) Get(ctx context.Context, id string) (*Snapshot, error) {
	snap, ok := r.cache.Get(id)
	if ok {
		if snap.ID != id {
			r.cache.Remove(id)
			return nil, fmt.Errorf("%w: %s", ErrFingerprintMismatch, id)
		}
		r.metrics.CacheHit()
		return snap, nil
	}
	r.metrics.CacheMiss()

	if r.sources == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	src, err := r.sources.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	if Fingerprint(src.Content) != id {
		if err := r.sources.Delete(ctx, id); err != nil {
			r.logger.Warn("Failed to drop corrupt source", "id", id, "error", err)
		}
		return nil, fmt.Errorf("%w: %s", ErrFingerprintMismatch, id)
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if snap, ok := r.lookup(id); ok {
		return snap, nil
	}
	snap, err = r.build(id, src.Origin, src.Content)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, snap)
	r.remember(src.Origin, id)
	r.logger.Info("Snapshot restored from source store", "id", id, "origin", src.Origin)
	return snap, nil
}

// Current returns the snapshot most recently loaded from origin.
func (r *Repository) Current(origin string) (*Snapshot, bool) {
	r.mu.Lock()
	id, ok := r.origins[origin]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return r.lookup(id)
}

// Invalidate drops the snapshot for id and its persisted source.
func (r *Repository) Invalidate(ctx context.Context, id string) bool {
	removed := r.cache.Remove(id)
	if r.sources != nil {
		if err := r.sources.Delete(ctx, id); err != nil {
			r.logger.Warn("Failed to delete source", "id", id, "error", err)
		}
	}
	return removed
}

// InvalidateOrigin forgets origin and drops the snapshot most recently loaded
// from it. A snapshot another origin still maps to is kept. It reports whether
// origin was known.
func (r *Repository) InvalidateOrigin(ctx context.Context, origin string) bool {
	r.mu.Lock()
	id, ok := r.origins[origin]
	delete(r.origins, origin)
	shared := false
	for _, other := range r.origins {
		if other == id {
			shared = true
			break
		}
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	if !shared {
		r.Invalidate(ctx, id)
	}
	return true
}

// Purge drops every cached snapshot. Persisted sources are kept.
func (r *Repository) Purge() {
	r.cache.Purge()
}

// Len returns the number of cached snapshots.
func (r *Repository) Len() int {
	return r.cache.Len()
}

// List summarizes the cached snapshots, newest first.
func (r *Repository) List() []SnapshotInfo {
	snaps := r.cache.Values()
	infos := make([]SnapshotInfo, 0, len(snaps))
	for _, s := range snaps {
		infos = append(infos, s.Info())
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].LoadedAt.After(infos[j].LoadedAt)
	})
	return infos
}

func (r *Repository) lookup(id string) (*Snapshot, bool) {
	snap, ok := r.cache.Get(id)
	if !ok || snap.ID != id {
		return nil, false
	}
	return snap, true
}

func (r *Repository) remember(origin, id string) {
	r.mu.Lock()
	r.origins[origin] = id
	r.mu.Unlock()
}

func (r *Repository) build(id, origin string, content []byte) (*Snapshot, error) {
	if r.parse == nil {
		return nil, errors.New("repository has no parser")
	}

	start := time.Now()
	store, err := r.parse(origin, content)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	r.metrics.SourceParsed(store.Len(), elapsed)

	snap := &Snapshot{
		ID:       id,
		Origin:   origin,
		Store:    store,
		Tags:     classifier.New(store, r.opts).ClassifyAll(),
		LoadID:   uuid.New().String(),
		LoadedAt: time.Now(),
		Size:     len(content),
	}
	r.logger.Info("Snapshot loaded",
		"id", id,
		"origin", origin,
		"triples", store.Len(),
		"nodes", snap.Tags.Len(),
		"duration", elapsed)
	return snap, nil
}
