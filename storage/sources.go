package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultSourceBucket is the KV bucket used for persisted sources.
const DefaultSourceBucket = "SEMVIEW_SOURCES"

// Source is the raw document behind a snapshot.
type Source struct {
	Fingerprint string    `json:"fingerprint"`
	Origin      string    `json:"origin"`
	Content     []byte    `json:"content"`
	StoredAt    time.Time `json:"stored_at"`
}

// SourceStore keeps source documents so a snapshot can be rebuilt after it
// leaves the cache.
type SourceStore interface {
	Put(ctx context.Context, src Source) error
	Get(ctx context.Context, fingerprint string) (Source, error)
	Delete(ctx context.Context, fingerprint string) error
}

// MemorySources is an in-process SourceStore.
type MemorySources struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewMemorySources creates an empty in-process store.
func NewMemorySources() *MemorySources {
	return &MemorySources{sources: make(map[string]Source)}
}

// Put stores src under its fingerprint.
func (m *MemorySources) Put(_ context.Context, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[src.Fingerprint] = src
	return nil
}

// Get returns the source stored under fingerprint.
func (m *MemorySources) Get(_ context.Context, fingerprint string) (Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[fingerprint]
	if !ok {
		return Source{}, ErrNotFound
	}
	return src, nil
}

// Delete removes the source stored under fingerprint.
func (m *MemorySources) Delete(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sources, fingerprint)
	return nil
}

// KVSources stores sources in a NATS JetStream key-value bucket so several
// server instances can rebuild each other's snapshots.
type KVSources struct {
	kv jetstream.KeyValue
}

// NewKVSources opens bucket, creating it if it does not exist.
func NewKVSources(ctx context.Context, js jetstream.JetStream, bucket string) (*KVSources, error) {
	if bucket == "" {
		bucket = DefaultSourceBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("open source bucket %s: %w", bucket, err)
	}
	return &KVSources{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "semview source documents keyed by fingerprint",
		History:     1,
	})
}

// Put stores src under its fingerprint.
func (s *KVSources) Put(ctx context.Context, src Source) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal source: %w", err)
	}
	if _, err := s.kv.Put(ctx, src.Fingerprint, data); err != nil {
		return fmt.Errorf("store source: %w", err)
	}
	return nil
}

// Get returns the source stored under fingerprint.
func (s *KVSources) Get(ctx context.Context, fingerprint string) (Source, error) {
	entry, err := s.kv.Get(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return Source{}, ErrNotFound
		}
		return Source{}, fmt.Errorf("get source: %w", err)
	}
	var src Source
	if err := json.Unmarshal(entry.Value(), &src); err != nil {
		return Source{}, fmt.Errorf("unmarshal source: %w", err)
	}
	return src, nil
}

// Delete removes the source stored under fingerprint.
func (s *KVSources) Delete(ctx context.Context, fingerprint string) error {
	if err := s.kv.Delete(ctx, fingerprint); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}
