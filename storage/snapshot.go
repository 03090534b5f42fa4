// Package storage holds loaded graph snapshots: an injected repository with a
// size-bounded, TTL-expiring cache keyed by content fingerprint, optional
// source persistence, and a file watcher that refreshes snapshots when their
// source files change.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/graph"
)

// Fingerprint returns the hex SHA-256 of content. Snapshots are keyed by it.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Snapshot is one parsed and classified source. It is immutable.
type Snapshot struct {
	// ID is the fingerprint of the source bytes.
	ID string

	// Origin names where the source came from: a file path, a URL, or
	// "upload".
	Origin string

	Store *graph.Store
	Tags  *classifier.Classification

	// LoadID distinguishes separate parses of the same content.
	LoadID   string
	LoadedAt time.Time
	Size     int
}

// SnapshotInfo summarizes a snapshot for listings.
type SnapshotInfo struct {
	ID       string         `json:"id"`
	Origin   string         `json:"origin"`
	Triples  int            `json:"triples"`
	Nodes    int            `json:"nodes"`
	Counts   map[string]int `json:"counts"`
	Size     int            `json:"size"`
	LoadID   string         `json:"load_id"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// Info returns the summary of s.
func (s *Snapshot) Info() SnapshotInfo {
	counts := make(map[string]int)
	for tag, n := range s.Tags.Counts() {
		counts[tag.String()] = n
	}
	return SnapshotInfo{
		ID:       s.ID,
		Origin:   s.Origin,
		Triples:  s.Store.Len(),
		Nodes:    s.Tags.Len(),
		Counts:   counts,
		Size:     s.Size,
		LoadID:   s.LoadID,
		LoadedAt: s.LoadedAt,
	}
}
