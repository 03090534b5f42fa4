package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher collects changes before reloading.
const DefaultDebounce = 200 * time.Millisecond

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// DebounceDelay is how long to wait for more changes before reloading.
	DebounceDelay time.Duration

	Logger *slog.Logger
}

// WatchOperation indicates what happened to a watched file.
type WatchOperation string

const (
	OpReload WatchOperation = "reload"
	OpRemove WatchOperation = "remove"
)

// WatchEvent reports the outcome of one debounced change.
type WatchEvent struct {
	Path      string
	Operation WatchOperation

	// SnapshotID is the new snapshot for reloads.
	SnapshotID string

	// Error is set when the changed file could not be read or parsed. The
	// stale snapshot has already been dropped.
	Error error
}

// Watcher refreshes repository snapshots whose source files change on disk.
type Watcher struct {
	repo     *Repository
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	filesMu sync.RWMutex
	files   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events chan WatchEvent
}

// NewWatcher creates a watcher that reloads files into repo.
func NewWatcher(repo *Repository, config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := config.DebounceDelay
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		repo:     repo,
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		files:    make(map[string]bool),
		pending:  make(map[string]fsnotify.Op),
		events:   make(chan WatchEvent, 100),
	}, nil
}

// Events returns the channel of watch events. It is closed once the watcher
// stops.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Add watches path. Its directory is watched so that editors which replace
// files on save are still seen.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w.filesMu.Lock()
	w.files[abs] = true
	w.filesMu.Unlock()

	w.logger.Debug("Watching file", "path", abs)
	return nil
}

// Start begins processing file system events.
func (w *Watcher) Start(ctx context.Context) {
	go w.processEvents(ctx)

	w.filesMu.RLock()
	n := len(w.files)
	w.filesMu.RUnlock()
	w.logger.Info("File watcher started", "files", n, "debounce", w.debounce)
}

// Stop releases the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	w.filesMu.RLock()
	watched := w.files[event.Name]
	w.filesMu.RUnlock()
	if !watched {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected", "path", event.Name, "op", event.Op.String())
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if event, ok := w.refresh(ctx, path); ok {
			w.sendEvent(event)
		}
	}
}

// refresh reloads path, or drops its snapshot when the file is gone. The
// file is stat'ed rather than trusting the event op: a rename followed by a
// create is an ordinary save for many editors.
func (w *Watcher) refresh(ctx context.Context, path string) (WatchEvent, bool) {
	event := WatchEvent{Path: path}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		w.repo.InvalidateOrigin(ctx, path)
		event.Operation = OpRemove
		w.logger.Info("Watched file removed", "path", path)
		return event, true
	}

	event.Operation = OpReload
	if err != nil {
		w.repo.InvalidateOrigin(ctx, path)
		event.Error = fmt.Errorf("read %s: %w", path, err)
		return event, true
	}

	if current, ok := w.repo.Current(path); ok && current.ID == Fingerprint(content) {
		return event, false
	}

	w.repo.InvalidateOrigin(ctx, path)
	snap, _, err := w.repo.Load(ctx, path, content)
	if err != nil {
		event.Error = err
		w.logger.Warn("Reload failed", "path", path, "error", err)
		return event, true
	}
	event.SnapshotID = snap.ID
	w.logger.Info("Watched file reloaded", "path", path, "id", snap.ID)
	return event, true
}

func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
	default:
		w.logger.Warn("Watch event dropped, channel full", "path", event.Path)
	}
}
