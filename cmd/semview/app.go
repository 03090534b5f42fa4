package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semview/api"
	"github.com/c360studio/semview/config"
	"github.com/c360studio/semview/metrics"
	"github.com/c360studio/semview/service"
	"github.com/c360studio/semview/source/fetch"
	"github.com/c360studio/semview/source/parser"
	"github.com/c360studio/semview/source/weburl"
	"github.com/c360studio/semview/storage"
	"github.com/c360studio/semview/transport"
)

// App wires the service to its surfaces.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS
	natsConn *nats.Conn
	js       jetstream.JetStream

	collector *metrics.Collector
	repo      *storage.Repository
	svc       *service.Service

	server    *http.Server
	responder *transport.Responder
	watcher   *storage.Watcher
}

// NewApp creates an application with an in-memory repository. NATS is
// connected by Start.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	a := &App{
		cfg:       cfg,
		logger:    logger,
		collector: metrics.NewCollector(metrics.DefaultNamespace),
	}
	a.build(nil)
	return a
}

// build creates the repository and service over sources.
func (a *App) build(sources storage.SourceStore) {
	a.repo = storage.NewRepository(storage.RepositoryConfig{
		Size:       a.cfg.Cache.Size,
		TTL:        a.cfg.Cache.TTL,
		Parse:      parser.DefaultRegistry.Parse,
		Classifier: a.cfg.ClassifierOptions(),
		Sources:    sources,
		Metrics:    a.collector,
		Logger:     a.logger,
	})

	fetcher := fetch.New(fetch.Config{
		Timeout:   a.cfg.Source.FetchTimeout,
		MaxSize:   a.cfg.Source.MaxSize,
		UserAgent: a.cfg.Source.UserAgent,
		Policy: weburl.Policy{
			AllowHTTP:    a.cfg.Source.AllowHTTP,
			AllowPrivate: a.cfg.Source.AllowPrivate,
		},
	})

	a.svc = service.New(service.Config{
		Repository: a.repo,
		Fetcher:    fetcher,
		Labels:     a.cfg.LabelOptions(),
		View: service.ViewDefaults{
			MaxNodes:         a.cfg.View.MaxNodes,
			IncludeOther:     a.cfg.View.IncludeOther,
			IncludeTypeEdges: a.cfg.View.IncludeTypeEdges,
		},
		Metrics: a.collector,
		Logger:  a.logger,
	})
}

// Service returns the application service.
func (a *App) Service() *service.Service {
	return a.svc
}

// ServeOptions configures Start.
type ServeOptions struct {
	// Preload lists files or doublestar patterns loaded at startup.
	Preload []string
	// Watch reloads preloaded files when they change.
	Watch bool
}

// Start connects NATS when configured, loads preloaded documents and starts
// the HTTP server. It returns once everything is listening.
func (a *App) Start(ctx context.Context, opts ServeOptions) error {
	if a.cfg.NATS.URL != "" {
		if err := a.startNATS(ctx); err != nil {
			return fmt.Errorf("start NATS: %w", err)
		}
	}

	files, err := expandPreload(opts.Preload)
	if err != nil {
		return err
	}
	for _, path := range files {
		res, err := a.svc.LoadFile(ctx, path)
		if err != nil {
			return fmt.Errorf("preload %s: %w", path, err)
		}
		a.logger.Info("Preloaded graph", "path", path, "id", res.ID, "triples", res.Triples)
	}

	if opts.Watch && len(files) > 0 {
		if err := a.startWatcher(ctx, files); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	srv := api.NewServer(api.Config{
		Service:     a.svc,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		MaxBodySize: a.cfg.Server.MaxBodySize,
		Metrics:     a.collector.Handler(),
		Observer:    a.collector,
		Logger:      a.logger,
	})
	a.server = &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", "error", err)
		}
	}()
	a.logger.Info("HTTP server listening", "addr", a.cfg.Server.Addr)
	return nil
}

func (a *App) startNATS(ctx context.Context) error {
	a.logger.Info("Connecting to NATS", "url", a.cfg.NATS.URL)
	conn, err := nats.Connect(a.cfg.NATS.URL,
		nats.Name("semview"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return wrapNATSError(err, a.cfg.NATS.URL)
	}
	a.natsConn = conn

	if a.cfg.Cache.PersistSources {
		js, err := jetstream.New(conn)
		if err != nil {
			return fmt.Errorf("create JetStream context: %w", err)
		}
		a.js = js

		sources, err := storage.NewKVSources(ctx, js, a.cfg.NATS.SourceBucket)
		if err != nil {
			return err
		}
		a.build(sources)
		a.logger.Info("Persisting sources", "bucket", a.cfg.NATS.SourceBucket)
	}

	a.responder = transport.NewResponder(a.svc, transport.Config{
		SubjectPrefix: a.cfg.NATS.SubjectPrefix,
		QueueGroup:    a.cfg.NATS.QueueGroup,
		Logger:        a.logger,
	})
	return a.responder.Start(conn)
}

// wrapNATSError adds a hint when the server is unreachable.
func wrapNATSError(err error, url string) error {
	if errors.Is(err, nats.ErrNoServers) || strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("NATS connection failed: %w\n\nNATS is not running at %s. Start it or clear nats.url.", err, url)
	}
	return fmt.Errorf("NATS connection failed: %w", err)
}

func (a *App) startWatcher(ctx context.Context, files []string) error {
	w, err := storage.NewWatcher(a.repo, storage.WatcherConfig{Logger: a.logger})
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := w.Add(path); err != nil {
			_ = w.Stop()
			return err
		}
	}
	w.Start(ctx)
	a.watcher = w

	go func() {
		for ev := range w.Events() {
			if ev.Error != nil {
				a.logger.Warn("Reload failed", "path", ev.Path, "error", ev.Error)
				continue
			}
			a.logger.Info("Graph changed", "path", ev.Path, "operation", ev.Operation, "id", ev.SnapshotID)
		}
	}()
	return nil
}

// Shutdown stops every started component.
func (a *App) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("HTTP shutdown failed", "error", err)
		}
	}
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	if a.responder != nil {
		a.responder.Stop()
	}
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.natsConn.Close()
		}
	}
	a.logger.Info("Shutdown complete")
}

// expandPreload resolves patterns to files. Patterns without glob
// metacharacters are returned as given so a missing file is reported.
func expandPreload(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		base, glob := doublestar.SplitPattern(pattern)
		if !strings.ContainsAny(glob, "*?[{") {
			if !seen[pattern] {
				seen[pattern] = true
				files = append(files, pattern)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("preload pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("preload pattern %q under %s matched no files", pattern, base)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}
