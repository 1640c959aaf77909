// Package app initializes and holds the long-lived services shared by the
// fetch and extract commands: the document store, the progress hub with its
// sinks, and the optional status server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/api"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/clock/system"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/config"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/extract"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/extractjob"
	collyfetcher "github.com/JakeFAU/idiom-dictionary-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress/sinks"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/record"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/scheduler"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/storage/local"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/worker"
)

// Options overrides collaborators, mainly for tests.
type Options struct {
	// Registerer receives the progress collectors. Defaults to the global
	// Prometheus registerer.
	Registerer prometheus.Registerer
	// Fetcher replaces the colly fetcher.
	Fetcher crawler.Fetcher
}

// App holds all the shared, long-lived services for one command invocation.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *local.BlobStore
	hub      *progress.Hub
	snapshot *sinks.SnapshotSink
	clock    crawler.Clock
	fetcher  crawler.Fetcher
	runID    [16]byte

	stopServer context.CancelFunc
	serverDone chan error
}

// New creates the App. It fails fast when the output root is not writable or
// the progress collectors cannot be registered.
func New(cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := local.New(local.Config{BaseDir: cfg.Storage.OutputRoot})
	if err != nil {
		return nil, fmt.Errorf("initialize output root: %w", err)
	}

	promSink, err := sinks.NewPrometheusSink(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("initialize progress metrics: %w", err)
	}
	snapshot := sinks.NewSnapshotSink()
	hub := progress.NewHub(progress.Config{Logger: logger},
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
		snapshot,
	)

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Crawler.UserAgent,
			Timeout:   cfg.RequestTimeout(),
		})
	}

	runID := progress.NewRunID()
	logger.Info("application initialized",
		zap.String("run_id", progress.Event{RunID: runID}.RunUUID().String()),
		zap.String("output_root", cfg.Storage.OutputRoot),
	)
	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		hub:      hub,
		snapshot: snapshot,
		clock:    system.New(),
		fetcher:  fetcher,
		runID:    runID,
	}, nil
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the document store rooted at the output directory.
func (a *App) Store() crawler.BlobStore {
	return a.store
}

// Snapshot returns the current progress snapshot.
func (a *App) Snapshot() sinks.Snapshot {
	return a.snapshot.Snapshot()
}

// StartStatusServer serves /healthz, /metrics and /progress when a listen
// address is configured. It returns immediately.
func (a *App) StartStatusServer(ctx context.Context) {
	addr := a.cfg.Metrics.ListenAddr
	if addr == "" || a.stopServer != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.stopServer = cancel
	a.serverDone = make(chan error, 1)
	server := api.NewServer(a.snapshot, a.logger.Named("status"))
	go func() {
		a.serverDone <- server.Serve(ctx, addr)
	}()
}

// Scheduler wires the colly fetcher, retry policy and worker into a fetch
// scheduler over the configured range.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	w := worker.New(
		a.fetcher,
		a.store,
		crawler.NewExponentialRetryPolicy(a.cfg.Retry()),
		a.clock,
		a.hub,
		worker.Config{
			URLTemplate: a.cfg.Crawler.URLTemplate,
			HTMLDir:     a.cfg.Storage.HTMLDir,
			RunID:       a.runID,
		},
		a.logger.Named("worker"),
	)
	s, err := scheduler.New(w, a.hub, a.clock, scheduler.Config{
		StartID:   a.cfg.Crawler.StartID,
		MaxID:     a.cfg.Crawler.MaxID,
		ChunkSize: a.cfg.Crawler.ChunkSize,
		RunID:     a.runID,
	}, a.logger.Named("scheduler"))
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}
	return s, nil
}

// ExtractJob wires the extractor and record writer into an extract job.
func (a *App) ExtractJob() (*extractjob.Job, error) {
	job, err := extractjob.New(
		a.store,
		extract.New(),
		record.NewWriter(a.store, a.cfg.Storage.JSONDir),
		a.hub,
		a.clock,
		extractjob.Config{HTMLDir: a.cfg.Storage.HTMLDir, RunID: a.runID},
		a.logger.Named("extract"),
	)
	if err != nil {
		return nil, fmt.Errorf("build extract job: %w", err)
	}
	return job, nil
}

// Close flushes progress sinks and stops the status server.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.hub.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.stopServer != nil {
		a.stopServer()
		if err := <-a.serverDone; err != nil {
			errs = append(errs, err)
		}
		a.stopServer = nil
	}
	return errors.Join(errs...)
}
