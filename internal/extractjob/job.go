// Package extractjob turns every stored raw page into a structured record.
package extractjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/clock/system"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/record"
)

// RunKind labels extract runs in progress events.
const RunKind = "extract"

// Config controls the Job.
type Config struct {
	// HTMLDir is the store directory listed for raw pages.
	HTMLDir string
	// RunID tags emitted progress events.
	RunID [16]byte
}

// Summary counts what happened to each listed document.
type Summary struct {
	Listed      int
	Written     int
	LoadFailed  int
	Empty       int
	WriteFailed int
	Duration    time.Duration
	Canceled    bool
}

// Job reads raw pages in name order, one at a time.
type Job struct {
	store     crawler.BlobStore
	extractor crawler.Extractor
	writer    *record.Writer
	emitter   progress.Emitter
	clock     crawler.Clock
	cfg       Config
	logger    *zap.Logger
}

// New builds a Job.
func New(
	store crawler.BlobStore,
	extractor crawler.Extractor,
	writer *record.Writer,
	emitter progress.Emitter,
	clock crawler.Clock,
	cfg Config,
	logger *zap.Logger,
) (*Job, error) {
	if store == nil || extractor == nil || writer == nil {
		return nil, errors.New("extract job requires a store, an extractor and a writer")
	}
	if cfg.HTMLDir == "" {
		cfg.HTMLDir = "html"
	}
	if emitter == nil {
		emitter = progress.Nop{}
	}
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		store:     store,
		extractor: extractor,
		writer:    writer,
		emitter:   emitter,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Run extracts every *.html document under the configured directory and
// writes its record. Per-document failures are logged and skipped; only a
// failure to list the directory is returned.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	start := j.clock.Now()
	var summary Summary

	keys, err := j.documents(ctx)
	if err != nil {
		return summary, err
	}
	summary.Listed = len(keys)
	j.logger.Info("extract run starting", zap.String("dir", j.cfg.HTMLDir), zap.Int("documents", len(keys)))
	j.emit(progress.Event{Stage: progress.StageRunStart, Note: RunKind})

	for _, key := range keys {
		if ctx.Err() != nil {
			summary.Canceled = true
			j.logger.Warn("extract run interrupted", zap.String("next", key))
			break
		}
		j.extractOne(ctx, key, &summary)
	}

	summary.Duration = j.clock.Now().Sub(start)
	j.emit(progress.Event{Stage: progress.StageRunDone, Note: RunKind, Dur: summary.Duration})
	j.logger.Info("extract run finished",
		zap.Int("listed", summary.Listed),
		zap.Int("written", summary.Written),
		zap.Int("load_failed", summary.LoadFailed),
		zap.Int("empty", summary.Empty),
		zap.Int("write_failed", summary.WriteFailed),
		zap.Duration("duration", summary.Duration),
		zap.Bool("canceled", summary.Canceled),
	)
	return summary, nil
}

func (j *Job) documents(ctx context.Context) ([]string, error) {
	listed, err := j.store.ListObjects(ctx, j.cfg.HTMLDir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", j.cfg.HTMLDir, err)
	}
	keys := make([]string, 0, len(listed))
	for _, key := range listed {
		if crawler.IsDocumentName(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (j *Job) extractOne(ctx context.Context, key string, summary *Summary) {
	id, _ := crawler.IDFromName(key)
	started := j.clock.Now()

	doc, err := record.LoadDocument(ctx, j.store, key)
	if err != nil {
		summary.LoadFailed++
		j.logger.Warn("skipping unreadable document", zap.String("key", key), zap.Error(err))
		j.emitFailed(id, key, started, err.Error())
		return
	}
	if doc == "" {
		summary.Empty++
		j.logger.Warn("skipping empty document", zap.String("key", key))
		j.emitFailed(id, key, started, "empty document")
		return
	}

	rec := j.extractor.Extract(doc)
	uri, err := j.writer.WriteFor(ctx, key, rec)
	if err != nil {
		summary.WriteFailed++
		j.logger.Error("write record failed", zap.String("key", key), zap.Error(err))
		j.emitFailed(id, key, started, err.Error())
		return
	}

	summary.Written++
	j.logger.Debug("record written", zap.String("key", key), zap.String("uri", uri))
	j.emit(progress.Event{
		Stage: progress.StageExtractDone,
		ID:    id,
		URL:   uri,
		Bytes: int64(len(doc)),
		Dur:   j.clock.Now().Sub(started),
	})
}

func (j *Job) emitFailed(id int, key string, started time.Time, note string) {
	j.emit(progress.Event{
		Stage: progress.StageExtractFailed,
		ID:    id,
		URL:   key,
		Dur:   j.clock.Now().Sub(started),
		Note:  note,
	})
}

func (j *Job) emit(evt progress.Event) {
	evt.RunID = j.cfg.RunID
	evt.TS = j.clock.Now()
	j.emitter.Emit(evt)
}
