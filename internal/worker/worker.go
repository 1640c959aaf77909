// Package worker fetches a single dictionary entry: it retries transport
// failures, persists successful pages, and logs every failure exactly once.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/clock/system"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/metrics"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
)

// Config controls Worker behavior.
type Config struct {
	// URLTemplate contains crawler.IDPlaceholder where the identifier goes.
	URLTemplate string
	// HTMLDir is the store directory raw documents are written under.
	HTMLDir string
	// ContentType is recorded with stored documents.
	ContentType string
	// Headers are added to every request.
	Headers http.Header
	// RunID tags emitted progress events.
	RunID [16]byte
}

// Worker processes one identifier at a time and is safe for concurrent use.
type Worker struct {
	fetcher crawler.Fetcher
	store   crawler.BlobStore
	retry   crawler.RetryPolicy
	clock   crawler.Clock
	emitter progress.Emitter
	cfg     Config
	logger  *zap.Logger
	sleep   func(context.Context, time.Duration) error
}

// New constructs a Worker. A nil retry policy means a single attempt; nil
// clock, emitter and logger fall back to the wall clock, a no-op emitter and
// zap.NewNop.
func New(
	fetcher crawler.Fetcher,
	store crawler.BlobStore,
	retry crawler.RetryPolicy,
	clock crawler.Clock,
	emitter progress.Emitter,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if retry == nil {
		retry = crawler.NewExponentialRetryPolicy(crawler.RetryConfig{MaxAttempts: 1})
	}
	if clock == nil {
		clock = system.New()
	}
	if emitter == nil {
		emitter = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HTMLDir == "" {
		cfg.HTMLDir = "html"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "text/html; charset=utf-8"
	}
	return &Worker{
		fetcher: fetcher,
		store:   store,
		retry:   retry,
		clock:   clock,
		emitter: emitter,
		cfg:     cfg,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Process fetches the entry for id and stores it when the server answers
// 200. It never returns an error; the Outcome says how processing ended.
// Processing an identifier again overwrites its stored document.
func (w *Worker) Process(ctx context.Context, id int) crawler.Outcome {
	metrics.IncInFlight()
	defer metrics.DecInFlight()

	url := crawler.BuildURL(w.cfg.URLTemplate, id)
	start := w.clock.Now()

	resp, attempts, err := w.fetchWithRetry(ctx, id, url, start)
	if err != nil {
		outcome := crawler.OutcomeTransportError
		if ctx.Err() != nil {
			outcome = crawler.OutcomeCanceled
		}
		w.logger.Error("fetch failed",
			zap.Int("id", id),
			zap.String("url", url),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		w.emitFailed(id, url, outcome, 0, attempts, start, err.Error())
		return outcome
	}

	if resp.StatusCode != http.StatusOK {
		w.logger.Warn("unexpected status",
			zap.Int("id", id),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		w.emitFailed(id, url, crawler.OutcomeHTTPError, resp.StatusCode, attempts, start, "")
		return crawler.OutcomeHTTPError
	}

	key := w.DocumentKey(id)
	uri, err := w.store.PutObject(ctx, key, w.cfg.ContentType, bytes.NewReader(resp.Body))
	if err != nil {
		w.logger.Error("persist document failed",
			zap.Int("id", id),
			zap.String("url", url),
			zap.String("key", key),
			zap.Error(err),
		)
		w.emitFailed(id, url, crawler.OutcomeStoreError, resp.StatusCode, attempts, start, err.Error())
		return crawler.OutcomeStoreError
	}

	w.logger.Debug("document stored",
		zap.Int("id", id),
		zap.String("uri", uri),
		zap.Int("bytes", len(resp.Body)),
		zap.Int("attempts", attempts),
	)
	w.emitter.Emit(progress.Event{
		RunID:       w.cfg.RunID,
		TS:          w.clock.Now(),
		Stage:       progress.StageFetchDone,
		ID:          id,
		URL:         url,
		StatusCode:  resp.StatusCode,
		StatusClass: progress.ClassifyStatus(resp.StatusCode),
		Outcome:     string(crawler.OutcomeStored),
		Attempts:    attempts,
		Bytes:       int64(len(resp.Body)),
		Dur:         w.clock.Now().Sub(start),
	})
	return crawler.OutcomeStored
}

// DocumentKey returns the store key of the raw document for id.
func (w *Worker) DocumentKey(id int) string {
	return path.Join(w.cfg.HTMLDir, crawler.DocumentName(id))
}

func (w *Worker) fetchWithRetry(
	ctx context.Context,
	id int,
	url string,
	start time.Time,
) (crawler.FetchResponse, int, error) {
	request := crawler.FetchRequest{ID: id, URL: url, Headers: w.cfg.Headers}
	for attempt := 1; ; attempt++ {
		resp, err := w.fetcher.Fetch(ctx, request)
		metrics.ObserveAttempt(err)
		if err == nil {
			return resp, attempt, nil
		}
		elapsed := w.clock.Now().Sub(start)
		if ctx.Err() != nil || !w.retry.ShouldRetry(err, attempt, elapsed) {
			return crawler.FetchResponse{}, attempt, err
		}
		wait := w.retry.Backoff(attempt, elapsed)
		metrics.ObserveRetryWait(wait)
		if sleepErr := w.sleep(ctx, wait); sleepErr != nil {
			return crawler.FetchResponse{}, attempt, errors.Join(err, sleepErr)
		}
	}
}

func (w *Worker) emitFailed(
	id int,
	url string,
	outcome crawler.Outcome,
	status int,
	attempts int,
	start time.Time,
	note string,
) {
	evt := progress.Event{
		RunID:      w.cfg.RunID,
		TS:         w.clock.Now(),
		Stage:      progress.StageFetchFailed,
		ID:         id,
		URL:        url,
		StatusCode: status,
		Outcome:    string(outcome),
		Attempts:   attempts,
		Dur:        w.clock.Now().Sub(start),
		Note:       note,
	}
	if status != 0 {
		evt.StatusClass = progress.ClassifyStatus(status)
	}
	w.emitter.Emit(evt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
