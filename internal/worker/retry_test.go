package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/idiom-dictionary-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/storage/memory"
)

type countingFetcher struct {
	mu       sync.Mutex
	attempts int
	fails    int
	err      error
}

func (f *countingFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.fails {
		err := f.err
		if err == nil {
			err = errors.New("transient error")
		}
		return crawler.FetchResponse{}, err
	}
	return crawler.FetchResponse{
		ID:         req.ID,
		StatusCode: http.StatusOK,
		Body:       []byte("success"),
		URL:        req.URL,
	}, nil
}

func (f *countingFetcher) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func fastRetry(attempts int) crawler.RetryPolicy {
	return crawler.NewExponentialRetryPolicy(crawler.RetryConfig{
		MaxAttempts: attempts,
		MaxElapsed:  5 * time.Second,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})
}

func TestWorkerRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{fails: 2}
	store := memory.NewBlobStore()
	w := New(fetcher, store, fastRetry(3), nil, nil, Config{URLTemplate: testTemplate}, nil)

	require.Equal(t, crawler.OutcomeStored, w.Process(context.Background(), 1))
	assert.Equal(t, 3, fetcher.Attempts())
	data, err := store.GetObject(context.Background(), "html/bookView_1.html")
	require.NoError(t, err)
	assert.Equal(t, "success", string(data))
}

func TestWorkerGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	timeout := fmt.Errorf("colly visit failed: %w", context.DeadlineExceeded)
	fetcher := &countingFetcher{fails: 100, err: timeout}
	store := memory.NewBlobStore()
	emitter := &recordingEmitter{}
	w := New(fetcher, store, fastRetry(3), nil, emitter, Config{URLTemplate: testTemplate}, zap.New(core))

	require.Equal(t, crawler.OutcomeTransportError, w.Process(context.Background(), 9))
	assert.Equal(t, 3, fetcher.Attempts())
	assert.Equal(t, 0, store.Len())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(3), logs.All()[0].ContextMap()["attempts"])
	require.Len(t, emitter.Events(), 1)
	assert.Equal(t, 3, emitter.Events()[0].Attempts)
}

func TestWorkerStopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{fails: 100, err: fmt.Errorf("%w: forbidden", crawler.ErrNotRetryable)}
	w := New(fetcher, memory.NewBlobStore(), fastRetry(3), nil, nil, Config{URLTemplate: testTemplate}, nil)

	require.Equal(t, crawler.OutcomeTransportError, w.Process(context.Background(), 2))
	assert.Equal(t, 1, fetcher.Attempts())
}

func TestWorkerTruncatesBackoffToBudget(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{fails: 100}
	policy := crawler.NewExponentialRetryPolicy(crawler.RetryConfig{
		MaxAttempts: 10,
		MaxElapsed:  50 * time.Millisecond,
		BaseDelay:   time.Second,
		MaxDelay:    time.Second,
	})
	w := New(fetcher, memory.NewBlobStore(), policy, nil, nil, Config{URLTemplate: testTemplate}, nil)

	start := time.Now()
	require.Equal(t, crawler.OutcomeTransportError, w.Process(context.Background(), 4))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.Equal(t, 2, fetcher.Attempts())
}

func TestWorkerTimeoutAgainstServer(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		hits int
	)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	fetcher := collyfetcher.New(collyfetcher.Config{Timeout: 30 * time.Millisecond})
	store := memory.NewBlobStore()
	w := New(fetcher, store, fastRetry(3), nil, nil, Config{URLTemplate: srv.URL + "/bookView.jsp?ID={id}"}, nil)

	require.Equal(t, crawler.OutcomeTransportError, w.Process(context.Background(), 11))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, hits)
	assert.Equal(t, 0, store.Len())
}
