package worker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
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
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/storage/local"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/storage/memory"
)

const testTemplate = "https://dict.idioms.moe.edu.tw/bookView.jsp?ID={id}"

func TestWorkerProcessStoresPage(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	emitter := &recordingEmitter{}
	fetcher := &fakeFetcher{responses: map[string]crawler.FetchResponse{
		"https://dict.idioms.moe.edu.tw/bookView.jsp?ID=42": {
			StatusCode: http.StatusOK,
			Body:       []byte("<html>一暴十寒</html>"),
		},
	}}
	w := New(fetcher, store, nil, nil, emitter, Config{URLTemplate: testTemplate, RunID: progress.NewRunID()}, zap.NewNop())

	outcome := w.Process(context.Background(), 42)
	require.Equal(t, crawler.OutcomeStored, outcome)

	data, err := store.GetObject(context.Background(), "html/bookView_42.html")
	require.NoError(t, err)
	assert.Equal(t, "<html>一暴十寒</html>", string(data))

	events := emitter.Events()
	require.Len(t, events, 1)
	assert.Equal(t, progress.StageFetchDone, events[0].Stage)
	assert.Equal(t, 42, events[0].ID)
	assert.Equal(t, 1, events[0].Attempts)
	assert.NoError(t, events[0].Validate())
}

func TestWorkerProcessOverwrites(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	fetcher := &fakeFetcher{responses: map[string]crawler.FetchResponse{
		"https://dict.idioms.moe.edu.tw/bookView.jsp?ID=1": {StatusCode: http.StatusOK, Body: []byte("first")},
	}}
	w := New(fetcher, store, nil, nil, nil, Config{URLTemplate: testTemplate}, nil)
	require.Equal(t, crawler.OutcomeStored, w.Process(context.Background(), 1))

	fetcher.set("https://dict.idioms.moe.edu.tw/bookView.jsp?ID=1",
		crawler.FetchResponse{StatusCode: http.StatusOK, Body: []byte("second")})
	require.Equal(t, crawler.OutcomeStored, w.Process(context.Background(), 1))

	data, err := store.GetObject(context.Background(), "html/bookView_1.html")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, 1, store.Len())
}

func TestWorkerProcessHTTPErrorLogsOnce(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)
	fetcher := collyfetcher.New(collyfetcher.Config{Timeout: time.Second})
	w := New(fetcher, store, fastRetry(3), nil, nil, Config{URLTemplate: srv.URL + "/bookView.jsp?ID={id}"}, zap.New(core))

	outcome := w.Process(context.Background(), 7)
	require.Equal(t, crawler.OutcomeHTTPError, outcome)

	_, statErr := os.Stat(filepath.Join(dir, "html", "bookView_7.html"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, int64(7), fields["id"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.True(t, strings.HasSuffix(fields["url"].(string), "ID=7"))
}

func TestWorkerProcessHTTPErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]crawler.FetchResponse{
		"https://dict.idioms.moe.edu.tw/bookView.jsp?ID=3": {StatusCode: http.StatusInternalServerError},
	}}
	store := memory.NewBlobStore()
	w := New(fetcher, store, fastRetry(3), nil, nil, Config{URLTemplate: testTemplate}, nil)

	assert.Equal(t, crawler.OutcomeHTTPError, w.Process(context.Background(), 3))
	assert.Equal(t, 1, fetcher.callCount())
	assert.Equal(t, 0, store.Len())
}

func TestWorkerProcessStoreError(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	fetcher := &fakeFetcher{responses: map[string]crawler.FetchResponse{
		"https://dict.idioms.moe.edu.tw/bookView.jsp?ID=5": {StatusCode: http.StatusOK, Body: []byte("x")},
	}}
	emitter := &recordingEmitter{}
	w := New(fetcher, failingStore{}, nil, nil, emitter, Config{URLTemplate: testTemplate}, zap.New(core))

	assert.Equal(t, crawler.OutcomeStoreError, w.Process(context.Background(), 5))
	assert.Equal(t, 1, logs.FilterMessage("persist document failed").Len())
	require.Len(t, emitter.Events(), 1)
	assert.Equal(t, string(crawler.OutcomeStoreError), emitter.Events()[0].Outcome)
}

func TestWorkerProcessCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := &countingFetcher{fails: 10, err: context.Canceled}
	w := New(fetcher, memory.NewBlobStore(), fastRetry(3), nil, nil, Config{URLTemplate: testTemplate}, nil)

	assert.Equal(t, crawler.OutcomeCanceled, w.Process(ctx, 1))
	assert.Equal(t, 1, fetcher.Attempts())
}

func TestDocumentKey(t *testing.T) {
	t.Parallel()

	w := New(nil, nil, nil, nil, nil, Config{HTMLDir: "raw/html"}, nil)
	assert.Equal(t, "raw/html/bookView_12.html", w.DocumentKey(12))
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]crawler.FetchResponse
	calls     int
}

func (f *fakeFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	resp, ok := f.responses[req.URL]
	if !ok {
		return crawler.FetchResponse{}, errors.New("no response configured")
	}
	resp.ID = req.ID
	resp.URL = req.URL
	return resp, nil
}

func (f *fakeFetcher) set(url string, resp crawler.FetchResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = resp
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingStore struct{}

func (failingStore) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("disk full")
}

func (failingStore) GetObject(context.Context, string) ([]byte, error) {
	return nil, os.ErrNotExist
}

func (failingStore) ListObjects(context.Context, string) ([]string, error) {
	return nil, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recordingEmitter) Emit(evt progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) Events() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Event(nil), r.events...)
}
