package crawler

import (
	"context"
	"io"
	"time"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/idiom"
)

// Fetcher fetches one URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// BlobStore persists raw documents and records under slash-separated keys.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
	GetObject(ctx context.Context, path string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// RetryPolicy decides whether and when a failed fetch is attempted again.
// attempt counts the attempts already made; elapsed is the time since the
// first one started.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int, elapsed time.Duration) bool
	Backoff(attempt int, elapsed time.Duration) time.Duration
}

// Extractor maps a raw document onto a record.
type Extractor interface {
	Extract(doc string) idiom.Record
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
