package crawler

import (
	"errors"
	"net/http"
	"time"
)

// ErrNotRetryable marks fetch errors that a retry cannot fix.
var ErrNotRetryable = errors.New("not retryable")

// FetchRequest captures everything needed to fetch one entry page.
type FetchRequest struct {
	ID      int
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation. Any HTTP
// status is a response; only transport failures are errors.
type FetchResponse struct {
	ID         int
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Outcome classifies how processing a single identifier ended.
type Outcome string

// Fetch outcomes recorded per identifier.
const (
	OutcomeStored         Outcome = "stored"
	OutcomeHTTPError      Outcome = "http_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeStoreError     Outcome = "store_error"
	OutcomeCanceled       Outcome = "canceled"
)

// Outcomes lists every Outcome in a stable order for reporting.
var Outcomes = []Outcome{
	OutcomeStored,
	OutcomeHTTPError,
	OutcomeTransportError,
	OutcomeStoreError,
	OutcomeCanceled,
}
