package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageRunDone       Stage = "RUN_DONE"
	StageChunkStart    Stage = "CHUNK_START"
	StageChunkDone     Stage = "CHUNK_DONE"
	StageFetchDone     Stage = "FETCH_DONE"
	StageFetchFailed   Stage = "FETCH_FAILED"
	StageExtractDone   Stage = "EXTRACT_DONE"
	StageExtractFailed Stage = "EXTRACT_FAILED"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for fetch completions.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single component of run progress.
type Event struct {
	// RunID identifies one fetch or extract invocation in 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// ID is the entry identifier for fetch and extract events.
	ID int
	// URL is the fetched page URL.
	URL string
	// Chunk is the 1-based chunk counter for chunk events.
	Chunk int
	// StatusCode is the HTTP status of the final attempt, zero on transport failure.
	StatusCode int
	// StatusClass groups StatusCode.
	StatusClass StatusClass
	// Outcome is the per-identifier result label.
	Outcome string
	// Attempts is the number of fetch attempts made.
	Attempts int
	// Bytes carries the response size.
	Bytes int64
	// Dur captures latency for fetches, chunks and runs.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageChunkStart, StageChunkDone:
		if e.Chunk < 1 {
			return errors.New("chunk events require a chunk counter")
		}
	case StageFetchDone:
		if e.URL == "" {
			return errors.New("fetch done requires url")
		}
		if e.StatusClass == "" {
			return errors.New("fetch done requires status class")
		}
	case StageFetchFailed:
		if e.URL == "" {
			return errors.New("fetch failed requires url")
		}
	case StageExtractDone, StageExtractFailed:
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}

// NewRunID returns a fresh random run identifier.
func NewRunID() [16]byte {
	return UUIDToBytes(uuid.New())
}

// ClassifyStatus groups HTTP status codes for fetch events.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}

// Nop is an Emitter that discards every event.
type Nop struct{}

// Emit implements Emitter.
func (Nop) Emit(Event) {}
