package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
)

// Snapshot is the point-in-time view of the current run.
type Snapshot struct {
	RunID          string         `json:"run_id"`
	Kind           string         `json:"kind"`
	Running        bool           `json:"running"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
	ChunksStarted  int            `json:"chunks_started"`
	ChunksDone     int            `json:"chunks_done"`
	Outcomes       map[string]int `json:"outcomes"`
	Extracted      int            `json:"extracted"`
	ExtractSkipped int            `json:"extract_skipped"`
	LastID         int            `json:"last_id"`
	Bytes          int64          `json:"bytes"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SnapshotSink folds events into a Snapshot that can be read concurrently.
type SnapshotSink struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewSnapshotSink returns an empty SnapshotSink.
func NewSnapshotSink() *SnapshotSink {
	return &SnapshotSink{snap: Snapshot{Outcomes: map[string]int{}}}
}

// Consume applies the batch to the snapshot. A RUN_START resets it.
func (s *SnapshotSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.apply(evt)
	}
	return nil
}

func (s *SnapshotSink) apply(evt progress.Event) {
	snap := &s.snap
	switch evt.Stage {
	case progress.StageRunStart:
		*snap = Snapshot{
			RunID:     evt.RunUUID().String(),
			Kind:      evt.Note,
			Running:   true,
			StartedAt: evt.TS,
			Outcomes:  map[string]int{},
		}
	case progress.StageRunDone:
		snap.Running = false
		finished := evt.TS
		snap.FinishedAt = &finished
	case progress.StageChunkStart:
		snap.ChunksStarted = evt.Chunk
	case progress.StageChunkDone:
		if evt.Chunk > snap.ChunksDone {
			snap.ChunksDone = evt.Chunk
		}
	case progress.StageFetchDone, progress.StageFetchFailed:
		snap.Outcomes[evt.Outcome]++
		snap.Bytes += evt.Bytes
		if evt.ID > snap.LastID {
			snap.LastID = evt.ID
		}
	case progress.StageExtractDone:
		snap.Extracted++
		snap.LastID = evt.ID
	case progress.StageExtractFailed:
		snap.ExtractSkipped++
		snap.LastID = evt.ID
	}
	if evt.TS.After(snap.UpdatedAt) {
		snap.UpdatedAt = evt.TS
	}
}

// Snapshot returns a copy of the current state.
func (s *SnapshotSink) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Outcomes = make(map[string]int, len(s.snap.Outcomes))
	for k, v := range s.snap.Outcomes {
		out.Outcomes[k] = v
	}
	if s.snap.FinishedAt != nil {
		finished := *s.snap.FinishedAt
		out.FinishedAt = &finished
	}
	return out
}

// Close implements the Sink interface; it performs no action.
func (s *SnapshotSink) Close(context.Context) error {
	return nil
}
