// Package scheduler walks a contiguous identifier range in fixed-size chunks.
// Identifiers within a chunk are processed concurrently; chunks run strictly
// one after another.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/clock/system"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
)

// RunKind labels fetch runs in progress events.
const RunKind = "fetch"

// Processor handles one identifier. worker.Worker satisfies it.
type Processor interface {
	Process(ctx context.Context, id int) crawler.Outcome
}

// Config bounds the identifier range [StartID, MaxID).
type Config struct {
	StartID   int
	MaxID     int
	ChunkSize int
	RunID     [16]byte
}

// Validate reports an unusable range or chunk size.
func (c Config) Validate() error {
	var errs []error
	if c.StartID < 0 {
		errs = append(errs, errors.New("start id must be >= 0"))
	}
	if c.MaxID < c.StartID {
		errs = append(errs, fmt.Errorf("max id %d is below start id %d", c.MaxID, c.StartID))
	}
	if c.ChunkSize < 1 {
		errs = append(errs, errors.New("chunk size must be >= 1"))
	}
	return errors.Join(errs...)
}

// Chunk is a half-open identifier range [Start, End).
type Chunk struct {
	Index int
	Start int
	End   int
}

// Size returns the number of identifiers in the chunk.
func (c Chunk) Size() int {
	return c.End - c.Start
}

// Summary counts identifiers per outcome for one run. It is informational;
// failures are reported by the worker as they happen.
type Summary struct {
	Chunks   int
	Total    int
	Outcomes map[crawler.Outcome]int
	Duration time.Duration
	Canceled bool
}

// Count returns the number of identifiers that ended with o.
func (s Summary) Count(o crawler.Outcome) int {
	return s.Outcomes[o]
}

// Scheduler drives a Processor over the configured range.
type Scheduler struct {
	proc    Processor
	emitter progress.Emitter
	clock   crawler.Clock
	cfg     Config
	logger  *zap.Logger
}

// New validates cfg and builds a Scheduler.
func New(
	proc Processor,
	emitter progress.Emitter,
	clock crawler.Clock,
	cfg Config,
	logger *zap.Logger,
) (*Scheduler, error) {
	if proc == nil {
		return nil, errors.New("scheduler requires a processor")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
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
	return &Scheduler{
		proc:    proc,
		emitter: emitter,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Chunks splits the range into contiguous chunks; the last may be shorter.
func (s *Scheduler) Chunks() []Chunk {
	return Split(s.cfg.StartID, s.cfg.MaxID, s.cfg.ChunkSize)
}

// Split divides [start, end) into chunks of size, numbering them from 1.
func Split(start, end, size int) []Chunk {
	if size < 1 || end <= start {
		return nil
	}
	chunks := make([]Chunk, 0, (end-start+size-1)/size)
	for lo := start; lo < end; lo += size {
		hi := min(lo+size, end)
		chunks = append(chunks, Chunk{Index: len(chunks) + 1, Start: lo, End: hi})
	}
	return chunks
}

// Run processes every chunk in order and returns per-outcome counts.
// Canceling ctx stops new chunks from starting; identifiers already in flight
// run to completion.
func (s *Scheduler) Run(ctx context.Context) Summary {
	start := s.clock.Now()
	chunks := s.Chunks()
	summary := Summary{Outcomes: make(map[crawler.Outcome]int, len(crawler.Outcomes))}

	s.logger.Info("fetch run starting",
		zap.Int("start_id", s.cfg.StartID),
		zap.Int("max_id", s.cfg.MaxID),
		zap.Int("chunk_size", s.cfg.ChunkSize),
		zap.Int("chunks", len(chunks)),
	)
	s.emit(progress.Event{Stage: progress.StageRunStart, Note: RunKind})

	for _, chunk := range chunks {
		if ctx.Err() != nil {
			summary.Canceled = true
			s.logger.Warn("fetch run interrupted", zap.Int("next_chunk", chunk.Index), zap.Int("next_id", chunk.Start))
			break
		}
		s.runChunk(ctx, chunk, &summary)
	}

	summary.Duration = s.clock.Now().Sub(start)
	s.emit(progress.Event{Stage: progress.StageRunDone, Note: RunKind, Dur: summary.Duration})

	fields := []zap.Field{
		zap.Int("chunks", summary.Chunks),
		zap.Int("total", summary.Total),
		zap.Duration("duration", summary.Duration),
		zap.Bool("canceled", summary.Canceled),
	}
	for _, o := range crawler.Outcomes {
		fields = append(fields, zap.Int(string(o), summary.Count(o)))
	}
	s.logger.Info("fetch run finished", fields...)
	return summary
}

func (s *Scheduler) runChunk(ctx context.Context, chunk Chunk, summary *Summary) {
	chunkStart := s.clock.Now()
	s.emit(progress.Event{Stage: progress.StageChunkStart, Chunk: chunk.Index})

	// In-flight identifiers settle even if ctx is canceled mid-chunk.
	workCtx := context.WithoutCancel(ctx)
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(chunk.Size())
	for id := chunk.Start; id < chunk.End; id++ {
		g.Go(func() error {
			outcome := s.proc.Process(workCtx, id)
			mu.Lock()
			summary.Outcomes[outcome]++
			summary.Total++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary.Chunks++
	s.emit(progress.Event{Stage: progress.StageChunkDone, Chunk: chunk.Index, Dur: s.clock.Now().Sub(chunkStart)})
}

func (s *Scheduler) emit(evt progress.Event) {
	evt.RunID = s.cfg.RunID
	evt.TS = s.clock.Now()
	s.emitter.Emit(evt)
}
