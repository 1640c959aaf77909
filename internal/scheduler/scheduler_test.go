package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Chunk{
		{Index: 1, Start: 0, End: 3},
		{Index: 2, Start: 3, End: 6},
		{Index: 3, Start: 6, End: 7},
	}, Split(0, 7, 3))
	assert.Equal(t, []Chunk{{Index: 1, Start: 10, End: 60}}, Split(10, 60, 50))
	assert.Len(t, Split(0, 10000, 50), 200)
	assert.Empty(t, Split(5, 5, 50))
	assert.Empty(t, Split(0, 10, 0))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Config{StartID: 0, MaxID: 10, ChunkSize: 2}.Validate())
	assert.NoError(t, Config{StartID: 4, MaxID: 4, ChunkSize: 2}.Validate())
	assert.Error(t, Config{StartID: -1, MaxID: 10, ChunkSize: 2}.Validate())
	assert.Error(t, Config{StartID: 10, MaxID: 2, ChunkSize: 2}.Validate())
	assert.Error(t, Config{StartID: 0, MaxID: 10, ChunkSize: 0}.Validate())

	_, err := New(&recordingProcessor{}, nil, nil, Config{ChunkSize: 0}, nil)
	assert.Error(t, err)
	_, err = New(nil, nil, nil, Config{ChunkSize: 1}, nil)
	assert.Error(t, err)
}

func TestRunProcessesChunksInOrder(t *testing.T) {
	t.Parallel()

	proc := &recordingProcessor{outcome: func(id int) crawler.Outcome {
		if id%2 == 0 {
			return crawler.OutcomeStored
		}
		return crawler.OutcomeHTTPError
	}}
	emitter := &recordingEmitter{}
	s, err := New(proc, emitter, nil, Config{StartID: 0, MaxID: 7, ChunkSize: 3, RunID: progress.NewRunID()}, zap.NewNop())
	require.NoError(t, err)

	summary := s.Run(context.Background())

	assert.Equal(t, 3, summary.Chunks)
	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 4, summary.Count(crawler.OutcomeStored))
	assert.Equal(t, 3, summary.Count(crawler.OutcomeHTTPError))
	assert.False(t, summary.Canceled)
	assert.LessOrEqual(t, proc.maxInFlight, 3)

	// Every identifier of a chunk finishes before any identifier of the next starts.
	chunkOf := func(id int) int { return id / 3 }
	for i, startEvt := range proc.log {
		if !startEvt.start {
			continue
		}
		for _, later := range proc.log[i+1:] {
			if !later.start && chunkOf(later.id) < chunkOf(startEvt.id) {
				t.Fatalf("id %d from an earlier chunk finished after id %d started", later.id, startEvt.id)
			}
		}
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6}, proc.processed())

	var stages []progress.Stage
	var chunks []int
	for _, evt := range emitter.Events() {
		stages = append(stages, evt.Stage)
		if evt.Stage == progress.StageChunkDone {
			chunks = append(chunks, evt.Chunk)
		}
		require.NoError(t, evt.Validate())
	}
	assert.Equal(t, progress.StageRunStart, stages[0])
	assert.Equal(t, progress.StageRunDone, stages[len(stages)-1])
	assert.Equal(t, []int{1, 2, 3}, chunks)
}

func TestRunChunkIsFullyConcurrent(t *testing.T) {
	t.Parallel()

	const size = 5
	barrier := make(chan struct{})
	var arrived sync.WaitGroup
	arrived.Add(size)
	go func() {
		arrived.Wait()
		close(barrier)
	}()
	proc := &recordingProcessor{hook: func(int) {
		arrived.Done()
		<-barrier
	}}
	s, err := New(proc, nil, nil, Config{StartID: 0, MaxID: size, ChunkSize: size}, nil)
	require.NoError(t, err)

	summary := s.Run(context.Background())
	assert.Equal(t, size, summary.Total)
	assert.Equal(t, size, proc.maxInFlight)
}

func TestRunStopsSchedulingAfterCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seenCanceled bool
	var mu sync.Mutex
	proc := &recordingProcessor{}
	proc.hook = func(id int) {
		if id == 0 {
			cancel()
		}
	}
	proc.check = func(c context.Context) {
		mu.Lock()
		defer mu.Unlock()
		if c.Err() != nil {
			seenCanceled = true
		}
	}
	s, err := New(proc, nil, nil, Config{StartID: 0, MaxID: 10, ChunkSize: 2}, nil)
	require.NoError(t, err)

	summary := s.Run(ctx)
	assert.True(t, summary.Canceled)
	assert.Equal(t, 1, summary.Chunks)
	assert.Equal(t, 2, summary.Total)
	assert.ElementsMatch(t, []int{0, 1}, proc.processed())
	assert.False(t, seenCanceled, "in-flight identifiers must not observe the cancellation")
}

func TestRunEmptyRange(t *testing.T) {
	t.Parallel()

	proc := &recordingProcessor{}
	emitter := &recordingEmitter{}
	s, err := New(proc, emitter, nil, Config{StartID: 3, MaxID: 3, ChunkSize: 50, RunID: progress.NewRunID()}, nil)
	require.NoError(t, err)

	summary := s.Run(context.Background())
	assert.Zero(t, summary.Total)
	assert.Empty(t, proc.processed())
	require.Len(t, emitter.Events(), 2)
}

type logEntry struct {
	id    int
	start bool
}

type recordingProcessor struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	log         []logEntry
	outcome     func(int) crawler.Outcome
	hook        func(int)
	check       func(context.Context)
}

func (p *recordingProcessor) Process(ctx context.Context, id int) crawler.Outcome {
	p.mu.Lock()
	p.inFlight++
	p.maxInFlight = max(p.maxInFlight, p.inFlight)
	p.log = append(p.log, logEntry{id: id, start: true})
	p.mu.Unlock()

	if p.hook != nil {
		p.hook(id)
	}
	if p.check != nil {
		p.check(ctx)
	}

	p.mu.Lock()
	p.inFlight--
	p.log = append(p.log, logEntry{id: id})
	p.mu.Unlock()

	if p.outcome != nil {
		return p.outcome(id)
	}
	return crawler.OutcomeStored
}

func (p *recordingProcessor) processed() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []int
	for _, e := range p.log {
		if !e.start {
			ids = append(ids, e.id)
		}
	}
	return ids
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
