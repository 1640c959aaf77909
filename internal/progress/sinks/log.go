package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
)

// LogSink emits run and chunk milestones as structured logs. Per-identifier
// events are not logged here; the worker and extract job own those lines.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		base := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
		}
		switch evt.Stage {
		case progress.StageRunStart, progress.StageRunDone:
			s.logger.Info("progress", append(base, zap.Duration("dur", evt.Dur), zap.String("note", evt.Note))...)
		case progress.StageChunkStart, progress.StageChunkDone:
			s.logger.Info("progress", append(base, zap.Int("chunk", evt.Chunk), zap.Duration("dur", evt.Dur))...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
