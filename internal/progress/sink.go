package progress

import "context"

// Sink consumes batches of progress events. Implementations must be safe for
// repeated calls and honor ctx deadlines.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub and Nop satisfy it so the fetch
// and extract stages stay agnostic about buffering.
type Emitter interface {
	Emit(evt Event)
}
