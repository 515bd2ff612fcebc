package emit

import "context"

// Emitter receives observability events from a running recipe. Emit must
// not block the driver context and must not panic; implementations that
// talk to a slow backend should buffer internally.
type Emitter interface {
	Emit(event Event)

	// EmitBatch sends several events in one call, preserving order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until every buffered event has been delivered.
	Flush(ctx context.Context) error
}
