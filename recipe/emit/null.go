package emit

import "context"

// NullEmitter discards every event; the zero-overhead default for a
// Controller that wasn't given an emitter via WithEmitter.
type NullEmitter struct{}

func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (n *NullEmitter) Emit(Event) {}

func (n *NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

func (n *NullEmitter) Flush(context.Context) error { return nil }
