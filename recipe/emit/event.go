// Package emit provides pluggable observability for a running recipe: a
// small event stream keyed by run and node id, with interchangeable
// backends (log, OpenTelemetry, buffered, null).
package emit

// Event is one observability event emitted as a recipe runs.
type Event struct {
	// RunID identifies the Controller run that emitted this event.
	RunID string

	// NodeID identifies which runtime node emitted the event (0 for
	// run-level events such as "run_Success" or "run_record_failed").
	NodeID int

	// Msg names the event, e.g. "group_setup", "task_Succeeded",
	// "wait_barrier_Canceled".
	Msg string

	// Meta carries event-specific structured data (e.g. "error", "code",
	// "panic").
	Meta map[string]any
}
