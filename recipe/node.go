package recipe

import "time"

// State is a runtime node's position in its state machine:
// NotStarted -> Running -> {Succeeded, Failed, Canceled}. Terminal states
// are sticky: once a node reaches one, it never transitions again
// (spec.md §3 Invariant 1).
type State int

const (
	NotStarted State = iota
	Running
	Succeeded
	Failed
	Canceled
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	case Canceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s is one of {Succeeded, Failed, Canceled}.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Canceled
}

// kind tags a runtimeNode with the AST shape it was compiled from. The
// engine dispatches scheduling logic on kind rather than via interface
// method calls on Node, per spec.md §9's guidance to replace runtime-type
// dispatch with a tagged variant once a recipe is compiled.
type kind int

const (
	kindGroup kind = iota
	kindTask
	kindSync
	kindWaitBarrier
)

// NodeID is a stable identifier assigned to every runtime node at compile
// time (spec.md §4.1).
type NodeID int

// runtimeNode is the mutable per-execution counterpart of an AST node. All
// fields are only ever read or written on the driver context (see
// scheduler.go); no internal locking is required (spec.md §5).
type runtimeNode struct {
	id     NodeID
	kind   kind
	parent *runtimeNode
	state  State

	// group fields
	group         *Group
	children      []*runtimeNode
	nextChild     int
	liveChildren  int
	decided       bool // propagator has picked a terminal outcome; stop starting children
	storageFrames []*storageInstance
	firstOutcome     DoneWith // used by StopOnSuccessOrError
	hasFirstOutcome  bool
	anyError         bool
	anySuccess       bool
	anyChildCanceled bool // spec.md §9 open question: a cancelled child overrides FinishAllAndSuccess to Error

	// task fields
	task        *Task
	adapter     TaskAdapter
	effective   DoneWith // the outcome parent propagation observes, after the node's own done handler may have rewritten it; may differ from the logged transition (spec.md §9 open question)

	// sync fields
	sync *Sync

	// wait-for-barrier fields
	waitBarrier *WaitForBarrier
	barrierInst *Barrier // set once registered, used to unregister on cancel

	// timeout bookkeeping, shared by group/task kinds
	timeoutSpec  *timeoutSpec
	timeoutTimer *time.Timer
	timedOut     bool

	// cancelRequested is set the moment this node is told (by an ancestor's
	// policy decision, an outer Cancel call, or its own timeout) to stop.
	// It takes priority over any naturally-computed outcome once the node's
	// live children/adapter have all acknowledged (spec.md §5, §9 open
	// question on outer cancellation).
	cancelRequested bool
}

// transition moves the node to a new terminal/non-terminal state.
// Transitioning out of a terminal state is a no-op (Invariant 1).
func (n *runtimeNode) transition(s State) {
	if n.state.Terminal() {
		return
	}
	n.state = s
}

// setEffective records the outcome the node's parent should observe for
// propagation purposes. This is distinct from n.state: a cancelled task
// whose done handler returns DoneSuccess keeps State==Canceled (so the log
// shows the cancellation) but reports DoneWithSuccess as its effective
// outcome (spec.md §9 open question; invariant tested in
// propagator_internal_test.go).
func (n *runtimeNode) setEffective(d DoneWith) {
	n.effective = d
}
