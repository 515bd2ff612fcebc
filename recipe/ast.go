// Package recipe provides a declarative hierarchical task orchestration
// engine: a recipe is a tree whose leaves are asynchronous tasks and whose
// internal nodes are groups with configurable execution and completion
// policies.
package recipe

import (
	"fmt"
	"time"
)

// Mode selects how a Group schedules its children.
type Mode int

const (
	// Sequential runs children one at a time, in declaration order.
	// Equivalent to ParallelLimit(1).
	Sequential Mode = iota
	// Parallel runs all children concurrently, with no limit.
	Parallel
	// ParallelLimitMode runs up to Group.ParallelLimitN children
	// concurrently. Construct it via Group.WithParallelLimit(k), which
	// carries k on the Group itself since Mode is a plain tag.
	ParallelLimitMode
)

// Policy is the workflow policy that converts children's outcomes into a
// group's own outcome and controls whether remaining children are cancelled.
type Policy int

const (
	// StopOnError cancels remaining children on the first Error; the group
	// errors iff any child errored.
	StopOnError Policy = iota
	// ContinueOnError lets every child run to completion; the group errors
	// iff any child errored.
	ContinueOnError
	// StopOnSuccess cancels remaining children on the first Success; the
	// group succeeds iff any child succeeded.
	StopOnSuccess
	// ContinueOnSuccess lets every child run to completion; the group
	// succeeds iff any child succeeded.
	ContinueOnSuccess
	// StopOnSuccessOrError cancels remaining children on the first
	// completion (success or error) and adopts that child's outcome.
	StopOnSuccessOrError
	// FinishAllAndSuccess lets every child run to completion; the group
	// always succeeds, unless overridden by outer cancellation (see
	// DESIGN.md Open Question decisions).
	FinishAllAndSuccess
	// FinishAllAndError lets every child run to completion; the group
	// always errors.
	FinishAllAndError
)

// SetupResult is returned by a group or task setup handler.
type SetupResult int

const (
	// SetupContinue lets scheduling proceed normally.
	SetupContinue SetupResult = iota
	// SetupStopWithSuccess routes the node straight to Succeeded without
	// running any children / starting any adapter.
	SetupStopWithSuccess
	// SetupStopWithError routes the node straight to Failed without
	// running any children / starting any adapter.
	SetupStopWithError
)

// DoneResult is returned by a group or task done handler to (optionally)
// rewrite the outcome the engine observed.
type DoneResult int

const (
	// DoneUnspecified leaves the engine's own outcome untouched.
	DoneUnspecified DoneResult = iota
	// DoneSuccess rewrites the outcome to Success.
	DoneSuccess
	// DoneError rewrites the outcome to Error.
	DoneError
)

// DoneFilter controls whether a task's done handler runs at all.
type DoneFilter int

const (
	// FilterAlways runs the done handler regardless of outcome.
	FilterAlways DoneFilter = iota
	// FilterOnSuccess runs the done handler when the task succeeded or was
	// cancelled; it is skipped only when the task errored.
	FilterOnSuccess
	// FilterOnError runs the done handler only when the task errored or
	// was cancelled.
	FilterOnError
)

// DoneWith is the top-level terminal outcome delivered to the done
// callback.
type DoneWith int

const (
	// DoneWithSuccess indicates the root group reached Success.
	DoneWithSuccess DoneWith = iota
	// DoneWithError indicates the root group reached Error.
	DoneWithError
	// DoneWithCancel indicates the root group was cancelled before
	// reaching a settled outcome.
	DoneWithCancel
)

func (d DoneWith) String() string {
	switch d {
	case DoneWithSuccess:
		return "Success"
	case DoneWithError:
		return "Error"
	case DoneWithCancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// ParseDoneWith is the inverse of DoneWith.String, used by recipe/store to
// round-trip an outcome through a text column.
func ParseDoneWith(s string) (DoneWith, error) {
	switch s {
	case "Success":
		return DoneWithSuccess, nil
	case "Error":
		return DoneWithError, nil
	case "Cancel":
		return DoneWithCancel, nil
	default:
		return 0, fmt.Errorf("recipe: unknown DoneWith value %q", s)
	}
}

// GroupSetupFunc is the canonical group setup handler signature.
type GroupSetupFunc func() SetupResult

// GroupDoneFunc is the canonical group done handler signature. It may
// rewrite the group's own outcome.
type GroupDoneFunc func(outcome DoneWith) DoneResult

// TaskHandle is given to an adapter's Start method so it can emit its one
// completion signal back to the driver context, from whatever goroutine
// the adapter's external operation happens to finish on (spec.md §5: the
// engine itself never suspends; completions are marshalled back to the
// driver context before being delivered).
type TaskHandle interface {
	// Done reports the adapter's outcome. Calling Done more than once, or
	// calling it after the engine has already cancelled the task, is
	// safe: only the first call has any effect (spec.md §5 cancellation
	// idempotence).
	Done(success bool)
}

// TaskAdapter is the Task Capability every concrete task adapter
// implements (see recipe/adapter for reference implementations). The
// engine never inspects an adapter beyond this interface.
type TaskAdapter interface {
	// Start begins the external asynchronous operation, given a handle to
	// report completion on. It may fail immediately by returning a
	// non-nil error, in which case the task completes with Error before
	// its done handler runs and handle.Done must not be called.
	Start(handle TaskHandle) error
	// RequestCancel signals cooperative cancellation. The engine still
	// considers the task live until handle.Done is observed.
	RequestCancel()
}

// TaskSetupFunc is the canonical task setup handler signature.
type TaskSetupFunc func(adapter TaskAdapter) SetupResult

// TaskDoneFunc is the canonical task done handler signature.
type TaskDoneFunc func(adapter TaskAdapter, outcome DoneWith) DoneResult

// SyncFunc is a synchronous leaf's body. It runs during scheduling on the
// driver context and completes immediately.
type SyncFunc func() DoneResult

// StorageKey identifies a declared storage slot. Two StorageKey values
// compare equal iff they were copied from the same StorageDecl, giving the
// value-identity guarantee spec.md §4.6 requires.
type StorageKey struct {
	id *storageKeyID
}

type storageKeyID struct {
	name string
}

// StorageDecl declares a typed storage slot of type T, rooted at the
// group that carries it. Copying a StorageDecl preserves its Key's
// identity, so the same declaration can be shared between nested recipe
// fragments.
type StorageDecl[T any] struct {
	key        StorageKey
	defaultCtor func() T
}

// NewStorageDecl creates a storage declaration named name (for
// diagnostics only; identity is by pointer, not by name) with the given
// default constructor.
func NewStorageDecl[T any](name string, defaultCtor func() T) StorageDecl[T] {
	return StorageDecl[T]{
		key:        StorageKey{id: &storageKeyID{name: name}},
		defaultCtor: defaultCtor,
	}
}

// Key returns the opaque identity of this declaration.
func (d StorageDecl[T]) Key() StorageKey { return d.key }

// Name returns the declaration's diagnostic name.
func (k StorageKey) Name() string {
	if k.id == nil {
		return ""
	}
	return k.id.name
}

// storageBinding is the type-erased form of a StorageDecl, stored on the
// compiled ast so the compiler and runtime don't need to be generic over
// every T a recipe declares.
type storageBinding struct {
	key      StorageKey
	instantiate func() any
}

// bindStorage erases a StorageDecl[T] into a storageBinding for the AST.
func bindStorage[T any](d StorageDecl[T]) storageBinding {
	ctor := d.defaultCtor
	return storageBinding{
		key: d.key,
		instantiate: func() any {
			if ctor == nil {
				var zero T
				return &zero
			}
			v := ctor()
			return &v
		},
	}
}

// Active resolves the innermost live instance of this declaration visible
// from handlerStorage (the storage view passed to a running handler).
func Active[T any](s HandlerStorage, d StorageDecl[T]) *T {
	v := s.active(d.key)
	if v == nil {
		return nil
	}
	return v.(*T)
}

// HandlerStorage is the view of the storage registry exposed to handlers:
// only active-instance lookup, never direct creation/destruction (those
// are lifecycle operations owned by the scheduler).
type HandlerStorage interface {
	active(key StorageKey) any
}

// BarrierRef is an opaque handle to a Barrier declared in a recipe. The
// barrier itself lives in storage rooted at the declaring group (see
// barrier.go); BarrierRef only carries identity.
type BarrierRef struct {
	key StorageKey
}

// NewBarrier declares a barrier requiring requiredAdvances calls to
// Advance before its waiters complete. The barrier instance is created
// when the group that declares the returned StorageDecl (via WithStorage)
// enters Running, like any other storage slot (see scheduler.go).
func NewBarrier(requiredAdvances int) (BarrierRef, StorageDecl[*Barrier]) {
	decl := NewStorageDecl("barrier", func() *Barrier {
		return newBarrier(requiredAdvances)
	})
	return BarrierRef{key: decl.Key()}, decl
}

// Timeout modifiers shared by Group and Task.
type timeoutSpec struct {
	duration time.Duration
	onFire   func()
}

// Node is the common interface satisfied by every AST node kind
// (*Group, *Task, *Sync, *WaitForBarrier). It exists only to let Group.Children
// hold a heterogeneous slice; the engine dispatches on concrete type during
// compilation (compile.go), not via virtual calls — per spec.md §9's
// guidance to replace runtime-type hierarchies with a tagged variant once
// compiled.
type Node interface {
	astNode()
}

// Group is a non-leaf recipe node: a workflow policy over a sequence of
// children, with optional setup/done handlers, declared storage, and a
// timeout.
type Group struct {
	Mode          Mode
	ParallelLimitN int // only meaningful when Mode == ParallelLimitMode
	Policy        Policy
	SetupHandler  GroupSetupFunc
	DoneHandler   GroupDoneFunc
	Storages      []storageBinding
	Timeout       *timeoutSpec
	Children      []Node
}

func (*Group) astNode() {}

// NewGroup creates a Group with the given children and Sequential mode /
// StopOnError policy as defaults (spec.md does not mandate a default; this
// is the conservative choice of stopping the pipeline on the first error).
func NewGroup(children ...Node) *Group {
	return &Group{
		Mode:     Sequential,
		Policy:   StopOnError,
		Children: children,
	}
}

// WithMode sets the group's execution mode (Sequential, Parallel, or
// ParallelLimit(k) via ParallelLimitN).
func (g *Group) WithMode(m Mode) *Group {
	g.Mode = m
	return g
}

// WithParallelLimit is sugar for WithMode(ParallelLimit(k)).
func (g *Group) WithParallelLimit(k int) *Group {
	if k <= 1 {
		g.Mode = Sequential
		g.ParallelLimitN = 0
		return g
	}
	g.Mode = ParallelLimitMode
	g.ParallelLimitN = k
	return g
}

// WithWorkflowPolicy sets the group's workflow policy. Duplicate calls:
// last write wins (compile-time validation, spec.md §4.1).
func (g *Group) WithWorkflowPolicy(p Policy) *Group {
	g.Policy = p
	return g
}

// OnSetup sets the group setup handler. Duplicate calls: last write wins.
func (g *Group) OnSetup(fn GroupSetupFunc) *Group {
	g.SetupHandler = fn
	return g
}

// OnDone sets the group done handler. Duplicate calls: last write wins.
func (g *Group) OnDone(fn GroupDoneFunc) *Group {
	g.DoneHandler = fn
	return g
}

// WithStorage declares a storage slot rooted at this group. Duplicate
// declarations of the same key within one group: the duplicate is dropped
// at compile time (spec.md §4.1).
func WithStorage[T any](g *Group, d StorageDecl[T]) *Group {
	g.Storages = append(g.Storages, bindStorage(d))
	return g
}

// WithTimeout decorates the group with a timeout; onFire (optional) runs
// before the group is cancelled.
func (g *Group) WithTimeout(d time.Duration, onFire func()) *Group {
	g.Timeout = &timeoutSpec{duration: d, onFire: onFire}
	return g
}

// Task is a leaf recipe node producing one external asynchronous
// operation via an adapter factory.
type Task struct {
	SetupHandler  TaskSetupFunc
	DoneHandler   TaskDoneFunc
	DoneFilter    DoneFilter
	Timeout       *timeoutSpec
	AdapterFactory func() TaskAdapter
}

func (*Task) astNode() {}

// NewTask creates a Task backed by the given adapter factory. A fresh
// adapter is constructed each time the task is scheduled, so the same
// *Task AST value can be reused across sibling iterations or cloned
// recipes without sharing adapter state.
func NewTask(factory func() TaskAdapter) *Task {
	return &Task{AdapterFactory: factory, DoneFilter: FilterAlways}
}

// OnSetup sets the task setup handler.
func (t *Task) OnSetup(fn TaskSetupFunc) *Task {
	t.SetupHandler = fn
	return t
}

// OnDone sets the task done handler and the filter controlling when it
// runs.
func (t *Task) OnDone(fn TaskDoneFunc, filter DoneFilter) *Task {
	t.DoneHandler = fn
	t.DoneFilter = filter
	return t
}

// WithTimeout decorates the task with a timeout; onFire (optional) runs
// before the task is cancelled. A task whose timeout fires completes with
// Canceled, not Error (spec.md §4.5).
func (t *Task) WithTimeout(d time.Duration, onFire func()) *Task {
	t.Timeout = &timeoutSpec{duration: d, onFire: onFire}
	return t
}

// Sync is a leaf recipe node that runs fn synchronously during scheduling
// and completes immediately. Sync leaves do not count toward
// progress_maximum (spec.md §4.1).
type Sync struct {
	Fn SyncFunc
}

func (*Sync) astNode() {}

// NewSync creates a Sync leaf.
func NewSync(fn SyncFunc) *Sync {
	return &Sync{Fn: fn}
}

// WaitForBarrier is a leaf recipe node that completes only when the
// referenced barrier reaches its required advance count.
type WaitForBarrier struct {
	Ref BarrierRef
}

func (*WaitForBarrier) astNode() {}

// NewWaitForBarrier creates a WaitForBarrier leaf for the given barrier
// reference.
func NewWaitForBarrier(ref BarrierRef) *WaitForBarrier {
	return &WaitForBarrier{Ref: ref}
}
