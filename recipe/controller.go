package recipe

import (
	"context"
	"sync"
	"time"

	"github.com/arborflow/taskrecipe/recipe/emit"
)

// Controller is the public façade over one compiled recipe run: it owns
// the driver context mutex, the storage registry, and the progress
// counters, and is the only way external code starts, observes, or
// cancels a run (spec.md §2, §5). It compiles and runs exactly one Recipe
// per Controller, rather than registering many independent nodes into a
// shared, long-lived graph.
type Controller struct {
	mu sync.Mutex

	root     *runtimeNode
	storage  *storageRegistry
	progress progressTracker

	runID    string
	emitter  emit.Emitter
	metrics  Metrics
	recorder RunRecorder

	started         bool
	startedAt       time.Time
	finished        bool
	outcome         DoneWith
	doneCh          chan DoneWith
	activeTaskCount int

	storageSetupCBs map[StorageKey][]func(any)
	storageDoneCBs  map[StorageKey][]func(any)
}

// New compiles root and returns a Controller ready to Start. Compiling is
// a pure function of root (spec.md §8's round-trip property), so the same
// *Group can be reused across multiple New calls to run it repeatedly.
func New(root *Group, opts ...Option) (*Controller, error) {
	cfg := controllerConfig{
		emitter: emit.NewNullEmitter(),
		metrics: NullMetrics{},
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	compiled := compile(root)
	return &Controller{
		root:            compiled.root,
		storage:         newStorageRegistry(),
		progress:        progressTracker{maximum: compiled.progressMaximum},
		runID:           cfg.runID,
		emitter:         cfg.emitter,
		metrics:         cfg.metrics,
		recorder:        cfg.recorder,
		doneCh:          make(chan DoneWith, 1),
		storageSetupCBs: make(map[StorageKey][]func(any)),
		storageDoneCBs:  make(map[StorageKey][]func(any)),
	}, nil
}

// TaskCount returns the number of asynchronous leaves (Task and
// WaitForBarrier) compiled into the run — the same value as
// ProgressMaximum (spec.md §2).
func (c *Controller) TaskCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress.maximum
}

// ProgressValue returns the number of asynchronous leaves that have
// completed so far.
func (c *Controller) ProgressValue() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress.current
}

// ProgressMaximum returns the total number of asynchronous leaves the run
// will ever account for.
func (c *Controller) ProgressMaximum() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress.maximum
}

// OnStorageSetup registers fn to run once the root group's instance of
// key is created, if the root group declares key directly. Intended for
// instrumentation (e.g. wiring a logger into shared state as soon as it
// exists), not for recipe logic, which should use Active from inside a
// handler instead.
func (c *Controller) OnStorageSetup(key StorageKey, fn func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storageSetupCBs[key] = append(c.storageSetupCBs[key], fn)
}

// OnStorageDone registers fn to run just before the root group's instance
// of key is destroyed.
func (c *Controller) OnStorageDone(key StorageKey, fn func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storageDoneCBs[key] = append(c.storageDoneCBs[key], fn)
}

// Start begins the run without blocking for completion; use RunBlocking or
// Wait to observe the outcome.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true
	c.startedAt = time.Now()
	c.schedule(c.root)
	return nil
}

// RunBlocking starts the run (if not already started) and blocks until it
// reaches a terminal DoneWith.
func (c *Controller) RunBlocking() (DoneWith, error) {
	c.mu.Lock()
	if !c.started {
		c.started = true
		c.startedAt = time.Now()
		c.schedule(c.root)
	}
	c.mu.Unlock()
	return <-c.doneCh, nil
}

// Wait blocks until the run reaches a terminal DoneWith, without starting
// it. Safe to call from a goroutine other than the one that called Start.
func (c *Controller) Wait() DoneWith {
	return <-c.doneCh
}

// Cancel requests cancellation of the whole run. Idempotent: calling it
// more than once, or after the run has already finished, has no effect
// beyond the first call (spec.md §5).
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished || !c.started {
		return
	}
	c.metrics.IncCancellations(c.runID)
	c.cancelNode(c.root)
}

// finishRun is called exactly once, when the root group reaches a
// terminal effective outcome, from within finishGroup (already holding
// c.mu).
func (c *Controller) finishRun(outcome DoneWith) {
	c.finished = true
	c.outcome = outcome
	c.emitRunEvent("run_" + outcome.String())
	if c.recorder != nil {
		record := RunRecord{RunID: c.runID, Outcome: outcome, StartedAt: c.startedAt, EndedAt: time.Now()}
		if err := c.recorder.SaveRun(context.Background(), record); err != nil {
			c.emitter.Emit(emit.Event{RunID: c.runID, Msg: "run_record_failed", Meta: map[string]any{"error": err.Error()}})
		}
	}
	c.doneCh <- outcome
}

func (c *Controller) runStorageSetupCallbacks(n *runtimeNode) {
	if n.parent != nil {
		return // only the root group's own declarations are observable
	}
	for _, binding := range n.group.Storages {
		value := c.storage.active(binding.key)
		for _, fn := range c.storageSetupCBs[binding.key] {
			c.safeCall(func() { fn(value) })
		}
	}
}

func (c *Controller) runStorageDoneCallbacks(n *runtimeNode) {
	if n.parent != nil {
		return
	}
	for _, binding := range n.group.Storages {
		value := c.storage.active(binding.key)
		for _, fn := range c.storageDoneCBs[binding.key] {
			c.safeCall(func() { fn(value) })
		}
	}
}

func (c *Controller) emitEvent(n *runtimeNode, msg string) {
	if n.state.Terminal() {
		c.metrics.ObserveNodeOutcome(c.runID, kindName(n.kind), n.state.String())
	}
	c.emitter.Emit(emit.Event{RunID: c.runID, NodeID: int(n.id), Msg: msg})
}

func (c *Controller) emitRunEvent(msg string) {
	c.emitter.Emit(emit.Event{RunID: c.runID, Msg: msg})
}

func (c *Controller) emitPanic(r any) {
	c.emitter.Emit(emit.Event{
		RunID: c.runID,
		Msg:   "handler_panic",
		Meta:  map[string]any{"panic": r},
	})
}

// emitNodeError reports an engine-level RecipeError (not a handler panic)
// against the node that produced it, e.g. an orphaned WaitForBarrier.
func (c *Controller) emitNodeError(n *runtimeNode, err *RecipeError) {
	c.emitter.Emit(emit.Event{
		RunID:  c.runID,
		NodeID: int(n.id),
		Msg:    "node_error",
		Meta:   map[string]any{"error": err.Error(), "code": err.Code},
	})
}

func kindName(k kind) string {
	switch k {
	case kindGroup:
		return "group"
	case kindTask:
		return "task"
	case kindSync:
		return "sync"
	case kindWaitBarrier:
		return "wait_barrier"
	default:
		return "unknown"
	}
}

// active implements HandlerStorage so a Controller itself can be passed to
// Active from inside a handler closure (spec.md §4.6: handlers resolve
// storage via the ambient controller they were constructed against, not
// via a threaded-through parameter).
func (c *Controller) active(key StorageKey) any {
	return c.storage.active(key)
}
