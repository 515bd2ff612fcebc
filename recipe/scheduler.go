package recipe

// scheduler.go is the driver context: every exported Controller method and
// every asynchronous callback (adapter completion, barrier advance, timer
// fire) funnels through c.mu before touching a runtimeNode, so the tree
// itself never needs synchronization (spec.md §5). Scheduling is
// single-goroutine and re-entrant: recursive descent over the compiled
// group/task/sync/waitBarrier tree, rather than a flat step queue.

// schedule dispatches on n's kind. It is re-entrant: scheduling one node
// can, within the same call stack, complete other nodes synchronously
// (a Sync leaf, a barrier release, a setup-time short circuit) and so
// recursively trigger further scheduling.
func (c *Controller) schedule(n *runtimeNode) {
	switch n.kind {
	case kindGroup:
		c.scheduleGroup(n)
	case kindTask:
		c.scheduleTask(n)
	case kindSync:
		c.scheduleSync(n)
	case kindWaitBarrier:
		c.scheduleWaitBarrier(n)
	}
}

// --- groups ---

func (c *Controller) scheduleGroup(n *runtimeNode) {
	if n.state == NotStarted {
		n.transition(Running)
		c.emitEvent(n, "group_setup")

		// Storage is instantiated before the setup handler runs so the
		// handler can write its own declared slots (spec.md §4.6), not just
		// read ones an ancestor already created.
		c.storage.instantiateGroupStorage(n.group, n)
		c.runStorageSetupCallbacks(n)

		result := c.callGroupSetup(n)
		if result == SetupStopWithSuccess || result == SetupStopWithError {
			// None of the children will run; prune them so their leaves
			// still count toward progress.
			n.decided = true
			n.nextChild = len(n.children)
			for _, child := range n.children {
				c.prune(child)
			}
		}
		switch result {
		case SetupStopWithSuccess:
			c.finishGroup(n, DoneWithSuccess)
			return
		case SetupStopWithError:
			c.finishGroup(n, DoneWithError)
			return
		}

		c.startTimeoutIfAny(n)
	}
	c.fillChildren(n)
}

// fillChildren starts as many not-yet-started children as the group's mode
// allows, then checks whether the group can finalize.
func (c *Controller) fillChildren(n *runtimeNode) {
	limit := groupLimit(n.group)
	for !n.decided && n.liveChildren < limit && n.nextChild < len(n.children) {
		child := n.children[n.nextChild]
		n.nextChild++
		n.liveChildren++
		c.schedule(child)
	}
	c.maybeFinishGroup(n)
}

// groupLimit returns the maximum number of concurrently live children for
// g's mode (spec.md §4.2).
func groupLimit(g *Group) int {
	switch g.Mode {
	case Sequential:
		return 1
	case ParallelLimitMode:
		if g.ParallelLimitN > 0 {
			return g.ParallelLimitN
		}
		return 1
	default: // Parallel
		return int(^uint(0) >> 1) // effectively unbounded
	}
}

// maybeFinishGroup finalizes n once every child it will ever start has
// settled: either every declared child has been started and none remain
// live (natural completion), or the propagator decided to stop early and
// every started child has finished cancelling.
func (c *Controller) maybeFinishGroup(n *runtimeNode) {
	if n.state != Running {
		return
	}
	allAccountedFor := n.nextChild >= len(n.children) && n.liveChildren == 0
	stoppedAndDrained := n.decided && n.liveChildren == 0
	if !allAccountedFor && !stoppedAndDrained {
		return
	}

	var natural DoneWith
	if n.cancelRequested {
		natural = DoneWithCancel
	} else {
		natural = n.finalGroupOutcome()
	}
	c.finishGroup(n, natural)
}

// finishGroup transitions n to its terminal state, runs its done handler,
// tears down its storage frames, stops its timer, and propagates to its
// parent (or, for the root, completes the whole run).
func (c *Controller) finishGroup(n *runtimeNode, natural DoneWith) {
	c.stopTimeout(n)
	n.transition(stateFor(natural))
	c.emitEvent(n, "group_"+n.state.String())

	result := c.callGroupDone(n, natural)
	effective := effectiveOutcome(natural, result)
	n.setEffective(effective)

	c.runStorageDoneCallbacks(n)
	c.storage.destroyGroupStorage(n)

	if n.parent == nil {
		c.finishRun(rootOutcome(natural, result))
		return
	}
	c.childCompleted(n.parent, n, effective)
}

func stateFor(d DoneWith) State {
	switch d {
	case DoneWithSuccess:
		return Succeeded
	case DoneWithCancel:
		return Canceled
	default:
		return Failed
	}
}

// --- tasks ---

func (c *Controller) scheduleTask(n *runtimeNode) {
	n.transition(Running)
	c.activeTaskCount++
	c.metrics.SetActiveTasks(c.runID, c.activeTaskCount)
	adapter := n.task.AdapterFactory()
	n.adapter = adapter
	c.emitEvent(n, "task_setup")

	result := c.callTaskSetup(n, adapter)
	switch result {
	case SetupStopWithSuccess:
		c.finishTask(n, DoneWithSuccess)
		return
	case SetupStopWithError:
		c.finishTask(n, DoneWithError)
		return
	}

	c.startTimeoutIfAny(n)
	handle := &taskHandle{ctrl: c, node: n}
	if err := adapter.Start(handle); err != nil {
		c.stopTimeout(n)
		c.finishTask(n, DoneWithError)
		return
	}
	// else: n stays Running until handle.Done arrives, via onAdapterDone.
}

// finishTask transitions n, runs its done handler (subject to DoneFilter),
// and propagates to its parent. Used both for synchronous short circuits
// (setup refusal, Start error) and for the normal async completion path.
func (c *Controller) finishTask(n *runtimeNode, natural DoneWith) {
	c.stopTimeout(n)
	n.transition(stateFor(natural))
	c.activeTaskCount--
	c.metrics.SetActiveTasks(c.runID, c.activeTaskCount)
	c.emitEvent(n, "task_"+n.state.String())

	var result DoneResult
	if shouldRunDoneHandler(n.task.DoneFilter, natural) {
		result = c.callTaskDone(n, n.adapter, natural)
	}
	effective := effectiveOutcome(natural, result)
	n.setEffective(effective)

	c.childCompleted(n.parent, n, effective)
}

// shouldRunDoneHandler implements spec.md §4.7's DoneFilter semantics. A
// cancelled task always runs its done handler regardless of filter — it is
// treated as the error side, which is the only way a done handler ever
// gets a chance to rewrite a cancellation back to Success (spec.md §9 open
// question, Invariant C).
func shouldRunDoneHandler(filter DoneFilter, natural DoneWith) bool {
	if natural == DoneWithCancel {
		return true
	}
	switch filter {
	case FilterOnSuccess:
		return natural == DoneWithSuccess
	case FilterOnError:
		return natural == DoneWithError
	default: // FilterAlways
		return true
	}
}

// onAdapterDone is the driver-context entry point reached from
// taskHandle.Done, possibly on a goroutine other than the one that called
// Start (spec.md §5).
func (c *Controller) onAdapterDone(n *runtimeNode, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n.state.Terminal() {
		return // idempotent: first Done call wins (spec.md §5)
	}

	var natural DoneWith
	switch {
	case n.cancelRequested:
		natural = DoneWithCancel
	case success:
		natural = DoneWithSuccess
	default:
		natural = DoneWithError
	}
	c.finishTask(n, natural)
}

// --- sync ---

func (c *Controller) scheduleSync(n *runtimeNode) {
	n.transition(Running)
	c.emitEvent(n, "sync")

	result := c.callSyncFn(n)
	natural := DoneWithSuccess
	if result == DoneError {
		natural = DoneWithError
	}
	n.transition(stateFor(natural))
	n.setEffective(natural)
	c.childCompleted(n.parent, n, natural)
}

// --- wait-for-barrier ---

func (c *Controller) scheduleWaitBarrier(n *runtimeNode) {
	n.transition(Running)
	v := c.storage.active(n.waitBarrier.Ref.key)
	if v == nil {
		c.emitNodeError(n, &RecipeError{
			Message: "waitForBarrier references an undeclared barrier",
			Code:    "barrier_unknown",
			NodeID:  n.id,
			Cause:   ErrBarrierUnknown,
		})
		c.finishWaitBarrier(n, DoneWithError)
		return
	}
	barrier := v.(*Barrier)
	n.barrierInst = barrier
	if barrier.satisfied() {
		c.finishWaitBarrier(n, DoneWithSuccess)
		return
	}
	barrier.register(n)
	// stays Running until advanceBarrier releases it.
}

func (c *Controller) finishWaitBarrier(n *runtimeNode, natural DoneWith) {
	n.transition(stateFor(natural))
	c.emitEvent(n, "wait_barrier_"+n.state.String())
	n.setEffective(natural)
	c.childCompleted(n.parent, n, natural)
}

// advanceBarrier looks up the active barrier for ref and advances it by
// one, releasing any waiters if this call is the one that reaches the
// required count. Used by NewBarrierAdvance. Runs entirely on the driver
// context (called from a Sync body, which already holds it).
func (c *Controller) advanceBarrier(ref BarrierRef) {
	v := c.storage.active(ref.key)
	if v == nil {
		return // no active barrier in scope: a no-op, per the engine's
		// warn-and-fix philosophy rather than a crash (spec.md §9).
	}
	barrier := v.(*Barrier)
	released := barrier.advance()
	for _, waiter := range released {
		c.finishWaitBarrier(waiter, DoneWithSuccess)
	}
}

// --- propagation ---

// childCompleted records child's effective outcome against parent, updates
// the progress counter, decides whether parent should stop its remaining
// children, and either starts more children or finalizes parent.
func (c *Controller) childCompleted(parent *runtimeNode, child *runtimeNode, effective DoneWith) {
	parent.liveChildren--
	if child.state == Canceled {
		parent.anyChildCanceled = true
	}
	if child.kind == kindTask || child.kind == kindWaitBarrier {
		c.progress.advance()
		c.metrics.SetProgress(c.runID, c.progress.current, c.progress.maximum)
	}

	if !parent.decided {
		if parent.stopOnChildOutcome(effective) {
			parent.decided = true
			c.cancelRemainingChildren(parent)
		}
	}
	c.fillChildren(parent)
}

// cancelRemainingChildren prevents parent from starting any more children
// and cascades cancellation into every child currently Running, pruning
// every child that never started at all.
func (c *Controller) cancelRemainingChildren(parent *runtimeNode) {
	parent.nextChild = len(parent.children)
	for _, child := range parent.children {
		switch child.state {
		case Running:
			c.cancelNode(child)
		case NotStarted:
			c.prune(child)
		}
	}
}

// prune marks a not-yet-started node (and, for a group, its whole subtree)
// Canceled without ever starting it, advancing progress once per Task/
// WaitForBarrier leaf it contains. This is the counterpart to
// childCompleted's progress bookkeeping for children a group decides to
// skip entirely — without it, progress_current would never reach
// progress_maximum for a group that stops early (spec.md §3 Invariant 4,
// §8 Testable Property 1).
func (c *Controller) prune(n *runtimeNode) {
	if n.state != NotStarted {
		return
	}
	n.cancelRequested = true
	n.transition(Canceled)

	switch n.kind {
	case kindTask:
		c.emitEvent(n, "task_"+n.state.String())
		c.progress.advance()
		c.metrics.SetProgress(c.runID, c.progress.current, c.progress.maximum)
	case kindWaitBarrier:
		c.emitEvent(n, "wait_barrier_"+n.state.String())
		c.progress.advance()
		c.metrics.SetProgress(c.runID, c.progress.current, c.progress.maximum)
	case kindGroup:
		c.emitEvent(n, "group_"+n.state.String())
		n.decided = true
		n.nextChild = len(n.children)
		for _, child := range n.children {
			c.prune(child)
		}
	case kindSync:
		// A never-started Sync leaf is marked Canceled above with no event
		// and no progress step, since Sync leaves do not count toward
		// progress_maximum.
	}
}

// cancelNode marks n (and, for a group, its live subtree) as cancelled.
// Idempotent: a second call on an already-cancel-requested node is a
// no-op (spec.md §5: "calling cancel multiple times has the same
// observable effect as calling it once").
func (c *Controller) cancelNode(n *runtimeNode) {
	if n.cancelRequested || n.state.Terminal() {
		return
	}
	n.cancelRequested = true

	switch n.kind {
	case kindGroup:
		n.decided = true
		n.nextChild = len(n.children)
		for _, child := range n.children {
			switch child.state {
			case Running:
				c.cancelNode(child)
			case NotStarted:
				c.prune(child)
			}
		}
		c.maybeFinishGroup(n)
	case kindTask:
		if n.adapter != nil {
			c.safeCall(n.adapter.RequestCancel)
		}
		// stays Running until onAdapterDone observes cancelRequested.
	case kindWaitBarrier:
		if n.barrierInst != nil {
			n.barrierInst.unregister(n)
		}
		c.finishWaitBarrier(n, DoneWithCancel)
	case kindSync:
		// a Sync leaf never remains Running past scheduleSync, so it is
		// never observed here; nothing to do.
	}
}

// safeCall runs f, converting a panic into a logged event rather than
// letting it escape the driver context and corrupt engine-wide state
// (spec.md §9 open question: handler panics are swallowed and mapped to
// Error-shaped outcomes at whichever call site invoked them).
func (c *Controller) safeCall(f func()) {
	defer func() {
		if r := recover(); r != nil {
			c.emitPanic(r)
		}
	}()
	f()
}

func (c *Controller) callGroupSetup(n *runtimeNode) (result SetupResult) {
	if n.group.SetupHandler == nil {
		return SetupContinue
	}
	defer func() {
		if r := recover(); r != nil {
			c.emitPanic(r)
			result = SetupStopWithError
		}
	}()
	return n.group.SetupHandler()
}

func (c *Controller) callGroupDone(n *runtimeNode, natural DoneWith) (result DoneResult) {
	if n.group.DoneHandler == nil {
		return DoneUnspecified
	}
	defer func() {
		if r := recover(); r != nil {
			c.emitPanic(r)
			result = DoneError
		}
	}()
	return n.group.DoneHandler(natural)
}

func (c *Controller) callTaskSetup(n *runtimeNode, adapter TaskAdapter) (result SetupResult) {
	if n.task.SetupHandler == nil {
		return SetupContinue
	}
	defer func() {
		if r := recover(); r != nil {
			c.emitPanic(r)
			result = SetupStopWithError
		}
	}()
	return n.task.SetupHandler(adapter)
}

func (c *Controller) callTaskDone(n *runtimeNode, adapter TaskAdapter, natural DoneWith) (result DoneResult) {
	if n.task.DoneHandler == nil {
		return DoneUnspecified
	}
	defer func() {
		if r := recover(); r != nil {
			c.emitPanic(r)
			result = DoneError
		}
	}()
	return n.task.DoneHandler(adapter, natural)
}

func (c *Controller) callSyncFn(n *runtimeNode) (result DoneResult) {
	if n.sync.Fn == nil {
		return DoneSuccess
	}
	defer func() {
		if r := recover(); r != nil {
			c.emitPanic(r)
			result = DoneError
		}
	}()
	return n.sync.Fn()
}

// taskHandle is the concrete TaskHandle given to an adapter's Start. Its
// Done may be called from any goroutine; onAdapterDone re-acquires the
// driver context lock and uses the node's own terminal state (not a flag
// here) to make repeat calls a no-op (spec.md §5).
type taskHandle struct {
	ctrl *Controller
	node *runtimeNode
}

func (h *taskHandle) Done(success bool) {
	h.ctrl.onAdapterDone(h.node, success)
}
