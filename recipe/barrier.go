package recipe

// Barrier is a shared advance-counting rendezvous used by WaitForBarrier
// leaves (spec.md §3, §4.4). It lives in an ambient storage slot so its
// lifetime matches the declaring group: the owning group holds the only
// strong reference (via its storage frame), and every waiter leaf holds
// only a BarrierRef, modelled as a weak handle per spec.md §9's guidance
// on cyclic ownership ("owner: unique handle + waiters: weak handles +
// intrusive membership; never a second ownership edge").
type Barrier struct {
	required int
	current  int
	waiters  map[NodeID]*runtimeNode
}

func newBarrier(required int) *Barrier {
	return &Barrier{required: required, waiters: make(map[NodeID]*runtimeNode)}
}

// satisfied reports whether the barrier has reached its required advance
// count.
func (b *Barrier) satisfied() bool {
	return b.current >= b.required
}

// register adds a waiter. If the barrier is already satisfied, the caller
// (scheduler.go) completes the waiter immediately instead of leaving it
// registered — advance() only needs to handle waiters that registered
// before satisfaction.
func (b *Barrier) register(n *runtimeNode) {
	b.waiters[n.id] = n
}

// unregister removes a waiter without side effects, used when a waiter is
// cancelled before the barrier fires (spec.md §4.4).
func (b *Barrier) unregister(n *runtimeNode) {
	delete(b.waiters, n.id)
}

// NewBarrierAdvance returns a Sync leaf that advances the barrier
// referenced by ref by one step when scheduled, against the controller
// that will run the recipe. This is the "BarrierAdvance(B, 1)" leaf used
// in spec.md §8's rendezvous scenario: a plain Sync whose body reaches
// back into the controller rather than a distinct AST node kind, since a
// synchronous side effect against ambient storage is exactly what Sync
// already models.
//
// ctrl takes a **Controller, not a *Controller: the recipe (and any
// BarrierAdvance leaves within it) is built before the Controller that
// will run it exists, so callers forward-declare `var ctrl *Controller`
// and pass &ctrl here, then assign ctrl from New's return value — the
// same forward-reference idiom a handler closure uses to reach Active.
func NewBarrierAdvance(ctrl **Controller, ref BarrierRef) *Sync {
	return NewSync(func() DoneResult {
		(*ctrl).advanceBarrier(ref)
		return DoneSuccess
	})
}

// advance increments the barrier's count (capped at required; additional
// calls beyond that are a monotonic no-op, i.e. idempotent-safe per
// spec.md §3). It returns the set of waiters that should transition to
// Succeeded as a result of this call — non-empty only on the call that
// first reaches `required`.
func (b *Barrier) advance() []*runtimeNode {
	if b.current >= b.required {
		return nil
	}
	b.current++
	if b.current < b.required {
		return nil
	}
	released := make([]*runtimeNode, 0, len(b.waiters))
	for _, n := range b.waiters {
		released = append(released, n)
	}
	b.waiters = make(map[NodeID]*runtimeNode)
	return released
}
