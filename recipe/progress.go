package recipe

// progressTracker maintains the two monotone counters spec.md §3
// Invariant 4 requires: progress_current never exceeds progress_maximum,
// both only grow, and current == maximum exactly when the top-level
// reaches a terminal state. All updates happen on the driver context, so
// plain ints suffice (no atomics needed) — see metrics.go for the
// Prometheus-facing, concurrency-safe mirror of these counters, which is
// read from arbitrary goroutines and does need atomics.
type progressTracker struct {
	current int
	maximum int
}

// countLeaves returns the number of asynchronous leaves under node — Task
// and WaitForBarrier nodes count; Sync does not (spec.md §4.1).
func countLeaves(n *runtimeNode) int {
	switch n.kind {
	case kindTask, kindWaitBarrier:
		return 1
	case kindSync:
		return 0
	case kindGroup:
		total := 0
		for _, c := range n.children {
			total += countLeaves(c)
		}
		return total
	default:
		return 0
	}
}

// advance increments progress_current by one, typically called once per
// asynchronous leaf completion (spec.md §2 "Progress accounting").
func (p *progressTracker) advance() {
	if p.current < p.maximum {
		p.current++
	}
}
