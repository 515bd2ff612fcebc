package recipe

import "time"

// timeout.go implements spec.md §4.5's per-node timer: a node with a
// timeoutSpec gets an independent wall-clock deadline starting the moment
// it enters Running, with no inherited default from an ancestor. Firing
// invokes the optional onFire hook and then cancels the node exactly as
// an outer policy decision would.

// startTimeoutIfAny arms node's timer, if it declares one. Called once,
// right after the node enters Running.
func (c *Controller) startTimeoutIfAny(n *runtimeNode) {
	if n.timeoutSpec == nil || n.timeoutSpec.duration <= 0 {
		return
	}
	spec := n.timeoutSpec
	n.timeoutTimer = time.AfterFunc(spec.duration, func() {
		c.onTimeout(n)
	})
}

// stopTimeout disarms node's timer, if any. Called as soon as a node
// leaves Running by any route, so a late-firing timer never acts on an
// already-terminal node.
func (c *Controller) stopTimeout(n *runtimeNode) {
	if n.timeoutTimer != nil {
		n.timeoutTimer.Stop()
		n.timeoutTimer = nil
	}
}

// onTimeout runs on its own goroutine (time.AfterFunc) and must acquire
// the driver context lock before touching any runtimeNode (spec.md §5:
// all state transitions happen on the driver context).
func (c *Controller) onTimeout(n *runtimeNode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n.state.Terminal() || c.finished {
		return
	}
	n.timedOut = true
	n.timeoutTimer = nil

	if n.timeoutSpec != nil && n.timeoutSpec.onFire != nil {
		c.safeCall(func() { n.timeoutSpec.onFire() })
	}
	c.cancelNode(n)
}
