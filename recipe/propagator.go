package recipe

// propagator.go implements spec.md §4.3: converting a group's children's
// outcomes into the group's own state transition, per workflow policy.
// There is no edge-routing table to adapt here, since a hierarchical
// group/task tree has no conditional edges to route along — this is
// newly authored, in the table-driven style a policy decision table
// naturally wants.

// naturalDoneWith maps a node's logged terminal State to the DoneWith
// value passed into its own done handler (spec.md §3, §4.3).
func naturalDoneWith(s State) DoneWith {
	switch s {
	case Succeeded:
		return DoneWithSuccess
	case Canceled:
		return DoneWithCancel
	default: // Failed, or called before a terminal state (shouldn't happen)
		return DoneWithError
	}
}

// effectiveOutcome folds a done handler's (optional) rewrite into the
// node's natural outcome, producing the value the node's parent uses for
// propagation. A handler can only ever produce Success or Error
// (spec.md §4.3: "Canceled cannot be produced by a handler, only by the
// engine"); a cancelled node with no rewrite defaults to Error for
// propagation purposes, which is what lets StopOnError-style policies
// treat a cancelled sibling as a failure.
func effectiveOutcome(natural DoneWith, result DoneResult) DoneWith {
	switch result {
	case DoneSuccess:
		return DoneWithSuccess
	case DoneError:
		return DoneWithError
	default: // DoneUnspecified
		if natural == DoneWithCancel {
			return DoneWithError
		}
		return natural
	}
}

// rootOutcome computes the DoneWith passed to Controller.finishRun for the
// root group, as distinct from effectiveOutcome's parent-bookkeeping value.
// effectiveOutcome folds an un-rewritten Cancel into Error so a
// StopOnError-style parent treats a cancelled child as a failure
// (Invariant C); but the run's own terminal outcome must satisfy spec.md
// §7 / Data-Model Invariant 5 ("Canceled occurs iff cancel was
// requested"), so an un-rewritten Cancel stays Cancel here.
func rootOutcome(natural DoneWith, result DoneResult) DoneWith {
	switch result {
	case DoneSuccess:
		return DoneWithSuccess
	case DoneError:
		return DoneWithError
	default: // DoneUnspecified: no handler rewrite, report the natural outcome as-is
		return natural
	}
}

// stopOnChildOutcome reports whether a group should cancel its remaining
// children immediately upon observing effective outcome e from a child,
// per the "On child Success"/"On child Error" columns of spec.md §4.3's
// table. It also updates the group's running anySuccess/anyError/
// firstOutcome bookkeeping, which finalGroupOutcome reads once every
// live child has settled.
func (n *runtimeNode) stopOnChildOutcome(e DoneWith) (stop bool) {
	if e == DoneWithSuccess {
		n.anySuccess = true
	} else {
		n.anyError = true
	}
	if !n.hasFirstOutcome {
		n.firstOutcome = e
		n.hasFirstOutcome = true
	}

	switch n.group.Policy {
	case StopOnError:
		return e == DoneWithError
	case StopOnSuccess:
		return e == DoneWithSuccess
	case StopOnSuccessOrError:
		return true
	case ContinueOnError, ContinueOnSuccess, FinishAllAndSuccess, FinishAllAndError:
		return false
	default:
		return false
	}
}

// finalGroupOutcome computes the group's own natural outcome once it is
// decided (either every child has naturally run to completion, or a stop
// condition fired and every live child has finished cancelling). It
// implements both the main table's "Final group outcome" column and the
// empty-group tie-breaks of spec.md §4.3 — the two coincide once anyError/
// anySuccess/hasFirstOutcome default to their zero values for an empty
// group, except for the FinishAllAndSuccess exception (spec.md §9 open
// question), made explicit below.
func (n *runtimeNode) finalGroupOutcome() DoneWith {
	switch n.group.Policy {
	case StopOnError, ContinueOnError:
		if n.anyError {
			return DoneWithError
		}
		return DoneWithSuccess
	case StopOnSuccess, ContinueOnSuccess:
		if n.anySuccess {
			return DoneWithSuccess
		}
		return DoneWithError
	case StopOnSuccessOrError:
		if n.hasFirstOutcome {
			return n.firstOutcome
		}
		return DoneWithError
	case FinishAllAndSuccess:
		if n.anyChildCanceled {
			return DoneWithError
		}
		return DoneWithSuccess
	case FinishAllAndError:
		return DoneWithError
	default:
		return DoneWithError
	}
}
