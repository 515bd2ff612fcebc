package recipe

// compiled is the result of compiling an immutable Recipe AST into a
// fresh runtime tree (spec.md §4.1). Recompiling the same AST always
// yields an equivalent runtime and the same ProgressMaximum (spec.md §8
// round-trip property), since compile is a pure function of the AST.
type compiled struct {
	root            *runtimeNode
	progressMaximum int
}

// compile performs the one-pass AST -> runtime tree build described in
// spec.md §4.1: assign stable NodeIDs, apply warn-and-fix validation
// (duplicate storage declarations within one group are dropped, keeping
// the first), and count asynchronous leaves for progress_maximum.
func compile(root Node) *compiled {
	nextID := NodeID(0)
	rt := compileNode(root, nil, &nextID)
	return &compiled{root: rt, progressMaximum: countLeaves(rt)}
}

func compileNode(n Node, parent *runtimeNode, nextID *NodeID) *runtimeNode {
	id := *nextID
	*nextID++

	rt := &runtimeNode{id: id, parent: parent, state: NotStarted}

	switch v := n.(type) {
	case *Group:
		rt.kind = kindGroup
		rt.group = &Group{
			Mode:           v.Mode,
			ParallelLimitN: v.ParallelLimitN,
			Policy:         v.Policy,
			SetupHandler:   v.SetupHandler,
			DoneHandler:    v.DoneHandler,
			Storages:       dedupStorages(v.Storages),
			Timeout:        v.Timeout,
		}
		rt.timeoutSpec = rt.group.Timeout
		rt.children = make([]*runtimeNode, 0, len(v.Children))
		for _, child := range v.Children {
			rt.children = append(rt.children, compileNode(child, rt, nextID))
		}
	case *Task:
		rt.kind = kindTask
		rt.task = v
		rt.timeoutSpec = v.Timeout
	case *Sync:
		rt.kind = kindSync
		rt.sync = v
	case *WaitForBarrier:
		rt.kind = kindWaitBarrier
		rt.waitBarrier = v
	}

	return rt
}

// dedupStorages drops duplicate declarations of the same key within one
// group's Storages slice, keeping the first occurrence (spec.md §4.1:
// "Two storage declarations of the same key in one group: drop the
// duplicate").
func dedupStorages(bindings []storageBinding) []storageBinding {
	if len(bindings) < 2 {
		return bindings
	}
	seen := make(map[StorageKey]bool, len(bindings))
	out := make([]storageBinding, 0, len(bindings))
	for _, b := range bindings {
		if seen[b.key] {
			continue
		}
		seen[b.key] = true
		out = append(out, b)
	}
	return out
}
