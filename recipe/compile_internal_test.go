package recipe

import "testing"

func TestDedupStorages_KeepsFirstOccurrence(t *testing.T) {
	a := NewStorageDecl("a", func() int { return 1 })
	b := NewStorageDecl("a", func() int { return 2 }) // same key name, different decl identity
	c := bindStorage(a)
	d := bindStorage(a) // true duplicate: same StorageKey identity as c
	e := bindStorage(b)

	out := dedupStorages([]storageBinding{c, d, e})
	if len(out) != 2 {
		t.Fatalf("dedupStorages dropped wrong count: got %d, want 2 (one dup of c, plus independent e)", len(out))
	}
	if out[0].key != c.key {
		t.Fatalf("dedupStorages should keep the first occurrence's instantiate func")
	}
	if out[1].key != e.key {
		t.Fatalf("distinct declarations (even with the same display name) must not be deduped against each other")
	}
}

func TestCompile_NodeIDsArePreorderDepthFirst(t *testing.T) {
	t1 := NewTask(func() TaskAdapter { return nil })
	t2 := NewTask(func() TaskAdapter { return nil })
	t3 := NewTask(func() TaskAdapter { return nil })
	inner := NewGroup(t2)
	root := NewGroup(t1, inner, t3)

	c := compile(root)
	if c.root.id != 0 {
		t.Fatalf("root id = %d, want 0", c.root.id)
	}
	if got := c.root.children[0].id; got != 1 {
		t.Fatalf("t1 id = %d, want 1", got)
	}
	if got := c.root.children[1].id; got != 2 {
		t.Fatalf("inner group id = %d, want 2", got)
	}
	if got := c.root.children[1].children[0].id; got != 3 {
		t.Fatalf("t2 id = %d, want 3", got)
	}
	if got := c.root.children[2].id; got != 4 {
		t.Fatalf("t3 id = %d, want 4", got)
	}
}

func TestCompile_ProgressMaximumCountsLeavesOnly(t *testing.T) {
	ref, decl := NewBarrier(1)
	_ = decl
	root := NewGroup(
		NewTask(func() TaskAdapter { return nil }),
		NewSync(func() DoneResult { return DoneSuccess }),
		NewGroup(
			NewTask(func() TaskAdapter { return nil }),
			NewWaitForBarrier(ref),
		),
	)
	c := compile(root)
	if c.progressMaximum != 3 {
		t.Fatalf("progressMaximum = %d, want 3 (two tasks + one wait-for-barrier; the sync leaf does not count)", c.progressMaximum)
	}
}
