package param

import (
	"testing"
	"time"
)

// declare builds a record type in a fresh registry so tests don't collide
// in the process-wide default registry.
func declare(t *testing.T, name string, fields ...FieldDef) *RecordType {
	t.Helper()
	rt, err := NewRegistry().Declare(name, fields...)
	if err != nil {
		t.Fatalf("Declare(%s): %v", name, err)
	}
	return rt
}

func newRecord(t *testing.T, rt *RecordType, values map[string]any) *Record {
	t.Helper()
	r, err := rt.New(values)
	if err != nil {
		t.Fatalf("%s.New: %v", rt.Name(), err)
	}
	return r
}

func TestMutationPropagatesToAncestors(t *testing.T) {
	leafType := declare(t, "Leaf", Field("value", KindFloat))
	midType := declare(t, "Mid", Field("leaf", KindNode))
	rootType := declare(t, "Top", Field("mid", KindNode), Field("other", KindNode))

	leaf := newRecord(t, leafType, map[string]any{"value": 1.0})
	sibling := newRecord(t, midType, map[string]any{"leaf": newRecord(t, leafType, map[string]any{"value": 2.0})})
	mid := newRecord(t, midType, map[string]any{"leaf": leaf})
	root := newRecord(t, rootType, map[string]any{"mid": mid, "other": sibling})

	siblingBefore := sibling.LastOwnUpdate()
	before := time.Now()
	if err := leaf.Set("value", 9.9); err != nil {
		t.Fatalf("Set: %v", err)
	}

	for _, n := range []Node{leaf, mid, root} {
		if n.LastUpdated().Before(before) {
			t.Errorf("ancestor aggregate %v is older than the mutation time %v", n.LastUpdated(), before)
		}
	}
	if !sibling.LastOwnUpdate().Equal(siblingBefore) {
		t.Error("sibling subtree's own timestamp should be unchanged")
	}
}

func TestAggregateIsMaxOfSubtree(t *testing.T) {
	leafType := declare(t, "Leaf", Field("value", KindFloat))
	rootType := declare(t, "Top", Field("leaf", KindNode))

	leaf := newRecord(t, leafType, map[string]any{"value": 1.0})
	root := newRecord(t, rootType, map[string]any{"leaf": leaf})

	if err := leaf.Set("value", 2.0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if root.LastUpdated().Before(leaf.LastUpdated()) {
		t.Errorf("root aggregate %v < leaf aggregate %v", root.LastUpdated(), leaf.LastUpdated())
	}
}

func TestLastAssignmentWins(t *testing.T) {
	leafType := declare(t, "Leaf", Field("value", KindFloat))
	ownerType := declare(t, "Owner", Field("leaf", KindAny))

	leaf := newRecord(t, leafType, map[string]any{"value": 1.0})
	first := newRecord(t, ownerType, map[string]any{"leaf": leaf})
	second := newRecord(t, ownerType, map[string]any{"leaf": nil})

	if p, ok := leaf.Parent(); !ok || p != Node(first) {
		t.Fatal("leaf should initially be owned by first")
	}

	// Re-parenting overwrites; first still holds a stale reference.
	if err := second.Set("leaf", leaf); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p, ok := leaf.Parent(); !ok || p != Node(second) {
		t.Error("leaf's parent should be the most recent owner")
	}
	if v, _ := first.Get("leaf"); v != any(leaf) {
		t.Error("stale owner should still reference the leaf")
	}
}

func TestReassignDetachesOldChild(t *testing.T) {
	leafType := declare(t, "Leaf", Field("value", KindFloat))
	ownerType := declare(t, "Owner", Field("leaf", KindAny))

	old := newRecord(t, leafType, map[string]any{"value": 1.0})
	owner := newRecord(t, ownerType, map[string]any{"leaf": old})

	if err := owner.Set("leaf", 42); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := old.Parent(); ok {
		t.Error("replaced child should be detached")
	}
}

func TestRootOf(t *testing.T) {
	leafType := declare(t, "Leaf", Field("value", KindFloat))
	rootType := declare(t, "Top", Field("leaf", KindNode))

	leaf := newRecord(t, leafType, map[string]any{"value": 1.0})
	root := newRecord(t, rootType, map[string]any{"leaf": leaf})

	got, err := RootOf(leaf)
	if err != nil {
		t.Fatalf("RootOf: %v", err)
	}
	if got != Node(root) {
		t.Error("RootOf should reach the parentless ancestor")
	}

	// A detached node is its own root.
	if got, err := RootOf(root); err != nil || got != Node(root) {
		t.Errorf("RootOf(root) = %v, %v", got, err)
	}
}

func TestRootOfCycleFails(t *testing.T) {
	ownerType := declare(t, "Owner", Field("child", KindAny))

	a := newRecord(t, ownerType, map[string]any{"child": nil})
	b := newRecord(t, ownerType, map[string]any{"child": a})
	// Deliberately close the loop: a owns b while b owns a.
	if err := a.Set("child", b); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := RootOf(a); err == nil {
		t.Error("RootOf should fail on a cyclic parent chain instead of diverging")
	}
}

func TestParentDetached(t *testing.T) {
	leafType := declare(t, "Leaf", Field("value", KindFloat))
	leaf := newRecord(t, leafType, map[string]any{"value": 1.0})
	if _, ok := leaf.Parent(); ok {
		t.Error("freshly constructed node should have no parent")
	}
}
