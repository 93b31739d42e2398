package param

import (
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// Node is implemented by every value participating in the parent/root/
// timestamp hierarchy. Concrete node types embed [Base]; external
// implementations are not supported.
type Node interface {
	// LastUpdated returns the most recent mutation time anywhere in the
	// subtree rooted at this node. Reads are O(1).
	LastUpdated() time.Time

	// LastOwnUpdate returns the time of this node's own last direct mutation.
	LastOwnUpdate() time.Time

	// Parent returns the current owner, or (nil, false) if the node is
	// detached.
	Parent() (Node, bool)

	state() *nodeState
}

// nodeState holds the bookkeeping shared by all node types.
type nodeState struct {
	own      time.Time            // last direct mutation of this node
	agg      time.Time            // aggregate over the whole subtree
	children map[string]time.Time // non-node child slots, by slot name
	parent   Node
}

// Base provides the shared node capability. Embed it in a struct to make
// the struct a [Node].
type Base struct {
	st nodeState
}

func (b *Base) state() *nodeState { return &b.st }

// LastUpdated returns the aggregate last-updated time of the subtree.
func (b *Base) LastUpdated() time.Time { return b.st.agg }

// LastOwnUpdate returns the time of the node's own last direct mutation.
func (b *Base) LastOwnUpdate() time.Time { return b.st.own }

// Parent returns the current owner, or (nil, false) if detached.
func (b *Base) Parent() (Node, bool) {
	if b.st.parent == nil {
		return nil, false
	}
	return b.st.parent, true
}

// RootOf walks the parent chain to a fixpoint and returns the first node
// with no parent. Returns an error if the chain contains a cycle, which can
// only arise from deliberately attaching a node to its own descendant.
func RootOf(n Node) (Node, error) {
	seen := map[*nodeState]bool{}
	for {
		st := n.state()
		if seen[st] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "parent chain contains a cycle")
		}
		seen[st] = true
		if st.parent == nil {
			return n, nil
		}
		n = st.parent
	}
}

// touch records a direct mutation of n at time t and propagates the new
// aggregate up the parent chain. Propagation stops as soon as an ancestor
// already holds an equal or newer aggregate, which also bounds traversal if
// a cycle exists.
func touch(n Node, t time.Time) {
	st := n.state()
	if st.own.Before(t) {
		st.own = t
	}
	for cur := n; cur != nil; {
		s := cur.state()
		if !s.agg.Before(t) {
			break
		}
		s.agg = t
		cur = s.parent
	}
}

// attachChild makes parent the owner of child, overwriting any previous
// parent. The former owner is not informed; it keeps a stale reference.
func attachChild(parent, child Node) {
	child.state().parent = parent
}

// detachChild clears child's parent link, but only if parent still owns it.
// Reassignment through another container must not be undone here.
func detachChild(parent, child Node) {
	if child.state().parent == parent {
		child.state().parent = nil
	}
}

// stampChild records a write to the named non-node child slot.
func stampChild(n Node, name string, t time.Time) {
	st := n.state()
	if st.children == nil {
		st.children = map[string]time.Time{}
	}
	st.children[name] = t
}

// asNode reports whether v is a node value.
func asNode(v any) (Node, bool) {
	n, ok := v.(Node)
	return n, ok
}

// restoreTimes overwrites a node's own and aggregate timestamps, used when
// reconstructing a graph from its canonical representation. The aggregate is
// recomputed from the node's own stamp, its non-node child stamps, and the
// aggregates of the given node children.
func restoreTimes(n Node, own time.Time, childTimes map[string]time.Time, nodeChildren []Node) {
	st := n.state()
	st.own = own
	st.children = nil
	agg := own
	for name, t := range childTimes {
		stampChild(n, name, t)
		if agg.Before(t) {
			agg = t
		}
	}
	for _, c := range nodeChildren {
		if t := c.state().agg; agg.Before(t) {
			agg = t
		}
	}
	st.agg = agg
}
