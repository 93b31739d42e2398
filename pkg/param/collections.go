package param

import (
	"time"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// List is an ordered, index-addressable, mutable node. Every mutation
// updates the list's own timestamp; node-valued items are attached as
// children and other items receive a per-slot timestamp.
type List struct {
	Base
	items []any
	times []time.Time // per-slot stamps; zero for node items
}

// NewList creates a list containing the given items.
func NewList(items ...any) *List {
	l := &List{}
	touch(l, time.Now())
	l.Append(items...)
	return l
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Get returns the item at index i.
func (l *List) Get(i int) (any, error) {
	if err := l.checkIndex(i); err != nil {
		return nil, err
	}
	return l.items[i], nil
}

// Items returns a copy of the items in index order.
func (l *List) Items() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Append adds items to the end of the list.
func (l *List) Append(items ...any) {
	now := time.Now()
	for _, v := range items {
		v = normalize(v)
		l.items = append(l.items, v)
		l.times = append(l.times, l.slotTime(v, now))
	}
	touch(l, now)
}

// Insert inserts v at index i, shifting later items right. Inserting at
// Len() appends.
func (l *List) Insert(i int, v any) error {
	if i < 0 || i > len(l.items) {
		return l.indexError(i)
	}
	v = normalize(v)
	now := time.Now()
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	l.times = append(l.times, time.Time{})
	copy(l.times[i+1:], l.times[i:])
	l.times[i] = l.slotTime(v, now)
	touch(l, now)
	return nil
}

// Set replaces the item at index i.
func (l *List) Set(i int, v any) error {
	if err := l.checkIndex(i); err != nil {
		return err
	}
	v = normalize(v)
	now := time.Now()
	if old, wasNode := asNode(l.items[i]); wasNode {
		detachChild(l, old)
	}
	l.items[i] = v
	l.times[i] = l.slotTime(v, now)
	touch(l, now)
	return nil
}

// Delete removes the item at index i, shifting later items left.
func (l *List) Delete(i int) error {
	if err := l.checkIndex(i); err != nil {
		return err
	}
	if old, wasNode := asNode(l.items[i]); wasNode {
		detachChild(l, old)
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.times = append(l.times[:i], l.times[i+1:]...)
	touch(l, time.Now())
	return nil
}

// Clear removes all items.
func (l *List) Clear() {
	for _, v := range l.items {
		if n, isNode := asNode(v); isNode {
			detachChild(l, n)
		}
	}
	l.items = nil
	l.times = nil
	touch(l, time.Now())
}

// ItemUpdatedAt returns when the non-node item at index i was last assigned.
// Node items track time themselves; for them the second result is false.
func (l *List) ItemUpdatedAt(i int) (time.Time, bool) {
	if i < 0 || i >= len(l.times) || l.times[i].IsZero() {
		return time.Time{}, false
	}
	return l.times[i], true
}

// slotTime returns the per-slot stamp for a newly assigned value: the
// current time for plain values, zero for nodes (which stamp themselves).
func (l *List) slotTime(v any, now time.Time) time.Time {
	if n, isNode := asNode(v); isNode {
		attachChild(l, n)
		return time.Time{}
	}
	return now
}

func (l *List) checkIndex(i int) error {
	if i < 0 || i >= len(l.items) {
		return l.indexError(i)
	}
	return nil
}

func (l *List) indexError(i int) error {
	return errors.New(errors.ErrCodeInvalidInput, "list index %d out of range (len %d)", i, len(l.items))
}

// RestoreList rebuilds a list from decoded data without re-stamping.
// itemTimes must align with items; zero entries mark node items. Used by the
// codec.
func RestoreList(items []any, own time.Time, itemTimes []time.Time) *List {
	l := &List{}
	var nodeChildren []Node
	agg := own
	for i, v := range items {
		v = normalize(v)
		l.items = append(l.items, v)
		var t time.Time
		if i < len(itemTimes) {
			t = itemTimes[i]
		}
		if n, isNode := asNode(v); isNode {
			attachChild(l, n)
			nodeChildren = append(nodeChildren, n)
			t = time.Time{}
		} else if agg.Before(t) {
			agg = t
		}
		l.times = append(l.times, t)
	}
	restoreTimes(l, own, nil, nodeChildren)
	if l.st.agg.Before(agg) {
		l.st.agg = agg
	}
	return l
}

// Dict is a string-keyed, insertion-ordered, mutable node. Keys must not use
// the reserved "__" prefix. Iteration via [Dict.Keys] is stable across
// unrelated mutations: reassigning an existing key keeps its position, new
// keys append.
type Dict struct {
	Base
	keys   []string
	values map[string]any
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	d := &Dict{values: map[string]any{}}
	touch(d, time.Now())
	return d
}

// Len returns the number of keys.
func (d *Dict) Len() int { return len(d.keys) }

// Get returns the value stored under key.
func (d *Dict) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Set stores v under key, appending the key if it is new.
func (d *Dict) Set(key string, v any) error {
	if err := errors.ValidateDictKey(key); err != nil {
		return err
	}
	v = normalize(v)
	now := time.Now()
	old, existed := d.values[key]
	if !existed {
		d.keys = append(d.keys, key)
	} else if oldNode, wasNode := asNode(old); wasNode {
		detachChild(d, oldNode)
	}
	d.values[key] = v
	if n, isNode := asNode(v); isNode {
		attachChild(d, n)
		delete(d.st.children, key)
	} else {
		stampChild(d, key, now)
	}
	touch(d, now)
	return nil
}

// Delete removes key and its value. Removing an absent key is a no-op.
func (d *Dict) Delete(key string) {
	old, existed := d.values[key]
	if !existed {
		return
	}
	if oldNode, wasNode := asNode(old); wasNode {
		detachChild(d, oldNode)
	}
	delete(d.values, key)
	delete(d.st.children, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	touch(d, time.Now())
}

// Clear removes all keys.
func (d *Dict) Clear() {
	for _, v := range d.values {
		if n, isNode := asNode(v); isNode {
			detachChild(d, n)
		}
	}
	d.keys = nil
	d.values = map[string]any{}
	d.st.children = nil
	touch(d, time.Now())
}

// KeyUpdatedAt returns when the non-node value under key was last assigned.
func (d *Dict) KeyUpdatedAt(key string) (time.Time, bool) {
	t, ok := d.st.children[key]
	return t, ok
}

// RestoreDict rebuilds a dict from decoded data without re-stamping. keys
// supplies the insertion order. Used by the codec.
func RestoreDict(keys []string, values map[string]any, own time.Time, childTimes map[string]time.Time) *Dict {
	d := &Dict{values: make(map[string]any, len(values))}
	var nodeChildren []Node
	for _, k := range keys {
		v := normalize(values[k])
		d.keys = append(d.keys, k)
		d.values[k] = v
		if n, isNode := asNode(v); isNode {
			attachChild(d, n)
			nodeChildren = append(nodeChildren, n)
		}
	}
	restoreTimes(d, own, childTimes, nodeChildren)
	return d
}
