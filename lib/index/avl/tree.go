package avl

import (
	"cmp"
	"fmt"
	"iter"
)

// Tree is a standalone AVL tree that keeps an element count.
type Tree[K, T any] struct {
	core  Core[K, T]
	order Ordering[K, T]
	size  int
}

// New creates an empty tree. key extracts the key of a value, compare
// orders two keys. Both must be non-nil.
func New[K, T any](key func(v *T) K, compare func(a, b K) int) *Tree[K, T] {
	if key == nil || compare == nil {
		panic("avl: key and compare functions are required")
	}
	return &Tree[K, T]{order: Ordering[K, T]{Key: key, Compare: compare}}
}

// NewOrdered creates a tree whose values are their own keys.
func NewOrdered[K cmp.Ordered]() *Tree[K, K] {
	return New(func(v *K) K { return *v }, cmp.Compare[K])
}

// Len returns the number of values in the tree. O(1).
func (t *Tree[K, T]) Len() int {
	return t.size
}

// Height returns the height of the tree (0 when empty).
func (t *Tree[K, T]) Height() int {
	return t.core.root.Height()
}

// Root returns the root node or nil.
func (t *Tree[K, T]) Root() *Node[T] {
	return t.core.root
}

// Ordering returns the ordering the tree was created with.
func (t *Tree[K, T]) Ordering() *Ordering[K, T] {
	return &t.order
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Insert adds v unless its key is present. It returns the node holding the
// key and whether v was inserted.
func (t *Tree[K, T]) Insert(v T) (*Node[T], bool) {
	n, ok := t.core.Insert(&t.order, v)
	if ok {
		t.size++
	}
	return n, ok
}

// InsertMulti adds v even if its key is present.
func (t *Tree[K, T]) InsertMulti(v T) *Node[T] {
	t.size++
	return t.core.InsertMulti(&t.order, v)
}

// Push re-links a node obtained from Extract (of this or another tree with
// the same value type). It returns false, leaving n detached, if the key is
// already present.
func (t *Tree[K, T]) Push(n *Node[T]) bool {
	if _, ok := t.core.Push(&t.order, n); !ok {
		return false
	}
	t.size++
	return true
}

// PushMulti re-links a detached node without a duplicate check.
func (t *Tree[K, T]) PushMulti(n *Node[T]) {
	t.core.PushMulti(&t.order, n)
	t.size++
}

// Erase removes one value with the given key and reports whether one was found.
func (t *Tree[K, T]) Erase(key K) bool {
	n := t.core.Find(&t.order, key)
	if n == nil {
		return false
	}
	t.EraseNode(n)
	return true
}

// EraseNode removes n, which must belong to t.
func (t *Tree[K, T]) EraseNode(n *Node[T]) {
	t.core.Remove(n)
	t.size--
}

// Extract detaches the node holding key and hands it to the caller.
// It returns nil if the key is absent.
func (t *Tree[K, T]) Extract(key K) *Node[T] {
	n := t.core.Extract(&t.order, key)
	if n != nil {
		t.size--
	}
	return n
}

// Clear removes all values.
func (t *Tree[K, T]) Clear() {
	t.core.Clear()
	t.size = 0
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Find returns a pointer to the value stored under key, or nil.
func (t *Tree[K, T]) Find(key K) *T {
	if n := t.core.Find(&t.order, key); n != nil {
		return &n.Value
	}
	return nil
}

// Get returns the node stored under key, or nil.
func (t *Tree[K, T]) Get(key K) *Node[T] {
	return t.core.Find(&t.order, key)
}

// Contains reports whether key is present.
func (t *Tree[K, T]) Contains(key K) bool {
	return t.core.Find(&t.order, key) != nil
}

// Min returns the node with the smallest key or nil.
func (t *Tree[K, T]) Min() *Node[T] {
	return t.core.First()
}

// Max returns the node with the largest key or nil.
func (t *Tree[K, T]) Max() *Node[T] {
	return t.core.Last()
}

// LowerBound returns an iterator at the first value with key >= key.
func (t *Tree[K, T]) LowerBound(key K) Iterator[K, T] {
	return Iterator[K, T]{core: &t.core, n: t.core.LowerBound(&t.order, key)}
}

// UpperBound returns an iterator at the first value with key > key.
func (t *Tree[K, T]) UpperBound(key K) Iterator[K, T] {
	return Iterator[K, T]{core: &t.core, n: t.core.UpperBound(&t.order, key)}
}

// Begin returns an iterator at the smallest key.
func (t *Tree[K, T]) Begin() Iterator[K, T] {
	return Iterator[K, T]{core: &t.core, n: t.core.First()}
}

// End returns the past-the-end iterator.
func (t *Tree[K, T]) End() Iterator[K, T] {
	return Iterator[K, T]{core: &t.core}
}

// All iterates over the values in ascending key order.
func (t *Tree[K, T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		t.core.Range(yield)
	}
}

// Backward iterates over the values in descending key order.
func (t *Tree[K, T]) Backward() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for n := t.core.Last(); n != nil; n = n.Prev() {
			if !yield(&n.Value) {
				return
			}
		}
	}
}

// Between iterates over the values with lo <= key < hi in ascending order.
func (t *Tree[K, T]) Between(lo, hi K) iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for n := t.core.LowerBound(&t.order, lo); n != nil; n = n.Next() {
			if t.order.keyOf(hi, n) <= 0 {
				return
			}
			if !yield(&n.Value) {
				return
			}
		}
	}
}

// --------------------------------------------------------------------------
// Verification
// --------------------------------------------------------------------------

// Verify checks all structural invariants and the element count.
func (t *Tree[K, T]) Verify() error {
	if err := t.core.Verify(&t.order); err != nil {
		return err
	}
	if cnt := t.core.Count(); cnt != t.size {
		return &CountError{Stored: t.size, Counted: cnt}
	}
	return nil
}

// VerifyBalance reports whether every node satisfies the AVL invariant and
// carries an up-to-date height.
func (t *Tree[K, T]) VerifyBalance() bool {
	_, err := verifyNode(t.core.root)
	return err == nil
}

// CountError reports a mismatch between the stored and the actual element count.
type CountError struct {
	Stored, Counted int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("avl: stored count %d does not match %d nodes", e.Stored, e.Counted)
}
