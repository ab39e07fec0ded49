package bucket

import "github.com/ValentinKolb/mmkv/lib/index/avl"

// Tree is a bucket backed by an AVL tree without an element count.
type Tree[K, T any] struct {
	core avl.Core[K, T]
}

// NewNode allocates a detached node holding v.
func (b *Tree[K, T]) NewNode(v T) *avl.Node[T] {
	return &avl.Node[T]{Value: v}
}

// Root returns the root of the underlying tree or nil.
func (b *Tree[K, T]) Root() *avl.Node[T] {
	return b.core.Root()
}

func (b *Tree[K, T]) Empty() bool {
	return b.core.Empty()
}

// Count walks the tree. O(n).
func (b *Tree[K, T]) Count() int {
	return b.core.Count()
}

func (b *Tree[K, T]) Insert(o *avl.Ordering[K, T], v T) (*avl.Node[T], bool) {
	return b.core.Insert(o, v)
}

func (b *Tree[K, T]) InsertMulti(o *avl.Ordering[K, T], v T) *avl.Node[T] {
	return b.core.InsertMulti(o, v)
}

func (b *Tree[K, T]) Push(o *avl.Ordering[K, T], n *avl.Node[T]) (*avl.Node[T], bool) {
	return b.core.Push(o, n)
}

func (b *Tree[K, T]) PushMulti(o *avl.Ordering[K, T], n *avl.Node[T]) {
	b.core.PushMulti(o, n)
}

func (b *Tree[K, T]) Find(o *avl.Ordering[K, T], key K) *avl.Node[T] {
	return b.core.Find(o, key)
}

func (b *Tree[K, T]) Extract(o *avl.Ordering[K, T], key K) *avl.Node[T] {
	return b.core.Extract(o, key)
}

// Drain detaches every node bottom-up and passes it to fn.
func (b *Tree[K, T]) Drain(fn func(n *avl.Node[T])) {
	b.core.Drain(fn)
}

// Range iterates in ascending key order.
func (b *Tree[K, T]) Range(fn func(v *T) bool) bool {
	return b.core.Range(fn)
}

func (b *Tree[K, T]) Verify(o *avl.Ordering[K, T]) error {
	return b.core.Verify(o)
}
