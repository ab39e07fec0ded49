package avl

// Iterator is a position in a tree. The zero node position is the end.
// Iterators stay valid across operations that do not remove their node.
type Iterator[K, T any] struct {
	core *Core[K, T]
	n    *Node[T]
}

// Valid reports whether the iterator points at a value.
func (it Iterator[K, T]) Valid() bool {
	return it.n != nil
}

// Node returns the current node or nil at the end.
func (it Iterator[K, T]) Node() *Node[T] {
	return it.n
}

// Value returns a pointer to the current value. It panics at the end.
func (it Iterator[K, T]) Value() *T {
	return &it.n.Value
}

// Next advances to the successor. Advancing the end iterator is a no-op.
func (it *Iterator[K, T]) Next() {
	if it.n != nil {
		it.n = it.n.Next()
	}
}

// Prev moves to the predecessor. Moving back from the end lands on the
// largest key; moving back from the first value yields the end.
func (it *Iterator[K, T]) Prev() {
	if it.n == nil {
		it.n = it.core.Last()
		return
	}
	it.n = it.n.Prev()
}

// Equal reports whether both iterators point at the same position.
func (it Iterator[K, T]) Equal(other Iterator[K, T]) bool {
	return it.n == other.n
}
