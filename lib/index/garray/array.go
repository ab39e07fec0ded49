package garray

import "iter"

// Array is a contiguous, capacity-less buffer of T.
type Array[T any] struct {
	data []T
}

// New creates an array of n zero-valued elements.
func New[T any](n int) *Array[T] {
	a := &Array[T]{}
	a.Grow(n)
	return a
}

// NewFilled creates an array of n elements, each a copy of init.
func NewFilled[T any](n int, init T) *Array[T] {
	a := New[T](n)
	for i := range a.data {
		a.data[i] = init
	}
	return a
}

// Len returns the number of elements.
func (a *Array[T]) Len() int {
	return len(a.data)
}

// Grow resizes the array to n elements. New elements are zero valued.
// It is a no-op if n <= Len().
func (a *Array[T]) Grow(n int) {
	if n <= len(a.data) {
		return
	}
	// exact allocation, the old elements are moved with a single block copy
	data := make([]T, n)
	copy(data, a.data)
	a.data = data
}

// Shrink resizes the array to n elements, dropping the tail.
// It is a no-op if n >= Len(). A negative n is treated as 0.
func (a *Array[T]) Shrink(n int) {
	if n >= len(a.data) {
		return
	}
	if n < 0 {
		n = 0
	}
	if n == 0 {
		a.data = nil
		return
	}
	data := make([]T, n)
	copy(data, a.data[:n])

	// release references held by the dropped elements
	clear(a.data[n:])
	a.data = data
}

// At returns a pointer to the i-th element.
// The pointer is invalidated by the next Grow or Shrink.
func (a *Array[T]) At(i int) *T {
	return &a.data[i]
}

// Get returns a copy of the i-th element.
func (a *Array[T]) Get(i int) T {
	return a.data[i]
}

// Set replaces the i-th element.
func (a *Array[T]) Set(i int, v T) {
	a.data[i] = v
}

// Swap exchanges the contents of a and other in O(1).
func (a *Array[T]) Swap(other *Array[T]) {
	a.data, other.data = other.data, a.data
}

// Reset releases the buffer; Len() becomes 0.
func (a *Array[T]) Reset() {
	a.Shrink(0)
}

// All iterates over index/element-pointer pairs in index order.
func (a *Array[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := range a.data {
			if !yield(i, &a.data[i]) {
				return
			}
		}
	}
}
