package hashtable

import (
	"cmp"
	"iter"
)

// Set is a hash set of ordered keys backed by a TreeIndex.
type Set[K any] struct {
	idx *TreeIndex[K, K]
}

// NewSet creates an empty set.
func NewSet[K cmp.Ordered](hash func(K) uint64, opts ...Option) *Set[K] {
	return NewSetFunc(hash, cmp.Compare[K], opts...)
}

// NewSetFunc creates an empty set with a custom key order.
func NewSetFunc[K any](hash func(K) uint64, compare func(a, b K) int, opts ...Option) *Set[K] {
	return &Set[K]{idx: NewTree(hash, func(k *K) K { return *k }, compare, opts...)}
}

// Add inserts k and reports whether it was absent.
func (s *Set[K]) Add(k K) bool {
	_, ok := s.idx.Insert(k)
	return ok
}

func (s *Set[K]) Has(k K) bool {
	return s.idx.Contains(k)
}

// Remove deletes k and reports whether it was present.
func (s *Set[K]) Remove(k K) bool {
	return s.idx.Erase(k) == 1
}

func (s *Set[K]) Len() int {
	return s.idx.Len()
}

func (s *Set[K]) Clear() {
	s.idx.Clear()
}

// All iterates over the keys in no particular order.
func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.idx.Range(func(k *K) bool {
			return yield(*k)
		})
	}
}

// Index exposes the underlying index.
func (s *Set[K]) Index() *TreeIndex[K, K] {
	return s.idx
}
