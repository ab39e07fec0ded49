package hashtable

import (
	"cmp"
	"iter"
)

// Pair is the payload of a Map: the key is a part of the stored value.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// Map is a hash map of ordered keys backed by a TreeIndex.
type Map[K, V any] struct {
	idx *TreeIndex[K, Pair[K, V]]
}

// NewMap creates an empty map.
func NewMap[K cmp.Ordered, V any](hash func(K) uint64, opts ...Option) *Map[K, V] {
	return NewMapFunc[K, V](hash, cmp.Compare[K], opts...)
}

// NewMapFunc creates an empty map with a custom key order.
func NewMapFunc[K, V any](hash func(K) uint64, compare func(a, b K) int, opts ...Option) *Map[K, V] {
	key := func(p *Pair[K, V]) K { return p.Key }
	return &Map[K, V]{idx: NewTree(hash, key, compare, opts...)}
}

// Put stores v under k, replacing an existing value. It reports whether k
// was absent.
func (m *Map[K, V]) Put(k K, v V) bool {
	p, ok := m.idx.Insert(Pair[K, V]{Key: k, Value: v})
	if !ok {
		p.Value = v
	}
	return ok
}

// PutIfAbsent stores v only if k is absent and returns the value now stored.
func (m *Map[K, V]) PutIfAbsent(k K, v V) (*V, bool) {
	p, ok := m.idx.Insert(Pair[K, V]{Key: k, Value: v})
	return &p.Value, ok
}

// Get returns the value stored under k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	if p := m.idx.Find(k); p != nil {
		return p.Value, true
	}
	var zero V
	return zero, false
}

// Ptr returns a pointer to the value stored under k, or nil. The pointer
// stays valid until k is deleted.
func (m *Map[K, V]) Ptr(k K) *V {
	if p := m.idx.Find(k); p != nil {
		return &p.Value
	}
	return nil
}

// Delete removes k and reports whether it was present.
func (m *Map[K, V]) Delete(k K) bool {
	return m.idx.Erase(k) == 1
}

func (m *Map[K, V]) Len() int {
	return m.idx.Len()
}

func (m *Map[K, V]) Clear() {
	m.idx.Clear()
}

// All iterates over the key/value pairs in no particular order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.idx.Range(func(p *Pair[K, V]) bool {
			return yield(p.Key, p.Value)
		})
	}
}

// Index exposes the underlying index.
func (m *Map[K, V]) Index() *TreeIndex[K, Pair[K, V]] {
	return m.idx
}
