package util

import (
	"cmp"

	"github.com/ValentinKolb/mmkv/lib/index/avl"
	"github.com/ValentinKolb/mmkv/lib/index/hashtable"
)

// ExpiryItem is a key scheduled at a logical time (Priority).
type ExpiryItem struct {
	Key      string
	Priority uint64
}

func compareExpiry(a, b ExpiryItem) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.Key, b.Key)
}

// ExpiryQueue is a priority queue with key-based access. Items are kept in an
// AVL tree ordered by (Priority, Key), a hash map finds the tree node of a key.
// Rescheduling a key moves its node inside the tree without reallocating it.
//
// Thread-safety: ExpiryQueue is not safe for concurrent use.
type ExpiryQueue struct {
	order *avl.Tree[ExpiryItem, ExpiryItem]
	byKey *hashtable.Map[string, *avl.Node[ExpiryItem]]
}

// NewExpiryQueue creates an empty queue. hash is used for the key lookup.
func NewExpiryQueue(hash func(string) uint64) *ExpiryQueue {
	return &ExpiryQueue{
		order: avl.New(func(v *ExpiryItem) ExpiryItem { return *v }, compareExpiry),
		byKey: hashtable.NewMap[string, *avl.Node[ExpiryItem]](hash),
	}
}

// Len returns the number of scheduled keys.
func (q *ExpiryQueue) Len() int {
	return q.order.Len()
}

// AddItem schedules key at priority or reschedules it if already present.
func (q *ExpiryQueue) AddItem(key string, priority uint64) {
	if n := q.byKey.Ptr(key); n != nil {
		node := *n
		if node.Value.Priority == priority {
			return
		}
		q.order.EraseNode(node)
		node.Value.Priority = priority
		q.order.Push(node)
		return
	}

	n, _ := q.order.Insert(ExpiryItem{Key: key, Priority: priority})
	q.byKey.Put(key, n)
}

// RemoveByKey unschedules key and returns its priority.
func (q *ExpiryQueue) RemoveByKey(key string) (uint64, bool) {
	n, ok := q.byKey.Get(key)
	if !ok {
		return 0, false
	}
	q.byKey.Delete(key)
	q.order.EraseNode(n)
	return n.Value.Priority, true
}

// Peek returns the item with the lowest priority.
func (q *ExpiryQueue) Peek() (ExpiryItem, bool) {
	if n := q.order.Min(); n != nil {
		return n.Value, true
	}
	return ExpiryItem{}, false
}

// Pop removes and returns the item with the lowest priority.
func (q *ExpiryQueue) Pop() (ExpiryItem, bool) {
	n := q.order.Min()
	if n == nil {
		return ExpiryItem{}, false
	}
	q.order.EraseNode(n)
	q.byKey.Delete(n.Value.Key)
	return n.Value, true
}

// PopDue removes every item with Priority <= until in ascending order and
// passes it to fn. It returns the number of removed items.
func (q *ExpiryQueue) PopDue(until uint64, fn func(item ExpiryItem)) int {
	cnt := 0
	for {
		n := q.order.Min()
		if n == nil || n.Value.Priority > until {
			return cnt
		}
		q.order.EraseNode(n)
		q.byKey.Delete(n.Value.Key)
		fn(n.Value)
		cnt++
	}
}

// Contains reports whether key is scheduled.
func (q *ExpiryQueue) Contains(key string) bool {
	return q.byKey.Ptr(key) != nil
}

// GetByKey returns the scheduled item of key.
func (q *ExpiryQueue) GetByKey(key string) (ExpiryItem, bool) {
	if n, ok := q.byKey.Get(key); ok {
		return n.Value, true
	}
	return ExpiryItem{}, false
}

// Clear unschedules all keys.
func (q *ExpiryQueue) Clear() {
	q.order.Clear()
	q.byKey.Clear()
}

// Verify checks that the tree and the key map agree.
func (q *ExpiryQueue) Verify() error {
	if err := q.order.Verify(); err != nil {
		return err
	}
	if q.order.Len() != q.byKey.Len() {
		return &avl.CountError{Stored: q.byKey.Len(), Counted: q.order.Len()}
	}
	return nil
}
