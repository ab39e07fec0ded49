package bucket

import "github.com/ValentinKolb/mmkv/lib/index/avl"

// ListNode is an element of a List bucket.
type ListNode[T any] struct {
	Value T
	next  *ListNode[T]
}

// Payload returns a pointer to the stored value.
func (n *ListNode[T]) Payload() *T {
	return &n.Value
}

// Next returns the following node in the chain or nil.
func (n *ListNode[T]) Next() *ListNode[T] {
	return n.next
}

// List is a singly linked bucket. Find moves the node it returns to the
// head, so iteration yields the most recently touched entries first.
type List[K, T any] struct {
	head *ListNode[T]
}

// NewNode allocates a detached node holding v.
func (l *List[K, T]) NewNode(v T) *ListNode[T] {
	return &ListNode[T]{Value: v}
}

// Head returns the first node or nil.
func (l *List[K, T]) Head() *ListNode[T] {
	return l.head
}

// Empty reports whether the bucket holds no nodes.
func (l *List[K, T]) Empty() bool {
	return l.head == nil
}

// Count walks the chain. O(n).
func (l *List[K, T]) Count() int {
	cnt := 0
	for n := l.head; n != nil; n = n.next {
		cnt++
	}
	return cnt
}

// lookup returns the node holding key and its predecessor (nil at the head).
func (l *List[K, T]) lookup(o *avl.Ordering[K, T], key K) (n, prev *ListNode[T]) {
	for n = l.head; n != nil; prev, n = n, n.next {
		if o.Compare(key, o.Key(&n.Value)) == 0 {
			return n, prev
		}
	}
	return nil, nil
}

// Insert prepends v unless its key is present. It returns the node holding
// the key and whether v was inserted. A rejected insert allocates nothing.
func (l *List[K, T]) Insert(o *avl.Ordering[K, T], v T) (*ListNode[T], bool) {
	if n, _ := l.lookup(o, o.Key(&v)); n != nil {
		return n, false
	}
	n := &ListNode[T]{Value: v}
	l.PushMulti(o, n)
	return n, true
}

// InsertMulti prepends v without a duplicate check.
func (l *List[K, T]) InsertMulti(o *avl.Ordering[K, T], v T) *ListNode[T] {
	n := &ListNode[T]{Value: v}
	l.PushMulti(o, n)
	return n
}

// Push prepends a detached node unless its key is present.
func (l *List[K, T]) Push(o *avl.Ordering[K, T], n *ListNode[T]) (*ListNode[T], bool) {
	if found, _ := l.lookup(o, o.Key(&n.Value)); found != nil {
		return found, false
	}
	l.PushMulti(o, n)
	return n, true
}

// PushMulti prepends a detached node without a duplicate check.
func (l *List[K, T]) PushMulti(_ *avl.Ordering[K, T], n *ListNode[T]) {
	n.next = l.head
	l.head = n
}

// Find returns the node holding key, or nil. A hit is moved to the head.
func (l *List[K, T]) Find(o *avl.Ordering[K, T], key K) *ListNode[T] {
	n, prev := l.lookup(o, key)
	if n != nil && prev != nil {
		prev.next = n.next
		n.next = l.head
		l.head = n
	}
	return n
}

// Extract unlinks the node holding key and returns it, or nil.
func (l *List[K, T]) Extract(o *avl.Ordering[K, T], key K) *ListNode[T] {
	n, prev := l.lookup(o, key)
	if n == nil {
		return nil
	}
	if prev == nil {
		l.head = n.next
	} else {
		prev.next = n.next
	}
	n.next = nil
	return n
}

// Drain unlinks every node and passes it to fn, leaving the bucket empty.
func (l *List[K, T]) Drain(fn func(n *ListNode[T])) {
	n := l.head
	l.head = nil
	for n != nil {
		next := n.next
		n.next = nil
		fn(n)
		n = next
	}
}

// Range calls fn for every value, most recently touched first, until fn
// returns false. It reports whether the iteration ran to completion.
func (l *List[K, T]) Range(fn func(v *T) bool) bool {
	for n := l.head; n != nil; n = n.next {
		if !fn(&n.Value) {
			return false
		}
	}
	return true
}

// Verify always succeeds; a chain has no structural invariant beyond its links.
func (l *List[K, T]) Verify(*avl.Ordering[K, T]) error {
	return nil
}
