package avl

import (
	"errors"
	"fmt"
)

// Ordering tells a tree how to order its values: Key extracts the key of a
// value and Compare orders two keys (<0, 0, >0).
type Ordering[K, T any] struct {
	Key     func(v *T) K
	Compare func(a, b K) int
}

// keyOf compares key against the key of n.
func (o *Ordering[K, T]) keyOf(key K, n *Node[T]) int {
	return o.Compare(key, o.Key(&n.Value))
}

// --------------------------------------------------------------------------
// Core (headless engine)
// --------------------------------------------------------------------------

// Core is an AVL tree reduced to its root pointer. It does not count its
// elements; callers that need a count (Tree, the hash index) keep their own.
// The zero value is an empty tree.
type Core[K, T any] struct {
	root *Node[T]
}

// Root returns the root node or nil.
func (c *Core[K, T]) Root() *Node[T] {
	return c.root
}

// Empty reports whether the tree holds no nodes.
func (c *Core[K, T]) Empty() bool {
	return c.root == nil
}

// First returns the node with the smallest key or nil.
func (c *Core[K, T]) First() *Node[T] {
	if c.root == nil {
		return nil
	}
	return c.root.min()
}

// Last returns the node with the largest key or nil.
func (c *Core[K, T]) Last() *Node[T] {
	if c.root == nil {
		return nil
	}
	return c.root.max()
}

// Find returns a node whose key equals key, or nil.
// With duplicate keys any one of the equal nodes is returned.
func (c *Core[K, T]) Find(o *Ordering[K, T], key K) *Node[T] {
	n := c.root
	for n != nil {
		r := o.keyOf(key, n)
		switch {
		case r < 0:
			n = n.left
		case r > 0:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// LowerBound returns the first node whose key is >= key, or nil.
func (c *Core[K, T]) LowerBound(o *Ordering[K, T], key K) *Node[T] {
	var res *Node[T]
	for n := c.root; n != nil; {
		if o.keyOf(key, n) <= 0 {
			res = n
			n = n.left
		} else {
			n = n.right
		}
	}
	return res
}

// UpperBound returns the first node whose key is > key, or nil.
func (c *Core[K, T]) UpperBound(o *Ordering[K, T], key K) *Node[T] {
	var res *Node[T]
	for n := c.root; n != nil; {
		if o.keyOf(key, n) < 0 {
			res = n
			n = n.left
		} else {
			n = n.right
		}
	}
	return res
}

// seek descends towards key. It returns the node holding key if present,
// otherwise the parent the key would be attached to and the side.
func (c *Core[K, T]) seek(o *Ordering[K, T], key K) (found, parent *Node[T], left bool) {
	for n := c.root; n != nil; {
		r := o.keyOf(key, n)
		if r == 0 {
			return n, nil, false
		}
		parent, left = n, r < 0
		if left {
			n = n.left
		} else {
			n = n.right
		}
	}
	return nil, parent, left
}

// Insert adds v unless a node with an equal key exists. It returns the new
// node and true, or the existing node and false. The node is allocated only
// after the duplicate check, so a rejected insert leaves no garbage behind.
func (c *Core[K, T]) Insert(o *Ordering[K, T], v T) (*Node[T], bool) {
	found, parent, left := c.seek(o, o.Key(&v))
	if found != nil {
		return found, false
	}
	n := &Node[T]{Value: v}
	c.link(parent, n, left)
	return n, true
}

// InsertMulti adds v even if equal keys exist and returns the new node.
func (c *Core[K, T]) InsertMulti(o *Ordering[K, T], v T) *Node[T] {
	n := &Node[T]{Value: v}
	c.PushMulti(o, n)
	return n
}

// Push links a detached node unless its key is already present.
// It returns the node now holding the key and whether n was linked.
func (c *Core[K, T]) Push(o *Ordering[K, T], n *Node[T]) (*Node[T], bool) {
	found, parent, left := c.seek(o, o.Key(&n.Value))
	if found != nil {
		return found, false
	}
	c.link(parent, n, left)
	return n, true
}

// PushMulti links a detached node without a duplicate check. Among equal
// keys the descent follows the currently shorter subtree.
func (c *Core[K, T]) PushMulti(o *Ordering[K, T], n *Node[T]) {
	key := o.Key(&n.Value)
	var (
		parent *Node[T]
		left   bool
	)
	for cur := c.root; cur != nil; {
		parent = cur
		if r := o.keyOf(key, cur); r != 0 {
			left = r < 0
		} else {
			left = cur.left.Height() <= cur.right.Height()
		}
		if left {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	c.link(parent, n, left)
}

// Extract detaches the node holding key and returns it, or nil.
// The payload is untouched; the caller owns the node afterwards.
func (c *Core[K, T]) Extract(o *Ordering[K, T], key K) *Node[T] {
	n := c.Find(o, key)
	if n == nil {
		return nil
	}
	c.Remove(n)
	return n
}

// Remove detaches n, which must be linked into c.
func (c *Core[K, T]) Remove(n *Node[T]) {
	var fix *Node[T]

	switch {
	case n.left != nil && n.right != nil:
		// replace n by its in-order successor s (s has no left child)
		s := n.right.min()
		if s == n.right {
			fix = s
		} else {
			fix = s.parent
			fix.left = s.right
			if s.right != nil {
				s.right.parent = fix
			}
			s.right = n.right
			s.right.parent = s
		}
		s.left = n.left
		s.left.parent = s
		s.height = n.height
		c.replace(n, s)
	case n.left != nil:
		fix = n.parent
		c.replace(n, n.left)
	default:
		fix = n.parent
		c.replace(n, n.right)
	}

	n.reset()
	c.rebalance(fix)
}

// Drain detaches every node and passes it to fn, leaving the tree empty.
// Nodes are handed out bottom-up and fully unlinked, so fn may push them
// into another tree right away. No node is allocated or freed.
func (c *Core[K, T]) Drain(fn func(n *Node[T])) {
	n := c.root
	c.root = nil
	for n != nil {
		if n.left != nil {
			n = n.left
			continue
		}
		if n.right != nil {
			n = n.right
			continue
		}
		p := n.parent
		if p != nil {
			if p.left == n {
				p.left = nil
			} else {
				p.right = nil
			}
		}
		n.reset()
		fn(n)
		n = p
	}
}

// Clear drops all nodes.
func (c *Core[K, T]) Clear() {
	c.root = nil
}

// Range calls fn for every value in ascending key order until fn returns
// false. It reports whether the iteration ran to completion.
func (c *Core[K, T]) Range(fn func(v *T) bool) bool {
	for n := c.First(); n != nil; n = n.Next() {
		if !fn(&n.Value) {
			return false
		}
	}
	return true
}

// Count walks the tree and returns the number of nodes. O(n).
func (c *Core[K, T]) Count() int {
	cnt := 0
	for n := c.First(); n != nil; n = n.Next() {
		cnt++
	}
	return cnt
}

// --------------------------------------------------------------------------
// Linking and rebalancing
// --------------------------------------------------------------------------

// link attaches the detached node n below parent and rebalances.
func (c *Core[K, T]) link(parent, n *Node[T], left bool) {
	n.reset()
	n.parent = parent
	switch {
	case parent == nil:
		c.root = n
		return
	case left:
		parent.left = n
	default:
		parent.right = n
	}
	c.rebalance(parent)
}

// replace puts x (may be nil) into n's position below n's parent.
func (c *Core[K, T]) replace(n, x *Node[T]) {
	p := n.parent
	if x != nil {
		x.parent = p
	}
	switch {
	case p == nil:
		c.root = x
	case p.left == n:
		p.left = x
	default:
		p.right = x
	}
}

// rebalance walks from n to the root, fixing heights and rotating where the
// balance factor reached ±2. It stops at the first node whose subtree height
// did not change: nothing above it can be affected.
func (c *Core[K, T]) rebalance(n *Node[T]) {
	for n != nil {
		old := n.height
		switch b := n.balance(); {
		case b > 1:
			if n.left.balance() < 0 {
				c.rotateLeft(n.left)
			}
			n = c.rotateRight(n)
		case b < -1:
			if n.right.balance() > 0 {
				c.rotateRight(n.right)
			}
			n = c.rotateLeft(n)
		default:
			n.update()
		}
		if n.height == old {
			return
		}
		n = n.parent
	}
}

// rotateLeft lifts n.right into n's place and returns it.
//
//	  n               r
//	 / \             / \
//	a   r    =>     n   z
//	   / \         / \
//	  y   z       a   y
func (c *Core[K, T]) rotateLeft(n *Node[T]) *Node[T] {
	r := n.right
	n.right = r.left
	if r.left != nil {
		r.left.parent = n
	}
	c.replace(n, r)
	r.left = n
	n.parent = r
	n.update()
	r.update()
	return r
}

// rotateRight is the mirror of rotateLeft.
func (c *Core[K, T]) rotateRight(n *Node[T]) *Node[T] {
	l := n.left
	n.left = l.right
	if l.right != nil {
		l.right.parent = n
	}
	c.replace(n, l)
	l.right = n
	n.parent = l
	n.update()
	l.update()
	return l
}

// --------------------------------------------------------------------------
// Verification
// --------------------------------------------------------------------------

var (
	ErrBrokenLink = errors.New("avl: broken parent link")
	ErrHeight     = errors.New("avl: stale height")
	ErrBalance    = errors.New("avl: balance factor out of range")
	ErrOrder      = errors.New("avl: keys out of order")
)

// Verify checks parent links, heights, the AVL balance invariant and the key
// order of the whole tree. It is meant for tests and debugging. O(n).
func (c *Core[K, T]) Verify(o *Ordering[K, T]) error {
	if c.root == nil {
		return nil
	}
	if c.root.parent != nil {
		return fmt.Errorf("%w: root has a parent", ErrBrokenLink)
	}
	if _, err := verifyNode(c.root); err != nil {
		return err
	}

	prev := c.First()
	for n := prev.Next(); n != nil; prev, n = n, n.Next() {
		if o.Compare(o.Key(&prev.Value), o.Key(&n.Value)) > 0 {
			return ErrOrder
		}
	}
	return nil
}

func verifyNode[T any](n *Node[T]) (int, error) {
	if n == nil {
		return 0, nil
	}
	if n.left != nil && n.left.parent != n {
		return 0, fmt.Errorf("%w: left child", ErrBrokenLink)
	}
	if n.right != nil && n.right.parent != n {
		return 0, fmt.Errorf("%w: right child", ErrBrokenLink)
	}
	lh, err := verifyNode(n.left)
	if err != nil {
		return 0, err
	}
	rh, err := verifyNode(n.right)
	if err != nil {
		return 0, err
	}
	if h := 1 + max(lh, rh); n.height != h {
		return 0, fmt.Errorf("%w: stored %d, computed %d", ErrHeight, n.height, h)
	}
	if d := lh - rh; d > 1 || d < -1 {
		return 0, fmt.Errorf("%w: %d", ErrBalance, d)
	}
	return n.height, nil
}
