package avl

// Node is a tree node. The tree owns its nodes; parent is a back-reference
// used for upward traversal only.
type Node[T any] struct {
	Value T

	parent *Node[T]
	left   *Node[T]
	right  *Node[T]
	height int
}

// Payload returns a pointer to the stored value.
func (n *Node[T]) Payload() *T {
	return &n.Value
}

// Height returns the height of the subtree rooted at n (0 for nil).
func (n *Node[T]) Height() int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *Node[T]) Left() *Node[T]   { return n.left }
func (n *Node[T]) Right() *Node[T]  { return n.right }
func (n *Node[T]) Parent() *Node[T] { return n.parent }

// Next returns the in-order successor of n, or nil at the end.
func (n *Node[T]) Next() *Node[T] {
	if n.right != nil {
		return n.right.min()
	}
	c, p := n, n.parent
	for p != nil && p.right == c {
		c, p = p, p.parent
	}
	return p
}

// Prev returns the in-order predecessor of n, or nil at the beginning.
func (n *Node[T]) Prev() *Node[T] {
	if n.left != nil {
		return n.left.max()
	}
	c, p := n, n.parent
	for p != nil && p.left == c {
		c, p = p, p.parent
	}
	return p
}

func (n *Node[T]) min() *Node[T] {
	for n.left != nil {
		n = n.left
	}
	return n
}

func (n *Node[T]) max() *Node[T] {
	for n.right != nil {
		n = n.right
	}
	return n
}

// balance is height(left) - height(right).
func (n *Node[T]) balance() int {
	return n.left.Height() - n.right.Height()
}

// update recomputes the height from the children.
func (n *Node[T]) update() {
	n.height = 1 + max(n.left.Height(), n.right.Height())
}

// reset unlinks n and makes it a fresh leaf.
func (n *Node[T]) reset() {
	n.parent = nil
	n.left = nil
	n.right = nil
	n.height = 1
}
