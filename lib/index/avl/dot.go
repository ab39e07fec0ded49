package avl

import (
	"fmt"

	"github.com/emicklei/dot"
)

// RenderDot renders the shape of t as a Graphviz digraph. label formats the
// value of a node; the height is appended to every label.
func RenderDot[K, T any](t *Tree[K, T], label func(v *T) string) string {
	graph := dot.NewGraph(dot.Directed)
	if t.core.root == nil {
		return graph.String()
	}

	var traverse func(n *Node[T], parent *dot.Node, direction string)
	traverse = func(n *Node[T], parent *dot.Node, direction string) {
		// pointer ids keep duplicate keys apart
		gn := graph.Node(fmt.Sprintf("%p", n)).
			Label(fmt.Sprintf("%s\nh=%d", label(&n.Value), n.height))
		if parent != nil {
			parent.Edge(gn, direction)
		}
		if n.left != nil {
			traverse(n.left, &gn, "l")
		}
		if n.right != nil {
			traverse(n.right, &gn, "r")
		}
	}
	traverse(t.core.root, nil, "")

	return graph.String()
}
