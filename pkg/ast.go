package maquibc

import (
	"fmt"
	"io"
	"strings"
)

// Node is an optional syntax-tree collaborator: a labeled node with ordered children. It carries
// no weight in code generation — the parser can build bytecode without ever constructing one —
// but is useful for debugging and is built when requested via the parser's tree option.
type Node struct {
	Label    string
	Children []*Node
}

// NewNode returns a leaf node labeled label.
func NewNode(label string) *Node {
	return &Node{Label: label}
}

// AddChild appends child to n's children and returns n, to allow chaining during construction.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return n
}

// PrintTree writes an indented dump of root to w, one label per line, nested children indented
// two spaces per depth level.
func PrintTree(w io.Writer, root *Node) {
	printTree(w, root, 0)
}

func printTree(w io.Writer, n *Node, depth int) {
	if n == nil {
		return
	}

	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.Label)
	for _, child := range n.Children {
		printTree(w, child, depth+1)
	}
}
