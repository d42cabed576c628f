package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/Hyper5phere/simple-c-compiler/driver/lexer"
)

// ActionSet is a set of translation routines a parser calls.
type ActionSet interface {
	// Act runs the routine named by an action symbol. `tok` is the current lookahead, which the routine may
	// modify; the parser does not consume it. An error means the routine gave up and is logged by the parser.
	Act(action string, tok *lexer.Token) error
}

// ActionSets dispatches an action symbol to the first set whose prefix matches the symbol.
type ActionSets map[string]ActionSet

func (s ActionSets) Act(action string, tok *lexer.Token) error {
	for prefix, set := range s {
		if strings.HasPrefix(action, prefix) {
			return set.Act(action, tok)
		}
	}
	return fmt.Errorf("no routine handles %v", action)
}

type NodeType int

const (
	NodeTypeNonTerminal NodeType = iota
	NodeTypeTerminal
	NodeTypeEpsilon
)

// Node is a node of a parse tree. A terminal node has a token once the terminal has been matched.
type Node struct {
	Type     NodeType
	Name     string
	Token    *lexer.Token
	Children []*Node
	parent   *Node
}

func newNode(typ NodeType, name string, parent *Node) *Node {
	n := &Node{
		Type:   typ,
		Name:   name,
		parent: parent,
	}
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
	return n
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	cs := n.parent.Children
	for i, c := range cs {
		if c == n {
			n.parent.Children = append(cs[:i:i], cs[i+1:]...)
			break
		}
	}
	n.parent = nil
}

func (n *Node) dead() bool {
	switch n.Type {
	case NodeTypeTerminal:
		return n.Token == nil
	case NodeTypeEpsilon:
		return false
	}
	return len(n.Children) == 0
}

// prune removes the nodes that never derived anything. A parent emptied by the removal stays in the tree.
func prune(root *Node) {
	var dead []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.dead() {
			dead = append(dead, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	for _, n := range dead {
		n.detach()
	}
}

func (n *Node) label() string {
	switch n.Type {
	case NodeTypeTerminal:
		if n.Token != nil {
			return n.Token.String()
		}
	case NodeTypeEpsilon:
		return "epsilon"
	}
	return n.Name
}

func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	fmt.Fprintf(w, "%v%v\n", ruledLine, node.label())

	num := len(node.Children)
	for i, child := range node.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├── "
		} else {
			line = "└── "
		}

		var prefix string
		if i >= num-1 {
			prefix = "    "
		} else {
			prefix = "│   "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}
