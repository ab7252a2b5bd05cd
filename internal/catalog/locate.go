package catalog

import (
	"log/slog"
)

// Lookup is the result of searching a tree by id.
// Found distinguishes "id present but childless" from "id not present".
type Lookup struct {
	Children []Node
	Found    bool
}

// FindChildren searches root and its descendants depth-first in pre-order
// and returns the children of the first node whose id equals id.
// A nil root is logged and reported as not found.
func FindChildren(root *Node, id NodeID) Lookup {
	if root == nil {
		slog.Error("catalog: invalid root node", "id", string(id))
		return Lookup{}
	}
	return find(*root, id)
}

// FindChildrenIn runs FindChildren over each top-level node in order and
// returns the first match.
func FindChildrenIn(nodes []Node, id NodeID) Lookup {
	for i := range nodes {
		if res := find(nodes[i], id); res.Found {
			return res
		}
	}
	return Lookup{}
}

func find(n Node, id NodeID) Lookup {
	if n.ID == id {
		return Lookup{Children: childrenOrEmpty(n.Children), Found: true}
	}
	for _, child := range n.Children {
		if res := find(child, id); res.Found {
			return res
		}
	}
	return Lookup{}
}

// ChildrenByID returns the children of the node identified by id, or an
// empty slice when no such node exists or it has no children.
//
// Siblings are searched in declaration order and the first subtree that
// yields a non-empty result wins; a matching node without children does not
// stop the search of later siblings. Use FindChildren when "not found" must
// be told apart from "found but childless".
func ChildrenByID(root *Node, id NodeID) []Node {
	if root == nil {
		slog.Error("catalog: invalid root node", "id", string(id))
		return []Node{}
	}
	return childrenByID(*root, id)
}

func childrenByID(n Node, id NodeID) []Node {
	if n.ID == id {
		return childrenOrEmpty(n.Children)
	}
	for _, child := range n.Children {
		if res := childrenByID(child, id); len(res) > 0 {
			return res
		}
	}
	return []Node{}
}

func childrenOrEmpty(children []Node) []Node {
	if children == nil {
		return []Node{}
	}
	return children
}
