// Package catalog models the category/link tree users pick a target from.
//
// Trees are treated as immutable values: Annotate returns a new tree and the
// lookup functions never modify their input, so one loaded catalog can be
// shared by concurrent requests.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NodeID identifies a node. Catalog sources use both string and numeric ids,
// so JSON numbers are accepted and kept in their decimal form.
type NodeID string

// UnmarshalJSON accepts a JSON string or number.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("node id must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*id = NodeID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = NodeID(n.String())
	return nil
}

// Node is one entry of the catalog tree.
// A node is a leaf when it has no children; a leaf is navigable when it has a URL.
type Node struct {
	ID       NodeID `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Children []Node `json:"children,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Navigable reports whether the node is a leaf carrying a non-empty URL.
func (n Node) Navigable() bool {
	return n.IsLeaf() && n.URL != ""
}

// Walk visits every node in depth-first pre-order. Returning false from fn
// stops the walk.
func Walk(nodes []Node, fn func(n Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []Node, depth int, fn func(n Node, depth int) bool) bool {
	for _, n := range nodes {
		if !fn(n, depth) {
			return false
		}
		if !walk(n.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// Count returns the total number of nodes and the number of navigable leaves.
func Count(nodes []Node) (total, navigable int) {
	Walk(nodes, func(n Node, _ int) bool {
		total++
		if n.Navigable() {
			navigable++
		}
		return true
	})
	return total, navigable
}
