package catalog

// Annotate returns a copy of nodes in which every leaf without a URL is
// marked Disabled. Nodes with children are copied as-is apart from their
// annotated descendants, and leaves with a URL keep whatever Disabled value
// they already had. No node is added, removed or reordered.
//
// The input tree is not modified.
func Annotate(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		if !n.IsLeaf() {
			n.Children = Annotate(n.Children)
		} else if n.URL == "" {
			n.Disabled = true
		}
		out[i] = n
	}
	return out
}
