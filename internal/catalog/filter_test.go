package catalog

import (
	"reflect"
	"testing"
)

func sampleTree() []Node {
	return []Node{
		{
			ID:   "1",
			Name: "Search",
			Children: []Node{
				{ID: "1.1", Name: "Google", URL: "https://www.google.com"},
				{ID: "1.2", Name: "Pending"},
				{
					ID:   "1.3",
					Name: "Engines",
					Children: []Node{
						{ID: "1.3.1", Name: "Bing", URL: "https://www.bing.com"},
						{ID: "1.3.2", Name: "Blank", URL: ""},
					},
				},
			},
		},
		{ID: "2", Name: "Orphan"},
		{ID: "3", Name: "Go", URL: "https://go.dev"},
	}
}

func ids(nodes []Node) []NodeID {
	var out []NodeID
	Walk(nodes, func(n Node, _ int) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

func disabledIDs(nodes []Node) map[NodeID]bool {
	out := make(map[NodeID]bool)
	Walk(nodes, func(n Node, _ int) bool {
		if n.Disabled {
			out[n.ID] = true
		}
		return true
	})
	return out
}

func TestAnnotate_DisablesLeavesWithoutURL(t *testing.T) {
	got := Annotate(sampleTree())

	want := map[NodeID]bool{"1.2": true, "1.3.2": true, "2": true}
	if d := disabledIDs(got); !reflect.DeepEqual(d, want) {
		t.Errorf("disabled = %v, want %v", d, want)
	}
}

func TestAnnotate_PreservesShapeAndOrder(t *testing.T) {
	in := sampleTree()
	got := Annotate(in)

	if !reflect.DeepEqual(ids(got), ids(in)) {
		t.Errorf("ids = %v, want %v", ids(got), ids(in))
	}
}

func TestAnnotate_DoesNotMutateInput(t *testing.T) {
	in := sampleTree()
	_ = Annotate(in)

	if d := disabledIDs(in); len(d) != 0 {
		t.Errorf("input was modified, disabled = %v", d)
	}
	if !reflect.DeepEqual(in, sampleTree()) {
		t.Error("input tree changed")
	}
}

func TestAnnotate_ParentsNeverDisabled(t *testing.T) {
	got := Annotate(sampleTree())
	Walk(got, func(n Node, _ int) bool {
		if !n.IsLeaf() && n.Disabled {
			t.Errorf("node %s has children but is disabled", n.ID)
		}
		return true
	})
}

func TestAnnotate_KeepsExistingFlagOnNavigableLeaf(t *testing.T) {
	in := []Node{{ID: "a", URL: "https://example.com", Disabled: true}}
	got := Annotate(in)
	if !got[0].Disabled {
		t.Error("navigable leaf lost its existing disabled flag")
	}
}

func TestAnnotate_Empty(t *testing.T) {
	for _, in := range [][]Node{nil, {}} {
		got := Annotate(in)
		if got == nil || len(got) != 0 {
			t.Errorf("Annotate(%v) = %#v, want empty slice", in, got)
		}
	}
}

func TestAnnotate_EmptyChildrenIsLeaf(t *testing.T) {
	got := Annotate([]Node{{ID: "a", Children: []Node{}}})
	if !got[0].Disabled {
		t.Error("node with empty children and no url should be disabled")
	}
}

func TestCount(t *testing.T) {
	total, navigable := Count(sampleTree())
	if total != 8 {
		t.Errorf("total = %d, want 8", total)
	}
	if navigable != 3 {
		t.Errorf("navigable = %d, want 3", navigable)
	}
}
