package nestedset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// forest drives the engine the way a store does, against a plain slice
type forest struct {
	t      *testing.T
	nodes  []Node
	nextID int64
}

func newForest(t *testing.T) *forest {
	return &forest{t: t}
}

func (f *forest) get(id int64) Node {
	for _, n := range f.nodes {
		if n.ID == id {
			return n
		}
	}
	f.t.Fatalf("department %d not in forest", id)
	return Node{}
}

func (f *forest) root(name string) Node {
	n := NewRoot(name, MaxRight(f.nodes))
	f.nextID++
	n.BindRoot(f.nextID)
	f.nodes = append(f.nodes, n)
	f.verify()
	return n
}

func (f *forest) child(name string, parentID int64) Node {
	n, shift := NewChild(name, f.get(parentID))
	f.nodes = Apply(f.nodes, shift...)
	f.nextID++
	n.ID = f.nextID
	f.nodes = append(f.nodes, n)
	f.verify()
	return n
}

func (f *forest) move(id int64, parentID *int64) error {
	n := f.get(id)
	var parent *Node
	if parentID != nil {
		p := f.get(*parentID)
		parent = &p
	}
	members := IDs(Query(f.nodes, Subtree(n)))
	plan, err := PlanMove(n, parent, MaxRight(f.nodes), members)
	if err != nil {
		return err
	}
	f.nodes = Apply(f.nodes, plan.Updates...)
	for i := range f.nodes {
		if f.nodes[i].ID == id {
			f.nodes[i].ParentID = plan.ParentID
		}
	}
	moved := f.get(id)
	require.Equal(f.t, plan.Left, moved.Left)
	require.Equal(f.t, plan.Right, moved.Right)
	require.Equal(f.t, plan.Level, moved.Level)
	f.verify()
	return nil
}

func (f *forest) remove(id int64) {
	n := f.get(id)
	doomed := Subtree(n)
	var keep []Node
	for _, candidate := range f.nodes {
		if !doomed.Matches(candidate) {
			keep = append(keep, candidate)
		}
	}
	f.nodes, _ = Reorder(keep)
	require.NoError(f.t, VerifyDense(f.nodes))
}

func (f *forest) verify() {
	f.t.Helper()
	require.NoError(f.t, Verify(f.nodes))
}

func (f *forest) span(id int64) [2]int {
	n := f.get(id)
	return [2]int{n.Left, n.Right}
}

func ptr(id int64) *int64 {
	return &id
}
