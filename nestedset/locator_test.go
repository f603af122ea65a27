package nestedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// sample builds
//
//	A
//	├── B
//	│   └── E
//	└── C
//	D
func sample(t *testing.T) (*forest, map[string]int64) {
	f := newForest(t)
	a := f.root("A")
	b := f.child("B", a.ID)
	c := f.child("C", a.ID)
	e := f.child("E", b.ID)
	d := f.root("D")
	return f, map[string]int64{"A": a.ID, "B": b.ID, "C": c.ID, "D": d.ID, "E": e.ID}
}

func names(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestLocatorQueries(t *testing.T) {
	f, ids := sample(t)
	a, b, e := f.get(ids["A"]), f.get(ids["B"]), f.get(ids["E"])

	assert.Equal(t, []string{"B", "E", "C"}, names(Query(f.nodes, Descendants(a))))
	assert.Equal(t, []string{"A", "B", "E", "C"}, names(Query(f.nodes, Subtree(a))))
	assert.Equal(t, []string{"B", "C"}, names(Query(f.nodes, Children(a))))
	assert.Equal(t, []string{"E"}, names(Query(f.nodes, Children(b))))
	assert.Equal(t, []string{"A", "B"}, names(Query(f.nodes, Ancestors(e))))
	assert.Empty(t, Query(f.nodes, Ancestors(a)))
	assert.Empty(t, Query(f.nodes, Descendants(e)))
	assert.Equal(t, []string{"A", "D"}, names(Roots(f.nodes)))
}

func TestDescendantCountMatchesQuery(t *testing.T) {
	f, _ := sample(t)
	for _, n := range f.nodes {
		assert.Len(t, Query(f.nodes, Descendants(n)), n.DescendantCount(), n.Name)
	}
}

func TestSelectorMatchesIDSets(t *testing.T) {
	n := Node{ID: 5, Left: 3, Right: 4}

	assert.True(t, Selector{}.Matches(n))
	assert.True(t, Selector{IDs: []int64{1, 5}}.Matches(n))
	assert.False(t, Selector{IDs: []int64{}}.Matches(n), "an empty id set matches nothing")
	assert.False(t, Selector{ExcludeIDs: []int64{5}}.Matches(n))
	assert.False(t, Selector{IDs: []int64{5}, Conditions: []Condition{Cond(ColumnLeft, OpGT, 3)}}.Matches(n))
}

func TestSelectorValidate(t *testing.T) {
	assert.NoError(t, Subtree(Node{Left: 1, Right: 2}).Validate())
	assert.Error(t, Where(Cond("id; DROP TABLE departments", OpEQ, 1)).Validate())
	assert.Error(t, Where(Cond(ColumnLeft, "<>", 1)).Validate())
}
