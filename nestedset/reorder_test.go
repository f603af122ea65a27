package nestedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderClosesGaps(t *testing.T) {
	// A [1,8] with B [2,3] and C [6,7]; D [13,14]; a deleted subtree left [4,5] and [9,12] empty
	nodes := []Node{
		{ID: 4, Name: "D", Left: 13, Right: 14, RootID: 4},
		{ID: 1, Name: "A", Left: 1, Right: 8, RootID: 1},
		{ID: 3, Name: "C", Left: 6, Right: 7, Level: 1, RootID: 1, ParentID: ptr(1)},
		{ID: 2, Name: "B", Left: 2, Right: 3, Level: 1, RootID: 1, ParentID: ptr(1)},
	}

	all, changed := Reorder(nodes)

	require.NoError(t, VerifyDense(all))
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(all))
	assert.Equal(t, [2]int{1, 6}, [2]int{all[0].Left, all[0].Right})
	assert.Equal(t, [2]int{2, 3}, [2]int{all[1].Left, all[1].Right})
	assert.Equal(t, [2]int{4, 5}, [2]int{all[2].Left, all[2].Right})
	assert.Equal(t, [2]int{7, 8}, [2]int{all[3].Left, all[3].Right})
	assert.Equal(t, []string{"A", "C", "D"}, names(changed), "B already sat at its final span")
	assert.Equal(t, 13, nodes[0].Left, "input is not modified")
}

func TestReorderDenseForestIsUnchanged(t *testing.T) {
	f, _ := sample(t)
	all, changed := Reorder(f.nodes)
	assert.Empty(t, changed)
	assert.NoError(t, VerifyDense(all))
}

func TestReorderEmpty(t *testing.T) {
	all, changed := Reorder(nil)
	assert.Empty(t, all)
	assert.Empty(t, changed)
}

func TestDeleteRestoresEmptyForest(t *testing.T) {
	f := newForest(t)
	x := f.root("X")
	f.remove(x.ID)
	assert.Empty(t, f.nodes)

	y := f.root("Y")
	assert.Equal(t, [2]int{1, 2}, f.span(y.ID), "the next insert reuses index 1")
}

func TestDeleteSubtreeReindexes(t *testing.T) {
	f, ids := sample(t)
	f.remove(ids["A"])

	require.Len(t, f.nodes, 1)
	assert.Equal(t, [2]int{1, 2}, f.span(ids["D"]))
}

func TestDeleteInnerSubtree(t *testing.T) {
	f, ids := sample(t)
	f.remove(ids["B"])

	assert.Equal(t, []string{"A", "C", "D"}, names(f.nodes))
	assert.Equal(t, [2]int{1, 4}, f.span(ids["A"]))
	assert.Equal(t, [2]int{2, 3}, f.span(ids["C"]))
	assert.Equal(t, [2]int{5, 6}, f.span(ids["D"]))
}
