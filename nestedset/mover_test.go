package nestedset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveAcrossTrees(t *testing.T) {
	f := newForest(t)
	a := f.root("A")
	b := f.child("B", a.ID)
	c := f.child("C", a.ID)
	d := f.root("D")
	require.Equal(t, [2]int{7, 8}, f.span(d.ID))

	require.NoError(t, f.move(b.ID, ptr(d.ID)))

	assert.Equal(t, [2]int{1, 4}, f.span(a.ID), "A shrinks by two")
	assert.Equal(t, [2]int{2, 3}, f.span(c.ID))
	assert.Equal(t, [2]int{5, 8}, f.span(d.ID), "D grows by two")
	assert.Equal(t, [2]int{6, 7}, f.span(b.ID))
	moved := f.get(b.ID)
	assert.Equal(t, d.ID, moved.RootID)
	assert.Equal(t, 1, moved.Level)
	assert.Equal(t, d.ID, *moved.ParentID)
}

func TestMoveRightToLeft(t *testing.T) {
	f := newForest(t)
	a := f.root("A")
	b := f.root("B")
	c := f.child("C", b.ID)

	require.NoError(t, f.move(c.ID, ptr(a.ID)))

	assert.Equal(t, [2]int{1, 4}, f.span(a.ID))
	assert.Equal(t, [2]int{2, 3}, f.span(c.ID))
	assert.Equal(t, [2]int{5, 6}, f.span(b.ID))
	assert.Equal(t, a.ID, f.get(c.ID).RootID)
}

func TestMoveWithinTreeForward(t *testing.T) {
	f := newForest(t)
	root := f.root("root")
	x := f.child("X", root.ID)
	x1 := f.child("X1", x.ID)
	y := f.child("Y", root.ID)

	// X (with X1) moves under its later sibling Y
	require.NoError(t, f.move(x.ID, ptr(y.ID)))

	assert.Equal(t, [2]int{1, 8}, f.span(root.ID))
	assert.Equal(t, [2]int{2, 7}, f.span(y.ID))
	assert.Equal(t, [2]int{3, 6}, f.span(x.ID))
	assert.Equal(t, [2]int{4, 5}, f.span(x1.ID))
	assert.Equal(t, 2, f.get(x.ID).Level)
	assert.Equal(t, 3, f.get(x1.ID).Level)
}

func TestMoveWithinTreeBackward(t *testing.T) {
	f := newForest(t)
	root := f.root("root")
	x := f.child("X", root.ID)
	y := f.child("Y", root.ID)
	y1 := f.child("Y1", y.ID)
	y2 := f.child("Y2", y1.ID)

	// Y1 (with Y2) moves under its parent's earlier sibling X
	require.NoError(t, f.move(y1.ID, ptr(x.ID)))

	assert.Equal(t, [2]int{2, 7}, f.span(x.ID))
	assert.Equal(t, [2]int{3, 6}, f.span(y1.ID))
	assert.Equal(t, [2]int{4, 5}, f.span(y2.ID))
	assert.Equal(t, [2]int{8, 9}, f.span(y.ID))
	assert.Equal(t, 2, f.get(y1.ID).Level)
	assert.Equal(t, 3, f.get(y2.ID).Level)
}

func TestMoveUpToGrandparent(t *testing.T) {
	f := newForest(t)
	root := f.root("root")
	a := f.child("A", root.ID)
	a1 := f.child("A1", a.ID)
	b := f.child("B", root.ID)

	require.NoError(t, f.move(a1.ID, ptr(root.ID)))

	assert.Equal(t, []string{"A", "B", "A1"}, names(Query(f.nodes, Children(f.get(root.ID)))),
		"a moved department becomes the last child")
	assert.Equal(t, 1, f.get(a1.ID).Level)
	assert.Equal(t, 0, f.get(a.ID).DescendantCount())
	assert.Equal(t, 0, f.get(b.ID).DescendantCount())
}

func TestMoveDownIntoDeeperBranch(t *testing.T) {
	f := newForest(t)
	root := f.root("root")
	a := f.child("A", root.ID)
	b := f.child("B", root.ID)
	b1 := f.child("B1", b.ID)
	b2 := f.child("B2", b1.ID)

	require.NoError(t, f.move(a.ID, ptr(b2.ID)))

	assert.Equal(t, 4, f.get(a.ID).Level)
	assert.Equal(t, []string{"root", "B", "B1", "B2"}, names(Query(f.nodes, Ancestors(f.get(a.ID)))))
}

func TestMoveToCurrentParent(t *testing.T) {
	f := newForest(t)
	root := f.root("root")
	a := f.child("A", root.ID)
	b := f.child("B", root.ID)

	before := f.span(b.ID)
	require.NoError(t, f.move(b.ID, ptr(root.ID)))
	assert.Equal(t, before, f.span(b.ID), "the last child stays in place")

	require.NoError(t, f.move(a.ID, ptr(root.ID)))
	assert.Equal(t, []string{"B", "A"}, names(Query(f.nodes, Children(f.get(root.ID)))))
}

func TestPromoteToRoot(t *testing.T) {
	f := newForest(t)
	a := f.root("A")
	b := f.child("B", a.ID)
	b1 := f.child("B1", b.ID)
	f.child("C", a.ID)
	d := f.root("D")

	require.NoError(t, f.move(b.ID, nil))

	promoted := f.get(b.ID)
	assert.Nil(t, promoted.ParentID)
	assert.Equal(t, 0, promoted.Level)
	assert.Equal(t, b.ID, promoted.RootID)
	assert.Equal(t, b.ID, f.get(b1.ID).RootID)
	assert.Equal(t, 1, f.get(b1.ID).Level)
	assert.Equal(t, []string{"A", "D", "B"}, names(Roots(f.nodes)))
	assert.Equal(t, [2]int{5, 6}, f.span(d.ID))
	assert.Equal(t, [2]int{7, 10}, f.span(b.ID))
}

func TestPromoteFromLastTree(t *testing.T) {
	f := newForest(t)
	a := f.root("A")
	b := f.child("B", a.ID)

	require.NoError(t, f.move(b.ID, nil))

	assert.Equal(t, [2]int{1, 2}, f.span(a.ID))
	assert.Equal(t, [2]int{3, 4}, f.span(b.ID))
}

func TestMoveRejectsCycles(t *testing.T) {
	f := newForest(t)
	a := f.root("A")
	b := f.child("B", a.ID)
	c := f.child("C", b.ID)
	snapshot := Apply(f.nodes)

	assert.ErrorIs(t, f.move(a.ID, ptr(b.ID)), ErrCycle)
	assert.ErrorIs(t, f.move(a.ID, ptr(c.ID)), ErrCycle)
	assert.ErrorIs(t, f.move(b.ID, ptr(b.ID)), ErrCycle)
	assert.Equal(t, snapshot, f.nodes, "a rejected move plans nothing")
}

func TestPlanMoveRequiresLocatedSubtree(t *testing.T) {
	n := Node{ID: 1, Left: 1, Right: 4, RootID: 1}

	_, err := PlanMove(n, nil, 4, nil)
	assert.ErrorIs(t, err, ErrInvariant)

	_, err = PlanMove(n, nil, 4, []int64{1})
	assert.ErrorIs(t, err, ErrInvariant, "span says one descendant, none located")

	_, err = PlanMove(n, nil, 4, []int64{1, 2})
	assert.NoError(t, err)
}

// TestRandomOperations drives long random sequences of inserts, moves and
// deletes and checks the whole encoding after every step.
func TestRandomOperations(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		f := newForest(t)
		parents := map[int64]*int64{}

		for step := 0; step < 200; step++ {
			switch op := rng.Intn(10); {
			case len(f.nodes) == 0 || op == 0:
				n := f.root("r")
				parents[n.ID] = nil
			case op < 5:
				p := f.nodes[rng.Intn(len(f.nodes))]
				n := f.child("c", p.ID)
				parents[n.ID] = ptr(p.ID)
			case op < 9:
				n := f.nodes[rng.Intn(len(f.nodes))]
				var target *int64
				wantCycle := false
				if rng.Intn(5) > 0 {
					p := f.nodes[rng.Intn(len(f.nodes))]
					target = ptr(p.ID)
					wantCycle = ValidateParent(n, p) != nil
				}
				err := f.move(n.ID, target)
				if wantCycle {
					require.ErrorIs(t, err, ErrCycle)
					continue
				}
				require.NoError(t, err)
				parents[n.ID] = target
			default:
				n := f.nodes[rng.Intn(len(f.nodes))]
				for _, gone := range Query(f.nodes, Subtree(n)) {
					delete(parents, gone.ID)
				}
				f.remove(n.ID)
			}

			require.Len(t, f.nodes, len(parents), "seed %d step %d", seed, step)
			for _, n := range f.nodes {
				require.Equal(t, parents[n.ID], n.ParentID, "seed %d step %d department %d", seed, step, n.ID)
			}
		}
	}
}
