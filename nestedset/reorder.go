package nestedset

// Reorder renumbers a snapshot into the contiguous sequence 1..2n. Nodes are
// walked once in left order with a stack of open spans; a span closes when
// the next node starts past its old right index, so every node keeps its
// nesting and its width relative to what remains.
//
// It returns the renumbered snapshot sorted by left index and the subset of
// nodes whose indices changed.
func Reorder(nodes []Node) (all []Node, changed []Node) {
	all = make([]Node, len(nodes))
	for i, n := range nodes {
		all[i] = n.Clone()
	}
	SortByLeft(all)

	type open struct {
		idx   int
		right int
	}
	stack := make([]open, 0, 16)
	next := 1
	closeTop := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		all[top.idx].Right = next
		next++
	}

	for i := range all {
		for len(stack) > 0 && stack[len(stack)-1].right < all[i].Left {
			closeTop()
		}
		stack = append(stack, open{idx: i, right: all[i].Right})
		all[i].Left = next
		next++
	}
	for len(stack) > 0 {
		closeTop()
	}

	before := make(map[int64]Node, len(nodes))
	for _, n := range nodes {
		before[n.ID] = n
	}
	for _, n := range all {
		old := before[n.ID]
		if old.Left != n.Left || old.Right != n.Right {
			changed = append(changed, n)
		}
	}
	return all, changed
}
