package nestedset

import "sort"

// Descendants selects every node strictly inside n
func Descendants(n Node) Selector {
	return Where(
		Cond(ColumnLeft, OpGT, n.Left),
		Cond(ColumnRight, OpLT, n.Right),
	)
}

// Subtree selects n and every node inside it
func Subtree(n Node) Selector {
	return Where(
		Cond(ColumnLeft, OpGTE, n.Left),
		Cond(ColumnRight, OpLTE, n.Right),
	)
}

// Children selects the direct children of n
func Children(n Node) Selector {
	return Where(
		Cond(ColumnLeft, OpGT, n.Left),
		Cond(ColumnRight, OpLT, n.Right),
		Cond(ColumnLevel, OpEQ, n.Level+1),
	)
}

// Ancestors selects every node whose span strictly encloses n
func Ancestors(n Node) Selector {
	return Where(
		Cond(ColumnLeft, OpLT, n.Left),
		Cond(ColumnRight, OpGT, n.Right),
	)
}

// Roots returns the parentless nodes of a snapshot ordered by left index
func Roots(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		if n.IsRoot() {
			out = append(out, n.Clone())
		}
	}
	SortByLeft(out)
	return out
}

// Query evaluates a selector against a snapshot, ordered by left index
func Query(nodes []Node, s Selector) []Node {
	out := Filter(nodes, s)
	SortByLeft(out)
	return out
}

// IDs returns the ids of nodes in order
func IDs(nodes []Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// MaxRight returns the largest right index of a snapshot, 0 when empty
func MaxRight(nodes []Node) int {
	last := 0
	for _, n := range nodes {
		if n.Right > last {
			last = n.Right
		}
	}
	return last
}

// SortByLeft orders nodes by left index, the document order of the forest
func SortByLeft(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Left < nodes[j].Left
	})
}
