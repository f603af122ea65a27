package nestedset

// OpenGap makes room for width slots at index at. Every left index at or
// after the point moves right by width, and so does every right index,
// which widens each span that encloses the point.
func OpenGap(at, width int) []IndexUpdate {
	return []IndexUpdate{
		{Where: Where(Cond(ColumnLeft, OpGTE, at)), DeltaLeft: width},
		{Where: Where(Cond(ColumnRight, OpGTE, at)), DeltaRight: width},
	}
}

// CloseGap removes a vacated gap of width slots ending at end. Nodes listed
// in skip are left alone.
func CloseGap(end, width int, skip []int64) []IndexUpdate {
	return []IndexUpdate{
		{Where: Selector{Conditions: []Condition{Cond(ColumnLeft, OpGT, end)}, ExcludeIDs: skip}, DeltaLeft: -width},
		{Where: Selector{Conditions: []Condition{Cond(ColumnRight, OpGT, end)}, ExcludeIDs: skip}, DeltaRight: -width},
	}
}

// NewChild positions a new last child of parent and returns the shift that
// must run before the child is stored. The child takes the parent's current
// right index; the parent and every node after it move right by two.
func NewChild(name string, parent Node) (Node, []IndexUpdate) {
	parentID := parent.ID
	child := Node{
		Name:     name,
		ParentID: &parentID,
		Left:     parent.Right,
		Right:    parent.Right + 1,
		Level:    parent.Level + 1,
		RootID:   parent.RootID,
	}
	return child, OpenGap(parent.Right, 2)
}
