// Package nestedset maintains a forest encoded as nested sets.
//
// Every node carries a (left, right, level, rootID) quadruple. Containment
// and ordering are recovered by integer comparison alone, so ancestor,
// descendant and subtree queries are single range scans. The functions in
// this package are pure: they compute positions and IndexUpdate plans that a
// store executes inside one transaction, and Apply executes the same plans
// against an in-memory snapshot.
package nestedset

import "errors"

var (
	// ErrCycle is returned when a node would become its own ancestor
	ErrCycle = errors.New("cannot set a department as its own descendant's parent")
	// ErrInvariant is returned when a snapshot violates the nested-set encoding
	ErrInvariant = errors.New("nested set invariant violated")
)

// Node represents one department in the forest
type Node struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parentId"`
	Left     int    `json:"leftIndex"`
	Right    int    `json:"rightIndex"`
	Level    int    `json:"level"`
	RootID   int64  `json:"rootId"`
}

// IsRoot reports whether the node has no parent
func (n Node) IsRoot() bool {
	return n.ParentID == nil
}

// Width is the number of index slots spanned by the node and its descendants
func (n Node) Width() int {
	return n.Right - n.Left + 1
}

// DescendantCount derives the subtree size from the span alone
func (n Node) DescendantCount() int {
	return (n.Right - n.Left - 1) / 2
}

// Contains reports whether other lies strictly inside n's span
func (n Node) Contains(other Node) bool {
	return n.Left < other.Left && other.Right < n.Right
}

// Clone returns a copy that shares no pointers with n
func (n Node) Clone() Node {
	if n.ParentID != nil {
		parentID := *n.ParentID
		n.ParentID = &parentID
	}
	return n
}

// NewRoot is the first half of root creation: it positions a root after
// every existing span. The root id is unknown until the store assigns one,
// so the caller finishes with BindRoot.
func NewRoot(name string, maxRight int) Node {
	return Node{
		Name:  name,
		Left:  maxRight + 1,
		Right: maxRight + 2,
		Level: 0,
	}
}

// BindRoot completes root creation once the store has assigned an id
func (n *Node) BindRoot(id int64) {
	n.ID = id
	n.RootID = id
	n.ParentID = nil
}
