package nestedset

import "fmt"

// Move is the plan for relocating a subtree together with the final state
// of its top node
type Move struct {
	Updates  []IndexUpdate
	ParentID *int64
	RootID   int64
	Left     int
	Right    int
	Level    int
}

// PlanMove relocates n and its subtree to become the last child of parent,
// or a new root placed after every tree of the forest when parent is nil.
// members must hold the ids of n's subtree, n included, located before any
// update runs; relocation selects them by id because the gap opened at the
// destination can make their spans overlap other nodes mid-transaction.
//
// The plan runs in four steps: open a gap at the insertion point, relocate
// the members, close the gap they left behind and rebind their root.
func PlanMove(n Node, parent *Node, maxRight int, members []int64) (Move, error) {
	if !containsMember(members, n.ID) {
		return Move{}, fmt.Errorf("%w: subtree of department %d does not list it", ErrInvariant, n.ID)
	}
	if len(members) != n.DescendantCount()+1 {
		return Move{}, fmt.Errorf("%w: department %d spans %d descendants, located %d",
			ErrInvariant, n.ID, n.DescendantCount(), len(members)-1)
	}

	width := n.Width()
	// a promoted root goes after the last span, as if under a synthetic
	// parent one level above the forest
	insertAt, level, rootID := maxRight+1, 0, n.ID
	var parentID *int64
	if parent != nil {
		if err := ValidateParent(n, *parent); err != nil {
			return Move{}, err
		}
		insertAt = parent.Right
		level = parent.Level + 1
		rootID = parent.RootID
		id := parent.ID
		parentID = &id
	}

	// where the subtree sits once the destination gap is open
	current := n.Left
	if n.Left >= insertAt {
		current += width
	}
	// where it must land so that closing the source gap leaves it in place
	dest := insertAt
	if insertAt > n.Right {
		dest -= width
	}
	shift := dest - current

	updates := OpenGap(insertAt, width)
	updates = append(updates, IndexUpdate{
		Where:      Selector{IDs: members},
		DeltaLeft:  shift,
		DeltaRight: shift,
		DeltaLevel: level - n.Level,
		RootID:     &rootID,
	})
	updates = append(updates, CloseGap(current+width-1, width, members)...)

	return Move{
		Updates:  updates,
		ParentID: parentID,
		RootID:   rootID,
		Left:     dest,
		Right:    dest + width - 1,
		Level:    level,
	}, nil
}

func containsMember(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
