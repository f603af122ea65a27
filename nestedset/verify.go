package nestedset

import "fmt"

// Verify checks a full snapshot of the forest against the nested-set
// encoding and returns an error wrapping ErrInvariant for the first
// violation found. Spans must be well formed, globally unique and properly
// nested; the innermost enclosing span of every node must be its stored
// parent; level, root id and descendant count must agree with the nesting.
func Verify(nodes []Node) error {
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	SortByLeft(sorted)

	seen := make(map[int]int64, 2*len(nodes))
	for _, n := range sorted {
		if n.Left < 1 {
			return fmt.Errorf("%w: department %d has left index %d", ErrInvariant, n.ID, n.Left)
		}
		if n.Left >= n.Right {
			return fmt.Errorf("%w: department %d has span [%d, %d]", ErrInvariant, n.ID, n.Left, n.Right)
		}
		if (n.Right-n.Left)%2 == 0 {
			return fmt.Errorf("%w: department %d has even span width [%d, %d]", ErrInvariant, n.ID, n.Left, n.Right)
		}
		for _, idx := range [2]int{n.Left, n.Right} {
			if other, ok := seen[idx]; ok {
				return fmt.Errorf("%w: index %d used by departments %d and %d", ErrInvariant, idx, other, n.ID)
			}
			seen[idx] = n.ID
		}
	}

	type frame struct {
		node        Node
		descendants int
	}
	var stack []frame
	pop := func() error {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if got := top.node.DescendantCount(); got != top.descendants {
			return fmt.Errorf("%w: department %d spans %d descendants but contains %d",
				ErrInvariant, top.node.ID, got, top.descendants)
		}
		return nil
	}

	for _, n := range sorted {
		for len(stack) > 0 && stack[len(stack)-1].node.Right < n.Left {
			if err := pop(); err != nil {
				return err
			}
		}
		if len(stack) == 0 {
			if !n.IsRoot() {
				return fmt.Errorf("%w: department %d has parent %d but no enclosing span",
					ErrInvariant, n.ID, *n.ParentID)
			}
			if n.RootID != n.ID {
				return fmt.Errorf("%w: root %d has root id %d", ErrInvariant, n.ID, n.RootID)
			}
			if n.Level != 0 {
				return fmt.Errorf("%w: root %d has level %d", ErrInvariant, n.ID, n.Level)
			}
		} else {
			parent := stack[len(stack)-1].node
			if n.Right > parent.Right {
				return fmt.Errorf("%w: department %d [%d, %d] overlaps %d [%d, %d]",
					ErrInvariant, n.ID, n.Left, n.Right, parent.ID, parent.Left, parent.Right)
			}
			if n.ParentID == nil || *n.ParentID != parent.ID {
				return fmt.Errorf("%w: department %d is enclosed by %d but records parent %s",
					ErrInvariant, n.ID, parent.ID, formatParent(n.ParentID))
			}
			if n.Level != parent.Level+1 {
				return fmt.Errorf("%w: department %d has level %d under level %d",
					ErrInvariant, n.ID, n.Level, parent.Level)
			}
			if root := stack[0].node.ID; n.RootID != root {
				return fmt.Errorf("%w: department %d has root id %d, want %d", ErrInvariant, n.ID, n.RootID, root)
			}
			for i := range stack {
				stack[i].descendants++
			}
		}
		stack = append(stack, frame{node: n})
	}
	for len(stack) > 0 {
		if err := pop(); err != nil {
			return err
		}
	}
	return nil
}

// VerifyDense additionally requires the index space to be exactly 1..2n,
// the state a reorder leaves behind
func VerifyDense(nodes []Node) error {
	if err := Verify(nodes); err != nil {
		return err
	}
	if last := MaxRight(nodes); last != 2*len(nodes) {
		return fmt.Errorf("%w: %d departments end at index %d", ErrInvariant, len(nodes), last)
	}
	return nil
}

func formatParent(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}
