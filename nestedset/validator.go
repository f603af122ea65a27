package nestedset

import "fmt"

// ValidateParent decides whether candidate may become the parent of n.
// Containment is checked on the indices, never by walking parent pointers,
// so a corrupted parent chain cannot send it into a loop.
func ValidateParent(n, candidate Node) error {
	if candidate.ID == n.ID {
		return fmt.Errorf("%w: department %d cannot be its own parent", ErrCycle, n.ID)
	}
	if candidate.Left >= n.Left && candidate.Right <= n.Right {
		return fmt.Errorf("%w: department %d lies inside %d", ErrCycle, candidate.ID, n.ID)
	}
	// direct back-reference that the spans failed to expose
	if candidate.ParentID != nil && *candidate.ParentID == n.ID {
		return fmt.Errorf("%w: department %d is a child of %d", ErrCycle, candidate.ID, n.ID)
	}
	return nil
}
