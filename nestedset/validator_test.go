package nestedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateParent(t *testing.T) {
	n := Node{ID: 2, Left: 2, Right: 7, Level: 1, RootID: 1, ParentID: ptr(1)}

	testCases := []struct {
		name      string
		candidate Node
		wantErr   bool
	}{
		{
			name:      "Self",
			candidate: n,
			wantErr:   true,
		},
		{
			name:      "Descendant",
			candidate: Node{ID: 3, Left: 3, Right: 4, Level: 2, RootID: 1, ParentID: ptr(2)},
			wantErr:   true,
		},
		{
			name:      "Grandchild",
			candidate: Node{ID: 4, Left: 5, Right: 6, Level: 3, RootID: 1, ParentID: ptr(5)},
			wantErr:   true,
		},
		{
			name:      "Corrupted back reference",
			candidate: Node{ID: 9, Left: 20, Right: 21, Level: 1, RootID: 8, ParentID: ptr(2)},
			wantErr:   true,
		},
		{
			name:      "Ancestor",
			candidate: Node{ID: 1, Left: 1, Right: 10, Level: 0, RootID: 1},
		},
		{
			name:      "Sibling",
			candidate: Node{ID: 6, Left: 8, Right: 9, Level: 1, RootID: 1, ParentID: ptr(1)},
		},
		{
			name:      "Other tree",
			candidate: Node{ID: 7, Left: 11, Right: 12, Level: 0, RootID: 7},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateParent(n, tc.candidate)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrCycle)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateParentMessage(t *testing.T) {
	n := Node{ID: 1, Left: 1, Right: 4}
	err := ValidateParent(n, Node{ID: 2, Left: 2, Right: 3, ParentID: ptr(1)})
	assert.Contains(t, err.Error(), "cannot set a department as its own descendant's parent")
}
