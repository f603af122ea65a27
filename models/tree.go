package models

import "github.com/ammiranda/department_service/nestedset"

// Department is the API representation of one department
type Department struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ParentID   *int64 `json:"parentId"`
	LeftIndex  int    `json:"leftIndex"`
	RightIndex int    `json:"rightIndex"`
	Level      int    `json:"level"`
	RootID     int64  `json:"rootId"`
}

// NewDepartment converts a stored node
func NewDepartment(n nestedset.Node) Department {
	n = n.Clone()
	return Department{
		ID:         n.ID,
		Name:       n.Name,
		ParentID:   n.ParentID,
		LeftIndex:  n.Left,
		RightIndex: n.Right,
		Level:      n.Level,
		RootID:     n.RootID,
	}
}

// NewDepartments converts a node list, never returning nil
func NewDepartments(nodes []nestedset.Node) []Department {
	out := make([]Department, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NewDepartment(n))
	}
	return out
}

// TreeNode is a department with its children nested below it
type TreeNode struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Level    int         `json:"level"`
	Children []*TreeNode `json:"children"`
}

// NewTreeNode creates a tree node without children
func NewTreeNode(n nestedset.Node) *TreeNode {
	return &TreeNode{
		ID:       n.ID,
		Name:     n.Name,
		Level:    n.Level,
		Children: make([]*TreeNode, 0),
	}
}

// AddChild adds a child node to the current node
func (t *TreeNode) AddChild(child *TreeNode) {
	t.Children = append(t.Children, child)
}

// BuildTree nests a list of nodes sorted by left index. Nodes whose parent
// is not part of the list become top-level entries, so a subtree listing
// yields exactly one entry and a whole forest yields one per root.
func BuildTree(nodes []nestedset.Node) []*TreeNode {
	byID := make(map[int64]*TreeNode, len(nodes))
	top := make([]*TreeNode, 0)

	for _, n := range nodes {
		tn := NewTreeNode(n)
		byID[n.ID] = tn

		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.AddChild(tn)
				continue
			}
		}
		top = append(top, tn)
	}
	return top
}
