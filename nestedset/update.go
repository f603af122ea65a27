package nestedset

// IndexUpdate is one bulk conditional update: every node matched by Where
// has the deltas added, and its root rebound when RootID is set.
type IndexUpdate struct {
	Where      Selector
	DeltaLeft  int
	DeltaRight int
	DeltaLevel int
	RootID     *int64
}

// IsNoop reports whether applying the update cannot change any node
func (u IndexUpdate) IsNoop() bool {
	if u.RootID != nil {
		return false
	}
	return u.DeltaLeft == 0 && u.DeltaRight == 0 && u.DeltaLevel == 0
}

// Apply executes updates in order against a copy of nodes and returns the
// copy. The input slice is left untouched.
func Apply(nodes []Node, updates ...IndexUpdate) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	for _, u := range updates {
		ApplyInPlace(out, u)
	}
	return out
}

// ApplyInPlace executes a single update against nodes and returns the number
// of nodes it matched
func ApplyInPlace(nodes []Node, u IndexUpdate) int {
	m := compile(u.Where)
	touched := 0
	for i := range nodes {
		if !m.matches(nodes[i]) {
			continue
		}
		nodes[i].Left += u.DeltaLeft
		nodes[i].Right += u.DeltaRight
		nodes[i].Level += u.DeltaLevel
		if u.RootID != nil {
			nodes[i].RootID = *u.RootID
		}
		touched++
	}
	return touched
}

// matcher is a Selector with its id lists turned into sets
type matcher struct {
	sel     Selector
	include map[int64]struct{}
	exclude map[int64]struct{}
}

func compile(s Selector) matcher {
	m := matcher{sel: s}
	if s.IDs != nil {
		m.include = make(map[int64]struct{}, len(s.IDs))
		for _, id := range s.IDs {
			m.include[id] = struct{}{}
		}
	}
	if len(s.ExcludeIDs) > 0 {
		m.exclude = make(map[int64]struct{}, len(s.ExcludeIDs))
		for _, id := range s.ExcludeIDs {
			m.exclude[id] = struct{}{}
		}
	}
	return m
}

func (m matcher) matches(n Node) bool {
	if m.include != nil {
		if _, ok := m.include[n.ID]; !ok {
			return false
		}
	}
	if _, ok := m.exclude[n.ID]; ok {
		return false
	}
	for _, c := range m.sel.Conditions {
		if !c.matches(n) {
			return false
		}
	}
	return true
}

// Filter returns the nodes matched by s, preserving order
func Filter(nodes []Node, s Selector) []Node {
	m := compile(s)
	var out []Node
	for _, n := range nodes {
		if m.matches(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}
