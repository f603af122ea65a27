package nestedset

import "fmt"

// Column names an integer column a Condition compares against. The values
// double as the SQL column names used by the stores.
type Column string

const (
	ColumnLeft  Column = "left_index"
	ColumnRight Column = "right_index"
	ColumnLevel Column = "level"
)

// Op is a comparison operator
type Op string

const (
	OpEQ  Op = "="
	OpLT  Op = "<"
	OpLTE Op = "<="
	OpGT  Op = ">"
	OpGTE Op = ">="
)

// Condition compares one column with a constant
type Condition struct {
	Column Column
	Op     Op
	Value  int
}

// Selector picks nodes by AND-ed index conditions. IDs, when non-nil,
// restricts the match to the listed ids; ExcludeIDs removes ids from it.
// An empty selector matches every node.
type Selector struct {
	Conditions []Condition
	IDs        []int64
	ExcludeIDs []int64
}

// Where builds a selector from conditions
func Where(conds ...Condition) Selector {
	return Selector{Conditions: conds}
}

// Cond is shorthand for a Condition literal
func Cond(col Column, op Op, value int) Condition {
	return Condition{Column: col, Op: op, Value: value}
}

// Validate rejects columns and operators outside the closed sets above.
// Stores call it before rendering a selector into SQL.
func (s Selector) Validate() error {
	for _, c := range s.Conditions {
		switch c.Column {
		case ColumnLeft, ColumnRight, ColumnLevel:
		default:
			return fmt.Errorf("unknown column %q", c.Column)
		}
		switch c.Op {
		case OpEQ, OpLT, OpLTE, OpGT, OpGTE:
		default:
			return fmt.Errorf("unknown operator %q", c.Op)
		}
	}
	return nil
}

// Matches evaluates the selector against a node in memory
func (s Selector) Matches(n Node) bool {
	return compile(s).matches(n)
}

func (c Condition) matches(n Node) bool {
	var v int
	switch c.Column {
	case ColumnLeft:
		v = n.Left
	case ColumnRight:
		v = n.Right
	case ColumnLevel:
		v = n.Level
	default:
		return false
	}
	switch c.Op {
	case OpEQ:
		return v == c.Value
	case OpLT:
		return v < c.Value
	case OpLTE:
		return v <= c.Value
	case OpGT:
		return v > c.Value
	case OpGTE:
		return v >= c.Value
	}
	return false
}
