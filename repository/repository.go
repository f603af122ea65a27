package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ammiranda/department_service/nestedset"
)

// Store defines the interface for department persistence.
// It provides transactional access to a flat table of nested-set nodes.
type Store interface {
	// Initialize performs any necessary setup for the store.
	// This may include establishing database connections and running
	// schema migrations. Returns an error if initialization fails.
	Initialize(ctx context.Context) error

	// Cleanup releases the resources held by the store.
	Cleanup(ctx context.Context) error

	// Atomically runs fn inside a read-write transaction that serializes
	// with every other structural mutation. The transaction commits when fn
	// returns nil and rolls back, discarding every write, otherwise.
	Atomically(ctx context.Context, fn func(tx Tx) error) error

	// ReadOnly runs fn against a consistent committed snapshot. Writes
	// through the Tx return ErrReadOnly.
	ReadOnly(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside a transaction. Every method
// returning several nodes orders them by left index.
type Tx interface {
	// FindByID returns ErrNodeNotFound if no department has the given id
	FindByID(ctx context.Context, id int64) (nestedset.Node, error)

	// FindByIndexRange returns the departments matched by the selector
	FindByIndexRange(ctx context.Context, where nestedset.Selector) ([]nestedset.Node, error)

	// FindRoots returns the departments without a parent
	FindRoots(ctx context.Context) ([]nestedset.Node, error)

	// FindAll returns every department
	FindAll(ctx context.Context) ([]nestedset.Node, error)

	// MaxRightIndex returns the largest right index, 0 for an empty table
	MaxRightIndex(ctx context.Context) (int, error)

	// Insert stores a new department and returns its assigned id
	Insert(ctx context.Context, n nestedset.Node) (int64, error)

	// Save overwrites every column of an existing department
	Save(ctx context.Context, n nestedset.Node) error

	// BulkUpdateIndices executes one conditional update and returns the
	// number of rows it touched
	BulkUpdateIndices(ctx context.Context, u nestedset.IndexUpdate) (int64, error)

	// Delete removes the departments matched by the selector and returns
	// how many were removed
	Delete(ctx context.Context, where nestedset.Selector) (int64, error)
}

// Common errors
var (
	// ErrNodeNotFound is returned when a requested node does not exist
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input")
	// ErrReadOnly is returned when a read-only transaction attempts a write
	ErrReadOnly = errors.New("read-only transaction")
)

// validateSelector rejects selectors a store cannot evaluate
func validateSelector(sel nestedset.Selector) error {
	if err := sel.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
