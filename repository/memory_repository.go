package repository

import (
	"context"
	"sync"

	"github.com/ammiranda/department_service/nestedset"
)

// MemoryRepository implements Store in process memory. Write transactions
// hold the writer lock and work on a copy of the table that replaces the
// original only on commit.
type MemoryRepository struct {
	mu     sync.RWMutex
	nodes  map[int64]nestedset.Node
	nextID int64
}

// NewMemoryRepository creates a new in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nodes: make(map[int64]nestedset.Node),
	}
}

// Initialize performs any necessary setup
func (m *MemoryRepository) Initialize(ctx context.Context) error {
	return nil
}

// Cleanup drops every stored department
func (m *MemoryRepository) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[int64]nestedset.Node)
	return nil
}

// Atomically runs fn against a private copy of the table and publishes the
// copy only when fn succeeds
func (m *MemoryRepository) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := make(map[int64]nestedset.Node, len(m.nodes))
	for id, n := range m.nodes {
		working[id] = n.Clone()
	}
	tx := &memoryTx{nodes: working, nextID: m.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.nodes = tx.nodes
	m.nextID = tx.nextID
	return nil
}

// ReadOnly runs fn against the committed table
func (m *MemoryRepository) ReadOnly(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memoryTx{nodes: m.nodes, readOnly: true})
}

type memoryTx struct {
	nodes    map[int64]nestedset.Node
	nextID   int64
	readOnly bool
}

func (t *memoryTx) snapshot() []nestedset.Node {
	out := make([]nestedset.Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	return out
}

func (t *memoryTx) FindByID(ctx context.Context, id int64) (nestedset.Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nestedset.Node{}, ErrNodeNotFound
	}
	return n.Clone(), nil
}

func (t *memoryTx) FindByIndexRange(ctx context.Context, where nestedset.Selector) ([]nestedset.Node, error) {
	if err := validateSelector(where); err != nil {
		return nil, err
	}
	return nestedset.Query(t.snapshot(), where), nil
}

func (t *memoryTx) FindRoots(ctx context.Context) ([]nestedset.Node, error) {
	return nestedset.Roots(t.snapshot()), nil
}

func (t *memoryTx) FindAll(ctx context.Context) ([]nestedset.Node, error) {
	return nestedset.Query(t.snapshot(), nestedset.Selector{}), nil
}

func (t *memoryTx) MaxRightIndex(ctx context.Context) (int, error) {
	return nestedset.MaxRight(t.snapshot()), nil
}

func (t *memoryTx) Insert(ctx context.Context, n nestedset.Node) (int64, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}
	if n.Name == "" {
		return 0, ErrInvalidInput
	}
	t.nextID++
	n.ID = t.nextID
	t.nodes[n.ID] = n.Clone()
	return n.ID, nil
}

func (t *memoryTx) Save(ctx context.Context, n nestedset.Node) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, ok := t.nodes[n.ID]; !ok {
		return ErrNodeNotFound
	}
	t.nodes[n.ID] = n.Clone()
	return nil
}

func (t *memoryTx) BulkUpdateIndices(ctx context.Context, u nestedset.IndexUpdate) (int64, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}
	if err := validateSelector(u.Where); err != nil {
		return 0, err
	}
	if u.IsNoop() {
		return 0, nil
	}
	all := t.snapshot()
	touched := nestedset.ApplyInPlace(all, u)
	for _, n := range all {
		t.nodes[n.ID] = n
	}
	return int64(touched), nil
}

func (t *memoryTx) Delete(ctx context.Context, where nestedset.Selector) (int64, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}
	if err := validateSelector(where); err != nil {
		return 0, err
	}
	doomed := nestedset.Filter(t.snapshot(), where)
	for _, n := range doomed {
		delete(t.nodes, n.ID)
	}
	return int64(len(doomed)), nil
}
