package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ammiranda/department_service/nestedset"
)

const departmentColumns = "id, name, parent_id, left_index, right_index, level, root_id"

// dialect captures what differs between the SQL backends
type dialect struct {
	name string
	// placeholder renders the n-th bind parameter, starting at 1
	placeholder func(n int) string
	// idSet renders an id membership test, binding ids through b
	idSet func(b *queryBuilder, ids []int64, negate bool) (string, error)
	// lockStatement runs first in every write transaction when set
	lockStatement string
	writeTx       *sql.TxOptions
	readTx        *sql.TxOptions
	// returningID is true when INSERT ... RETURNING id is supported
	returningID bool
}

// sqlStore implements the transactional part of Store over database/sql
type sqlStore struct {
	db *sql.DB
	// readDB serves ReadOnly transactions when set, db otherwise
	readDB  *sql.DB
	dialect dialect
}

// Atomically runs fn inside one database transaction
func (s *sqlStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, s.dialect.writeTx, false, fn)
}

// ReadOnly runs fn inside a read-only database transaction
func (s *sqlStore) ReadOnly(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, s.dialect.readTx, true, fn)
}

func (s *sqlStore) run(ctx context.Context, opts *sql.TxOptions, readOnly bool, fn func(tx Tx) error) error {
	if s.db == nil {
		return fmt.Errorf("%s store is not initialized", s.dialect.name)
	}

	db := s.db
	if readOnly && s.readDB != nil {
		db = s.readDB
	}

	// Use a transaction to ensure atomicity
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if !readOnly && s.dialect.lockStatement != "" {
		if _, err := tx.ExecContext(ctx, s.dialect.lockStatement); err != nil {
			return fmt.Errorf("error locking departments: %w", err)
		}
	}

	if err := fn(&sqlTx{tx: tx, dialect: s.dialect, readOnly: readOnly}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// queryBuilder accumulates bind arguments in placeholder order
type queryBuilder struct {
	dialect dialect
	args    []any
}

func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.placeholder(len(b.args))
}

// where renders a selector as a SQL boolean expression
func (b *queryBuilder) where(sel nestedset.Selector) (string, error) {
	if err := validateSelector(sel); err != nil {
		return "", err
	}

	var clauses []string
	for _, c := range sel.Conditions {
		clauses = append(clauses, fmt.Sprintf("%s %s %s", c.Column, c.Op, b.bind(c.Value)))
	}
	if sel.IDs != nil {
		if len(sel.IDs) == 0 {
			clauses = append(clauses, "1 = 0")
		} else {
			clause, err := b.dialect.idSet(b, sel.IDs, false)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, clause)
		}
	}
	if len(sel.ExcludeIDs) > 0 {
		clause, err := b.dialect.idSet(b, sel.ExcludeIDs, true)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}

	if len(clauses) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(clauses, " AND "), nil
}

type sqlTx struct {
	tx       *sql.Tx
	dialect  dialect
	readOnly bool
}

func (t *sqlTx) builder() *queryBuilder {
	return &queryBuilder{dialect: t.dialect}
}

func (t *sqlTx) FindByID(ctx context.Context, id int64) (nestedset.Node, error) {
	b := t.builder()
	query := fmt.Sprintf("SELECT %s FROM departments WHERE id = %s", departmentColumns, b.bind(id))
	n, err := scanNode(t.tx.QueryRowContext(ctx, query, b.args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nestedset.Node{}, ErrNodeNotFound
		}
		return nestedset.Node{}, fmt.Errorf("error getting department: %w", err)
	}
	return n, nil
}

func (t *sqlTx) FindByIndexRange(ctx context.Context, where nestedset.Selector) ([]nestedset.Node, error) {
	b := t.builder()
	clause, err := b.where(where)
	if err != nil {
		return nil, err
	}
	return t.query(ctx, fmt.Sprintf("SELECT %s FROM departments WHERE %s ORDER BY left_index", departmentColumns, clause), b.args...)
}

func (t *sqlTx) FindRoots(ctx context.Context) ([]nestedset.Node, error) {
	return t.query(ctx, fmt.Sprintf("SELECT %s FROM departments WHERE parent_id IS NULL ORDER BY left_index", departmentColumns))
}

func (t *sqlTx) FindAll(ctx context.Context) ([]nestedset.Node, error) {
	return t.query(ctx, fmt.Sprintf("SELECT %s FROM departments ORDER BY left_index", departmentColumns))
}

func (t *sqlTx) MaxRightIndex(ctx context.Context) (int, error) {
	var maxRight int
	if err := t.tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(right_index), 0) FROM departments").Scan(&maxRight); err != nil {
		return 0, fmt.Errorf("error reading max right index: %w", err)
	}
	return maxRight, nil
}

func (t *sqlTx) Insert(ctx context.Context, n nestedset.Node) (int64, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}
	if n.Name == "" {
		return 0, ErrInvalidInput
	}

	b := t.builder()
	query := fmt.Sprintf(
		"INSERT INTO departments (name, parent_id, left_index, right_index, level, root_id) VALUES (%s, %s, %s, %s, %s, %s)",
		b.bind(n.Name), b.bind(nullableID(n.ParentID)), b.bind(n.Left), b.bind(n.Right), b.bind(n.Level), b.bind(n.RootID),
	)

	if t.dialect.returningID {
		var id int64
		if err := t.tx.QueryRowContext(ctx, query+" RETURNING id", b.args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("error creating department: %w", err)
		}
		return id, nil
	}

	result, err := t.tx.ExecContext(ctx, query, b.args...)
	if err != nil {
		return 0, fmt.Errorf("error creating department: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading department id: %w", err)
	}
	return id, nil
}

func (t *sqlTx) Save(ctx context.Context, n nestedset.Node) error {
	if t.readOnly {
		return ErrReadOnly
	}

	b := t.builder()
	query := fmt.Sprintf(
		"UPDATE departments SET name = %s, parent_id = %s, left_index = %s, right_index = %s, level = %s, root_id = %s WHERE id = %s",
		b.bind(n.Name), b.bind(nullableID(n.ParentID)), b.bind(n.Left), b.bind(n.Right), b.bind(n.Level), b.bind(n.RootID), b.bind(n.ID),
	)
	result, err := t.tx.ExecContext(ctx, query, b.args...)
	if err != nil {
		return fmt.Errorf("error updating department: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNodeNotFound
	}
	return nil
}

func (t *sqlTx) BulkUpdateIndices(ctx context.Context, u nestedset.IndexUpdate) (int64, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}
	if u.IsNoop() {
		return 0, nil
	}

	b := t.builder()
	set := []string{
		"left_index = left_index + " + b.bind(u.DeltaLeft),
		"right_index = right_index + " + b.bind(u.DeltaRight),
		"level = level + " + b.bind(u.DeltaLevel),
	}
	if u.RootID != nil {
		set = append(set, "root_id = "+b.bind(*u.RootID))
	}
	clause, err := b.where(u.Where)
	if err != nil {
		return 0, err
	}

	result, err := t.tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE departments SET %s WHERE %s", strings.Join(set, ", "), clause),
		b.args...,
	)
	if err != nil {
		return 0, fmt.Errorf("error shifting department indices: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}
	return rows, nil
}

func (t *sqlTx) Delete(ctx context.Context, where nestedset.Selector) (int64, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}

	b := t.builder()
	clause, err := b.where(where)
	if err != nil {
		return 0, err
	}
	result, err := t.tx.ExecContext(ctx, "DELETE FROM departments WHERE "+clause, b.args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting departments: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}
	return rows, nil
}

func (t *sqlTx) query(ctx context.Context, query string, args ...any) ([]nestedset.Node, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying departments: %w", err)
	}
	defer rows.Close()

	var nodes []nestedset.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning department: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating departments: %w", err)
	}
	return nodes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (nestedset.Node, error) {
	var n nestedset.Node
	var parentID sql.NullInt64
	if err := row.Scan(&n.ID, &n.Name, &parentID, &n.Left, &n.Right, &n.Level, &n.RootID); err != nil {
		return nestedset.Node{}, err
	}
	if parentID.Valid {
		n.ParentID = &parentID.Int64
	}
	return n, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
