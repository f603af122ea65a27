package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/ammiranda/department_service/cache"
	"github.com/ammiranda/department_service/nestedset"
	"github.com/ammiranda/department_service/repository"
)

var validate = validator.New()

// DepartmentService maintains the department forest. Every mutation runs as
// one store transaction: it either leaves a consistent nested-set encoding
// behind or changes nothing.
type DepartmentService struct {
	store  repository.Store
	cache  cache.CacheProvider
	logger *slog.Logger
	verify bool
	flight singleflight.Group
	// stale is set while a committed mutation has not been followed by a
	// successful cache invalidation; reads bypass the cache meanwhile
	stale atomic.Bool
}

// Option configures a DepartmentService
type Option func(*DepartmentService)

// WithCache caches read query results in c
func WithCache(c cache.CacheProvider) Option {
	return func(s *DepartmentService) {
		s.cache = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *DepartmentService) {
		s.logger = logger
	}
}

// WithVerification re-checks the whole forest inside every mutation and
// rolls the mutation back when the check fails
func WithVerification(enabled bool) Option {
	return func(s *DepartmentService) {
		s.verify = enabled
	}
}

// New creates a DepartmentService over store
func New(store repository.Store, opts ...Option) *DepartmentService {
	s := &DepartmentService{
		store:  store,
		cache:  cache.NoopCache{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateName(name string) error {
	if err := validate.Var(name, "required,min=1,max=100"); err != nil {
		return fmt.Errorf("%w: name must be between 1 and 100 characters", ErrValidation)
	}
	return nil
}

// Insert creates a department as the last child of parentID, or as a new
// root after every existing tree when parentID is nil
func (s *DepartmentService) Insert(ctx context.Context, name string, parentID *int64) (node nestedset.Node, err error) {
	ctx, done := track(ctx, "insert", attribute.Bool("root", parentID == nil))
	defer func() { done(err) }()

	if err := validateName(name); err != nil {
		return nestedset.Node{}, err
	}

	var shifted int64
	err = s.store.Atomically(ctx, func(tx repository.Tx) error {
		if parentID == nil {
			maxRight, err := tx.MaxRightIndex(ctx)
			if err != nil {
				return err
			}
			root := nestedset.NewRoot(name, maxRight)
			id, err := tx.Insert(ctx, root)
			if err != nil {
				return err
			}
			root.BindRoot(id)
			if err := tx.Save(ctx, root); err != nil {
				return err
			}
			node = root
			return s.check(ctx, tx)
		}

		parent, err := tx.FindByID(ctx, *parentID)
		if err != nil {
			return translateNotFound(err, ErrParentDepartmentNotFound, *parentID)
		}
		child, updates := nestedset.NewChild(name, parent)
		if shifted, err = s.apply(ctx, tx, updates); err != nil {
			return err
		}
		id, err := tx.Insert(ctx, child)
		if err != nil {
			return err
		}
		child.ID = id
		node = child
		return s.check(ctx, tx)
	})
	if err != nil {
		s.logger.Warn("department insert failed", slog.String("name", name), slog.Any("error", err))
		return nestedset.Node{}, err
	}

	rowsShifted.WithLabelValues("insert").Observe(float64(shifted))
	s.invalidate(ctx)
	s.logger.Info("department created",
		slog.Int64("id", node.ID),
		slog.Int64("root_id", node.RootID),
		slog.Int("left", node.Left),
		slog.Int("right", node.Right),
	)
	return node, nil
}

// Reparent moves a department and its whole subtree under newParentID, as
// its last child, or promotes it to a root when newParentID is nil.
// Reparenting a root to no parent returns it unchanged.
func (s *DepartmentService) Reparent(ctx context.Context, id int64, newParentID *int64) (node nestedset.Node, err error) {
	ctx, done := track(ctx, "reparent", attribute.Int64("id", id), attribute.Bool("promote", newParentID == nil))
	defer func() { done(err) }()

	var (
		shifted int64
		moved   bool
	)
	err = s.store.Atomically(ctx, func(tx repository.Tx) error {
		n, err := tx.FindByID(ctx, id)
		if err != nil {
			return translateNotFound(err, ErrDepartmentNotFound, id)
		}
		if newParentID == nil && n.IsRoot() {
			node = n
			return nil
		}

		var parent *nestedset.Node
		if newParentID != nil {
			p, err := tx.FindByID(ctx, *newParentID)
			if err != nil {
				return translateNotFound(err, ErrParentDepartmentNotFound, *newParentID)
			}
			parent = &p
		}

		members, err := tx.FindByIndexRange(ctx, nestedset.Subtree(n))
		if err != nil {
			return err
		}
		maxRight, err := tx.MaxRightIndex(ctx)
		if err != nil {
			return err
		}
		move, err := nestedset.PlanMove(n, parent, maxRight, nestedset.IDs(members))
		if err != nil {
			return integrity(err)
		}
		if shifted, err = s.apply(ctx, tx, move.Updates); err != nil {
			return err
		}

		n.ParentID = move.ParentID
		n.RootID = move.RootID
		n.Left, n.Right, n.Level = move.Left, move.Right, move.Level
		if err := tx.Save(ctx, n); err != nil {
			return err
		}
		node = n
		moved = true
		return s.check(ctx, tx)
	})
	if err != nil {
		s.logger.Warn("department reparent failed", slog.Int64("id", id), slog.Any("error", err))
		return nestedset.Node{}, err
	}
	if !moved {
		return node, nil
	}

	rowsShifted.WithLabelValues("reparent").Observe(float64(shifted))
	s.invalidate(ctx)
	s.logger.Info("department moved",
		slog.Int64("id", node.ID),
		slog.Any("parent_id", node.ParentID),
		slog.Int64("root_id", node.RootID),
		slog.Int64("rows_shifted", shifted),
	)
	return node, nil
}

// Rename changes a department's name. Indices are never touched, and
// renaming to the current name writes nothing.
func (s *DepartmentService) Rename(ctx context.Context, id int64, name string) (node nestedset.Node, err error) {
	ctx, done := track(ctx, "rename", attribute.Int64("id", id))
	defer func() { done(err) }()

	if err := validateName(name); err != nil {
		return nestedset.Node{}, err
	}

	var changed bool
	err = s.store.Atomically(ctx, func(tx repository.Tx) error {
		n, err := tx.FindByID(ctx, id)
		if err != nil {
			return translateNotFound(err, ErrDepartmentNotFound, id)
		}
		node = n
		if n.Name == name {
			return nil
		}
		n.Name = name
		if err := tx.Save(ctx, n); err != nil {
			return err
		}
		node = n
		changed = true
		return nil
	})
	if err != nil {
		return nestedset.Node{}, err
	}

	if changed {
		s.invalidate(ctx)
		s.logger.Info("department renamed", slog.Int64("id", id))
	}
	return node, nil
}

// Delete removes a department together with its whole subtree, then
// renumbers the remaining forest into a gap-free sequence
func (s *DepartmentService) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := track(ctx, "delete", attribute.Int64("id", id))
	defer func() { done(err) }()

	var removed, renumbered int64
	err = s.store.Atomically(ctx, func(tx repository.Tx) error {
		n, err := tx.FindByID(ctx, id)
		if err != nil {
			return translateNotFound(err, ErrDepartmentNotFound, id)
		}

		if n.ParentID != nil {
			parent, err := tx.FindByID(ctx, *n.ParentID)
			if errors.Is(err, repository.ErrNodeNotFound) {
				return fmt.Errorf("%w: department %d references missing parent %d", ErrDataIntegrity, id, *n.ParentID)
			}
			if err != nil {
				return err
			}
			if err := nestedset.ValidateParent(n, parent); err != nil {
				return integrity(err)
			}
		}

		if removed, err = tx.Delete(ctx, nestedset.Subtree(n)); err != nil {
			return err
		}
		if removed != int64(n.DescendantCount()+1) {
			return fmt.Errorf("%w: department %d spans %d departments, removed %d",
				ErrDataIntegrity, id, n.DescendantCount()+1, removed)
		}

		remaining, err := tx.FindAll(ctx)
		if err != nil {
			return err
		}
		_, changed := nestedset.Reorder(remaining)
		for _, c := range changed {
			if err := tx.Save(ctx, c); err != nil {
				return err
			}
		}
		renumbered = int64(len(changed))
		return s.check(ctx, tx)
	})
	if err != nil {
		s.logger.Warn("department delete failed", slog.Int64("id", id), slog.Any("error", err))
		return err
	}

	rowsShifted.WithLabelValues("delete").Observe(float64(renumbered))
	s.invalidate(ctx)
	s.logger.Info("department deleted",
		slog.Int64("id", id),
		slog.Int64("removed", removed),
		slog.Int64("renumbered", renumbered),
	)
	return nil
}

// apply runs an update plan in order and returns the rows it touched
func (s *DepartmentService) apply(ctx context.Context, tx repository.Tx, updates []nestedset.IndexUpdate) (int64, error) {
	var total int64
	for _, u := range updates {
		rows, err := tx.BulkUpdateIndices(ctx, u)
		if err != nil {
			return total, err
		}
		total += rows
	}
	return total, nil
}

// check verifies the whole forest inside tx when verification is enabled
func (s *DepartmentService) check(ctx context.Context, tx repository.Tx) error {
	if !s.verify {
		return nil
	}
	nodes, err := tx.FindAll(ctx)
	if err != nil {
		return err
	}
	if err := nestedset.VerifyDense(nodes); err != nil {
		s.logger.Error("nested set verification failed", slog.Any("error", err))
		return integrity(err)
	}
	return nil
}

func (s *DepartmentService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCache(ctx); err != nil {
		s.stale.Store(true)
		s.logger.Error("cache invalidation failed, bypassing cache", slog.Any("error", err))
		return
	}
	s.stale.Store(false)
}
