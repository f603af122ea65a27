package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/ammiranda/department_service/cache"
	"github.com/ammiranda/department_service/nestedset"
	"github.com/ammiranda/department_service/repository"
)

// Get returns one department
func (s *DepartmentService) Get(ctx context.Context, id int64) (node nestedset.Node, err error) {
	ctx, done := track(ctx, "get", attribute.Int64("id", id))
	defer func() { done(err) }()

	err = s.store.ReadOnly(ctx, func(tx repository.Tx) error {
		n, err := tx.FindByID(ctx, id)
		if err != nil {
			return translateNotFound(err, ErrDepartmentNotFound, id)
		}
		node = n
		return nil
	})
	return node, err
}

// ListAncestors returns the departments above id, root first
func (s *DepartmentService) ListAncestors(ctx context.Context, id int64) ([]nestedset.Node, error) {
	return s.relative(ctx, "ancestors", id, nestedset.Ancestors)
}

// ListDescendants returns every department below id in left order
func (s *DepartmentService) ListDescendants(ctx context.Context, id int64) ([]nestedset.Node, error) {
	return s.relative(ctx, "descendants", id, nestedset.Descendants)
}

// ListChildren returns the direct children of id in sibling order
func (s *DepartmentService) ListChildren(ctx context.Context, id int64) ([]nestedset.Node, error) {
	return s.relative(ctx, "children", id, nestedset.Children)
}

// Subtree returns id followed by all of its descendants in left order
func (s *DepartmentService) Subtree(ctx context.Context, id int64) ([]nestedset.Node, error) {
	return s.relative(ctx, "subtree", id, nestedset.Subtree)
}

// ListRoots returns the root of every tree in the forest, in index order
func (s *DepartmentService) ListRoots(ctx context.Context) (nodes []nestedset.Node, err error) {
	ctx, done := track(ctx, "roots")
	defer func() { done(err) }()

	return s.cached(ctx, cache.RootsKey, func(ctx context.Context) ([]nestedset.Node, error) {
		var roots []nestedset.Node
		err := s.store.ReadOnly(ctx, func(tx repository.Tx) error {
			var err error
			roots, err = tx.FindRoots(ctx)
			return err
		})
		return roots, err
	})
}

// Verify checks every nested-set invariant over the stored forest
func (s *DepartmentService) Verify(ctx context.Context) (count int, err error) {
	ctx, done := track(ctx, "verify")
	defer func() { done(err) }()

	err = s.store.ReadOnly(ctx, func(tx repository.Tx) error {
		nodes, err := tx.FindAll(ctx)
		if err != nil {
			return err
		}
		count = len(nodes)
		return integrity(nestedset.VerifyDense(nodes))
	})
	return count, err
}

// relative answers a containment query about the department id
func (s *DepartmentService) relative(ctx context.Context, query string, id int64, selector func(nestedset.Node) nestedset.Selector) (nodes []nestedset.Node, err error) {
	ctx, done := track(ctx, query, attribute.Int64("id", id))
	defer func() { done(err) }()

	return s.cached(ctx, cache.Key(query, id), func(ctx context.Context) ([]nestedset.Node, error) {
		var result []nestedset.Node
		err := s.store.ReadOnly(ctx, func(tx repository.Tx) error {
			n, err := tx.FindByID(ctx, id)
			if err != nil {
				return translateNotFound(err, ErrDepartmentNotFound, id)
			}
			result, err = tx.FindByIndexRange(ctx, selector(n))
			return err
		})
		return result, err
	})
}

// cached serves key from the cache, loading and storing it on a miss.
// Concurrent misses for the same key share one load, which runs detached
// from any single caller's cancellation.
func (s *DepartmentService) cached(ctx context.Context, key string, load func(ctx context.Context) ([]nestedset.Node, error)) ([]nestedset.Node, error) {
	if s.stale.Load() {
		// retry the invalidation that failed; until it succeeds the cache
		// may still hold results from before the last commit
		if err := s.cache.InvalidateCache(ctx); err != nil {
			cacheLookups.WithLabelValues("bypass").Inc()
			return nonNil(load(ctx))
		}
		s.stale.Store(false)
	}

	generation, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("cache unavailable, reading from store", slog.Any("error", err))
		return nonNil(load(ctx))
	}

	if nodes, ok := s.cache.GetNodes(ctx, generation, key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return nodes, nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	shared := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(fmt.Sprintf("%d:%s", generation, key), func() (any, error) {
		nodes, err := nonNil(load(shared))
		if err != nil {
			return nil, err
		}
		s.cache.SetNodes(shared, generation, key, nodes)
		return nodes, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	nodes := res.Val.([]nestedset.Node)
	out := make([]nestedset.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out, nil
}

func nonNil(nodes []nestedset.Node, err error) ([]nestedset.Node, error) {
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []nestedset.Node{}
	}
	return nodes, nil
}
