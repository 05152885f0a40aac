package repository

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

// Retrying wraps a Repository, retrying any operation that fails with
// BACKEND_UNAVAILABLE using exponential backoff. Every other error class
// (validation, not-found, conflict) is returned immediately — those are
// never transient.
type Retrying struct {
	inner Repository
	newBO func() backoff.BackOff
}

// NewRetrying wraps inner with the default exponential backoff policy,
// capped at maxElapsed total retry time.
func NewRetrying(inner Repository, maxElapsed time.Duration) *Retrying {
	return &Retrying{
		inner: inner,
		newBO: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxElapsed
			return b
		},
	}
}

func (r *Retrying) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if riskerrors.IsRetriable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(r.newBO(), ctx))
}

func (r *Retrying) Create(ctx context.Context, tree *risktree.Tree) error {
	return r.retry(ctx, func() error { return r.inner.Create(ctx, tree) })
}

func (r *Retrying) Get(ctx context.Context, id types.TreeID) (*risktree.Tree, error) {
	var out *risktree.Tree
	err := r.retry(ctx, func() error {
		var innerErr error
		out, innerErr = r.inner.Get(ctx, id)
		return innerErr
	})
	return out, err
}

func (r *Retrying) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := r.retry(ctx, func() error {
		var innerErr error
		out, innerErr = r.inner.List(ctx)
		return innerErr
	})
	return out, err
}

func (r *Retrying) Save(ctx context.Context, tree *risktree.Tree, expectedEpoch uint64) error {
	return r.retry(ctx, func() error { return r.inner.Save(ctx, tree, expectedEpoch) })
}

func (r *Retrying) Delete(ctx context.Context, id types.TreeID) error {
	return r.retry(ctx, func() error { return r.inner.Delete(ctx, id) })
}

var _ Repository = (*Retrying)(nil)
