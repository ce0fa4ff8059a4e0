package scheduler

import (
	"context"
	"fmt"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
)

// Future is the pending result of a scheduled load. It resolves exactly
// once; every coalesced waiter observes the same terminal outcome.
type Future struct {
	done chan struct{}
	a    *asset.Asset
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve completes the future. Must be called at most once.
func (f *Future) resolve(a *asset.Asset, err error) {
	f.a = a
	f.err = err
	close(f.done)
}

// resolvedFuture returns a future already completed with err.
func resolvedFuture(a *asset.Asset, err error) *Future {
	f := newFuture()
	f.resolve(a, err)
	return f
}

// CompletedFuture returns a future already resolved with the given
// outcome. Callers layering a cache above the scheduler use it to
// serve hits through the async API without scheduling a load.
func CompletedFuture(a *asset.Asset, err error) *Future {
	return resolvedFuture(a, err)
}

// Wait blocks until the load completes or ctx is done. A ctx expiry
// abandons only this waiter; the load itself continues for the others.
func (f *Future) Wait(ctx context.Context) (*asset.Asset, error) {
	select {
	case <-f.done:
		return f.a, f.err
	case <-ctx.Done():
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrLoadCanceled, ctx.Err()),
			"Future", "Wait", "wait for load")
	}
}

// Done returns a channel closed when the future resolves. Use Result
// afterwards for the outcome.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome without blocking. ok is false while the
// load is still pending.
func (f *Future) Result() (a *asset.Asset, err error, ok bool) {
	select {
	case <-f.done:
		return f.a, f.err, true
	default:
		return nil, nil, false
	}
}
