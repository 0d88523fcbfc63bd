// Package workerpool provides the bounded-concurrency fan-out used by every
// per-wallet/per-token I/O stage (§5): default 8 concurrent units, no shared
// mutable state between workers, a single failing unit never aborting the rest.
// Built on golang.org/x/sync/errgroup rather than a hand-rolled channel
// semaphore — the module graph already carries errgroup transitively, and it
// gives per-unit error capture and context cancellation for free.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// UnitResult captures one per-wallet (or per-token) unit's outcome. The
// orchestrator collects these into a summary (§7 propagation) rather than
// letting a single unit's error abort the whole pass.
type UnitResult struct {
	Key string
	Err error
}

// Run executes fn(item) for every item with at most `size` concurrently
// in-flight, collecting one UnitResult per item regardless of individual
// failures — a wallet that fails any stage is logged and left in its prior
// state; the pipeline never aborts globally for a single-wallet failure.
func Run[T any](ctx context.Context, size int, items []T, key func(T) string, fn func(context.Context, T) error) []UnitResult {
	if size <= 0 {
		size = 8
	}
	results := make([]UnitResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			err := fn(gctx, item)
			results[i] = UnitResult{Key: key(item), Err: err}
			// Intentionally always return nil: a per-unit failure must not cancel
			// sibling units via errgroup's shared context.
			return nil
		})
	}
	_ = g.Wait()
	return results
}
