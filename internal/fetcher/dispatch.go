package fetcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/rlog"
	"github.com/relationgraph/core/internal/vocab"
)

// Result pairs one fetcher's outcome for one target, so a partial failure
// in one upstream never aborts the others or blocks their writes.
type Result struct {
	Fetcher string
	Delta   graphstore.Delta
	Err     error
}

// FetchAll runs every applicable fetcher for target concurrently, bounded
// by maxInFlight, and collects all results (including per-fetcher errors)
// without letting one failure cancel the rest: one goroutine per fetcher,
// gated by an errgroup.SetLimit semaphore.
func FetchAll(ctx context.Context, reg *Registry, target vocab.Target, maxInFlight int) []Result {
	applicable := reg.Applicable(target)
	if len(applicable) == 0 {
		return nil
	}

	results := make([]Result, len(applicable))
	g, ctx := errgroup.WithContext(ctx)
	if maxInFlight > 0 {
		g.SetLimit(maxInFlight)
	}

	for i, f := range applicable {
		i, f := i, f
		g.Go(func() error {
			delta, err := f.Fetch(ctx, target)
			if err != nil {
				rlog.Default().Warn("fetcher failed", "fetcher", f.Name(), "target", target.CanonicalKey(), "error", err)
				err = relerrors.Wrap(err, relerrors.GetKind(err), "fetch failed").WithContext("fetcher", f.Name())
			}
			results[i] = Result{Fetcher: f.Name(), Delta: delta, Err: err}
			return nil // never abort siblings
		})
	}
	// errgroup.Wait only returns non-nil if a Go func returned non-nil,
	// which never happens here by design; results carry per-fetcher errors.
	_ = g.Wait()
	return results
}
