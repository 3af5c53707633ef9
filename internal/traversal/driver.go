// Package traversal implements the worklist-driven expansion of a starting
// Target across every applicable fetcher, with dedup by canonical key and
// depth and budget enforcement.
package traversal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/relationgraph/core/internal/fetcher"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/rlog"
	"github.com/relationgraph/core/internal/vocab"
)

// Budget bounds one top-level traversal: max vertices visited, max wall
// time, and the concurrent-dispatch cap.
type Budget struct {
	MaxVertices int
	MaxWallTime time.Duration
	MaxInFlight int // bound on concurrent (target, fetcher) dispatches
}

// FailedDispatch records one (target, fetcher) pair that errored, for
// callers that want to surface partial-failure detail; the traversal itself
// continues past these.
type FailedDispatch struct {
	Target  string
	Fetcher string
	Err     error
}

// Outcome summarizes one completed (or budget-exhausted) traversal.
type Outcome struct {
	VisitedCount int
	Failures     []FailedDispatch
	BudgetHit    bool
	Cancelled    bool
}

// Driver runs traversals against one Registry and one Backend.
type Driver struct {
	registry *fetcher.Registry
	store    graphstore.Backend
	seenDB   SeenSetStore // optional; nil means the plain in-memory map below
}

func NewDriver(registry *fetcher.Registry, store graphstore.Backend) *Driver {
	return &Driver{registry: registry, store: store}
}

// WithSeenSetStore durably backs this Driver's per-query seen-sets, for
// traversals expected to outlive a process restart. Opt-in only; most
// Drivers should leave this unset.
func (d *Driver) WithSeenSetStore(s SeenSetStore) *Driver {
	d.seenDB = s
	return d
}

type work struct {
	target vocab.Target
	depth  int
}

// Run drains a worklist seeded with origin until empty or budget exhausted.
// Each dequeued target's applicable fetchers run concurrently; each
// fetcher's delta is committed independently, so one fetcher's failure
// never blocks another's write. A target no registered fetcher admits is
// dropped silently.
func (d *Driver) Run(ctx context.Context, origin vocab.Target, maxDepth int, budget Budget) Outcome {
	deadlineCtx := ctx
	var cancel context.CancelFunc
	if budget.MaxWallTime > 0 {
		deadlineCtx, cancel = context.WithTimeout(ctx, budget.MaxWallTime)
		defer cancel()
	}

	seen := map[string]struct{}{origin.CanonicalKey(): {}}
	queryID := uuid.NewString()
	if d.seenDB != nil {
		if _, err := d.seenDB.MarkSeen(queryID, origin.CanonicalKey()); err != nil {
			rlog.Default().Warn("seen-set store mark failed, falling back to in-memory", "err", err)
		}
		defer func() {
			if err := d.seenDB.Clear(queryID); err != nil {
				rlog.Default().Warn("seen-set store clear failed", "err", err)
			}
		}()
	}

	outcome := Outcome{}
	queue := []work{{target: origin, depth: 0}}

	for len(queue) > 0 {
		if deadlineCtx.Err() != nil {
			outcome.Cancelled = true
			break
		}
		if budget.MaxVertices > 0 && outcome.VisitedCount >= budget.MaxVertices {
			outcome.BudgetHit = true
			break
		}

		item := queue[0]
		queue = queue[1:]
		if item.depth > maxDepth {
			continue
		}

		applicable := d.registry.Applicable(item.target)
		if len(applicable) == 0 {
			rlog.Default().Debug("target has no applicable fetcher", "target", item.target.CanonicalKey())
			continue
		}

		results := fetcher.FetchAll(deadlineCtx, d.registry, item.target, budget.MaxInFlight)
		outcome.VisitedCount++

		var nextTargets []vocab.Target
		for _, r := range results {
			if r.Err != nil {
				outcome.Failures = append(outcome.Failures, FailedDispatch{
					Target: item.target.CanonicalKey(), Fetcher: r.Fetcher, Err: r.Err,
				})
				if relerrors.IsKind(r.Err, relerrors.KindCancelled) {
					outcome.Cancelled = true
				}
				continue
			}
			if err := d.store.BatchCommit(deadlineCtx, r.Delta); err != nil {
				outcome.Failures = append(outcome.Failures, FailedDispatch{
					Target: item.target.CanonicalKey(), Fetcher: r.Fetcher, Err: err,
				})
				continue
			}
			nextTargets = append(nextTargets, targetsFromDelta(r.Delta)...)
		}

		for _, nt := range nextTargets {
			key := nt.CanonicalKey()
			if d.seenDB != nil {
				isNew, err := d.seenDB.MarkSeen(queryID, key)
				if err != nil {
					rlog.Default().Warn("seen-set store mark failed, falling back to in-memory", "err", err)
				} else if !isNew {
					continue
				}
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			queue = append(queue, work{target: nt, depth: item.depth + 1})
		}
	}

	return outcome
}

// targetsFromDelta derives the next targets to enqueue from a committed
// delta: every Identity and Contract vertex the delta wrote becomes a
// candidate target for further expansion, except the special isolated-vertex
// case (a delta with no edges produces no next targets, since an isolated
// vertex by definition had nothing left to traverse).
func targetsFromDelta(d graphstore.Delta) []vocab.Target {
	if len(d.Proofs) == 0 && len(d.Holds) == 0 && len(d.Resolves) == 0 && len(d.HyperEdges) == 0 {
		return nil
	}
	var out []vocab.Target
	for _, v := range d.Identities {
		out = append(out, vocab.NewIdentityTarget(v.Platform, v.IdentityKey))
	}
	for _, v := range d.Contracts {
		out = append(out, vocab.NewNFTTarget(v.Chain, v.Category, v.Address, ""))
	}
	return out
}
