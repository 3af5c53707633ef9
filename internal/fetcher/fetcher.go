// Package fetcher defines the Fetcher interface every upstream adapter
// implements, and the Registry the traversal driver uses to find which
// fetchers can handle a given Target.
package fetcher

import (
	"context"

	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/vocab"
)

// Fetcher is one upstream data source adapter. CanFetch is a cheap,
// synchronous capability check the registry uses to decide whether to
// dispatch Fetch at all; Fetch does the network call and returns a delta
// ready for BatchCommit.
type Fetcher interface {
	// Name identifies the fetcher for logging and source attribution.
	Name() string

	// Source is the vocab.DataSource this fetcher writes edges as.
	Source() vocab.DataSource

	// CanFetch reports whether this fetcher handles the given target at
	// all. Each adapter declares which Platforms (or Chain/ContractCategory
	// pairs) it supports; unsupported targets are skipped, not errored.
	CanFetch(target vocab.Target) bool

	// Fetch retrieves evidence for target and returns the delta to commit.
	// A Fetcher that finds no evidence for an otherwise-known identity
	// still returns a delta containing just the isolated vertex; Fetch only
	// errors for failures, not absence of evidence.
	Fetch(ctx context.Context, target vocab.Target) (graphstore.Delta, error)
}

// Registry holds every registered Fetcher and answers "which fetchers apply
// to this target" for the traversal driver.
type Registry struct {
	fetchers []Fetcher
}

func NewRegistry(fetchers ...Fetcher) *Registry {
	return &Registry{fetchers: fetchers}
}

// Register adds a fetcher. Not safe to call concurrently with Applicable.
func (r *Registry) Register(f Fetcher) {
	r.fetchers = append(r.fetchers, f)
}

// Applicable returns every registered fetcher whose CanFetch(target) is true.
func (r *Registry) Applicable(target vocab.Target) []Fetcher {
	var out []Fetcher
	for _, f := range r.fetchers {
		if f.CanFetch(target) {
			out = append(out, f)
		}
	}
	return out
}

// All returns every registered fetcher, in registration order.
func (r *Registry) All() []Fetcher {
	out := make([]Fetcher, len(r.fetchers))
	copy(out, r.fetchers)
	return out
}
