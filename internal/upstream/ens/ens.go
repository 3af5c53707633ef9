// Package ens adapts an ENS subgraph lookup into Resolve edges. The wire
// shape follows TheGraph's hosted-service subgraph response convention
// (a top-level "data" object wrapping the queried entity list).
package ens

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/httpclient"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/vocab"
)

const name = "ens"

type Fetcher struct {
	http *httpclient.Client
}

func New(client *httpclient.Client) *Fetcher {
	return &Fetcher{http: client}
}

func (f *Fetcher) Name() string { return name }
func (f *Fetcher) Source() vocab.DataSource { return vocab.DataSourceENS }

func (f *Fetcher) CanFetch(target vocab.Target) bool {
	if target.InPlatformSupported(vocab.PlatformENS, vocab.PlatformEthereum) {
		return true
	}
	return target.InChainCategorySupported(vocab.ChainCategoryPair{Chain: vocab.ChainEthereum, Category: vocab.ContractCategoryENS})
}

type ref struct {
	ID string `json:"id"`
}

type domainRecord struct {
	Name            string `json:"name"`
	Owner           ref    `json:"owner"`
	ResolvedAddress ref    `json:"resolvedAddress"`
}

type subgraphResponse struct {
	Data struct {
		Domains []domainRecord `json:"domains"`
	} `json:"data"`
}

func (f *Fetcher) Fetch(ctx context.Context, target vocab.Target) (graphstore.Delta, error) {
	var path string
	switch target.Platform {
	case vocab.PlatformENS:
		path = "/domains?name=" + target.Identity
	case vocab.PlatformEthereum:
		path = "/domains?owner=" + strings.ToLower(target.Identity)
	default:
		return graphstore.Delta{}, nil
	}

	var resp subgraphResponse
	if err := f.http.GetJSON(ctx, path, &resp); err != nil {
		if relerrors.IsKind(err, relerrors.KindNotFound) {
			return graphstore.Delta{}, nil
		}
		return graphstore.Delta{}, relerrors.UpstreamError(err, "ens subgraph query failed")
	}

	now := time.Now().UTC()
	var delta graphstore.Delta
	for _, d := range resp.Data.Domains {
		if d.ResolvedAddress.ID == "" {
			continue
		}
		address := strings.ToLower(d.ResolvedAddress.ID)
		nameIdentity := graphmodel.Identity{
			UUID:        uuid.New(),
			Platform:    vocab.PlatformENS,
			IdentityKey: d.Name,
			AddedAt:     now,
			UpdatedAt:   now,
		}
		addressIdentity := graphmodel.Identity{
			UUID:        uuid.New(),
			Platform:    vocab.PlatformEthereum,
			IdentityKey: address,
			AddedAt:     now,
			UpdatedAt:   now,
		}
		delta.Identities = append(delta.Identities, nameIdentity, addressIdentity)
		delta.Resolves = append(delta.Resolves, graphmodel.Resolve{
			UUID:      uuid.New(),
			From:      nameIdentity,
			To:        addressIdentity,
			Reverse:   false,
			Source:    vocab.DataSourceENS,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return delta, nil
}
