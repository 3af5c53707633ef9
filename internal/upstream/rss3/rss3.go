// Package rss3 adapts the RSS3 NFT activity feed into Hold edges: a
// cursor-paginated GET with a page-total termination test, a
// transfer/mint-only filter that excludes burns, an ENS-symbol exclusion
// (ENS resolution is handled by the ens adapter, not modeled as an NFT hold
// here), a POAP category override, and a drop-on-unknown-chain rule.
package rss3

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/httpclient"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/vocab"
)

const name = "rss3"

// pageLimit is both the requested page size and the termination test: if
// total < pageLimit the result set is the last page regardless of whether a
// cursor is present.
const pageLimit = 500

type Fetcher struct {
	http *httpclient.Client
}

func New(client *httpclient.Client) *Fetcher {
	return &Fetcher{http: client}
}

func (f *Fetcher) Name() string { return name }
func (f *Fetcher) Source() vocab.DataSource { return vocab.DataSourceRSS3 }

func (f *Fetcher) CanFetch(target vocab.Target) bool {
	return target.InPlatformSupported(vocab.PlatformEthereum)
}

type response struct {
	Total  int64        `json:"total"`
	Cursor *string      `json:"cursor"`
	Result []resultItem `json:"result"`
}

type resultItem struct {
	Timestamp string       `json:"timestamp"`
	Hash      string       `json:"hash"`
	Owner     string       `json:"owner"`
	Network   string       `json:"network"`
	Tag       string       `json:"tag"`
	TagType   string       `json:"type"`
	Actions   []actionItem `json:"actions"`
}

type actionItem struct {
	Tag     string   `json:"tag"`
	TagType string   `json:"type"`
	Hash    string   `json:"hash"`
	Meta    metadata `json:"metadata"`
}

type metadata struct {
	ID              *string `json:"id"`
	Symbol          *string `json:"symbol"`
	Standard        *string `json:"standard"`
	ContractAddress *string `json:"contract_address"`
}

func (f *Fetcher) Fetch(ctx context.Context, target vocab.Target) (graphstore.Delta, error) {
	address := strings.ToLower(target.Identity)

	var delta graphstore.Delta
	cursor := ""
	for {
		path := fmt.Sprintf("/%s?tag=collectible&include_poap=true&refresh=true", address)
		if cursor != "" {
			path += "&cursor=" + cursor
		}

		var resp response
		if err := f.http.GetJSON(ctx, path, &resp); err != nil {
			return graphstore.Delta{}, relerrors.UpstreamError(err, "rss3 fetch failed for %s", address)
		}
		if resp.Total == 0 {
			break
		}

		for _, item := range resp.Result {
			if !strings.EqualFold(item.Owner, address) {
				continue
			}
			f.appendItem(&delta, address, item)
		}

		if resp.Cursor == nil || resp.Total < pageLimit {
			break
		}
		cursor = *resp.Cursor
	}

	if len(delta.Identities) == 0 && vocab.IsValidEthAddress(address) {
		now := time.Now().UTC()
		return graphstore.IsolatedIdentityDelta(graphmodel.Identity{
			UUID: uuid.New(), Platform: vocab.PlatformEthereum, IdentityKey: address, AddedAt: now, UpdatedAt: now,
		}), nil
	}
	return delta, nil
}

func (f *Fetcher) appendItem(delta *graphstore.Delta, address string, item resultItem) {
	if len(item.Actions) == 0 {
		return
	}

	var real *actionItem
	for i := range item.Actions {
		a := item.Actions[i]
		// transfer/mint share the collectible UMS with burn; burn is excluded
		// so only genuine holds are recorded.
		if a.Tag != "collectible" || item.Tag != "collectible" {
			continue
		}
		if (a.TagType == "transfer" && item.TagType == "transfer") || (a.TagType == "mint" && item.TagType == "mint") {
			real = &a
			break
		}
	}
	if real == nil {
		return
	}
	if real.Meta.Symbol == nil || *real.Meta.Symbol == "ENS" {
		return
	}

	category := vocab.ContractCategoryUnknown
	if real.Meta.Standard != nil {
		switch *real.Meta.Standard {
		case "ERC-721":
			category = vocab.ContractCategoryERC721
		case "ERC-1155":
			category = vocab.ContractCategoryERC1155
		}
	}
	// currently unreachable: the transfer/mint filter above never admits a
	// poap-typed item, so POAP activity only surfaces through its ERC-721
	// standard field
	if item.TagType == "poap" {
		category = vocab.ContractCategoryPOAP
	}

	chain := vocab.ParseChain(item.Network)
	if chain == vocab.ChainUnknown {
		return
	}
	if real.Meta.ContractAddress == nil || real.Meta.ID == nil {
		return
	}

	now := time.Now().UTC()
	var createdAt *time.Time
	if item.Timestamp != "" {
		if t, err := parseTimestamp(item.Timestamp); err == nil {
			createdAt = &t
		}
	}

	from := graphmodel.Identity{
		UUID:        uuid.New(),
		Platform:    vocab.PlatformEthereum,
		IdentityKey: address,
		CreatedAt:   createdAt,
		AddedAt:     now,
		UpdatedAt:   now,
	}
	contractAddr := strings.ToLower(*real.Meta.ContractAddress)
	to := graphmodel.Contract{
		UUID:      uuid.New(),
		Chain:     chain,
		Address:   contractAddr,
		Category:  category,
		Symbol:    real.Meta.Symbol,
		UpdatedAt: now,
	}

	txHash := item.Hash
	delta.Identities = append(delta.Identities, from)
	delta.Contracts = append(delta.Contracts, to)
	delta.Holds = append(delta.Holds, graphmodel.Hold{
		UUID:            uuid.New(),
		Kind:            graphmodel.HoldKindIdentityContract,
		From:            from,
		ToContract:      &to,
		TokenID:         *real.Meta.ID,
		TransactionHash: &txHash,
		Source:          vocab.DataSourceRSS3,
		CreatedAt:       createdAt,
		UpdatedAt:       now,
		Fetcher:         name,
	})
	delta.HyperEdges = append(delta.HyperEdges, graphmodel.HyperEdge{
		UUID:      uuid.New(),
		Cluster:   graphmodel.ClusterID(address),
		To:        from,
		UpdatedAt: now,
	})
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}
