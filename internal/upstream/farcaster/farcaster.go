// Package farcaster adapts the Warpcast API into canonical graph writes.
// Two entry paths exist: lookup by username, and reverse lookup by verified
// signer address. Each verified address becomes an Identity-Identity Hold
// from the signing wallet to the farcaster account; a user with no
// verifications is still recorded as an isolated vertex.
package farcaster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/httpclient"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/vocab"
)

const name = "farcaster"

type Fetcher struct {
	http *httpclient.Client
}

func New(client *httpclient.Client) *Fetcher {
	return &Fetcher{http: client}
}

func (f *Fetcher) Name() string { return name }
func (f *Fetcher) Source() vocab.DataSource { return vocab.DataSourceFarcaster }

// CanFetch matches fetch_connections_by_platform_identity's dispatch:
// Farcaster usernames (by username) and Ethereum addresses (by verified
// signer). Solana is explicitly unsupported by Warpcast's verification
// lookup, so it is excluded even though it is address-like.
func (f *Fetcher) CanFetch(target vocab.Target) bool {
	return target.InPlatformSupported(vocab.PlatformFarcaster, vocab.PlatformEthereum)
}

func (f *Fetcher) Fetch(ctx context.Context, target vocab.Target) (graphstore.Delta, error) {
	switch target.Platform {
	case vocab.PlatformFarcaster:
		return f.fetchByUsername(ctx, target.Identity)
	case vocab.PlatformEthereum:
		return f.fetchBySigner(ctx, target.Identity)
	default:
		return graphstore.Delta{}, nil
	}
}

type userProfileResponse struct {
	Result struct {
		User user `json:"user"`
	} `json:"result"`
}

type user struct {
	FID         int64  `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type verificationResponse struct {
	Result struct {
		Verifications []verification `json:"verifications"`
	} `json:"result"`
}

type verification struct {
	FID       int64  `json:"fid"`
	Address   string `json:"address"`
	Timestamp int64  `json:"timestamp"` // epoch millis
	Protocol  string `json:"protocol"`
}

func (f *Fetcher) fetchByUsername(ctx context.Context, username string) (graphstore.Delta, error) {
	u, err := f.userByUsername(ctx, username)
	if err != nil {
		return graphstore.Delta{}, err
	}

	verifications, err := f.verifications(ctx, u.FID)
	if err != nil {
		return graphstore.Delta{}, err
	}

	if len(verifications) == 0 {
		return graphstore.IsolatedIdentityDelta(newFarcasterIdentity(u)), nil
	}

	return f.deltaFromVerifications(u, verifications), nil
}

func (f *Fetcher) fetchBySigner(ctx context.Context, address string) (graphstore.Delta, error) {
	// Warpcast's user-by-verification only accepts the canonical eth
	// address shape. A non-matching string is rejected before any upstream
	// call: nothing is written and the caller gets a clean NotFound.
	if !vocab.IsValidEthAddress(address) {
		return graphstore.Delta{}, relerrors.NotFound("not an ethereum address: %s", address)
	}

	u, err := f.userByVerification(ctx, address)
	if err != nil {
		if relerrors.IsKind(err, relerrors.KindNotFound) {
			return graphstore.Delta{}, nil
		}
		return graphstore.Delta{}, err
	}
	if u == nil {
		return graphstore.Delta{}, nil
	}

	verifications, err := f.verifications(ctx, u.FID)
	if err != nil {
		return graphstore.Delta{}, err
	}

	return f.deltaFromVerifications(*u, verifications), nil
}

func (f *Fetcher) deltaFromVerifications(u user, verifications []verification) graphstore.Delta {
	now := time.Now().UTC()
	farcasterIdentity := newFarcasterIdentity(u)

	var delta graphstore.Delta
	delta.Identities = append(delta.Identities, farcasterIdentity)

	for _, v := range verifications {
		protocol := vocab.ParsePlatform(v.Protocol)
		address := v.Address
		if protocol == vocab.PlatformEthereum {
			address = strings.ToLower(address)
		}

		signerIdentity := graphmodel.Identity{
			UUID:        uuid.New(),
			Platform:    protocol,
			IdentityKey: address,
			AddedAt:     now,
			UpdatedAt:   now,
		}
		delta.Identities = append(delta.Identities, signerIdentity)

		createdAt := time.UnixMilli(v.Timestamp).UTC()
		delta.Holds = append(delta.Holds, graphmodel.Hold{
			UUID:       uuid.New(),
			Kind:       graphmodel.HoldKindIdentityIdentity,
			From:       signerIdentity,
			ToIdentity: &farcasterIdentity,
			Source:     vocab.DataSourceFarcaster,
			CreatedAt:  &createdAt,
			UpdatedAt:  now,
			Fetcher:    name,
		})
	}
	return delta
}

func newFarcasterIdentity(u user) graphmodel.Identity {
	now := time.Now().UTC()
	displayName := u.DisplayName
	uid := fmt.Sprintf("%d", u.FID)
	reverse := false
	return graphmodel.Identity{
		UUID:        uuid.New(),
		Platform:    vocab.PlatformFarcaster,
		IdentityKey: u.Username,
		DisplayName: &displayName,
		UID:         &uid,
		AddedAt:     now,
		UpdatedAt:   now,
		Reverse:     &reverse,
	}
}

func (f *Fetcher) userByUsername(ctx context.Context, username string) (user, error) {
	var resp userProfileResponse
	err := f.http.GetJSON(ctx, "/v2/user-by-username?username="+username, &resp)
	if err != nil {
		// a 404 ("no such user") stays NotFound rather than being
		// re-wrapped as an upstream failure
		if relerrors.IsKind(err, relerrors.KindNotFound) {
			return user{}, err
		}
		return user{}, relerrors.UpstreamError(err, "warpcast user-by-username failed for %s", username)
	}
	return resp.Result.User, nil
}

func (f *Fetcher) userByVerification(ctx context.Context, address string) (*user, error) {
	var resp userProfileResponse
	err := f.http.GetJSON(ctx, "/v2/user-by-verification?address="+address, &resp)
	if err != nil {
		return nil, err
	}
	u := resp.Result.User
	return &u, nil
}

func (f *Fetcher) verifications(ctx context.Context, fid int64) ([]verification, error) {
	var resp verificationResponse
	err := f.http.GetJSON(ctx, fmt.Sprintf("/v2/verifications?fid=%d", fid), &resp)
	if err != nil {
		return nil, relerrors.UpstreamError(err, "warpcast verifications failed for fid %d", fid)
	}
	return resp.Result.Verifications, nil
}
