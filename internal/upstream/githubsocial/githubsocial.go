// Package githubsocial adapts a GitHub login into a Proof edge to any
// linked social account exposed on the public profile (currently the
// Twitter handle). The link is profile-asserted rather than
// cryptographically signed, so the Proof is written at the weak level.
package githubsocial

import (
	"context"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/vocab"
)

const name = "githubsocial"

type Fetcher struct {
	client      *github.Client
	rateLimiter *rate.Limiter
}

func New(token string, requestsPerSecond float64) *Fetcher {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond == 0 {
		limit = rate.Inf
	}
	return &Fetcher{
		client:      client,
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

func (f *Fetcher) Name() string { return name }
func (f *Fetcher) Source() vocab.DataSource { return vocab.DataSourceGitHub }

func (f *Fetcher) CanFetch(target vocab.Target) bool {
	return target.InPlatformSupported(vocab.PlatformGitHub)
}

func (f *Fetcher) Fetch(ctx context.Context, target vocab.Target) (graphstore.Delta, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return graphstore.Delta{}, relerrors.Timeout("rate limiter wait: %v", err)
		}
		return graphstore.Delta{}, relerrors.UpstreamError(err, "rate limiter wait failed")
	}

	user, _, err := f.client.Users.Get(ctx, target.Identity)
	if err != nil {
		if resp, ok := err.(*github.ErrorResponse); ok && resp.Response != nil && resp.Response.StatusCode == 404 {
			return graphstore.Delta{}, nil
		}
		return graphstore.Delta{}, relerrors.UpstreamError(err, "github user lookup failed for %s", target.Identity)
	}

	now := time.Now().UTC()
	login := user.GetLogin()
	displayName := user.GetName()
	avatarURL := user.GetAvatarURL()
	profileURL := user.GetHTMLURL()

	githubIdentity := graphmodel.Identity{
		UUID:        uuid.New(),
		Platform:    vocab.PlatformGitHub,
		IdentityKey: login,
		DisplayName: nonEmpty(displayName),
		AvatarURL:   nonEmpty(avatarURL),
		ProfileURL:  nonEmpty(profileURL),
		AddedAt:     now,
		UpdatedAt:   now,
	}

	var delta graphstore.Delta
	delta.Identities = append(delta.Identities, githubIdentity)

	if twitter := user.GetTwitterUsername(); twitter != "" {
		twitterIdentity := graphmodel.Identity{
			UUID:        uuid.New(),
			Platform:    vocab.PlatformTwitter,
			IdentityKey: strings.ToLower(twitter),
			AddedAt:     now,
			UpdatedAt:   now,
		}
		delta.Identities = append(delta.Identities, twitterIdentity)
		delta.Proofs = append(delta.Proofs, graphmodel.Proof{
			UUID:      uuid.New(),
			From:      githubIdentity,
			To:        twitterIdentity,
			Source:    vocab.DataSourceGitHub,
			Level:     graphmodel.ProofLevelWeak,
			CreatedAt: now,
			UpdatedAt: now,
			Fetcher:   name,
		})
		delta.HyperEdges = append(delta.HyperEdges,
			graphmodel.HyperEdge{UUID: uuid.New(), Cluster: graphmodel.ClusterID(login), To: githubIdentity, UpdatedAt: now},
			graphmodel.HyperEdge{UUID: uuid.New(), Cluster: graphmodel.ClusterID(login), To: twitterIdentity, UpdatedAt: now},
		)
		return delta, nil
	}

	// No linked social account found: still write the isolated vertex
	// rather than an empty delta.
	return graphstore.Delta{Identities: []graphmodel.Identity{githubIdentity}}, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
