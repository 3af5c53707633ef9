// Package httpbackend implements graphstore.Backend against an HTTP graph
// store: a filter-query GET for vertex lookup, an installed-query GET for
// neighbors/neighbors_with_traversal, and a batched POST for upserts, all
// wrapped in the {error, code, message, results} envelope. Built on
// internal/httpclient the way every upstream adapter is.
package httpbackend

import (
	"context"
	"fmt"
	"net/url"
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

// envelope is the response shape every graph-store endpoint returns: any
// error == true surfaces as relerrors.StoreError.
type envelope[T any] struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results T      `json:"results"`
}

// Backend is the HTTP-wire graphstore.Backend, the default choice for a
// managed graph endpoint (as opposed to neo4jbackend, for operators running
// their own Neo4j instance).
type Backend struct {
	client *httpclient.Client
	graph  string // the "{G}" graph name segment of every endpoint
}

func New(client *httpclient.Client, graphName string) *Backend {
	return &Backend{client: client, graph: graphName}
}

func (b *Backend) Close() error { return nil }

// wireVertex/wireEdge are the batched-upsert attribute bags POSTed to
// /graph/{G}/upsert. Field names are lower_snake_case to match the store's
// schema for each vertex/edge kind.
type wireVertex struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

type wireEdge struct {
	Type       string         `json:"type"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Attributes map[string]any `json:"attributes"`
}

type upsertBody struct {
	Vertices []wireVertex `json:"vertices"`
	Edges    []wireEdge   `json:"edges"`
}

func identityToWire(v graphmodel.Identity) wireVertex {
	attrs := map[string]any{
		"uuid":       v.UUID.String(),
		"platform":   v.Platform.String(),
		"identity":   v.IdentityKey,
		"added_at":   v.AddedAt,
		"updated_at": v.UpdatedAt,
	}
	if v.DisplayName != nil {
		attrs["display_name"] = *v.DisplayName
	}
	if v.ProfileURL != nil {
		attrs["profile_url"] = *v.ProfileURL
	}
	if v.AvatarURL != nil {
		attrs["avatar_url"] = *v.AvatarURL
	}
	if v.CreatedAt != nil {
		attrs["created_at"] = *v.CreatedAt
	}
	if v.UID != nil {
		attrs["uid"] = *v.UID
	}
	if v.ExpiredAt != nil {
		attrs["expired_at"] = *v.ExpiredAt
	}
	if v.Reverse != nil {
		attrs["reverse"] = *v.Reverse
	}
	return wireVertex{Type: "Identity", Attributes: attrs}
}

func contractToWire(v graphmodel.Contract) wireVertex {
	attrs := map[string]any{
		"uuid":       v.UUID.String(),
		"chain":      v.Chain.String(),
		"address":    v.Address,
		"category":   v.Category.String(),
		"updated_at": v.UpdatedAt,
	}
	if v.Symbol != nil {
		attrs["symbol"] = *v.Symbol
	}
	return wireVertex{Type: "Contract", Attributes: attrs}
}

func (b *Backend) UpsertVertex(ctx context.Context, v any) error {
	var wv wireVertex
	switch vv := v.(type) {
	case graphmodel.Identity:
		wv = identityToWire(vv)
	case graphmodel.Contract:
		wv = contractToWire(vv)
	default:
		return relerrors.Internal("unsupported vertex type %T", v)
	}
	return b.upsert(ctx, upsertBody{Vertices: []wireVertex{wv}})
}

func (b *Backend) CreateIsolatedVertex(ctx context.Context, v any) error {
	return b.UpsertVertex(ctx, v)
}

func (b *Backend) UpsertEdge(ctx context.Context, e any) error {
	we, err := edgeToWire(e)
	if err != nil {
		return err
	}
	return b.upsert(ctx, upsertBody{Edges: []wireEdge{we}})
}

func edgeToWire(e any) (wireEdge, error) {
	switch ee := e.(type) {
	case graphmodel.Proof:
		return wireEdge{
			Type: "Proof", From: ee.From.PrimaryKey(), To: ee.To.PrimaryKey(),
			Attributes: map[string]any{
				"uuid": ee.UUID.String(), "source": ee.Source.String(),
				"level": ee.Level, "record_id": ee.RecordID,
				"created_at": ee.CreatedAt, "updated_at": ee.UpdatedAt, "fetcher": ee.Fetcher,
			},
		}, nil
	case graphmodel.Hold:
		to := ""
		if ee.ToContract != nil {
			to = ee.ToContract.PrimaryKey()
		} else if ee.ToIdentity != nil {
			to = ee.ToIdentity.PrimaryKey()
		}
		return wireEdge{
			Type: "Hold", From: ee.From.PrimaryKey(), To: to,
			Attributes: map[string]any{
				"uuid": ee.UUID.String(), "token_id": ee.TokenID,
				"transaction_hash": ee.TransactionHash, "source": ee.Source.String(),
				"updated_at": ee.UpdatedAt, "expired_at": ee.ExpiredAt, "fetcher": ee.Fetcher,
			},
		}, nil
	case graphmodel.Resolve:
		return wireEdge{
			Type: "Resolve", From: ee.From.PrimaryKey(), To: ee.To.PrimaryKey(),
			Attributes: map[string]any{
				"uuid": ee.UUID.String(), "reverse": ee.Reverse, "source": ee.Source.String(),
				"created_at": ee.CreatedAt, "updated_at": ee.UpdatedAt,
			},
		}, nil
	case graphmodel.HyperEdge:
		return wireEdge{
			Type: "Hyper", From: string(ee.Cluster), To: ee.To.PrimaryKey(),
			Attributes: map[string]any{"updated_at": ee.UpdatedAt},
		}, nil
	default:
		return wireEdge{}, relerrors.Internal("unsupported edge type %T", e)
	}
}

// BatchCommit POSTs one delta-list as a single upsert body, giving the
// store one atomic boundary to accept or reject.
func (b *Backend) BatchCommit(ctx context.Context, d graphstore.Delta) error {
	if err := d.Validate(); err != nil {
		return relerrors.StoreError(err, "batch commit rejected")
	}
	body := upsertBody{}
	for _, v := range d.Identities {
		body.Vertices = append(body.Vertices, identityToWire(v))
	}
	for _, v := range d.Contracts {
		body.Vertices = append(body.Vertices, contractToWire(v))
	}
	for _, e := range d.Proofs {
		we, _ := edgeToWire(e)
		body.Edges = append(body.Edges, we)
	}
	for _, e := range d.Holds {
		we, _ := edgeToWire(e)
		body.Edges = append(body.Edges, we)
	}
	for _, e := range d.Resolves {
		we, _ := edgeToWire(e)
		body.Edges = append(body.Edges, we)
	}
	for _, e := range d.HyperEdges {
		we, _ := edgeToWire(e)
		body.Edges = append(body.Edges, we)
	}
	return b.upsert(ctx, body)
}

func (b *Backend) upsert(ctx context.Context, body upsertBody) error {
	var env envelope[map[string]any]
	path := fmt.Sprintf("/graph/%s/upsert", b.graph)
	if err := b.client.PostJSON(ctx, path, body, &env); err != nil {
		return err
	}
	if env.Error {
		return relerrors.StoreError(fmt.Errorf("%s", env.Message), "store rejected upsert (code=%s)", env.Code)
	}
	return nil
}

type rawIdentity struct {
	UUID        string   `json:"uuid"`
	Platform    string   `json:"platform"`
	Identity    string   `json:"identity"`
	DisplayName *string  `json:"display_name"`
	ProfileURL  *string  `json:"profile_url"`
	AvatarURL   *string  `json:"avatar_url"`
	UID         *string  `json:"uid"`
	Reverse     *bool    `json:"reverse"`
	AddedAt     string   `json:"added_at"`
	UpdatedAt   string   `json:"updated_at"`
	SourceList  []string `json:"@source_list"`
}

func (b *Backend) FindVertex(ctx context.Context, platform vocab.Platform, identity string) (*graphmodel.Identity, error) {
	filter := fmt.Sprintf(`platform="%s",identity="%s"`, platform.String(), identity)
	path := fmt.Sprintf("/graph/%s/vertices/Identity?filter=%s", b.graph, url.QueryEscape(filter))

	var env envelope[[]rawIdentity]
	if err := b.client.GetJSON(ctx, path, &env); err != nil {
		return nil, err
	}
	if env.Error {
		return nil, relerrors.StoreError(fmt.Errorf("%s", env.Message), "find_vertex failed (code=%s)", env.Code)
	}
	if len(env.Results) == 0 {
		return nil, nil
	}
	v, err := identityFromRaw(env.Results[0])
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// identityFromRaw is the one custom mapping point in this package: the
// store mixes a special @source_list field into the vertex attribute bag,
// which must be lifted out before the remaining attributes construct the
// Identity. It is dropped here rather than threaded through
// graphmodel.Identity (which has no Sources field); Neighbors and
// NeighborsWithTraversal reconstruct attribution from the edges they walk,
// not from this per-vertex field.
func identityFromRaw(r rawIdentity) (graphmodel.Identity, error) {
	id := graphmodel.Identity{
		Platform:    vocab.ParsePlatform(r.Platform),
		IdentityKey: r.Identity,
		DisplayName: r.DisplayName,
		ProfileURL:  r.ProfileURL,
		AvatarURL:   r.AvatarURL,
		UID:         r.UID,
		Reverse:     r.Reverse,
	}
	if r.UUID != "" {
		parsed, err := uuid.Parse(r.UUID)
		if err != nil {
			return graphmodel.Identity{}, relerrors.ParseError(err, "vertex uuid %q", r.UUID)
		}
		id.UUID = parsed
	}
	// updated_at must survive the round trip: the query facade's TTL check
	// reads it off this struct to decide whether to refetch.
	if t, err := time.Parse(time.RFC3339, r.AddedAt); err == nil {
		id.AddedAt = t
	}
	if t, err := time.Parse(time.RFC3339, r.UpdatedAt); err == nil {
		id.UpdatedAt = t
	}
	return id, nil
}

type rawNeighbor struct {
	Identity rawIdentity `json:"identity"`
	Sources  []string    `json:"sources"`
}

// Neighbors invokes the installed "neighbors" query: the depth walk and
// source-filtering run server-side as a stored query; the client just
// invokes it and maps the result.
func (b *Backend) Neighbors(ctx context.Context, origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) ([]graphstore.NeighborResult, error) {
	path := fmt.Sprintf("/query/%s/neighbors?%s", b.graph, neighborParams(origin, depth, sourceFilter))

	var env envelope[[]rawNeighbor]
	if err := b.client.GetJSON(ctx, path, &env); err != nil {
		return nil, err
	}
	if env.Error {
		return nil, relerrors.StoreError(fmt.Errorf("%s", env.Message), "neighbors failed (code=%s)", env.Code)
	}

	out := make([]graphstore.NeighborResult, 0, len(env.Results))
	for _, rn := range env.Results {
		id, err := identityFromRaw(rn.Identity)
		if err != nil {
			continue
		}
		sources := vocab.NewDataSourceSet()
		for _, s := range rn.Sources {
			sources.Add(vocab.ParseDataSource(s))
		}
		out = append(out, graphstore.NeighborResult{Identity: id, Sources: sources})
	}
	return out, nil
}

type rawEdge struct {
	Kind string `json:"kind"`
}

func (b *Backend) NeighborsWithTraversal(ctx context.Context, origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) ([]graphstore.TraversalEdge, error) {
	path := fmt.Sprintf("/query/%s/neighbors_with_traversal?%s", b.graph, neighborParams(origin, depth, sourceFilter))

	var env envelope[[]rawEdge]
	if err := b.client.GetJSON(ctx, path, &env); err != nil {
		return nil, err
	}
	if env.Error {
		return nil, relerrors.StoreError(fmt.Errorf("%s", env.Message), "neighbors_with_traversal failed (code=%s)", env.Code)
	}

	out := make([]graphstore.TraversalEdge, 0, len(env.Results))
	for _, re := range env.Results {
		out = append(out, graphstore.TraversalEdge{Kind: re.Kind})
	}
	return out, nil
}

func neighborParams(origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) string {
	v := url.Values{}
	v.Set("platform", origin.Platform.String())
	v.Set("identity", origin.IdentityKey)
	v.Set("depth", strconv.Itoa(depth))
	if len(sourceFilter) > 0 {
		names := make([]string, len(sourceFilter))
		for i, s := range sourceFilter {
			names[i] = s.String()
		}
		v.Set("source", strings.Join(names, ","))
	}
	return v.Encode()
}
