package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/relationgraph/core/internal/vocab"
)

var (
	queryPlatform string
	queryIdentity string
	queryDepth    int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run neighbors() against an identity, refreshing it first if stale",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade := buildFacade()
		platform := vocab.ParsePlatform(queryPlatform)
		if platform == vocab.PlatformUnknown {
			return fmt.Errorf("unrecognized platform %q", queryPlatform)
		}

		results, err := facade.Neighbors(context.Background(), platform, queryIdentity, queryDepth, nil)
		if err != nil {
			return err
		}

		type neighborOut struct {
			Platform string   `json:"platform"`
			Identity string   `json:"identity"`
			Sources  []string `json:"sources"`
		}
		out := make([]neighborOut, 0, len(results))
		for _, r := range results {
			sources := make([]string, 0, len(r.Sources))
			for _, s := range r.Sources.Slice() {
				sources = append(sources, s.String())
			}
			sort.Strings(sources)
			out = append(out, neighborOut{
				Platform: r.Identity.Platform.String(),
				Identity: r.Identity.IdentityKey,
				Sources:  sources,
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryPlatform, "platform", "", "origin identity's platform (required)")
	queryCmd.Flags().StringVar(&queryIdentity, "identity", "", "origin identity string (required)")
	queryCmd.Flags().IntVar(&queryDepth, "depth", 2, "traversal depth (clamped to traversal.depth_max)")
	queryCmd.MarkFlagRequired("platform")
	queryCmd.MarkFlagRequired("identity")
}
