package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relationgraph/core/internal/vocab"
)

var (
	expandPlatform string
	expandIdentity string
	expandDepth    int
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Return the edge list around an identity, refreshing it first if stale",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade := buildFacade()
		platform := vocab.ParsePlatform(expandPlatform)
		if platform == vocab.PlatformUnknown {
			return fmt.Errorf("unrecognized platform %q", expandPlatform)
		}

		edges, err := facade.Expand(context.Background(), platform, expandIdentity, expandDepth)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(edges)
	},
}

func init() {
	expandCmd.Flags().StringVar(&expandPlatform, "platform", "", "origin identity's platform (required)")
	expandCmd.Flags().StringVar(&expandIdentity, "identity", "", "origin identity string (required)")
	expandCmd.Flags().IntVar(&expandDepth, "depth", 1, "traversal depth (clamped to traversal.depth_max)")
	expandCmd.MarkFlagRequired("platform")
	expandCmd.MarkFlagRequired("identity")
}
