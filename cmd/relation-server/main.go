// Command relation-server is the thin CLI entry point around the query
// facade: a cobra root command with a persistent --config/--verbose flag
// pair, logrus for CLI-facing output (structured internal logging goes
// through internal/rlog).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relationgraph/core/internal/config"
)

var (
	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "relation-server",
	Short: "Identity graph aggregator: fetch, reconcile, and serve identity/contract relationships",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("failed to load config, using defaults")
			cfg = config.Default()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(apiVersionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(expandCmd)
}
