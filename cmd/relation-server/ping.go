package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the facade is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade := buildFacade()
		if facade.Ping(context.Background()) {
			fmt.Println("pong")
			return nil
		}
		return fmt.Errorf("facade did not respond")
	},
}

var apiVersionCmd = &cobra.Command{
	Use:   "api-version",
	Short: "Print the core API version",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade := buildFacade()
		fmt.Println(facade.APIVersion(context.Background()))
		return nil
	},
}
