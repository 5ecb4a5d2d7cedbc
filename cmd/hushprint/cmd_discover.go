package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/hushprint/pkg/discovery"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes [prefix]",
	Short: "List node names known to the host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRegistryClient()
		if err != nil {
			return err
		}
		ctx, cancel := contextWithSignal(cmd.Context())
		defer cancel()

		cache := discovery.New(client, slog.Default())
		cache.Open(ctx)
		for _, node := range cache.SuggestOwners(argAt(args, 0)) {
			fmt.Fprintln(cmd.OutOrStdout(), node)
		}
		return nil
	},
}

var methodsCmd = &cobra.Command{
	Use:   "methods <node> [prefix]",
	Short: "List methods of a node known to the host",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRegistryClient()
		if err != nil {
			return err
		}
		ctx, cancel := contextWithSignal(cmd.Context())
		defer cancel()

		cache := discovery.New(client, slog.Default())
		cache.CommitOwner(ctx, args[0])
		for _, method := range cache.SuggestMembers(argAt(args, 1)) {
			fmt.Fprintln(cmd.OutOrStdout(), method)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd, methodsCmd)
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
