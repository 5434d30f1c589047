package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the geoconnect command tree
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "geoconnect",
		Short:         "Manage authenticated connections to geospatial servers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newProbeCmd())

	return rootCmd
}
