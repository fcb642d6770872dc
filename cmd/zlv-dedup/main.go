// Package main provides the zlv-dedup batch CLI: duplicate resolution for
// owner records and temporal merge for housing snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zlv-dedup",
	Short: "Deduplicate owner and housing records",
	Long:  "zlv-dedup collapses duplicate owner records and yearly housing snapshots into canonical rows, preserving every attached event, note and ownership link.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
