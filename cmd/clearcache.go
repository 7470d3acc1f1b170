// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Removes every cached record set of the repository",
	Run: func(cmd *cobra.Command, args []string) {
		downloader, _, _, err := buildDownloader(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create downloader: %v\n", err)
			os.Exit(1)
		}
		if err := downloader.ClearCache(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear cache: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Cache cleared for %s.\n", downloader.Repository())
	},
}

func init() {
	rootCmd.AddCommand(clearCacheCmd)
}
