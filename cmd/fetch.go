// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// datasetArgs maps the fetch argument to the downloader operation.
var datasetArgs = []string{"contributors", "code-frequency", "issues", "commit-activity", "stargazers"}

var fetchCmd = &cobra.Command{
	Use:       "fetch <contributors|code-frequency|issues|commit-activity|stargazers>",
	Short:     "Fetches one record set and outputs it as JSON",
	Long:      `Fetches one of the five repository record sets, serving it from the on-disk cache when possible, and outputs the result in JSON format.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: datasetArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		force, _ := cmd.Flags().GetBool("refresh")

		downloader, _, _, err := buildDownloader(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create downloader: %v\n", err)
			os.Exit(1)
		}

		var result any
		switch args[0] {
		case "contributors":
			result, err = downloader.ContributorStats(ctx, force)
		case "code-frequency":
			result, err = downloader.CodeFrequency(ctx, force)
		case "issues":
			result, err = downloader.OpenIssues(ctx, force)
		case "commit-activity":
			result, err = downloader.CommitActivity(ctx, force)
		case "stargazers":
			result, err = downloader.Stargazers(ctx, force)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch %s: %v\n", args[0], err)
			os.Exit(1)
		}

		jsonData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
