// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/porsk/github-stats/internal/domain"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Verifies the repository and prints a one-shot summary",
	Long: `Verifies that the repository exists and is reachable with the current
credential, then prints its description, star/fork counts, the number of open
issues, and the remaining request quota as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		downloader, gw, _, err := buildDownloader(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create downloader: %v\n", err)
			os.Exit(1)
		}
		repo := downloader.Repository()

		rate, err := gw.CheckRepository(ctx, repo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Repository check failed: %v\n", err)
			os.Exit(1)
		}
		summary, err := gw.FetchOverview(ctx, repo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch overview: %v\n", err)
			os.Exit(1)
		}

		out := struct {
			Repository string                     `json:"repository"`
			Overview   *domain.RepositoryOverview `json:"overview"`
			Rate       *domain.RateInfo           `json:"rate"`
		}{repo.String(), summary, rate}

		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
}
