// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/porsk/github-stats/internal/chart"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Renders every statistic as an HTML chart",
	Long: `Renders all repository statistics as HTML chart files: commit activity
heatmap, lines-of-code charts, commits-by-author pie, and stargazer history.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		force, _ := cmd.Flags().GetBool("refresh")
		outDir, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("top")

		downloader, _, logger, err := buildDownloader(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create downloader: %v\n", err)
			os.Exit(1)
		}
		visualizer := chart.FromDownloader(downloader, outDir, logger)

		paths, err := visualizer.RenderAll(ctx, force, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render charts: %v\n", err)
			os.Exit(1)
		}
		for _, path := range paths {
			fmt.Println(path)
		}
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
	chartsCmd.Flags().String("out", "charts", "Output directory for the chart files")
	chartsCmd.Flags().Int("top", chart.DefaultAuthorLimit, "Number of contributors shown individually in the pie chart")
}
