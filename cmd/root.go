// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/porsk/github-stats/internal/cache"
	"github.com/porsk/github-stats/internal/config"
	"github.com/porsk/github-stats/internal/domain"
	"github.com/porsk/github-stats/internal/gateway"
	"github.com/porsk/github-stats/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "github-stats",
	Short: "Fetch, cache and chart public GitHub repository statistics.",
	Long: `github-stats downloads activity statistics of a public GitHub repository
(contributors, code frequency, open issues, commit activity, stargazers),
caches them on disk and renders them as charts.

Set GITHUB_TOKEN (or GITHUB_OAUTH_TOKEN) to lift the anonymous rate limit.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("owner", "o", "", "Repository owner (required)")
	rootCmd.PersistentFlags().StringP("repo", "r", "", "Repository name (required)")
	rootCmd.MarkPersistentFlagRequired("owner")
	rootCmd.MarkPersistentFlagRequired("repo")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Never read cached record sets")
	rootCmd.PersistentFlags().Bool("refresh", false, "Fetch fresh data even when a cache entry exists")
	rootCmd.PersistentFlags().String("cache-dir", "", "Cache directory (default \"data\", or GITHUB_STATS_CACHE_DIR)")
}

// newLogger builds the status logger. Output is discarded unless --verbose or
// DEBUG is set.
func newLogger(cmd *cobra.Command, cfg config.Config) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose || cfg.Debug {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// buildDownloader wires the gateway, cache store and downloader from flags and
// environment.
func buildDownloader(cmd *cobra.Command) (*usecase.Downloader, *gateway.GitHubGateway, *log.Logger, error) {
	cfg := config.FromEnvironment()
	logger := newLogger(cmd, cfg)

	owner, _ := cmd.Flags().GetString("owner")
	repo, _ := cmd.Flags().GetString("repo")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}

	gw, err := gateway.NewGitHubGateway(cfg.Token, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	ref := domain.RepositoryRef{Owner: owner, Name: repo}
	dl, err := usecase.NewDownloader(gw, cache.NewDiskStore(cacheDir), ref, !noCache, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return dl, gw, logger, nil
}
