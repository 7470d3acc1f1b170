// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strings"
)

// DefaultCacheDir is where record sets are cached when nothing else is
// configured.
const DefaultCacheDir = "data"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Token    string
	CacheDir string
	Debug    bool
}

// FromEnvironment creates a Config from environment variables. GITHUB_TOKEN
// wins over the older GITHUB_OAUTH_TOKEN name; both grant the authenticated
// request quota.
func FromEnvironment() Config {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_OAUTH_TOKEN")
	}

	cacheDir := os.Getenv("GITHUB_STATS_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = DefaultCacheDir
	}

	debug := os.Getenv("DEBUG")
	debugMode := debug != "" && debug != "0" && strings.ToLower(debug) != "false"

	return Config{
		Token:    token,
		CacheDir: cacheDir,
		Debug:    debugMode,
	}
}
