package gateway

import (
	"errors"
	"fmt"

	"github.com/google/go-github/v62/github"

	"github.com/porsk/github-stats/internal/domain"
)

// Sentinel errors for the failure classes the GitHub API can report.
// Callers match them with errors.Is.
var (
	// ErrNotFound means the repository (or a resource under it) does not exist
	// or is not visible with the current credential.
	ErrNotFound = errors.New("repository not found")

	// ErrBadCredentials means the API rejected the supplied token.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrRateLimited means the request quota for the current credential is
	// exhausted. Anonymous clients hit this far earlier than authenticated ones.
	ErrRateLimited = errors.New("API rate limit exceeded")

	// ErrStatsTimeout means a statistics endpoint kept answering "still
	// computing" for longer than the poll budget allows.
	ErrStatsTimeout = errors.New("statistics computation did not finish in time")
)

// classify maps go-github errors onto the sentinel taxonomy, keeping the
// endpoint and repository in the message. Transport errors pass through wrapped.
func classify(err error, endpoint string, repo domain.RepositoryRef) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%s for %s: %w", endpoint, repo, ErrRateLimited)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		switch status {
		case 404:
			return fmt.Errorf("%s for %s (HTTP %d): %w", endpoint, repo, status, ErrNotFound)
		case 401:
			return fmt.Errorf("%s for %s (HTTP %d): %w", endpoint, repo, status, ErrBadCredentials)
		case 403, 429:
			return fmt.Errorf("%s for %s (HTTP %d): %w", endpoint, repo, status, ErrRateLimited)
		}
		return fmt.Errorf("%s for %s (HTTP %d): %w", endpoint, repo, status, err)
	}

	return fmt.Errorf("%s for %s: %w", endpoint, repo, err)
}
