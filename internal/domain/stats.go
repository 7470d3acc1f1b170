// Package domain contains the core data structures for repository statistics.
package domain

import (
	"fmt"
	"time"
)

// RepositoryRef identifies the repository all statistics are fetched for.
type RepositoryRef struct {
	Owner string
	Name  string
}

// Validate reports whether both parts of the reference are present.
func (r RepositoryRef) Validate() error {
	if r.Owner == "" || r.Name == "" {
		return fmt.Errorf("repository reference requires both owner and name, got %q/%q", r.Owner, r.Name)
	}
	return nil
}

// String returns the "owner/name" form used in URLs and log lines.
func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// Dataset names. They double as cache file stems, so changing one orphans
// previously written cache entries.
const (
	DatasetTotalContributions  = "total_contributions"
	DatasetWeeklyContributions = "weekly_contributions"
	DatasetCodeFrequency       = "code_frequency"
	DatasetIssues              = "issues"
	DatasetCommitActivity      = "commit_activity"
	DatasetStargazers          = "stargazers"
)

// ContributorTotal holds the all-time commit count of a single contributor.
type ContributorTotal struct {
	User    string `json:"user"`
	Commits int    `json:"commits"`
}

// WeeklyContribution holds one contributor's activity during one week.
// Week is the Unix timestamp of the week start as reported by the API.
type WeeklyContribution struct {
	User      string `json:"user"`
	Week      int64  `json:"week_unix_ts"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Commits   int    `json:"commits"`
}

// Date returns the UTC start of the week.
func (w WeeklyContribution) Date() time.Time {
	return time.Unix(w.Week, 0).UTC()
}

// ContributorStats is the pair of tables produced by one contributors fetch.
type ContributorStats struct {
	Totals []ContributorTotal   `json:"totals"`
	Weekly []WeeklyContribution `json:"weekly"`
}

// CodeFrequency holds the repository-wide additions and deletions of one week.
type CodeFrequency struct {
	Week      int64 `json:"week_unix_ts"`
	Additions int   `json:"additions"`
	Deletions int   `json:"deletions"`
}

// Date returns the UTC start of the week.
func (c CodeFrequency) Date() time.Time {
	return time.Unix(c.Week, 0).UTC()
}

// Issue is one open issue of the repository.
type Issue struct {
	ID        int64     `json:"id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// CommitActivity holds one week of commit counts broken down by weekday.
// Days is Sunday-first, as the API delivers it.
type CommitActivity struct {
	Week  int64  `json:"week_unix_ts"`
	Days  [7]int `json:"days"`
	Total int    `json:"total"`
}

// Date returns the UTC start of the week.
func (c CommitActivity) Date() time.Time {
	return time.Unix(c.Week, 0).UTC()
}

// Stargazer records one user starring the repository.
type Stargazer struct {
	User      string    `json:"user"`
	StarredAt time.Time `json:"starred_at"`
}

// RepositoryOverview is the summary fetched through the GraphQL API.
type RepositoryOverview struct {
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	OpenIssues  int    `json:"open_issues"`
}

// RateInfo reports the request quota attached to an API response.
type RateInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}
