// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/porsk/github-stats/internal/domain"
)

const (
	// perPage is the page size used for all paginated endpoints.
	perPage = 100

	// defaultPollInterval and defaultPollAttempts bound the wait for the
	// statistics endpoints while GitHub computes them in the background.
	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 10
)

// Fetcher defines the behavior of a gateway for fetching repository
// statistics from GitHub.
type Fetcher interface {
	FetchContributorStats(ctx context.Context, repo domain.RepositoryRef) (*domain.ContributorStats, error)
	FetchCodeFrequency(ctx context.Context, repo domain.RepositoryRef) ([]domain.CodeFrequency, error)
	FetchOpenIssues(ctx context.Context, repo domain.RepositoryRef) ([]domain.Issue, error)
	FetchCommitActivity(ctx context.Context, repo domain.RepositoryRef) ([]domain.CommitActivity, error)
	FetchStargazers(ctx context.Context, repo domain.RepositoryRef) ([]domain.Stargazer, error)
	FetchOverview(ctx context.Context, repo domain.RepositoryRef) (*domain.RepositoryOverview, error)
	CheckRepository(ctx context.Context, repo domain.RepositoryRef) (*domain.RateInfo, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger

	pollInterval time.Duration
	pollAttempts int
}

// NewGitHubGateway creates a gateway. An empty token yields an anonymous
// client, which works but is granted a much smaller request quota.
func NewGitHubGateway(token string, logger *log.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(5*time.Minute, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Base:   rateLimitWaiter,
				Source: ts,
			},
		}
	} else {
		httpClient = &http.Client{Transport: rateLimitWaiter}
	}

	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
		pollInterval:  defaultPollInterval,
		pollAttempts:  defaultPollAttempts,
	}, nil
}

// CheckRepository verifies that the repository exists and is reachable with
// the current credential, and reports the request quota attached to the
// response.
func (g *GitHubGateway) CheckRepository(ctx context.Context, repo domain.RepositoryRef) (*domain.RateInfo, error) {
	_, resp, err := g.restClient.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, classify(err, "repository lookup", repo)
	}
	rate := &domain.RateInfo{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
	}
	g.logger.Printf("The maximum number of requests you are permitted to make per hour: %d", rate.Limit)
	g.logger.Printf("The number of requests remaining in the current rate limit window: %d", rate.Remaining)
	return rate, nil
}

// pollStats runs fetch, retrying after a fixed delay while GitHub answers 202
// (statistics still being computed). The retry count is bounded; exhausting it
// returns ErrStatsTimeout.
func (g *GitHubGateway) pollStats(ctx context.Context, endpoint string, repo domain.RepositoryRef, fetch func() error) error {
	for attempt := 0; ; attempt++ {
		err := fetch()
		var accepted *github.AcceptedError
		if !errors.As(err, &accepted) {
			return classify(err, endpoint, repo)
		}
		if attempt == g.pollAttempts {
			return fmt.Errorf("%s for %s still computing after %d attempts: %w", endpoint, repo, attempt, ErrStatsTimeout)
		}
		g.logger.Printf("  %s for %s is still being computed, retrying in %s...", endpoint, repo, g.pollInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.pollInterval):
		}
	}
}

// FetchContributorStats fetches per-contributor totals and weekly activity.
// Both tables come from a single endpoint.
func (g *GitHubGateway) FetchContributorStats(ctx context.Context, repo domain.RepositoryRef) (*domain.ContributorStats, error) {
	g.logger.Printf("Fetching contributor statistics for %s...", repo)

	var contributors []*github.ContributorStats
	err := g.pollStats(ctx, "contributor statistics", repo, func() error {
		var err error
		contributors, _, err = g.restClient.Repositories.ListContributorsStats(ctx, repo.Owner, repo.Name)
		return err
	})
	if err != nil {
		return nil, err
	}

	stats := &domain.ContributorStats{
		Totals: make([]domain.ContributorTotal, 0, len(contributors)),
	}
	for _, c := range contributors {
		user := c.GetAuthor().GetLogin()
		stats.Totals = append(stats.Totals, domain.ContributorTotal{
			User:    user,
			Commits: c.GetTotal(),
		})
		for _, week := range c.Weeks {
			stats.Weekly = append(stats.Weekly, domain.WeeklyContribution{
				User:      user,
				Week:      week.GetWeek().Unix(),
				Additions: week.GetAdditions(),
				Deletions: week.GetDeletions(),
				Commits:   week.GetCommits(),
			})
		}
	}
	g.logger.Printf("Fetched statistics for %d contributors.", len(stats.Totals))
	return stats, nil
}

// FetchCodeFrequency fetches the weekly repository-wide additions and
// deletions. Deletions are negative, as the API reports them.
func (g *GitHubGateway) FetchCodeFrequency(ctx context.Context, repo domain.RepositoryRef) ([]domain.CodeFrequency, error) {
	g.logger.Printf("Fetching code frequency for %s...", repo)

	var weeks []*github.WeeklyStats
	err := g.pollStats(ctx, "code frequency", repo, func() error {
		var err error
		weeks, _, err = g.restClient.Repositories.ListCodeFrequency(ctx, repo.Owner, repo.Name)
		return err
	})
	if err != nil {
		return nil, err
	}

	frequency := make([]domain.CodeFrequency, 0, len(weeks))
	for _, week := range weeks {
		frequency = append(frequency, domain.CodeFrequency{
			Week:      week.GetWeek().Unix(),
			Additions: week.GetAdditions(),
			Deletions: week.GetDeletions(),
		})
	}
	g.logger.Printf("Fetched code frequency for %d weeks.", len(frequency))
	return frequency, nil
}

// FetchOpenIssues fetches all currently open issues, following pagination
// until the API reports no further pages.
func (g *GitHubGateway) FetchOpenIssues(ctx context.Context, repo domain.RepositoryRef) ([]domain.Issue, error) {
	g.logger.Printf("Fetching open issues for %s...", repo)

	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var issues []domain.Issue
	for {
		page, resp, err := g.restClient.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, classify(err, "issues", repo)
		}
		for _, issue := range page {
			issues = append(issues, domain.Issue{
				ID:        issue.GetID(),
				State:     issue.GetState(),
				CreatedAt: issue.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of issues...")
	}
	g.logger.Printf("Fetched %d open issues.", len(issues))
	return issues, nil
}

// FetchCommitActivity fetches the last 52 weeks of commit counts broken down
// by weekday.
func (g *GitHubGateway) FetchCommitActivity(ctx context.Context, repo domain.RepositoryRef) ([]domain.CommitActivity, error) {
	g.logger.Printf("Fetching commit activity for %s...", repo)

	var weeks []*github.WeeklyCommitActivity
	err := g.pollStats(ctx, "commit activity", repo, func() error {
		var err error
		weeks, _, err = g.restClient.Repositories.ListCommitActivity(ctx, repo.Owner, repo.Name)
		return err
	})
	if err != nil {
		return nil, err
	}

	activity := make([]domain.CommitActivity, 0, len(weeks))
	for _, week := range weeks {
		entry := domain.CommitActivity{
			Week:  week.GetWeek().Unix(),
			Total: week.GetTotal(),
		}
		copy(entry.Days[:], week.Days)
		activity = append(activity, entry)
	}
	g.logger.Printf("Fetched commit activity for %d weeks.", len(activity))
	return activity, nil
}

// FetchStargazers fetches every user that starred the repository together
// with the starring timestamp. go-github requests the star+json media type,
// without which the API omits starred_at.
func (g *GitHubGateway) FetchStargazers(ctx context.Context, repo domain.RepositoryRef) ([]domain.Stargazer, error) {
	g.logger.Printf("Fetching stargazers for %s...", repo)

	opts := &github.ListOptions{PerPage: perPage}
	var stargazers []domain.Stargazer
	for {
		page, resp, err := g.restClient.Activity.ListStargazers(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, classify(err, "stargazers", repo)
		}
		for _, sg := range page {
			stargazers = append(stargazers, domain.Stargazer{
				User:      sg.GetUser().GetLogin(),
				StarredAt: sg.GetStarredAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of stargazers...")
	}
	g.logger.Printf("Fetched %d stargazers.", len(stargazers))
	return stargazers, nil
}

// overviewQuery fetches the repository summary through the GraphQL API.
type overviewQuery struct {
	Repository struct {
		Description    string
		StargazerCount int
		ForkCount      int
		Issues         struct {
			TotalCount int
		} `graphql:"issues(states: OPEN)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// FetchOverview fetches a one-shot summary of the repository.
func (g *GitHubGateway) FetchOverview(ctx context.Context, repo domain.RepositoryRef) (*domain.RepositoryOverview, error) {
	g.logger.Printf("Fetching overview for %s...", repo)

	var q overviewQuery
	variables := map[string]interface{}{
		"owner": githubv4.String(repo.Owner),
		"name":  githubv4.String(repo.Name),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("overview query for %s: %w", repo, err)
	}

	return &domain.RepositoryOverview{
		Description: q.Repository.Description,
		Stars:       q.Repository.StargazerCount,
		Forks:       q.Repository.ForkCount,
		OpenIssues:  q.Repository.Issues.TotalCount,
	}, nil
}
