package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porsk/github-stats/internal/domain"
)

var testRepo = domain.RepositoryRef{Owner: "acme", Name: "widgets"}

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP
// server. The poll delay is shortened so retry tests stay fast.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())

	gateway := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        log.New(io.Discard, "", 0),
		pollInterval:  time.Millisecond,
		pollAttempts:  3,
	}
	return gateway, server
}

func TestGitHubGateway_FetchContributorStats(t *testing.T) {
	body := `[
		{"author": {"login": "alice"}, "total": 5,
		 "weeks": [{"w": 1609027200, "a": 10, "d": 2, "c": 3}, {"w": 1609632000, "a": 1, "d": 0, "c": 2}]},
		{"author": {"login": "bob"}, "total": 1,
		 "weeks": [{"w": 1609027200, "a": 4, "d": 4, "c": 1}]}
	]`

	testCases := []struct {
		name        string
		accepted    int // number of 202 responses before data is served
		expectError error
	}{
		{name: "happy path - data served immediately", accepted: 0},
		{name: "still computing - data served after polling", accepted: 2},
		{name: "still computing - poll budget exhausted", accepted: 10, expectError: ErrStatsTimeout},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			requests := 0
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/acme/widgets/stats/contributors", r.URL.Path)
				requests++
				if requests <= tc.accepted {
					w.WriteHeader(http.StatusAccepted)
					return
				}
				fmt.Fprint(w, body)
			}
			gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

			stats, err := gateway.FetchContributorStats(context.Background(), testRepo)
			if tc.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, []domain.ContributorTotal{
				{User: "alice", Commits: 5},
				{User: "bob", Commits: 1},
			}, stats.Totals)
			require.Len(t, stats.Weekly, 3)
			assert.Equal(t, domain.WeeklyContribution{
				User: "alice", Week: 1609027200, Additions: 10, Deletions: 2, Commits: 3,
			}, stats.Weekly[0])
			assert.Equal(t, "bob", stats.Weekly[2].User)
		})
	}
}

func TestGitHubGateway_ErrorTaxonomy(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expectError error
	}{
		{
			name:        "missing repository",
			status:      http.StatusNotFound,
			body:        `{"message": "Not Found"}`,
			expectError: ErrNotFound,
		},
		{
			name:        "rejected token",
			status:      http.StatusUnauthorized,
			body:        `{"message": "Bad credentials"}`,
			expectError: ErrBadCredentials,
		},
		{
			name:        "exhausted quota",
			status:      http.StatusForbidden,
			body:        `{"message": "API rate limit exceeded"}`,
			expectError: ErrRateLimited,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}
			gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

			_, err := gateway.FetchContributorStats(context.Background(), testRepo)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectError)
			assert.Contains(t, err.Error(), testRepo.String())
		})
	}
}

func TestGitHubGateway_FetchCodeFrequency(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/stats/code_frequency", r.URL.Path)
		fmt.Fprint(w, `[[1609027200, 100, -20], [1609632000, 7, 0]]`)
	}
	gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

	frequency, err := gateway.FetchCodeFrequency(context.Background(), testRepo)
	require.NoError(t, err)

	assert.Equal(t, []domain.CodeFrequency{
		{Week: 1609027200, Additions: 100, Deletions: -20},
		{Week: 1609632000, Additions: 7, Deletions: 0},
	}, frequency)
}

func TestGitHubGateway_FetchCommitActivity(t *testing.T) {
	// 52 weeks of weekday counts, one week apart.
	const weekStart = 1578182400 // 2020-01-05, a Sunday
	body := "["
	for week := 0; week < 52; week++ {
		if week > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"days": [0,1,2,3,4,5,6], "total": 21, "week": %d}`, weekStart+week*7*24*3600)
	}
	body += "]"

	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/stats/commit_activity", r.URL.Path)
		fmt.Fprint(w, body)
	}
	gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

	activity, err := gateway.FetchCommitActivity(context.Background(), testRepo)
	require.NoError(t, err)

	require.Len(t, activity, 52)
	for i, week := range activity {
		assert.Equal(t, [7]int{0, 1, 2, 3, 4, 5, 6}, week.Days)
		assert.Equal(t, 21, week.Total)
		wantWeek := int64(weekStart + i*7*24*3600)
		assert.Equal(t, wantWeek, week.Week)
		assert.Equal(t, wantWeek, week.Date().Unix(), "derived date must match the week timestamp")
	}
}

func TestGitHubGateway_FetchOpenIssues_Pagination(t *testing.T) {
	pageHits := map[string]int{}
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/issues", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("state"))

		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		pageHits[page]++

		switch page {
		case "1":
			w.Header().Set("Link", `</repos/acme/widgets/issues?page=2>; rel="next"`)
			fmt.Fprint(w, `[{"id": 1, "state": "open", "created_at": "2021-01-01T00:00:00Z"},
				{"id": 2, "state": "open", "created_at": "2021-01-02T00:00:00Z"}]`)
		case "2":
			fmt.Fprint(w, `[{"id": 3, "state": "open", "created_at": "2021-01-03T00:00:00Z"}]`)
		default:
			t.Errorf("unexpected page %q", page)
		}
	}
	gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

	issues, err := gateway.FetchOpenIssues(context.Background(), testRepo)
	require.NoError(t, err)

	require.Len(t, issues, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{issues[0].ID, issues[1].ID, issues[2].ID})
	assert.Equal(t, map[string]int{"1": 1, "2": 1}, pageHits, "every page must be requested exactly once")
}

func TestGitHubGateway_FetchStargazers_Pagination(t *testing.T) {
	// Three pages: 100 + 100 + 17 stargazers, starred one minute apart.
	page := func(start, count int) string {
		body := "["
		for i := 0; i < count; i++ {
			if i > 0 {
				body += ","
			}
			starredAt := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(start+i) * time.Minute)
			body += fmt.Sprintf(`{"starred_at": %q, "user": {"login": "user-%d"}}`, starredAt.Format(time.RFC3339), start+i)
		}
		return body + "]"
	}

	pageHits := map[string]int{}
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/stargazers", r.URL.Path)
		assert.Contains(t, r.Header.Get("Accept"), "star+json",
			"the star+json media type is required for starred_at timestamps")

		p := r.URL.Query().Get("page")
		if p == "" {
			p = "1"
		}
		pageHits[p]++

		switch p {
		case "1":
			w.Header().Set("Link", `</repos/acme/widgets/stargazers?page=2>; rel="next"`)
			fmt.Fprint(w, page(0, 100))
		case "2":
			w.Header().Set("Link", `</repos/acme/widgets/stargazers?page=3>; rel="next"`)
			fmt.Fprint(w, page(100, 100))
		case "3":
			fmt.Fprint(w, page(200, 17))
		default:
			t.Errorf("unexpected page %q", p)
		}
	}
	gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

	stargazers, err := gateway.FetchStargazers(context.Background(), testRepo)
	require.NoError(t, err)

	require.Len(t, stargazers, 317)
	assert.Equal(t, "user-0", stargazers[0].User)
	assert.Equal(t, "user-316", stargazers[316].User)
	for i := 1; i < len(stargazers); i++ {
		assert.False(t, stargazers[i].StarredAt.Before(stargazers[i-1].StarredAt),
			"stargazers must keep the API's ascending order")
	}
	assert.Equal(t, map[string]int{"1": 1, "2": 1, "3": 1}, pageHits)
}

func TestGitHubGateway_FetchOverview(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "repository(owner: $owner, name: $name)")
		fmt.Fprint(w, `{"data": {"repository": {"description": "widget factory", "stargazerCount": 42, "forkCount": 7, "issues": {"totalCount": 3}}}}`)
	}
	gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

	overview, err := gateway.FetchOverview(context.Background(), testRepo)
	require.NoError(t, err)

	assert.Equal(t, &domain.RepositoryOverview{
		Description: "widget factory",
		Stars:       42,
		Forks:       7,
		OpenIssues:  3,
	}, overview)
}

func TestGitHubGateway_CheckRepository(t *testing.T) {
	t.Run("existing repository reports the quota", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/acme/widgets", r.URL.Path)
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "59")
			w.Header().Set("X-RateLimit-Reset", "1609459200")
			fmt.Fprint(w, `{"id": 1, "full_name": "acme/widgets"}`)
		}
		gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

		rate, err := gateway.CheckRepository(context.Background(), testRepo)
		require.NoError(t, err)
		assert.Equal(t, 60, rate.Limit)
		assert.Equal(t, 59, rate.Remaining)
	})

	t.Run("missing repository", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
		gateway, _ := setupTestGateway(t, http.HandlerFunc(handler))

		_, err := gateway.CheckRepository(context.Background(), testRepo)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
