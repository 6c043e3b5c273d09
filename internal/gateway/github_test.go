package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	// Setup REST client to point to the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// Use NewEnterpriseClient to point the GraphQL client to our mock server's URL.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL+"/graphql", server.Client())
	logger, _ := test.NewNullLogger()

	gateway := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}

	return gateway, server
}

func TestNewGitHubGateway(t *testing.T) {
	logger, _ := test.NewNullLogger()
	for _, token := range []string{"", "secret"} {
		fetcher, err := NewGitHubGateway(token, logger)
		require.NoError(t, err)
		assert.NotNil(t, fetcher)
	}
}

func TestGitHubGateway_FetchRepositories(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(serverURL string) http.HandlerFunc
		expectedNames  []string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - follows pagination and maps fields",
			handlerFunc: func(serverURL string) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "/users/octocat/repos", r.URL.Path)
					assert.Equal(t, "owner", r.URL.Query().Get("type"))
					assert.Equal(t, "updated", r.URL.Query().Get("sort"))
					if r.URL.Query().Get("page") == "2" {
						fmt.Fprint(w, `[{"name":"b","full_name":"octocat/b","html_url":"https://github.com/octocat/b","fork":true,"created_at":"2026-01-01T00:00:00Z","updated_at":"2026-02-01T00:00:00Z"}]`)
						return
					}
					w.Header().Set("Link", fmt.Sprintf(`<%s/users/octocat/repos?page=2>; rel="next"`, serverURL))
					fmt.Fprint(w, `[{"name":"a","full_name":"octocat/a","description":"Tool","html_url":"https://github.com/octocat/a","language":"Go","stargazers_count":12,"forks_count":3,"open_issues_count":2,"topics":["cli"],"archived":true,"created_at":"2025-01-01T00:00:00Z","updated_at":"2026-10-01T00:00:00Z","pushed_at":"2026-10-02T00:00:00Z"}]`)
				}
			},
			expectedNames: []string{"a", "b"},
		},
		{
			name: "error case - GitHub API returns an error",
			handlerFunc: func(string) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"message": "Internal Server Error"}`)
				}
			},
			expectError:    true,
			expectedErrMsg: "failed to list repositories with REST API",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var serverURL string
			gateway, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tc.handlerFunc(serverURL)(w, r)
			}))
			defer server.Close()
			serverURL = server.URL

			repos, err := gateway.FetchRepositories(context.Background(), "octocat")
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			require.NoError(t, err)
			require.Len(t, repos, len(tc.expectedNames))
			for i, name := range tc.expectedNames {
				assert.Equal(t, name, repos[i].Name)
			}

			first := repos[0]
			assert.Equal(t, "octocat/a", first.FullName)
			assert.Equal(t, "Tool", first.Description)
			assert.Equal(t, "https://github.com/octocat/a", first.URL)
			assert.Equal(t, "Go", first.Language)
			assert.Equal(t, 12, first.Stars)
			assert.Equal(t, 3, first.Forks)
			assert.Equal(t, 2, first.OpenIssues)
			assert.Equal(t, []string{"cli"}, first.Topics)
			assert.True(t, first.IsArchived)
			assert.Equal(t, time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), first.PushedAt.UTC())

			second := repos[1]
			assert.True(t, second.IsFork)
			assert.Equal(t, second.UpdatedAt, second.PushedAt, "missing pushed_at falls back to updated_at")
		})
	}
}

func TestGitHubGateway_FetchEvents(t *testing.T) {
	since := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name           string
		pages          map[string]func(w http.ResponseWriter)
		expected       []ActivityEvent
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "stops at the first event older than the window",
			pages: map[string]func(w http.ResponseWriter){
				"1": func(w http.ResponseWriter) {
					fmt.Fprint(w, `[
						{"type":"PushEvent","repo":{"name":"octocat/a"},"created_at":"2026-10-10T00:00:00Z","payload":{"size":2,"commits":[{"sha":"1"},{"sha":"2"}]}},
						{"type":"IssuesEvent","repo":{"name":"octocat/b"},"created_at":"2026-10-09T00:00:00Z","payload":{}},
						{"type":"PushEvent","repo":{"name":"octocat/a"},"created_at":"2026-08-01T00:00:00Z","payload":{"commits":[{"sha":"3"}]}}
					]`)
				},
			},
			expected: []ActivityEvent{
				{Type: PushEvent, RepoName: "octocat/a", CreatedAt: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC), Commits: 2},
				{Type: IssuesEvent, RepoName: "octocat/b", CreatedAt: time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name: "422 on a later page ends pagination",
			pages: map[string]func(w http.ResponseWriter){
				"1": func(w http.ResponseWriter) {
					fmt.Fprint(w, `[{"type":"PullRequestEvent","repo":{"name":"octocat/c"},"created_at":"2026-10-10T00:00:00Z","payload":{}}]`)
				},
				"2": func(w http.ResponseWriter) {
					w.WriteHeader(http.StatusUnprocessableEntity)
					fmt.Fprint(w, `{"message":"In order to keep the API fast for everyone, pagination is limited for this resource."}`)
				},
			},
			expected: []ActivityEvent{
				{Type: PullRequestEvent, RepoName: "octocat/c", CreatedAt: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name: "error case - GitHub API returns an error",
			pages: map[string]func(w http.ResponseWriter){
				"1": func(w http.ResponseWriter) {
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"message": "Internal Server Error"}`)
				},
			},
			expectError:    true,
			expectedErrMsg: "failed to list events with REST API",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users/octocat/events/public", r.URL.Path)
				page, ok := tc.pages[r.URL.Query().Get("page")]
				if !ok {
					fmt.Fprint(w, `[]`)
					return
				}
				page(w)
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			events, err := gateway.FetchEvents(context.Background(), "octocat", since)
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			require.NoError(t, err)
			require.Len(t, events, len(tc.expected))
			for i := range tc.expected {
				assert.Equal(t, tc.expected[i].Type, events[i].Type)
				assert.Equal(t, tc.expected[i].RepoName, events[i].RepoName)
				assert.True(t, tc.expected[i].CreatedAt.Equal(events[i].CreatedAt))
				assert.Equal(t, tc.expected[i].Commits, events[i].Commits)
			}
		})
	}
}

func TestGitHubGateway_FetchCommitCounts(t *testing.T) {
	testCases := []struct {
		name           string
		responses      []string
		expectedMap    map[string]int
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - follows the cursor",
			responses: []string{
				`{"data":{"user":{"repositories":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"nodes":[{"nameWithOwner":"octocat/a","defaultBranchRef":{"target":{"history":{"totalCount":7}}}}]}}}}`,
				`{"data":{"user":{"repositories":{"pageInfo":{"hasNextPage":false,"endCursor":"c2"},"nodes":[{"nameWithOwner":"octocat/b","defaultBranchRef":{"target":{"history":{"totalCount":0}}}}]}}}}`,
			},
			expectedMap: map[string]int{"octocat/a": 7, "octocat/b": 0},
		},
		{
			name:           "error case - GraphQL errors",
			responses:      []string{`{"errors":[{"message":"Something went wrong"}]}`},
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL query for commit history",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			call := 0
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				assert.Contains(t, string(body), "octocat")
				assert.Contains(t, string(body), "history(since:")
				if call > 0 {
					assert.Contains(t, string(body), `"cursor":"c1"`)
				}

				if !assert.Less(t, call, len(tc.responses)) {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				fmt.Fprint(w, tc.responses[call])
				call++
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			counts, err := gateway.FetchCommitCounts(context.Background(), "octocat", time.Now().AddDate(0, 0, -90))
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedMap, counts)
		})
	}
}
