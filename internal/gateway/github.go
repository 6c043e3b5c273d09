// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/profile-activity/internal/domain"
)

const (
	reposPerPage  = 100
	maxRepoPages  = 10
	eventsPerPage = 100
	// The public events API serves at most 300 events.
	maxEventPages = 3
)

// Event types that count towards repository activity.
const (
	PushEvent        = "PushEvent"
	IssuesEvent      = "IssuesEvent"
	PullRequestEvent = "PullRequestEvent"
)

// ActivityEvent is the part of a public GitHub event the analyzer cares about.
type ActivityEvent struct {
	Type      string
	RepoName  string
	CreatedAt time.Time
	// Commits is the number of commits carried by a push; zero for other types.
	Commits int
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchRepositories(ctx context.Context, user string) ([]*domain.RepoActivity, error)
	FetchEvents(ctx context.Context, user string, since time.Time) ([]ActivityEvent, error)
	// FetchCommitCounts counts default branch commits since the given time,
	// keyed by full repository name. It needs an authenticated client.
	FetchCommitCounts(ctx context.Context, user string, since time.Time) (map[string]int, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        logrus.FieldLogger
}

// commitHistoryQuery counts recent commits on the default branch of every owned repository.
type commitHistoryQuery struct {
	User struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				NameWithOwner    string
				DefaultBranchRef struct {
					Target struct {
						Commit struct {
							History struct {
								TotalCount int
							} `graphql:"history(since: $since)"`
						} `graphql:"... on Commit"`
					}
				}
			}
		} `graphql:"repositories(first: 50, after: $cursor, ownerAffiliations: OWNER, isFork: false)"`
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token produces an unauthenticated client, which is enough for the
// REST calls but not for FetchCommitCounts.
func NewGitHubGateway(token string, logger logrus.FieldLogger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	httpClient := &http.Client{Transport: rateLimitWaiter}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient.Transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		}
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchRepositories lists the public repositories owned by user, most recently updated first.
func (g *GitHubGateway) FetchRepositories(ctx context.Context, user string) ([]*domain.RepoActivity, error) {
	g.logger.WithField("user", user).Debug("Fetching repositories using REST API...")
	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: reposPerPage},
	}
	var repos []*domain.RepoActivity
	for page := 1; page <= maxRepoPages; page++ {
		result, resp, err := g.restClient.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories with REST API: %w", err)
		}
		for _, r := range result {
			repos = append(repos, toRepoActivity(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug("  Fetching next page of repositories...")
	}
	g.logger.WithField("count", len(repos)).Debug("Completed fetching repositories.")
	return repos, nil
}

// FetchEvents returns public events performed by user, newest first, stopping
// at the first event older than since.
func (g *GitHubGateway) FetchEvents(ctx context.Context, user string, since time.Time) ([]ActivityEvent, error) {
	g.logger.WithField("user", user).Debug("Fetching public events using REST API...")
	opts := &github.ListOptions{PerPage: eventsPerPage, Page: 1}
	var events []ActivityEvent
	for opts.Page <= maxEventPages {
		result, _, err := g.restClient.Activity.ListEventsPerformedByUser(ctx, user, true, opts)
		if err != nil {
			// The events API answers 422 once pagination runs past its window.
			var errResp *github.ErrorResponse
			if errors.As(err, &errResp) && errResp.Response != nil &&
				errResp.Response.StatusCode == http.StatusUnprocessableEntity {
				break
			}
			return nil, fmt.Errorf("failed to list events with REST API: %w", err)
		}
		if len(result) == 0 {
			break
		}
		for _, e := range result {
			createdAt := e.GetCreatedAt().Time
			if createdAt.Before(since) {
				g.logger.WithField("count", len(events)).Debug("Reached events older than the window.")
				return events, nil
			}
			events = append(events, g.toActivityEvent(e))
		}
		opts.Page++
		g.logger.Debug("  Fetching next page of events...")
	}
	g.logger.WithField("count", len(events)).Debug("Completed fetching events.")
	return events, nil
}

// FetchCommitCounts uses the GraphQL API to count commits since the given time.
func (g *GitHubGateway) FetchCommitCounts(ctx context.Context, user string, since time.Time) (map[string]int, error) {
	g.logger.WithField("user", user).Debug("Fetching commit history using GraphQL API...")
	variables := map[string]interface{}{
		"login":  githubv4.String(user),
		"since":  githubv4.GitTimestamp{Time: since},
		"cursor": (*githubv4.String)(nil),
	}
	counts := make(map[string]int)
	for {
		var q commitHistoryQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for commit history: %w", err)
		}
		for _, node := range q.User.Repositories.Nodes {
			if node.NameWithOwner == "" {
				continue
			}
			counts[node.NameWithOwner] = node.DefaultBranchRef.Target.Commit.History.TotalCount
		}
		if !q.User.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.User.Repositories.PageInfo.EndCursor)
		g.logger.Debug("  Fetching next page of commit history...")
	}
	g.logger.WithField("count", len(counts)).Debug("Completed fetching commit history.")
	return counts, nil
}

func toRepoActivity(r *github.Repository) *domain.RepoActivity {
	updated := r.GetUpdatedAt().Time
	pushed := r.GetPushedAt().Time
	if pushed.IsZero() {
		pushed = updated
	}
	return &domain.RepoActivity{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		URL:         r.GetHTMLURL(),
		Language:    r.GetLanguage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		OpenIssues:  r.GetOpenIssuesCount(),
		Topics:      r.Topics,
		CreatedAt:   r.GetCreatedAt().Time,
		UpdatedAt:   updated,
		PushedAt:    pushed,
		IsFork:      r.GetFork(),
		IsArchived:  r.GetArchived(),
	}
}

func (g *GitHubGateway) toActivityEvent(e *github.Event) ActivityEvent {
	event := ActivityEvent{
		Type:      e.GetType(),
		RepoName:  e.GetRepo().GetName(),
		CreatedAt: e.GetCreatedAt().Time,
	}
	if event.Type != PushEvent {
		return event
	}
	payload, err := e.ParsePayload()
	if err != nil {
		g.logger.WithError(err).WithField("repo", event.RepoName).Warn("Skipping unreadable push payload")
		return event
	}
	if push, ok := payload.(*github.PushEvent); ok {
		event.Commits = len(push.Commits)
	}
	return event
}
