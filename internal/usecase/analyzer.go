// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/profile-activity/internal/domain"
	"github.com/naka-gawa/profile-activity/internal/gateway"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultTopCount = 8
	DefaultNewDays  = 90
	DefaultNewLimit = 5
	// activityWindowDays bounds the events and commit history that are counted.
	activityWindowDays = 90
)

// Options controls a single analysis run.
type Options struct {
	User     string
	TopCount int
	NewDays  int
	NewLimit int
	// CommitHistory enables the GraphQL commit count query, which needs a token.
	CommitHistory bool
}

func (o Options) withDefaults() Options {
	if o.TopCount <= 0 {
		o.TopCount = DefaultTopCount
	}
	if o.NewDays <= 0 {
		o.NewDays = DefaultNewDays
	}
	if o.NewLimit <= 0 {
		o.NewLimit = DefaultNewLimit
	}
	return o
}

// Summary describes an analysis run.
type Summary struct {
	AnalyzedAt         time.Time `json:"analyzed_at"`
	User               string    `json:"user"`
	TopReposCount      int       `json:"top_repos_count"`
	NewReposCount      int       `json:"new_repos_count"`
	AnalyzedReposCount int       `json:"analyzed_repos_count"`
	MeanScore          float64   `json:"mean_score"`
	MedianScore        float64   `json:"median_score"`
}

// Result is the output of Analyze, ready to be fed to the renderer.
type Result struct {
	TopRepos []domain.Repository `json:"top_repos"`
	NewRepos []domain.Repository `json:"new_repos"`
	Summary  Summary             `json:"summary"`
}

// Analyzer is the use case for ranking a user's repositories by activity.
type Analyzer struct {
	fetcher gateway.Fetcher
	logger  logrus.FieldLogger
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(fetcher gateway.Fetcher, logger logrus.FieldLogger) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Analyze fetches repositories and recent activity concurrently, scores every
// non-fork, non-archived repository at now and returns the top and newest ones.
func (a *Analyzer) Analyze(ctx context.Context, opts Options, now time.Time) (*Result, error) {
	opts = opts.withDefaults()
	if opts.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	log := a.logger.WithField("user", opts.User)
	log.Debug("Usecase: Starting activity analysis...")

	since := now.AddDate(0, 0, -activityWindowDays)

	var repos []*domain.RepoActivity
	var events []gateway.ActivityEvent
	var commitCounts map[string]int

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		repos, err = a.fetcher.FetchRepositories(egCtx, opts.User)
		return err
	})

	eg.Go(func() error {
		var err error
		events, err = a.fetcher.FetchEvents(egCtx, opts.User, since)
		return err
	})

	if opts.CommitHistory {
		eg.Go(func() error {
			var err error
			commitCounts, err = a.fetcher.FetchCommitCounts(egCtx, opts.User, since)
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	log.Debug("Usecase: All data fetched successfully.")

	newCutoff := now.AddDate(0, 0, -opts.NewDays)
	byName := make(map[string]*domain.RepoActivity)
	candidates := make([]*domain.RepoActivity, 0, len(repos))
	var recent []*domain.RepoActivity
	for _, repo := range repos {
		if repo.IsFork || repo.IsArchived {
			continue
		}
		byName[repo.FullName] = repo
		candidates = append(candidates, repo)
		if repo.CreatedAt.After(newCutoff) {
			recent = append(recent, repo)
		}
	}

	for _, event := range events {
		repo, ok := byName[event.RepoName]
		if !ok {
			continue
		}
		switch event.Type {
		case gateway.PushEvent:
			repo.RecentCommits += event.Commits
			repo.RecentPushes++
		case gateway.IssuesEvent:
			repo.RecentIssues++
		case gateway.PullRequestEvent:
			repo.RecentPRs++
		}
	}

	for name, count := range commitCounts {
		if repo, ok := byName[name]; ok {
			repo.RecentCommits = count
		}
	}

	scored := make([]domain.Repository, 0, len(candidates))
	scores := make(stats.Float64Data, 0, len(candidates))
	for _, repo := range candidates {
		r := repo.Repository(now)
		scored = append(scored, r)
		scores = append(scores, r.Score)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	newRepos := make([]domain.Repository, 0, opts.NewLimit)
	for _, repo := range recent[:min(len(recent), opts.NewLimit)] {
		newRepos = append(newRepos, repo.Repository(now))
	}

	topRepos := scored[:min(len(scored), opts.TopCount)]

	result := &Result{
		TopRepos: topRepos,
		NewRepos: newRepos,
		Summary: Summary{
			AnalyzedAt:         now,
			User:               opts.User,
			TopReposCount:      len(topRepos),
			NewReposCount:      len(newRepos),
			AnalyzedReposCount: len(scored),
			MeanScore:          summarize(scores, stats.Mean),
			MedianScore:        summarize(scores, stats.Median),
		},
	}
	log.WithFields(logrus.Fields{
		"top": result.Summary.TopReposCount,
		"new": result.Summary.NewReposCount,
	}).Debug("Usecase: Analysis complete.")
	return result, nil
}

// summarize applies fn to the scores, rounded like the scores themselves.
// An empty data set summarizes to zero.
func summarize(scores stats.Float64Data, fn func(stats.Float64Data) (float64, error)) float64 {
	value, err := fn(scores)
	if err != nil {
		return 0
	}
	rounded, err := stats.Round(value, 4)
	if err != nil {
		return 0
	}
	return rounded
}
