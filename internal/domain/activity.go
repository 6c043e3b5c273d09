package domain

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// UnknownLanguage is used when GitHub reports no primary language.
const UnknownLanguage = "Unknown"

// Score weights and normalization caps.
const (
	commitWeight   = 0.40
	starWeight     = 0.20
	forkWeight     = 0.15
	activityWeight = 0.15
	pushWeight     = 0.10
	recencyWeight  = 0.2

	commitCap   = 50.0
	starCap     = 1000.0
	forkCap     = 100.0
	activityCap = 20.0
	pushCap     = 10.0
	recencyDays = 90.0
)

// RepoActivity holds repository metadata plus the activity counters gathered
// from recent public events. It is the working record of the analyzer.
type RepoActivity struct {
	Name        string
	FullName    string
	Description string
	URL         string
	Language    string
	Stars       int
	Forks       int
	OpenIssues  int
	Topics      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PushedAt    time.Time
	IsFork      bool
	IsArchived  bool

	RecentCommits int
	RecentIssues  int
	RecentPRs     int
	RecentPushes  int
}

// DaysSinceUpdate returns the number of whole days between the last update and now.
func (a *RepoActivity) DaysSinceUpdate(now time.Time) int {
	return int(math.Floor(now.Sub(a.UpdatedAt).Hours() / 24))
}

// Score computes the weighted activity score. Each metric is normalized to
// [0, 1] against its cap; repositories updated within the last 90 days get a
// linearly decaying recency bonus of up to 0.2.
func (a *RepoActivity) Score(now time.Time) float64 {
	commit := capped(float64(a.RecentCommits), commitCap)
	star := capped(float64(a.Stars), starCap)
	fork := capped(float64(a.Forks), forkCap)
	activity := capped(float64(a.RecentIssues+a.RecentPRs), activityCap)
	push := capped(float64(a.RecentPushes), pushCap)

	recency := math.Max(0, 1-float64(a.DaysSinceUpdate(now))/recencyDays) * recencyWeight

	return commit*commitWeight +
		star*starWeight +
		fork*forkWeight +
		activity*activityWeight +
		push*pushWeight +
		recency
}

// Repository converts the activity record into a renderer record scored at now.
func (a *RepoActivity) Repository(now time.Time) Repository {
	score := a.Score(now)
	if rounded, err := stats.Round(score, 4); err == nil {
		score = rounded
	}

	language := a.Language
	if language == "" {
		language = UnknownLanguage
	}
	topics := a.Topics
	if topics == nil {
		topics = []string{}
	}

	return Repository{
		Name:            a.Name,
		FullName:        a.FullName,
		Description:     a.Description,
		URL:             a.URL,
		Language:        language,
		Stars:           a.Stars,
		Forks:           a.Forks,
		Topics:          topics,
		Score:           score,
		RecentCommits:   a.RecentCommits,
		DaysSinceUpdate: a.DaysSinceUpdate(now),
	}
}

func capped(value, limit float64) float64 {
	return math.Min(value/limit, 1.0)
}
