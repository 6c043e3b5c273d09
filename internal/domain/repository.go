// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotArray is returned when repository input is not a JSON array.
	ErrNotArray = errors.New("repository input must be a JSON array")
	// ErrMissingName is returned for a record without a name.
	ErrMissingName = errors.New(`missing required field "name"`)
	// ErrMissingURL is returned for a record without a url.
	ErrMissingURL = errors.New(`missing required field "url"`)
)

// Repository is a single repository record as consumed by the report renderer.
// Only Name and URL are required; everything else is optional metadata.
type Repository struct {
	Name            string   `json:"name"`
	FullName        string   `json:"full_name,omitempty"`
	Description     string   `json:"description"`
	URL             string   `json:"url"`
	Language        string   `json:"language"`
	Stars           int      `json:"stars"`
	Forks           int      `json:"forks"`
	Topics          []string `json:"topics"`
	Score           float64  `json:"score"`
	RecentCommits   int      `json:"recent_commits"`
	DaysSinceUpdate int      `json:"days_since_update"`
}

// Validate checks that the identity fields of the record are present.
func (r *Repository) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.URL == "" {
		return ErrMissingURL
	}
	return nil
}

// RecordError identifies the record that failed validation.
type RecordError struct {
	Index int
	Name  string
	Err   error
}

func (e *RecordError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("record %d (%q): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// DecodeRepositories parses a JSON array of repository records and validates each one.
// Empty input and JSON null decode to an empty slice.
func DecodeRepositories(data []byte) ([]Repository, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Repository{}, nil
	}
	if trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var repos []Repository
	if err := json.Unmarshal(trimmed, &repos); err != nil {
		return nil, fmt.Errorf("failed to decode repository records: %w", err)
	}
	if err := ValidateRepositories(repos); err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []Repository{}
	}
	return repos, nil
}

// ValidateRepositories returns a *RecordError for the first invalid record.
func ValidateRepositories(repos []Repository) error {
	for i := range repos {
		if err := repos[i].Validate(); err != nil {
			return &RecordError{Index: i, Name: repos[i].Name, Err: err}
		}
	}
	return nil
}
