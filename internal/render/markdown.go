// Package render turns repository records into the markdown fragments shown
// on the profile README. Every function here is pure: no I/O, no clock.
package render

import (
	"fmt"
	"strings"

	"github.com/naka-gawa/profile-activity/internal/domain"
)

const (
	// NoActiveRepositories is returned by TopRepositories for empty input.
	NoActiveRepositories = "_No active repositories found._"
	// NoNewRepositories is returned by NewRepositories for empty input.
	NoNewRepositories = "_No new repositories in the last 90 days._"
	// NoDescription replaces a missing description.
	NoDescription = "No description"

	// TableDescriptionLimit is the description budget of a table row.
	TableDescriptionLimit = 60
	// ListDescriptionLimit is the description budget of a list bullet.
	ListDescriptionLimit = 80

	ellipsis = "..."
)

var (
	tableHeader    = "| Repository | Description | Tech | Activity |"
	tableSeparator = "|------------|-------------|------|----------|"
	pipeEscaper    = strings.NewReplacer("|", `\|`)
)

// Truncate shortens text to at most maxLength characters, replacing the tail
// with "..." when it has to cut. Length is counted in runes.
func Truncate(text string, maxLength int) string {
	if text == "" || maxLength <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength < len(ellipsis) {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-len(ellipsis)]) + ellipsis
}

// TopRepositories renders the ranked repositories as a markdown table, one
// row per record in the given order. Callers sort by score beforehand.
func TopRepositories(repos []domain.Repository) string {
	if len(repos) == 0 {
		return NoActiveRepositories
	}

	lines := make([]string, 0, len(repos)+2)
	lines = append(lines, tableHeader, tableSeparator)
	for _, repo := range repos {
		desc := NoDescription
		if d := singleLine(repo.Description); d != "" {
			desc = pipeEscaper.Replace(Truncate(d, TableDescriptionLimit))
		}
		lines = append(lines, fmt.Sprintf("| [%s](%s) | %s | %s | %s |",
			repo.Name, repo.URL, desc, language(repo), TierFor(repo.Score)))
	}
	return strings.Join(lines, "\n")
}

// NewRepositories renders recently created repositories as a bullet list.
func NewRepositories(repos []domain.Repository) string {
	if len(repos) == 0 {
		return NoNewRepositories
	}

	lines := make([]string, 0, len(repos))
	for _, repo := range repos {
		desc := NoDescription
		if d := singleLine(repo.Description); d != "" {
			desc = Truncate(d, ListDescriptionLimit)
		}
		lines = append(lines, fmt.Sprintf("- **[%s](%s)** (%s) - %s",
			repo.Name, repo.URL, language(repo), desc))
	}
	return strings.Join(lines, "\n")
}

func language(repo domain.Repository) string {
	if repo.Language == "" {
		return domain.UnknownLanguage
	}
	return repo.Language
}

// singleLine collapses runs of whitespace, newlines included, so a
// description always stays inside one table row or bullet.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
