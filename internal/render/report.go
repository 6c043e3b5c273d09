package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/naka-gawa/profile-activity/internal/domain"
)

// Fragment file names written by WriteFragments.
const (
	ActiveReposFile = "active_repos.md"
	NewReposFile    = "new_repos.md"
)

// Report is the combined output handed to the README patcher and to CI.
type Report struct {
	ActiveRepos string    `json:"active_repos"`
	NewRepos    string    `json:"new_repos"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewReport renders both fragments. generatedAt is recorded as given.
func NewReport(top, recent []domain.Repository, generatedAt time.Time) Report {
	return Report{
		ActiveRepos: TopRepositories(top),
		NewRepos:    NewRepositories(recent),
		GeneratedAt: generatedAt,
	}
}

// WriteFragments writes each fragment into dir as a standalone markdown file.
func (r Report) WriteFragments(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create fragment directory: %w", err)
	}
	fragments := map[string]string{
		ActiveReposFile: r.ActiveRepos,
		NewReposFile:    r.NewRepos,
	}
	for name, content := range fragments {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
