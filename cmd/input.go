package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/profile-activity/internal/domain"
)

// Environment variables read when no flag supplies the repository lists.
const (
	envTopRepos = "TOP_REPOS"
	envNewRepos = "NEW_REPOS"
)

// analysisFile is the JSON object produced by `analyze`.
type analysisFile struct {
	TopRepos json.RawMessage `json:"top_repos"`
	NewRepos json.RawMessage `json:"new_repos"`
}

func addRepositoryInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("top-repos", "", "JSON array of top repositories (default: $TOP_REPOS)")
	cmd.Flags().String("new-repos", "", "JSON array of new repositories (default: $NEW_REPOS)")
	cmd.Flags().String("input-file", "", "JSON file with top_repos and new_repos keys")
}

// loadRepositories reads the two repository lists from --input-file, or the
// --top-repos/--new-repos flags, or the TOP_REPOS/NEW_REPOS environment.
func loadRepositories(cmd *cobra.Command) (top, recent []domain.Repository, err error) {
	var topData, newData []byte

	if path, _ := cmd.Flags().GetString("input-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read input file: %w", err)
		}
		var file analysisFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
		topData, newData = file.TopRepos, file.NewRepos
	} else {
		topData = []byte(flagOrEnv(cmd, "top-repos", envTopRepos))
		newData = []byte(flagOrEnv(cmd, "new-repos", envNewRepos))
	}

	top, err = domain.DecodeRepositories(topData)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid top repositories: %w", err)
	}
	recent, err = domain.DecodeRepositories(newData)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid new repositories: %w", err)
	}
	return top, recent, nil
}

func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return os.Getenv(env)
}
