package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/profile-activity/internal/gateway"
	"github.com/naka-gawa/profile-activity/internal/ghaction"
	"github.com/naka-gawa/profile-activity/internal/usecase"
)

// Output formats shared by analyze and render.
const (
	formatJSON         = "json"
	formatGitHubOutput = "github-output"
)

// newFetcher is replaced in tests.
var newFetcher = gateway.NewGitHubGateway

func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ranks a user's repositories by recent activity and outputs JSON",
		Long: `Fetches the public repositories and recent public events of a GitHub user,
scores each repository by commits, stars, forks, issue/PR activity, pushes and
recency, and outputs the top and newest repositories in JSON format.`,
		RunE: runAnalyze,
	}

	analyzeCmd.Flags().StringP("user", "u", "", "Target GitHub user name (required unless set in config)")
	analyzeCmd.Flags().Int("top-count", usecase.DefaultTopCount, "Number of top repositories to return")
	analyzeCmd.Flags().Int("new-days", usecase.DefaultNewDays, "Days to consider for new repositories")
	analyzeCmd.Flags().Int("new-limit", usecase.DefaultNewLimit, "Number of new repositories to return")
	analyzeCmd.Flags().String("output-format", formatJSON, "Output format: json or github-output")
	return analyzeCmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := newLogger(cmd)

	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	user := cfg.User
	if cmd.Flags().Changed("user") {
		user, _ = cmd.Flags().GetString("user")
	}
	if user == "" {
		return fmt.Errorf("a user is required: pass --user or set user in the config file")
	}
	opts := usecase.Options{
		User:     user,
		TopCount: intFlagOr(cmd, "top-count", cfg.TopCount),
		NewDays:  intFlagOr(cmd, "new-days", cfg.NewDays),
		NewLimit: intFlagOr(cmd, "new-limit", cfg.NewLimit),
	}
	format, _ := cmd.Flags().GetString("output-format")
	if err := validateFormat(format); err != nil {
		return err
	}

	token := os.Getenv("GH_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		token = cfg.Token
	}
	if token == "" {
		logger.Warn("No GitHub token set; using unauthenticated requests without commit history")
	}
	opts.CommitHistory = token != ""

	// Inject dependencies and run the main business logic.
	fetcher, err := newFetcher(token, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	analyzer := usecase.NewAnalyzer(fetcher, logger)

	result, err := analyzer.Analyze(ctx, opts, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to analyze activity: %w", err)
	}

	if format == formatGitHubOutput {
		outputs, err := jsonOutputs(map[string]any{
			"top_repos": result.TopRepos,
			"new_repos": result.NewRepos,
			"summary":   result.Summary,
		}, "top_repos", "new_repos", "summary")
		if err != nil {
			return err
		}
		if written, err := writeActionOutputs(logger, outputs); err != nil || written {
			return err
		}
	}

	// Marshal the results into a pretty-printed JSON string.
	return printJSON(cmd, result)
}

func intFlagOr(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatGitHubOutput:
		return nil
	default:
		return fmt.Errorf("unknown output format %q: want %s or %s", format, formatJSON, formatGitHubOutput)
	}
}

// jsonOutputs encodes each named value as compact JSON, in the given order.
func jsonOutputs(values map[string]any, order ...string) ([]ghaction.Output, error) {
	outputs := make([]ghaction.Output, 0, len(order))
	for _, name := range order {
		data, err := json.Marshal(values[name])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s to JSON: %w", name, err)
		}
		outputs = append(outputs, ghaction.Output{Name: name, Value: string(data)})
	}
	return outputs, nil
}

// writeActionOutputs appends outputs to $GITHUB_OUTPUT. It returns false when
// the variable is unset so the caller can fall back to stdout.
func writeActionOutputs(logger logrus.FieldLogger, outputs []ghaction.Output) (bool, error) {
	path := os.Getenv(ghaction.EnvOutputFile)
	if path == "" {
		logger.Warn("GITHUB_OUTPUT not set, printing JSON instead")
		return false, nil
	}
	if err := ghaction.AppendFile(path, outputs...); err != nil {
		return false, err
	}
	return true, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
	return err
}
