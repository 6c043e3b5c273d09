package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/profile-activity/internal/ghaction"
	"github.com/naka-gawa/profile-activity/internal/render"
)

func newRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Renders repository lists into markdown fragments",
		Long: `Renders the top repositories as a markdown table and the new repositories as a
markdown list, and outputs both fragments with a generation timestamp in JSON
format. Input comes from --input-file, --top-repos/--new-repos or the
TOP_REPOS/NEW_REPOS environment variables.`,
		RunE: runRender,
	}

	addRepositoryInputFlags(renderCmd)
	renderCmd.Flags().String("output-dir", "", "Also write the fragments as markdown files into this directory")
	renderCmd.Flags().String("generated-at", "", "Generation timestamp in RFC 3339 (default: now)")
	renderCmd.Flags().String("output-format", formatJSON, "Output format: json or github-output")
	renderCmd.Flags().Bool("preview", false, "Print the fragments rendered for the terminal to stderr")
	return renderCmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)

	format, _ := cmd.Flags().GetString("output-format")
	if err := validateFormat(format); err != nil {
		return err
	}
	generatedAt, err := generationTime(cmd)
	if err != nil {
		return err
	}

	top, recent, err := loadRepositories(cmd)
	if err != nil {
		return err
	}
	logger.WithField("top", len(top)).WithField("new", len(recent)).Debug("Rendering report")
	report := render.NewReport(top, recent, generatedAt)

	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		if err := report.WriteFragments(dir); err != nil {
			return err
		}
		logger.WithField("dir", dir).Debug("Wrote fragment files")
	}

	if preview, _ := cmd.Flags().GetBool("preview"); preview {
		if err := previewReport(cmd.ErrOrStderr(), report); err != nil {
			return err
		}
	}

	if format == formatGitHubOutput {
		outputs := []ghaction.Output{
			{Name: "active_repos", Value: report.ActiveRepos},
			{Name: "new_repos", Value: report.NewRepos},
			{Name: "generated_at", Value: report.GeneratedAt.Format(time.RFC3339)},
		}
		if written, err := writeActionOutputs(logger, outputs); err != nil || written {
			return err
		}
	}
	return printJSON(cmd, report)
}

func generationTime(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("generated-at")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --generated-at timestamp, use RFC 3339: %w", err)
	}
	return t, nil
}

func previewReport(w io.Writer, report render.Report) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	doc := fmt.Sprintf("## Active repositories\n\n%s\n\n## New repositories\n\n%s\n", report.ActiveRepos, report.NewRepos)
	out, err := renderer.Render(doc)
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
