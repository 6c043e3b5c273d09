package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/profile-activity/internal/readme"
	"github.com/naka-gawa/profile-activity/internal/render"
)

func newReadmeCmd() *cobra.Command {
	readmeCmd := &cobra.Command{
		Use:   "readme",
		Short: "Patches the activity sections of a profile README",
		Long: `Renders the repository lists and replaces the content between the
<!-- ACTIVE_REPOS_START/END -->, <!-- NEW_REPOS_START/END --> and
<!-- LAST_UPDATED_START/END --> markers of the README.`,
		RunE: runReadme,
	}

	addRepositoryInputFlags(readmeCmd)
	readmeCmd.Flags().String("readme-path", "", "Path to README.md (default: profile/README.md or readme_path from config)")
	readmeCmd.Flags().Bool("dry-run", false, "Preview changes without writing")
	return readmeCmd
}

func runReadme(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)

	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}
	path := cfg.ReadmePath
	if p, _ := cmd.Flags().GetString("readme-path"); p != "" {
		path = p
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	top, recent, err := loadRepositories(cmd)
	if err != nil {
		return err
	}
	report := render.NewReport(top, recent, time.Now().UTC())

	updater := readme.NewUpdater(logger, cmd.OutOrStdout())
	if _, err := updater.Update(path, report, dryRun); err != nil {
		return fmt.Errorf("failed to update README: %w", err)
	}
	return nil
}
