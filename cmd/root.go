// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/profile-activity/internal/config"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "profile-activity",
		Short: "A CLI tool to publish repository activity on a GitHub profile README.",
		Long: `profile-activity ranks a GitHub user's repositories by recent activity,
renders the ranking as markdown (a table of the most active repositories and
a list of newly created ones) and patches the result into marker-delimited
regions of a profile README.`,
		SilenceUsage: true,
	}

	// Add persistent flags available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: search standard locations)")

	rootCmd.AddCommand(newAnalyzeCmd(), newRenderCmd(), newReadmeCmd())
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newLogger logs at info level to the command's error stream, or at debug
// level when --verbose is set.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(logrus.InfoLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadConfig reads --config when given, otherwise the first config file found
// in the standard locations, otherwise the defaults.
func loadConfig(cmd *cobra.Command, logger logrus.FieldLogger) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			logger.Debug("No config file found, using defaults")
			return config.Default(), nil
		}
		path = found
	}
	logger.WithField("path", path).Debug("Loading config file")
	return config.Load(path, logger)
}
