package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// Global flags.
var (
	workspace string
	verbose   bool
	logJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "gitsync",
	Short: "Synchronize a prompt workspace with a git remote",
	Long: `gitsync inspects and synchronizes a workspace directory backed by a git
repository: status, staging, commits, branches, history, diffs and
fetch/fast-forward/push against the configured remote.

Secrets referenced by the workspace configuration are read from
GITSYNC_SECRET_<REF> environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gitsync %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log operations to stderr")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON instead of text")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
