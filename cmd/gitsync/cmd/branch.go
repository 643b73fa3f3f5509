package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List local and remote-tracking branches",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		branches, err := eng.ListBranches(cmd.Context())
		if err != nil {
			return err
		}

		for _, b := range branches {
			marker := " "
			if b.IsCurrent {
				marker = "*"
			}
			line := fmt.Sprintf("%s %-30s", marker, b.Name)
			if b.Upstream != "" {
				line += " [" + b.Upstream + "]"
			}
			if b.LastCommitTime != nil {
				line += " " + time.Unix(*b.LastCommitTime, 0).Format("2006-01-02")
			}
			if b.LastCommitMessage != "" {
				line += " " + b.LastCommitMessage
			}
			info("%s", line)
		}
		return nil
	},
}

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "Create a branch at HEAD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := eng.CreateBranch(cmd.Context(), args[0]); err != nil {
			return err
		}
		info("Created branch %s", args[0])
		return nil
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <branch|commit>",
	Short: "Switch to a branch or detach at a commit",
	Long: `Switches to a local branch, creates a tracking branch for a branch that
only exists on the remote, or detaches HEAD at a commit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := eng.Checkout(cmd.Context(), args[0]); err != nil {
			return err
		}
		info("Switched to %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(branchesCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(checkoutCmd)
}
