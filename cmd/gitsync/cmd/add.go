package cmd

import (
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [path|pattern...]",
	Short: "Stage changes",
	Long: `Stages the named paths, directories or glob patterns. Without arguments
every change in the working tree is staged, deletions included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		return eng.Stage(cmd.Context(), args)
	},
}

var unstageCmd = &cobra.Command{
	Use:   "unstage [path...]",
	Short: "Remove changes from the index",
	Long:  `Resets the named paths, or every path without arguments, to their HEAD state in the index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		return eng.Unstage(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(unstageCmd)
}
