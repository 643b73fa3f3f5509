package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show changes between HEAD and the working tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		patch, err := eng.Diff(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Print(patch)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
