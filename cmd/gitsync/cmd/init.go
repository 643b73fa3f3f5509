package cmd

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Open the workspace repository, creating one if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		root, err := eng.OpenOrInit(cmd.Context())
		if err != nil {
			return err
		}
		info("Repository at %s", root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
