package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Geoion/VibeBase/gitsync"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch the upstream branch and fast-forward",
	Long: `Fetches the upstream of the current branch from the configured remote and
fast-forwards when possible. Diverged histories are reported and left
untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		res, err := eng.Pull(cmd.Context())
		if err != nil {
			return err
		}

		info("%s", res.Message)
		if res.FilesChanged > 0 {
			info("%d file(s) changed", res.FilesChanged)
		}
		if errors.Is(res.Reason, gitsync.ErrMergeDiverged) {
			info("Local and remote histories have diverged; merge them with git and push again.")
		}
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the current branch to the configured remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		res, err := eng.Push(cmd.Context())
		if err != nil {
			switch {
			case errors.Is(err, gitsync.ErrAuthenticationFailed):
				info("Check the auth method and secret references with `gitsync config`.")
			case errors.Is(err, gitsync.ErrNetworkTimeout):
				info("Raise timeout_seconds in the workspace configuration for slow remotes.")
			}
			return err
		}

		info("%s", res.Message)
		if res.CommitsPushed > 0 {
			info("%d commit(s) pushed", res.CommitsPushed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
}
