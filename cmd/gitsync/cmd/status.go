package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Geoion/VibeBase/gitsync"
)

var statusShort bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working tree status",
	Long: `Shows the current branch, its distance from the upstream branch, and
staged, unstaged and untracked paths. With --short only a one-line summary
is printed, and a workspace without a repository is not an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		if statusShort {
			s, err := eng.Summary(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(s)
			return nil
		}

		st, err := eng.Status(cmd.Context())
		if err != nil {
			return err
		}

		info("On branch %s", st.CurrentBranch)
		if st.Ahead > 0 || st.Behind > 0 {
			info("Ahead %d, behind %d", st.Ahead, st.Behind)
		}
		if st.Clean() {
			info("Nothing to commit, working tree clean")
			return nil
		}

		printFiles("Changes to be committed:", st.Staged)
		printFiles("Changes not staged for commit:", st.Unstaged)
		if len(st.Untracked) > 0 {
			info("Untracked files:")
			for _, p := range st.Untracked {
				info("  %s", p)
			}
		}
		return nil
	},
}

func printFiles(title string, files []gitsync.FileStatus) {
	if len(files) == 0 {
		return
	}
	info("%s", title)
	for _, f := range files {
		info("  %-9s %s", string(f.Kind)+":", f.Path)
	}
}

func printSummary(s *gitsync.Summary) {
	if !s.HasRepository {
		info("no repository")
		return
	}
	line := fmt.Sprintf("%s: %d change(s), ahead %d, behind %d", s.CurrentBranch, s.ChangesCount, s.Ahead, s.Behind)
	if s.RemoteURL != "" {
		line += " [" + s.RemoteURL + "]"
	}
	info("%s", line)
}

func init() {
	statusCmd.Flags().BoolVarP(&statusShort, "short", "s", false, "print a one-line summary")
	rootCmd.AddCommand(statusCmd)
}
