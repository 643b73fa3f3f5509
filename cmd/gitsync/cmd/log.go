package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Geoion/VibeBase/gitsync"
	"github.com/Geoion/VibeBase/gitsync/commitmsg"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent commits of the current branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		records, err := eng.History(cmd.Context(), logLimit)
		if err != nil {
			return err
		}
		for _, r := range records {
			info("%s", historyLine(r))
		}
		return nil
	},
}

// historyLine formats r as "<short id> <date> [type] <subject> (<author>)".
// The type column is present only for Conventional Commits subjects.
func historyLine(r gitsync.CommitRecord) string {
	subject := firstLine(r.Message)
	date := time.Unix(r.Timestamp, 0).UTC().Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s ", r.ShortID, date)
	if h, err := commitmsg.ParseHeader(r.Message); err == nil {
		tag := h.Type
		if h.Breaking {
			tag += "!"
		}
		fmt.Fprintf(&b, "[%s] ", tag)
	}
	fmt.Fprintf(&b, "%s (%s)", subject, r.AuthorName)
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "number of commits to show")
	rootCmd.AddCommand(logCmd)
}
