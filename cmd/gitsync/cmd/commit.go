package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Geoion/VibeBase/gitsync"
	"github.com/Geoion/VibeBase/gitsync/commitmsg"
)

var (
	commitMessage  string
	commitStyle    string
	commitLanguage string
	commitYes      bool
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record staged changes",
	Long: `Creates a commit from the index. Without -m a Conventional Commits message
is proposed from the pending diff and confirmed interactively; --yes accepts
the proposal as is. Style and language default to the workspace
configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		message := commitMessage
		if message == "" {
			message, err = generateMessage(cmd.Context(), eng)
			if err != nil {
				return err
			}
		}

		id, err := eng.Commit(cmd.Context(), message)
		if err != nil {
			return err
		}
		info("[%s] %s", id[:gitsync.ShortIDLength], firstLine(message))
		return nil
	},
}

func generateMessage(ctx context.Context, eng *gitsync.Engine) (string, error) {
	diff, err := eng.Diff(ctx)
	if err != nil {
		return "", err
	}

	proposal, err := proposeMessage(ctx, diff, eng.LoadConfig(ctx))
	if err != nil {
		return "", err
	}
	if commitYes {
		return proposal, nil
	}

	info("Proposed message:\n\n%s\n", proposal)
	ok, err := confirm("Use this message?", true)
	if err != nil {
		return "", err
	}
	if ok {
		return proposal, nil
	}
	return editMessage("Commit message", proposal)
}

// proposeMessage generates a message for diff. Flags override the
// workspace preferences.
func proposeMessage(ctx context.Context, diff string, cfg gitsync.SyncConfig) (string, error) {
	req := commitmsg.Request{
		Diff:        diff,
		Style:       firstNonEmpty(commitStyle, cfg.CommitMessageStyle),
		Language:    firstNonEmpty(commitLanguage, cfg.CommitMessageLanguage),
		ProviderRef: cfg.CommitMessageProvider,
	}

	msg, err := commitmsg.Fallback{}.Generate(ctx, req)
	if errors.Is(err, commitmsg.ErrNoChanges) {
		return "", fmt.Errorf("nothing to describe: %w, pass -m to commit anyway", err)
	}
	return msg, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	commitCmd.Flags().StringVar(&commitStyle, "style", "", "generated message style (concise or detailed)")
	commitCmd.Flags().StringVar(&commitLanguage, "language", "", "generated message language (auto, en, zh-CN)")
	commitCmd.Flags().BoolVarP(&commitYes, "yes", "y", false, "accept the generated message without prompting")
	rootCmd.AddCommand(commitCmd)
}
