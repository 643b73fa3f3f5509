package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/Geoion/VibeBase/gitsync"
	"github.com/Geoion/VibeBase/gitsync/internal/store"
	"github.com/Geoion/VibeBase/gitsync/vault"
)

// newLogger builds the operation logger selected by the global flags.
func newLogger(w io.Writer) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if logJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newSettings opens the global settings document under the XDG config home.
func newSettings() *store.FileSettings {
	return store.NewFileSettings(osfs.New("/"), store.DefaultSettingsPath())
}

// newEngine creates an engine for the --workspace directory.
func newEngine() (*gitsync.Engine, error) {
	eng, err := gitsync.New(gitsync.Options{
		Workspace: workspace,
		Settings:  newSettings(),
		Vault:     &vault.Env{},
		Logger:    newLogger(os.Stderr),
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine for %s: %w", workspace, err)
	}
	return eng, nil
}

// input asks for a line of text, offering def as the default answer.
func input(prompt, def string) (string, error) {
	var result string
	q := &survey.Input{Message: prompt, Default: def}
	if err := survey.AskOne(q, &result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

// choose presents options and returns the selected one.
func choose(prompt string, options []string, def string) (string, error) {
	var result string
	q := &survey.Select{Message: prompt, Options: options, Default: def}
	return result, survey.AskOne(q, &result)
}

// confirm asks a yes/no question.
func confirm(prompt string, defaultYes bool) (bool, error) {
	var result bool
	q := &survey.Confirm{Message: prompt, Default: defaultYes}
	return result, survey.AskOne(q, &result)
}

// editMessage lets the user revise a multi-line message.
func editMessage(prompt, def string) (string, error) {
	var result string
	q := &survey.Multiline{Message: prompt, Default: def}
	if err := survey.AskOne(q, &result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

// info prints a line to stdout.
func info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}
