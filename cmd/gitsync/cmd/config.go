package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Geoion/VibeBase/gitsync"
	"github.com/Geoion/VibeBase/gitsync/commitmsg"
)

var (
	configEdit          bool
	configGlobalTimeout int
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the workspace sync configuration",
	Long: `Prints the workspace sync configuration. With --edit the configuration is
edited interactively and saved. Secret fields take references that are
resolved from GITSYNC_SECRET_<REF> environment variables, never the secret
itself.

--global-timeout stores the network timeout in seconds used by workspaces
that do not set their own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("global-timeout") {
			if configGlobalTimeout <= 0 {
				return fmt.Errorf("global timeout must be positive, got %d", configGlobalTimeout)
			}
			settings := newSettings()
			if err := settings.Set(ctx, gitsync.TimeoutSettingKey, strconv.Itoa(configGlobalTimeout)); err != nil {
				return fmt.Errorf("saving %s: %w", settings.Path(), err)
			}
			info("Global timeout set to %ds", configGlobalTimeout)
			if !configEdit {
				return nil
			}
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		cfg := eng.LoadConfig(ctx)
		if configEdit {
			cfg, err = promptConfig(cfg)
			if err != nil {
				return err
			}
			cfg, err = eng.SaveConfig(ctx, cfg)
			if err != nil {
				return err
			}
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

// promptConfig walks the user through every editable field of cfg.
func promptConfig(cfg gitsync.SyncConfig) (gitsync.SyncConfig, error) {
	var err error

	if cfg.RemoteName, err = input("Remote name:", cfg.RemoteName); err != nil {
		return cfg, err
	}

	method, err := choose("Authentication:",
		[]string{string(gitsync.AuthNone), string(gitsync.AuthSSH), string(gitsync.AuthToken)},
		string(cfg.AuthMethod))
	if err != nil {
		return cfg, err
	}
	cfg.AuthMethod = gitsync.AuthMethod(method)

	switch cfg.AuthMethod {
	case gitsync.AuthSSH:
		if cfg.SSHKeyPath, err = input("SSH private key path (empty for defaults):", cfg.SSHKeyPath); err != nil {
			return cfg, err
		}
		if cfg.SSHPassphraseRef, err = input("Passphrase secret reference (optional):", cfg.SSHPassphraseRef); err != nil {
			return cfg, err
		}
	case gitsync.AuthToken:
		if cfg.TokenRef, err = input("Token secret reference:", cfg.TokenRef); err != nil {
			return cfg, err
		}
	}

	if cfg.UserName, err = input("Commit author name (optional):", cfg.UserName); err != nil {
		return cfg, err
	}
	if cfg.UserEmail, err = input("Commit author email (optional):", cfg.UserEmail); err != nil {
		return cfg, err
	}

	timeout, err := input("Network timeout in seconds (0 for the global setting):", strconv.Itoa(cfg.TimeoutSeconds))
	if err != nil {
		return cfg, err
	}
	if cfg.TimeoutSeconds, err = strconv.Atoi(timeout); err != nil {
		return cfg, fmt.Errorf("invalid timeout %q: %w", timeout, err)
	}

	style, err := choose("Commit message style:",
		[]string{commitmsg.StyleConcise, commitmsg.StyleDetailed},
		firstNonEmpty(cfg.CommitMessageStyle, commitmsg.StyleConcise))
	if err != nil {
		return cfg, err
	}
	cfg.CommitMessageStyle = style

	language, err := choose("Commit message language:",
		[]string{commitmsg.LanguageAuto, commitmsg.LanguageEnglish, commitmsg.LanguageChinese},
		firstNonEmpty(cfg.CommitMessageLanguage, commitmsg.LanguageAuto))
	if err != nil {
		return cfg, err
	}
	cfg.CommitMessageLanguage = language

	return cfg, nil
}

func init() {
	configCmd.Flags().BoolVarP(&configEdit, "edit", "e", false, "edit the configuration interactively")
	configCmd.Flags().IntVar(&configGlobalTimeout, "global-timeout", 0, "set the global network timeout in seconds")
	rootCmd.AddCommand(configCmd)
}
