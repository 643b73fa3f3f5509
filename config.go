package gitsync

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/Geoion/VibeBase/gitsync/internal/auth"
	"github.com/Geoion/VibeBase/gitsync/internal/store"
)

const (
	// ConfigID is the identifier of the single configuration record.
	ConfigID = "default"

	// TimeoutSettingKey is the settings key holding the global network
	// operation timeout in seconds.
	TimeoutSettingKey = "git.operation_timeout_seconds"

	// DefaultTimeout applies when neither the configuration nor the
	// settings store provide a timeout.
	DefaultTimeout = 30 * time.Second
)

// AuthMethod selects how credentials are configured for the remote.
type AuthMethod string

const (
	AuthNone  AuthMethod = "none"
	AuthSSH   AuthMethod = "ssh"
	AuthToken AuthMethod = "token"
)

// Valid reports whether m is a known method.
func (m AuthMethod) Valid() bool {
	switch m {
	case AuthNone, AuthSSH, AuthToken:
		return true
	default:
		return false
	}
}

// SyncConfig is the per-workspace synchronization configuration.
// Secret fields hold vault references, never secret values.
type SyncConfig struct {
	ID               string     `yaml:"id"`
	RemoteName       string     `yaml:"remote_name"`
	RemoteURL        string     `yaml:"remote_url,omitempty"`
	AuthMethod       AuthMethod `yaml:"auth_method"`
	SSHKeyPath       string     `yaml:"ssh_key_path,omitempty"`
	SSHPassphraseRef string     `yaml:"ssh_passphrase_ref,omitempty"`
	TokenRef         string     `yaml:"token_ref,omitempty"`
	UserName         string     `yaml:"user_name,omitempty"`
	UserEmail        string     `yaml:"user_email,omitempty"`
	LastFetch        *time.Time `yaml:"last_fetch,omitempty"`

	// TimeoutSeconds overrides the global timeout setting when positive.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// Commit message preferences, read only by the commitmsg package.
	CommitMessageStyle    string `yaml:"commit_message_style,omitempty"`
	CommitMessageProvider string `yaml:"commit_message_provider,omitempty"`
	CommitMessageLanguage string `yaml:"commit_message_language,omitempty"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// DefaultSyncConfig returns the configuration used when none is stored.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		ID:         ConfigID,
		RemoteName: DefaultRemoteName,
		AuthMethod: AuthNone,
	}
}

// normalize fills empty fields with their defaults.
func (c *SyncConfig) normalize() {
	if c.ID == "" {
		c.ID = ConfigID
	}
	if c.RemoteName == "" {
		c.RemoteName = DefaultRemoteName
	}
	if c.AuthMethod == "" {
		c.AuthMethod = AuthNone
	}
}

// hasIdentity reports whether the configuration overrides commit identity.
func (c *SyncConfig) hasIdentity() bool {
	return strings.TrimSpace(c.UserName) != "" && strings.TrimSpace(c.UserEmail) != ""
}

func (c *SyncConfig) authSettings() auth.Settings {
	return auth.Settings{
		Method:        auth.Method(c.AuthMethod),
		SSHKeyPath:    c.SSHKeyPath,
		PassphraseRef: c.SSHPassphraseRef,
		TokenRef:      c.TokenRef,
	}
}

// LoadConfig returns the stored configuration, or DefaultSyncConfig when
// none is stored or it cannot be read. It never fails.
func (e *Engine) LoadConfig(ctx context.Context) SyncConfig {
	cfg, _ := e.loadConfig(ctx, e.logger)
	return cfg
}

// loadConfig reports whether a record exists alongside the configuration.
func (e *Engine) loadConfig(ctx context.Context, log *slog.Logger) (SyncConfig, bool) {
	var cfg SyncConfig
	found, err := e.configRecord().Load(&cfg)
	if err != nil {
		log.WarnContext(ctx, "failed to read sync configuration, using defaults", "error", err)
		return DefaultSyncConfig(), false
	}
	if !found {
		return DefaultSyncConfig(), false
	}

	cfg.normalize()
	return cfg, true
}

// SaveConfig stores cfg as the workspace configuration, replacing any
// previous record. It returns the record as written.
func (e *Engine) SaveConfig(ctx context.Context, cfg SyncConfig) (SyncConfig, error) {
	log := e.opLogger("save_config")

	if cfg.AuthMethod != "" && !cfg.AuthMethod.Valid() {
		return cfg, WrapErrorf(ErrInvalidInput, "unknown auth method %q", cfg.AuthMethod)
	}
	if cfg.TimeoutSeconds < 0 {
		return cfg, WrapError(ErrInvalidInput, "timeout cannot be negative")
	}

	cfg.normalize()
	cfg.ID = ConfigID

	now := time.Now().UTC().Truncate(time.Second)
	if previous, found := e.loadConfig(ctx, log); found && !previous.CreatedAt.IsZero() {
		cfg.CreatedAt = previous.CreatedAt
	} else if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	if err := e.writeConfig(cfg); err != nil {
		log.ErrorContext(ctx, "failed to save sync configuration", "error", err)
		return cfg, err
	}

	log.InfoContext(ctx, "sync configuration saved",
		"remote", cfg.RemoteName,
		"auth_method", string(cfg.AuthMethod),
		"has_token_ref", cfg.TokenRef != "",
		"has_passphrase_ref", cfg.SSHPassphraseRef != "",
	)
	return cfg, nil
}

func (e *Engine) writeConfig(cfg SyncConfig) error {
	dir := path.Join(e.opts.Workspace, store.DirName)
	if err := store.IgnoreDir(e.opts.FS, dir); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := e.configRecord().Save(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (e *Engine) configRecord() *store.Record {
	return store.ConfigRecord(e.opts.FS, e.opts.Workspace)
}

// operationTimeout resolves the timeout for one network operation:
// configuration override, then the settings store, then DefaultTimeout.
func (e *Engine) operationTimeout(ctx context.Context, cfg SyncConfig, log *slog.Logger) time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	if e.opts.Settings == nil {
		return DefaultTimeout
	}

	raw, ok, err := e.opts.Settings.Get(ctx, TimeoutSettingKey)
	if err != nil {
		log.WarnContext(ctx, "failed to read timeout setting", "error", err)
		return DefaultTimeout
	}
	if !ok {
		return DefaultTimeout
	}

	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs <= 0 {
		log.WarnContext(ctx, "invalid timeout setting, using default", "value", raw)
		return DefaultTimeout
	}
	return time.Duration(secs) * time.Second
}
