package gitsync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	gossh "golang.org/x/crypto/ssh"

	"github.com/Geoion/VibeBase/gitsync/internal/auth"
	"github.com/Geoion/VibeBase/gitsync/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize is the default LRU object cache budget in KiB.
	DefaultStorerCacheSize = fsbridge.DefaultCacheSize

	// DefaultRemoteName is the remote used when the configuration names none.
	DefaultRemoteName = "origin"

	// DefaultBranchName is the initial branch of new repositories and the
	// name reported for an unborn HEAD that points nowhere useful.
	DefaultBranchName = "main"
)

// SettingsStore is the persisted key-value settings the engine reads its
// global timeout from.
type SettingsStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// SecretVault resolves opaque secret references to their values.
type SecretVault interface {
	GetSecret(ctx context.Context, ref string) (string, error)
}

// Options configures an Engine.
type Options struct {
	// Workspace is the REQUIRED directory the engine operates on. The
	// repository is discovered from here upward.
	Workspace string

	// FS is the filesystem every path is resolved against.
	// Defaults to the host filesystem rooted at "/".
	FS billy.Filesystem

	// Settings supplies the global operation timeout. Optional.
	Settings SettingsStore

	// Vault supplies SSH passphrases and access tokens. Optional.
	Vault SecretVault

	// Logger receives structured operation logs. Defaults to discarding.
	Logger *slog.Logger

	// DefaultBranch is the initial branch for Init. Defaults to "main".
	DefaultBranch string

	// StorerCacheSize is the LRU object cache budget in KiB.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// HostKeyCallback overrides known_hosts verification for SSH remotes.
	HostKeyCallback gossh.HostKeyCallback
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.Workspace == "" {
		return WrapError(ErrInvalidInput, "Workspace is required")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidInput, "StorerCacheSize cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() error {
	if o.FS == nil {
		o.FS = osfs.New("/")
		abs, err := filepath.Abs(o.Workspace)
		if err != nil {
			return fmt.Errorf("%w: workspace %q: %w", ErrInvalidInput, o.Workspace, err)
		}
		o.Workspace = filepath.ToSlash(abs)
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	if o.DefaultBranch == "" {
		o.DefaultBranch = DefaultBranchName
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}

	return nil
}

// Engine runs synchronization operations against one workspace.
// It holds no repository state between calls: every operation opens the
// repository afresh. Callers serialize operations per workspace, see
// WorkspaceLocks.
type Engine struct {
	opts   Options
	logger *slog.Logger

	// newChain builds the credential chain for one operation.
	newChain func(logger *slog.Logger) *auth.Chain
}

// New creates an Engine for the workspace described by opts.
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}
	if err := opts.applyDefaults(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	e := &Engine{
		opts:   opts,
		logger: opts.Logger.With("workspace", opts.Workspace),
	}
	e.newChain = func(logger *slog.Logger) *auth.Chain {
		var secrets auth.SecretSource
		if opts.Vault != nil {
			secrets = opts.Vault
		}
		return auth.DefaultChain(secrets, opts.HostKeyCallback, logger)
	}
	return e, nil
}

// Workspace returns the directory the engine operates on.
func (e *Engine) Workspace() string {
	return e.opts.Workspace
}

// opLogger returns a logger tagged with the operation name and a fresh
// correlation id.
func (e *Engine) opLogger(op string) *slog.Logger {
	return e.logger.With("op", op, "op_id", uuid.NewString())
}
