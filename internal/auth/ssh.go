package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// defaultIdentities are the key files OpenSSH tries when none is configured.
var defaultIdentities = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// AgentStrategy authenticates through a running SSH agent. It applies to
// every SSH remote regardless of the configured method.
type AgentStrategy struct {
	HostKeyCallback gossh.HostKeyCallback

	// connect overrides agent discovery in tests.
	connect func(user string) (*ssh.PublicKeysCallback, error)
}

// Name implements Strategy.
func (s *AgentStrategy) Name() string { return "ssh-agent" }

// TryResolve implements Strategy.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (s *AgentStrategy) TryResolve(_ context.Context, req Request) (transport.AuthMethod, error) {
	ep, err := ParseEndpoint(req.URL)
	if err != nil {
		return nil, err
	}
	if !ep.IsSSH() {
		return nil, nil
	}

	connect := s.connect
	if connect == nil {
		connect = ssh.NewSSHAgentAuth
	}

	auth, err := connect(req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH agent auth: %w", err)
	}
	if s.HostKeyCallback != nil {
		auth.HostKeyCallback = s.HostKeyCallback
	}
	return auth, nil
}

// KeyFileStrategy loads the configured private key when the method is ssh.
// The passphrase, if referenced, comes from the secret source.
type KeyFileStrategy struct {
	Secrets         SecretSource
	HostKeyCallback gossh.HostKeyCallback
	Logger          *slog.Logger

	// homeDir overrides home directory lookup in tests.
	homeDir func() (string, error)
}

// Name implements Strategy.
func (s *KeyFileStrategy) Name() string { return "ssh-key" }

// TryResolve implements Strategy.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (s *KeyFileStrategy) TryResolve(ctx context.Context, req Request) (transport.AuthMethod, error) {
	if req.Settings.Method != MethodSSH {
		return nil, nil
	}

	ep, err := ParseEndpoint(req.URL)
	if err != nil {
		return nil, err
	}
	if !ep.IsSSH() {
		return nil, fmt.Errorf("SSH key credentials require an SSH remote, got %s", ep.Protocol)
	}

	if req.Settings.SSHKeyPath == "" {
		return nil, errors.New("SSH auth method selected but no key path configured")
	}

	keyPath, err := ExpandHome(req.Settings.SSHKeyPath, s.homeDir)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("SSH private key file does not exist: %s", keyPath)
	}

	auth, err := ssh.NewPublicKeysFromFile(req.Username, keyPath, s.passphrase(ctx, req.Settings.PassphraseRef))
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from file: %w", err)
	}
	if s.HostKeyCallback != nil {
		auth.HostKeyCallback = s.HostKeyCallback
	}
	return auth, nil
}

// passphrase returns the referenced passphrase, or "" when none is
// configured or it cannot be fetched.
func (s *KeyFileStrategy) passphrase(ctx context.Context, ref string) string {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if ref == "" || s.Secrets == nil {
		logger.DebugContext(ctx, "no SSH passphrase configured")
		return ""
	}

	pass, err := s.Secrets.GetSecret(ctx, ref)
	if err != nil {
		logger.WarnContext(ctx, "failed to retrieve SSH passphrase", "error", err)
		return ""
	}
	logger.DebugContext(ctx, "SSH passphrase retrieved", "length", len(pass))
	return pass
}

// DefaultStrategy is the last resort. SSH remotes get the first standard
// identity file that loads without a passphrase; every other transport is
// tried anonymously.
type DefaultStrategy struct {
	HostKeyCallback gossh.HostKeyCallback

	// homeDir overrides home directory lookup in tests.
	homeDir func() (string, error)
}

// Name implements Strategy.
func (s *DefaultStrategy) Name() string { return "default" }

// TryResolve implements Strategy.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (s *DefaultStrategy) TryResolve(_ context.Context, req Request) (transport.AuthMethod, error) {
	ep, err := ParseEndpoint(req.URL)
	if err != nil {
		return nil, err
	}
	if !ep.IsSSH() {
		return Anonymous, nil
	}

	home, err := ExpandHome("~", s.homeDir)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, name := range defaultIdentities {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, statErr := os.Stat(keyPath); statErr != nil {
			continue
		}

		auth, loadErr := ssh.NewPublicKeysFromFile(req.Username, keyPath, "")
		if loadErr != nil {
			lastErr = fmt.Errorf("%s: %w", name, loadErr)
			continue
		}
		if s.HostKeyCallback != nil {
			auth.HostKeyCallback = s.HostKeyCallback
		}
		return auth, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no usable default SSH identity: %w", lastErr)
	}
	return nil, errors.New("no default SSH identity found")
}

// ExpandHome replaces a leading "~" with the user's home directory.
// homeDir may be nil to use os.UserHomeDir.
func ExpandHome(path string, homeDir func() (string, error)) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	home, err := homeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
