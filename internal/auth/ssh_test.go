package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
)

// writeTestKey writes an unencrypted ed25519 private key to path.
func writeTestKey(t *testing.T, path string) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := gossh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
}

func TestAgentStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("declines non-ssh remotes", func(t *testing.T) {
		s := &AgentStrategy{connect: func(string) (*ssh.PublicKeysCallback, error) {
			t.Fatal("agent should not be contacted")
			return nil, nil
		}}

		auth, err := s.TryResolve(ctx, Request{URL: "https://github.com/user/repo.git"})
		require.NoError(t, err)
		assert.Nil(t, auth)
	})

	t.Run("agent error is reported", func(t *testing.T) {
		s := &AgentStrategy{connect: func(string) (*ssh.PublicKeysCallback, error) {
			return nil, errors.New("SSH_AUTH_SOCK not set")
		}}

		_, err := s.TryResolve(ctx, Request{URL: "git@github.com:user/repo.git", Username: "git"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create SSH agent auth")
	})

	t.Run("host key callback applied", func(t *testing.T) {
		s := &AgentStrategy{
			HostKeyCallback: gossh.InsecureIgnoreHostKey(), //nolint:gosec // test only
			connect: func(user string) (*ssh.PublicKeysCallback, error) {
				return &ssh.PublicKeysCallback{User: user}, nil
			},
		}

		auth, err := s.TryResolve(ctx, Request{URL: "ssh://git@example.com/repo.git", Username: "git"})
		require.NoError(t, err)
		cb, ok := auth.(*ssh.PublicKeysCallback)
		require.True(t, ok)
		assert.NotNil(t, cb.HostKeyCallback)
	})
}

func TestKeyFileStrategy(t *testing.T) {
	ctx := context.Background()
	home := t.TempDir()
	writeTestKey(t, filepath.Join(home, ".ssh", "deploy_key"))
	homeDir := func() (string, error) { return home, nil }

	tests := []struct {
		name       string
		url        string
		settings   Settings
		wantNil    bool
		wantErr    string
		wantSigner bool
	}{
		{
			name:     "not applicable for other methods",
			url:      "git@github.com:user/repo.git",
			settings: Settings{Method: MethodToken},
			wantNil:  true,
		},
		{
			name:     "requires ssh remote",
			url:      "https://github.com/user/repo.git",
			settings: Settings{Method: MethodSSH, SSHKeyPath: "~/.ssh/deploy_key"},
			wantErr:  "require an SSH remote",
		},
		{
			name:     "requires key path",
			url:      "git@github.com:user/repo.git",
			settings: Settings{Method: MethodSSH},
			wantErr:  "no key path configured",
		},
		{
			name:     "missing key file",
			url:      "git@github.com:user/repo.git",
			settings: Settings{Method: MethodSSH, SSHKeyPath: "~/.ssh/nope"},
			wantErr:  "does not exist",
		},
		{
			name:       "tilde path expanded and loaded",
			url:        "git@github.com:user/repo.git",
			settings:   Settings{Method: MethodSSH, SSHKeyPath: "~/.ssh/deploy_key"},
			wantSigner: true,
		},
		{
			name: "unavailable passphrase is ignored",
			url:  "git@github.com:user/repo.git",
			settings: Settings{
				Method:        MethodSSH,
				SSHKeyPath:    filepath.Join(home, ".ssh", "deploy_key"),
				PassphraseRef: "missing",
			},
			wantSigner: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &KeyFileStrategy{Secrets: mapSecrets{}, homeDir: homeDir}

			auth, err := s.TryResolve(ctx, Request{URL: tt.url, Username: "git", Settings: tt.settings})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, auth)
				return
			}

			keys, ok := auth.(*ssh.PublicKeys)
			require.True(t, ok)
			assert.Equal(t, "git", keys.User)
			assert.NotNil(t, keys.Signer)
		})
	}
}

func TestDefaultStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous for https", func(t *testing.T) {
		auth, err := (&DefaultStrategy{}).TryResolve(ctx, Request{URL: "https://example.com/r.git"})
		require.NoError(t, err)
		assert.Equal(t, Anonymous, auth)
	})

	t.Run("anonymous for file remotes", func(t *testing.T) {
		auth, err := (&DefaultStrategy{}).TryResolve(ctx, Request{URL: "file:///tmp/remote.git"})
		require.NoError(t, err)
		assert.Equal(t, Anonymous, auth)
	})

	t.Run("first standard identity for ssh", func(t *testing.T) {
		home := t.TempDir()
		writeTestKey(t, filepath.Join(home, ".ssh", "id_ecdsa"))

		s := &DefaultStrategy{homeDir: func() (string, error) { return home, nil }}
		auth, err := s.TryResolve(ctx, Request{URL: "git@github.com:user/repo.git", Username: "git"})
		require.NoError(t, err)
		_, ok := auth.(*ssh.PublicKeys)
		assert.True(t, ok)
	})

	t.Run("no identity for ssh", func(t *testing.T) {
		home := t.TempDir()
		s := &DefaultStrategy{homeDir: func() (string, error) { return home, nil }}

		_, err := s.TryResolve(ctx, Request{URL: "git@github.com:user/repo.git", Username: "git"})
		require.Error(t, err)
	})
}

func TestExpandHome(t *testing.T) {
	homeDir := func() (string, error) { return "/home/dev", nil }

	tests := []struct {
		in   string
		want string
	}{
		{"~", "/home/dev"},
		{"~/.ssh/id_rsa", "/home/dev/.ssh/id_rsa"},
		{"/etc/key", "/etc/key"},
		{"~other/key", "~other/key"},
		{"relative/key", "relative/key"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandHome(tt.in, homeDir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExpandHome("~/x", func() (string, error) { return "", errors.New("no home") })
	assert.Error(t, err)
}
