package auth

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStrategy(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		secrets  SecretSource
		url      string
		settings Settings
		want     *http.BasicAuth
		wantNil  bool
		wantErr  string
	}{
		{
			name:     "not applicable for ssh method",
			secrets:  mapSecrets{},
			url:      "https://github.com/u/r.git",
			settings: Settings{Method: MethodSSH},
			wantNil:  true,
		},
		{
			name:     "token sent as username",
			secrets:  mapSecrets{"gh": "ghp_abc"},
			url:      "https://github.com/u/r.git",
			settings: Settings{Method: MethodToken, TokenRef: "gh"},
			want:     &http.BasicAuth{Username: "ghp_abc", Password: ""},
		},
		{
			name:     "ssh remote rejected",
			secrets:  mapSecrets{"gh": "ghp_abc"},
			url:      "git@github.com:u/r.git",
			settings: Settings{Method: MethodToken, TokenRef: "gh"},
			wantErr:  "require an http(s) remote",
		},
		{
			name:     "missing reference",
			secrets:  mapSecrets{},
			url:      "https://github.com/u/r.git",
			settings: Settings{Method: MethodToken},
			wantErr:  "no token reference",
		},
		{
			name:     "no vault",
			url:      "https://github.com/u/r.git",
			settings: Settings{Method: MethodToken, TokenRef: "gh"},
			wantErr:  "no secret vault",
		},
		{
			name:     "lookup failure",
			secrets:  mapSecrets{},
			url:      "https://github.com/u/r.git",
			settings: Settings{Method: MethodToken, TokenRef: "gh"},
			wantErr:  "failed to retrieve token",
		},
		{
			name:     "empty token",
			secrets:  mapSecrets{"gh": ""},
			url:      "https://github.com/u/r.git",
			settings: Settings{Method: MethodToken, TokenRef: "gh"},
			wantErr:  "stored token is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &TokenStrategy{Secrets: tt.secrets}

			auth, err := s.TryResolve(ctx, Request{URL: tt.url, Settings: tt.settings})
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
			assert.Equal(t, tt.want, auth)
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		url      string
		protocol string
		host     string
		user     string
		ssh      bool
		http     bool
	}{
		{"https://github.com/u/r.git", "https", "github.com", "", false, true},
		{"git@github.com:u/r.git", "ssh", "github.com", "git", true, false},
		{"ssh://deploy@ssh.github.com:443/u/r.git", "ssh", "ssh.github.com", "deploy", true, false},
		{"file:///srv/repo.git", "file", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			ep, err := ParseEndpoint(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.protocol, ep.Protocol)
			assert.Equal(t, tt.host, ep.Host)
			assert.Equal(t, tt.user, ep.User)
			assert.Equal(t, tt.ssh, ep.IsSSH())
			assert.Equal(t, tt.http, ep.IsHTTP())
		})
	}

	_, err := ParseEndpoint("")
	assert.Error(t, err)

	assert.Equal(t, "git", UsernameHint("https://github.com/u/r.git"))
	assert.Equal(t, "alice", UsernameHint("ssh://alice@host/r.git"))
}
