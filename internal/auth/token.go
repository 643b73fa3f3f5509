package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// TokenStrategy presents a vault-held access token over HTTP basic auth
// when the configured method is token. The token is sent as the username
// with an empty password, which GitHub, GitLab and Gitea all accept.
type TokenStrategy struct {
	Secrets SecretSource
	Logger  *slog.Logger
}

// Name implements Strategy.
func (s *TokenStrategy) Name() string { return "token" }

// TryResolve implements Strategy.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (s *TokenStrategy) TryResolve(ctx context.Context, req Request) (transport.AuthMethod, error) {
	if req.Settings.Method != MethodToken {
		return nil, nil
	}

	ep, err := ParseEndpoint(req.URL)
	if err != nil {
		return nil, err
	}
	if !ep.IsHTTP() {
		return nil, fmt.Errorf("token credentials require an http(s) remote, got %s", ep.Protocol)
	}

	if req.Settings.TokenRef == "" {
		return nil, errors.New("token auth method selected but no token reference configured")
	}
	if s.Secrets == nil {
		return nil, errors.New("no secret vault available for token lookup")
	}

	token, err := s.Secrets.GetSecret(ctx, req.Settings.TokenRef)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}
	if token == "" {
		return nil, errors.New("stored token is empty")
	}

	if s.Logger != nil {
		s.Logger.DebugContext(ctx, "token retrieved", "length", len(token))
	}

	return &http.BasicAuth{
		Username: token,
		Password: "",
	}, nil
}
