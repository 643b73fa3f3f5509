package gitsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/Geoion/VibeBase/gitsync/internal/auth"
)

// port443Hosts maps hosts whose SSH port 22 is often blocked to the
// endpoint they serve SSH on over port 443.
var port443Hosts = map[string]string{
	"github.com":    "ssh.github.com",
	"gitlab.com":    "altssh.gitlab.com",
	"bitbucket.org": "altssh.bitbucket.org",
}

// scpURL matches scp-style remotes such as git@github.com:owner/repo.git.
var scpURL = regexp.MustCompile(`^(?:([^@/:]+)@)?([^@/:]+):([^/].*)$`)

// RewriteURL returns the port-443 form of an scp-style SSH remote for the
// hosts in port443Hosts. Other URLs are returned unchanged with ok false.
func RewriteURL(remoteURL string) (string, bool) {
	if strings.Contains(remoteURL, "://") {
		return remoteURL, false
	}

	m := scpURL.FindStringSubmatch(remoteURL)
	if m == nil {
		return remoteURL, false
	}

	user, host, repoPath := m[1], m[2], m[3]
	alt, ok := port443Hosts[strings.ToLower(host)]
	if !ok {
		return remoteURL, false
	}
	if user == "" {
		user = auth.DefaultUsername
	}

	return fmt.Sprintf("ssh://%s@%s:443/%s", user, alt, repoPath), true
}

// acquireTransport points the remote at its port-443 endpoint for the
// duration of one operation. The returned release restores the original
// URL and must be deferred so it runs on every exit path.
func acquireTransport(ctx context.Context, repo *git.Repository, remoteName string, log *slog.Logger) (string, func(), error) {
	cfg, err := repo.Config()
	if err != nil {
		return "", nil, WrapError(err, "failed to read repository config")
	}

	remote, ok := cfg.Remotes[remoteName]
	if !ok || len(remote.URLs) == 0 {
		return "", nil, WrapErrorf(ErrInvalidInput, "remote %q has no URL", remoteName)
	}

	original := remote.URLs[0]
	rewritten, changed := RewriteURL(original)
	if !changed {
		return original, func() {}, nil
	}

	remote.URLs[0] = rewritten
	if err := repo.SetConfig(cfg); err != nil {
		return "", nil, WrapError(err, "failed to rewrite remote URL")
	}
	log.InfoContext(ctx, "using port 443 transport", "url", rewritten)

	release := func() {
		cfg, err := repo.Config()
		if err != nil {
			log.ErrorContext(ctx, "failed to restore remote URL", "error", err)
			return
		}
		if r, ok := cfg.Remotes[remoteName]; ok && len(r.URLs) > 0 {
			r.URLs[0] = original
		}
		if err := repo.SetConfig(cfg); err != nil {
			log.ErrorContext(ctx, "failed to restore remote URL", "error", err)
		}
	}
	return rewritten, release, nil
}

// isAuthError reports whether the remote rejected the presented credential.
func isAuthError(err error) bool {
	if errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain")
}

// isRejectedUpdate reports a push refused because the remote branch has
// commits the local branch lacks.
func isRejectedUpdate(err error) bool {
	return errors.Is(err, git.ErrNonFastForwardUpdate) ||
		errors.Is(err, git.ErrForceNeeded) ||
		strings.Contains(err.Error(), "non-fast-forward update")
}

// classifyTransportError maps a fetch or push failure to ErrNetworkTimeout,
// ErrAuthenticationFailed or ErrNetworkFailure.
func classifyTransportError(err error, guard *timeoutGuard) error {
	switch {
	case guard != nil && guard.Aborted(),
		errors.Is(err, errOperationTimedOut),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	case errors.Is(err, ErrAuthenticationFailed),
		errors.Is(err, ErrNetworkTimeout),
		errors.Is(err, ErrNetworkFailure):
		return err
	case errors.Is(err, context.Canceled):
		return WrapError(err, "operation cancelled")
	case isAuthError(err):
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	case isRejectedUpdate(err):
		return WrapError(err, "remote rejected the update")
	default:
		return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
}

// withCredentials runs fn with each credential the chain yields, moving to
// the next one only when the remote rejects the current one. It is not a
// retry on network failures.
func (e *Engine) withCredentials(
	ctx context.Context,
	log *slog.Logger,
	remoteURL string,
	cfg SyncConfig,
	fn func(transport.AuthMethod) error,
) error {
	creds, err := e.newChain(log).Candidates(ctx, auth.Request{
		URL:      remoteURL,
		Settings: cfg.authSettings(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	var lastErr error
	for i, cred := range creds {
		err := fn(cred.Method)
		if err == nil || !isAuthError(err) {
			return err
		}

		lastErr = err
		log.WarnContext(ctx, "remote rejected credential",
			"strategy", cred.Strategy,
			"attempt", i+1,
			"remaining", len(creds)-i-1,
		)
	}

	return fmt.Errorf("%w: %w", ErrAuthenticationFailed, lastErr)
}
