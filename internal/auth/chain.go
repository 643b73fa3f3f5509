package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gossh "golang.org/x/crypto/ssh"
)

// ErrExhausted is returned when no strategy in a chain produced a credential.
var ErrExhausted = errors.New("all credential strategies failed")

// Chain tries strategies in order. A failing strategy is logged and the next
// one is attempted; an error surfaces only once every strategy has been tried.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain creates a chain over the given strategies.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{
		strategies: strategies,
		logger:     logger,
	}
}

// DefaultChain builds the standard order: SSH agent, configured key file,
// configured token, then platform defaults.
func DefaultChain(secrets SecretSource, hostKeyCallback gossh.HostKeyCallback, logger *slog.Logger) *Chain {
	return NewChain(logger,
		&AgentStrategy{HostKeyCallback: hostKeyCallback},
		&KeyFileStrategy{Secrets: secrets, HostKeyCallback: hostKeyCallback, Logger: logger},
		&TokenStrategy{Secrets: secrets, Logger: logger},
		&DefaultStrategy{HostKeyCallback: hostKeyCallback},
	)
}

// Candidates returns every credential the chain can produce, in strategy
// order. Callers retry the transport with the next candidate when the server
// rejects the previous one.
func (c *Chain) Candidates(ctx context.Context, req Request) ([]Credential, error) {
	if req.Username == "" {
		req.Username = UsernameHint(req.URL)
	}

	logger := c.logger.With("auth_method", string(req.Settings.Method), "username", req.Username)
	if ep, err := ParseEndpoint(req.URL); err == nil {
		logger = logger.With("protocol", ep.Protocol, "host", ep.Host)
	}

	var (
		creds   []Credential
		lastErr error
	)

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("credential resolution cancelled: %w", err)
		}

		method, err := s.TryResolve(ctx, req)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", s.Name(), err)
			logger.WarnContext(ctx, "credential strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if method == nil {
			logger.DebugContext(ctx, "credential strategy not applicable", "strategy", s.Name())
			continue
		}

		cred := Credential{Method: method, Strategy: s.Name()}
		if method == Anonymous {
			cred.Method = nil
		}
		logger.InfoContext(ctx, "credential resolved", "strategy", s.Name())

		creds = append(creds, cred)
	}

	if len(creds) > 0 {
		return creds, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
	}
	return nil, fmt.Errorf("%w: no strategy applies", ErrExhausted)
}
