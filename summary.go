package gitsync

import (
	"context"
	"errors"
)

// Summary is a compact overview of the workspace repository for display.
type Summary struct {
	HasRepository bool   `json:"has_repository"`
	CurrentBranch string `json:"current_branch,omitempty"`
	RemoteURL     string `json:"remote_url,omitempty"`
	ChangesCount  int    `json:"changes_count"`
	Ahead         int    `json:"ahead"`
	Behind        int    `json:"behind"`
}

// Summary describes the workspace repository. A workspace without a
// repository yields HasRepository false and no error; other failures are
// returned.
func (e *Engine) Summary(ctx context.Context) (*Summary, error) {
	log := e.opLogger("summary")

	h, err := e.open(ctx)
	if err != nil {
		if errors.Is(err, ErrNotARepository) {
			return &Summary{}, nil
		}
		return nil, err
	}

	status, err := e.status(ctx, h)
	if err != nil {
		log.ErrorContext(ctx, "summary failed", "error", err)
		return nil, err
	}

	out := &Summary{
		HasRepository: true,
		CurrentBranch: status.CurrentBranch,
		ChangesCount:  status.ChangesCount(),
		Ahead:         status.Ahead,
		Behind:        status.Behind,
	}

	cfg, _ := e.loadConfig(ctx, log)
	if remote, err := h.repo.Remote(cfg.RemoteName); err == nil && len(remote.Config().URLs) > 0 {
		out.RemoteURL = remote.Config().URLs[0]
	}

	return out, nil
}
