package gitsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Pull and push result messages.
const (
	MsgNoCommitsPull  = "Cannot pull: no commits yet. Make an initial commit first."
	MsgNoCommitsPush  = "Cannot push: no commits yet. Make an initial commit first."
	MsgDetachedHead   = "Cannot sync a detached HEAD. Check out a branch first."
	MsgNoUpstream     = "Already up to date (no upstream branch)"
	MsgUpToDate       = "Already up to date"
	MsgFastForward    = "Fast-forward successful"
	MsgMergeRequired  = "Merge required - manual merge not yet implemented"
	MsgPushSuccessful = "Push successful"
	MsgPushUpToDate   = "Everything up-to-date"
)

// MergeOutcome is the result of comparing the local branch with the
// fetched remote branch.
type MergeOutcome string

const (
	OutcomeNone        MergeOutcome = ""
	OutcomeUpToDate    MergeOutcome = "up_to_date"
	OutcomeFastForward MergeOutcome = "fast_forward"
	OutcomeDiverged    MergeOutcome = "diverged"
)

// PullResult reports a pull. Expected conditions such as a missing remote
// are reported here with Success false rather than as errors.
type PullResult struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	FilesChanged int          `json:"files_changed"`
	Outcome      MergeOutcome `json:"outcome,omitempty"`

	// Reason carries ErrMergeDiverged when Outcome is OutcomeDiverged.
	Reason error `json:"-"`
}

// PushResult reports a push.
type PushResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	CommitsPushed int    `json:"commits_pushed"`
}

// remoteNotConfigured is the message for a missing remote.
func remoteNotConfigured(name string) string {
	return fmt.Sprintf("Remote '%s' not configured. Please add a remote first: git remote add %s <url>", name, name)
}

// Pull fetches the upstream of the current branch and fast-forwards to it
// when possible. Diverged histories are reported and left untouched.
func (e *Engine) Pull(ctx context.Context) (*PullResult, error) {
	log := e.opLogger("pull")

	h, err := e.open(ctx)
	if err != nil {
		return nil, err
	}

	cfg, stored := e.loadConfig(ctx, log)
	log = log.With("remote", cfg.RemoteName)

	if _, err := h.repo.Remote(cfg.RemoteName); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			log.InfoContext(ctx, "remote not configured")
			return &PullResult{Message: remoteNotConfigured(cfg.RemoteName)}, nil
		}
		return nil, WrapError(err, "failed to look up remote")
	}

	head, err := h.head()
	if err != nil {
		return nil, err
	}
	if head == nil {
		return &PullResult{Message: MsgNoCommitsPull}, nil
	}
	if !head.Name().IsBranch() {
		return &PullResult{Message: MsgDetachedHead}, nil
	}

	branch := head.Name().Short()
	upstream := branch
	if remote, name, ok := upstreamBranch(h.repo, branch); ok && remote == cfg.RemoteName {
		upstream = name
	}
	log = log.With("branch", branch, "upstream", upstream)

	url, release, err := acquireTransport(ctx, h.repo, cfg.RemoteName, log)
	if err != nil {
		return nil, err
	}
	defer release()

	tracking := plumbing.NewRemoteReferenceName(cfg.RemoteName, upstream)
	refSpec := config.RefSpec(fmt.Sprintf("+%s:%s", plumbing.NewBranchReferenceName(upstream), tracking))

	timeout := e.operationTimeout(ctx, cfg, log)
	fetchErr := e.guarded(ctx, log, timeout, url, cfg, func(ctx context.Context, guard *timeoutGuard, am transport.AuthMethod) error {
		return h.repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: cfg.RemoteName,
			RefSpecs:   []config.RefSpec{refSpec},
			Auth:       am,
			Progress:   guard,
		})
	})

	switch {
	case fetchErr == nil, errors.Is(fetchErr, git.NoErrAlreadyUpToDate):
	case isNoUpstream(fetchErr):
		log.InfoContext(ctx, "remote has no matching branch")
		return &PullResult{Success: true, Message: MsgNoUpstream}, nil
	default:
		log.ErrorContext(ctx, "fetch failed", "error", fetchErr)
		return nil, fetchErr
	}

	if stored {
		now := time.Now().UTC().Truncate(time.Second)
		cfg.LastFetch = &now
		if err := e.writeConfig(cfg); err != nil {
			log.WarnContext(ctx, "failed to record fetch time", "error", err)
		}
	}

	remoteRef, err := h.repo.Reference(tracking, true)
	if err != nil {
		return &PullResult{Success: true, Message: MsgNoUpstream}, nil
	}

	result, err := e.integrate(ctx, h, head, remoteRef)
	if err != nil {
		log.ErrorContext(ctx, "merge failed", "error", err)
		return nil, err
	}

	log.InfoContext(ctx, "pull finished",
		"outcome", string(result.Outcome),
		"files_changed", result.FilesChanged,
	)
	return result, nil
}

// analyzeMerge compares the local tip with the fetched tip.
func analyzeMerge(repo *git.Repository, local, remote plumbing.Hash) (MergeOutcome, error) {
	if local == remote {
		return OutcomeUpToDate, nil
	}

	localCommit, err := repo.CommitObject(local)
	if err != nil {
		return OutcomeNone, WrapError(err, "failed to load local commit")
	}
	remoteCommit, err := repo.CommitObject(remote)
	if err != nil {
		return OutcomeNone, WrapError(err, "failed to load fetched commit")
	}

	if ok, err := remoteCommit.IsAncestor(localCommit); err != nil {
		return OutcomeNone, WrapError(err, "failed to compare histories")
	} else if ok {
		return OutcomeUpToDate, nil
	}

	if ok, err := localCommit.IsAncestor(remoteCommit); err != nil {
		return OutcomeNone, WrapError(err, "failed to compare histories")
	} else if ok {
		return OutcomeFastForward, nil
	}

	return OutcomeDiverged, nil
}

// integrate applies the merge analysis to the checked out branch.
func (e *Engine) integrate(ctx context.Context, h *handle, head, remote *plumbing.Reference) (*PullResult, error) {
	outcome, err := analyzeMerge(h.repo, head.Hash(), remote.Hash())
	if err != nil {
		return nil, err
	}

	switch outcome {
	case OutcomeUpToDate:
		return &PullResult{Success: true, Message: MsgUpToDate, Outcome: outcome}, nil

	case OutcomeDiverged:
		return &PullResult{Message: MsgMergeRequired, Outcome: outcome, Reason: ErrMergeDiverged}, nil
	}

	changed, err := changedFiles(h.repo, head.Hash(), remote.Hash())
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, WrapError(err, "context cancelled")
	}

	// HEAD is symbolic, so a hard reset moves the branch and the worktree.
	err = h.wt.Reset(&git.ResetOptions{Commit: remote.Hash(), Mode: git.HardReset})
	if err != nil {
		return nil, WrapError(err, "failed to fast-forward")
	}

	return &PullResult{
		Success:      true,
		Message:      MsgFastForward,
		FilesChanged: changed,
		Outcome:      outcome,
	}, nil
}

// changedFiles counts the paths that differ between two commits.
func changedFiles(repo *git.Repository, from, to plumbing.Hash) (int, error) {
	fromTree, err := commitTree(repo, from)
	if err != nil {
		return 0, err
	}
	toTree, err := commitTree(repo, to)
	if err != nil {
		return 0, err
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return 0, WrapError(err, "failed to diff trees")
	}
	return changes.Len(), nil
}

func commitTree(repo *git.Repository, hash plumbing.Hash) (*object.Tree, error) {
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, WrapErrorf(err, "failed to load commit %s", hash)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, WrapErrorf(err, "failed to load tree of %s", hash)
	}
	return tree, nil
}

// isNoUpstream reports a fetch that found no branch to fetch.
func isNoUpstream(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch) ||
		errors.Is(err, transport.ErrEmptyRemoteRepository)
}

// Push sends the current branch to the same-named branch of the remote.
func (e *Engine) Push(ctx context.Context) (*PushResult, error) {
	log := e.opLogger("push")

	h, err := e.open(ctx)
	if err != nil {
		return nil, err
	}

	cfg, _ := e.loadConfig(ctx, log)
	log = log.With("remote", cfg.RemoteName)

	if _, err := h.repo.Remote(cfg.RemoteName); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			log.InfoContext(ctx, "remote not configured")
			return &PushResult{Message: remoteNotConfigured(cfg.RemoteName)}, nil
		}
		return nil, WrapError(err, "failed to look up remote")
	}

	head, err := h.head()
	if err != nil {
		return nil, err
	}
	if head == nil {
		return &PushResult{Message: MsgNoCommitsPush}, nil
	}
	if !head.Name().IsBranch() {
		return &PushResult{Message: MsgDetachedHead}, nil
	}

	branch := head.Name()
	log = log.With("branch", branch.Short())

	pending, err := e.pendingCommits(h, cfg.RemoteName, branch.Short(), head.Hash())
	if err != nil {
		log.WarnContext(ctx, "failed to count commits to push", "error", err)
	}

	url, release, err := acquireTransport(ctx, h.repo, cfg.RemoteName, log)
	if err != nil {
		return nil, err
	}
	defer release()

	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", branch, branch))
	timeout := e.operationTimeout(ctx, cfg, log)

	pushErr := e.guarded(ctx, log, timeout, url, cfg, func(ctx context.Context, guard *timeoutGuard, am transport.AuthMethod) error {
		return h.repo.PushContext(ctx, &git.PushOptions{
			RemoteName: cfg.RemoteName,
			RefSpecs:   []config.RefSpec{refSpec},
			Auth:       am,
			Progress:   guard,
		})
	})

	switch {
	case errors.Is(pushErr, git.NoErrAlreadyUpToDate):
		log.InfoContext(ctx, "remote already up to date")
		return &PushResult{Success: true, Message: MsgPushUpToDate}, nil
	case pushErr != nil:
		log.ErrorContext(ctx, "push failed", "error", pushErr)
		return nil, fmt.Errorf("%w: %w", ErrSyncFailed, pushErr)
	}

	log.InfoContext(ctx, "push finished", "commits", pending)
	return &PushResult{Success: true, Message: MsgPushSuccessful, CommitsPushed: pending}, nil
}

// pendingCommits counts the local commits the remote-tracking branch lacks.
// Without a tracking ref every reachable commit is pending.
func (e *Engine) pendingCommits(h *handle, remote, branch string, tip plumbing.Hash) (int, error) {
	exclude := map[plumbing.Hash]bool{}

	tracking, err := h.repo.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	if err == nil {
		if exclude, err = ancestors(h.repo, tracking.Hash()); err != nil {
			return 0, err
		}
	}

	return countExclusive(h.repo, tip, exclude)
}

// guarded runs a network call under the timeout guard and the credential
// chain, and classifies its failure.
func (e *Engine) guarded(
	ctx context.Context,
	log *slog.Logger,
	timeout time.Duration,
	url string,
	cfg SyncConfig,
	call func(context.Context, *timeoutGuard, transport.AuthMethod) error,
) error {
	guard, gctx := newTimeoutGuard(ctx, timeout, log)
	defer guard.Stop()

	log.DebugContext(ctx, "starting network operation", "timeout", timeout.String())

	err := e.withCredentials(gctx, log, url, cfg, func(am transport.AuthMethod) error {
		return call(gctx, guard, am)
	})

	switch {
	case err == nil,
		errors.Is(err, git.NoErrAlreadyUpToDate),
		isNoUpstream(err) && !guard.Aborted():
		return err
	}
	return classifyTransportError(err, guard)
}
