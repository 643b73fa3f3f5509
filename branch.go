package gitsync

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// BranchInfo describes a local or remote-tracking branch.
type BranchInfo struct {
	Name              string `json:"name"`
	IsCurrent         bool   `json:"is_current"`
	IsRemote          bool   `json:"is_remote"`
	Upstream          string `json:"upstream,omitempty"`
	LastCommitMessage string `json:"last_commit_message,omitempty"`
	LastCommitTime    *int64 `json:"last_commit_time,omitempty"`
}

// ListBranches returns local branches followed by remote-tracking branches,
// each group sorted by name. A repository without branches yields a single
// entry for the current (or default) branch.
func (e *Engine) ListBranches(ctx context.Context) ([]BranchInfo, error) {
	log := e.opLogger("list_branches")

	h, err := e.open(ctx)
	if err != nil {
		return nil, err
	}

	current, err := e.currentBranch(h)
	if err != nil {
		return nil, err
	}

	refs, err := h.repo.References()
	if err != nil {
		return nil, WrapError(err, "failed to list references")
	}
	defer refs.Close()

	var local, remote []BranchInfo
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		switch {
		case name.IsBranch():
			info := BranchInfo{
				Name:      name.Short(),
				IsCurrent: name.Short() == current,
			}
			if r, n, ok := upstreamBranch(h.repo, name.Short()); ok {
				info.Upstream = r + "/" + n
			}
			e.describeTip(h, ref.Hash(), &info)
			local = append(local, info)

		case name.IsRemote():
			if strings.HasSuffix(name.String(), "/"+plumbing.HEAD.String()) {
				return nil
			}
			info := BranchInfo{Name: name.Short(), IsRemote: true}
			e.describeTip(h, ref.Hash(), &info)
			remote = append(remote, info)
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate references")
	}

	sort.Slice(local, func(i, j int) bool { return local[i].Name < local[j].Name })
	sort.Slice(remote, func(i, j int) bool { return remote[i].Name < remote[j].Name })

	branches := append(local, remote...)
	if len(branches) == 0 {
		branches = []BranchInfo{{Name: current, IsCurrent: true}}
	}

	log.DebugContext(ctx, "branches listed", "local", len(local), "remote", len(remote))
	return branches, nil
}

// describeTip fills the last commit fields from the branch tip. Missing
// objects leave them empty.
func (e *Engine) describeTip(h *handle, tip plumbing.Hash, info *BranchInfo) {
	commit, err := h.repo.CommitObject(tip)
	if err != nil {
		return
	}
	info.LastCommitMessage = summaryLine(commit.Message)
	ts := commit.Committer.When.Unix()
	info.LastCommitTime = &ts
}

// CreateBranch creates a local branch at the current HEAD commit without
// checking it out.
func (e *Engine) CreateBranch(ctx context.Context, name string) error {
	log := e.opLogger("create_branch").With("branch", name)

	refName := plumbing.NewBranchReferenceName(name)
	if name == "" || refName.Validate() != nil {
		return WrapErrorf(ErrInvalidRef, "invalid branch name %q", name)
	}

	h, err := e.open(ctx)
	if err != nil {
		return err
	}

	head, err := h.head()
	if err != nil {
		return err
	}
	if head == nil {
		return WrapError(ErrInvalidRef, "cannot create a branch before the first commit")
	}

	if _, err := h.repo.Reference(refName, false); err == nil {
		return WrapErrorf(ErrBranchExists, "branch %q", name)
	}

	if err := h.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
		return WrapError(err, "failed to create branch reference")
	}

	log.InfoContext(ctx, "branch created", "at", head.Hash().String())
	return nil
}

// Checkout switches the working tree to name. A local branch is checked out
// directly. A branch that only exists on the configured remote gets a local
// branch tracking it. Any other revision is checked out detached.
func (e *Engine) Checkout(ctx context.Context, name string) error {
	log := e.opLogger("checkout").With("target", name)

	if strings.TrimSpace(name) == "" {
		return WrapError(ErrInvalidRef, "checkout target cannot be empty")
	}

	h, err := e.open(ctx)
	if err != nil {
		return err
	}

	cfg, _ := e.loadConfig(ctx, log)

	target, err := resolveCheckoutTarget(h.repo, cfg.RemoteName, name)
	if err != nil {
		return err
	}

	// go-git moves HEAD before it refuses a dirty worktree.
	prevHead, err := h.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return WrapError(err, "failed to read HEAD")
	}

	var rollback []func() error
	undo := func() {
		for i := len(rollback) - 1; i >= 0; i-- {
			if err := rollback[i](); err != nil {
				log.WarnContext(ctx, "failed to roll back checkout", "error", err)
			}
		}
	}

	opts := &git.CheckoutOptions{}
	switch target.Kind {
	case RefBranch:
		opts.Branch = target.Name

	case RefRemoteBranch:
		local := plumbing.NewBranchReferenceName(name)
		if err := h.repo.Storer.SetReference(plumbing.NewHashReference(local, target.Hash)); err != nil {
			return WrapError(err, "failed to create local branch")
		}
		rollback = append(rollback, func() error { return h.repo.Storer.RemoveReference(local) })

		err := h.repo.CreateBranch(&config.Branch{
			Name:   name,
			Remote: cfg.RemoteName,
			Merge:  local,
		})
		switch {
		case err == nil:
			rollback = append(rollback, func() error { return h.repo.DeleteBranch(name) })
		case !errors.Is(err, git.ErrBranchExists):
			undo()
			return WrapError(err, "failed to configure upstream")
		}
		opts.Branch = local

	case RefCommit:
		opts.Hash = target.Hash
	}

	if err := h.wt.Checkout(opts); err != nil {
		log.ErrorContext(ctx, "checkout failed", "error", err)
		rollback = append([]func() error{func() error { return h.repo.Storer.SetReference(prevHead) }}, rollback...)
		undo()
		return WrapErrorf(err, "checkout %q", name)
	}

	log.InfoContext(ctx, "checked out", "kind", target.Kind.String(), "commit", target.Hash.String())
	return nil
}

// summaryLine returns the first non-empty line of a commit message.
func summaryLine(message string) string {
	for _, line := range strings.Split(message, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
