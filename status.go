package gitsync

import (
	"context"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ChangeKind classifies a path change.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// FileStatus is a changed path and how it changed.
type FileStatus struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
}

// SyncStatus is a snapshot of the working tree and its relation to the
// upstream branch.
type SyncStatus struct {
	CurrentBranch string       `json:"current_branch"`
	Staged        []FileStatus `json:"staged"`
	Unstaged      []FileStatus `json:"unstaged"`
	Untracked     []string     `json:"untracked"`
	Ahead         int          `json:"ahead"`
	Behind        int          `json:"behind"`
	HasConflicts  bool         `json:"has_conflicts"`
}

// Clean reports whether there is nothing to stage or commit.
func (s *SyncStatus) Clean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0
}

// ChangesCount is the number of staged, unstaged and untracked entries.
// A path both staged and unstaged counts twice.
func (s *SyncStatus) ChangesCount() int {
	return len(s.Staged) + len(s.Unstaged) + len(s.Untracked)
}

// Status reports the working tree status of the workspace repository.
func (e *Engine) Status(ctx context.Context) (*SyncStatus, error) {
	log := e.opLogger("status")

	h, err := e.open(ctx)
	if err != nil {
		return nil, err
	}

	status, err := e.status(ctx, h)
	if err != nil {
		log.ErrorContext(ctx, "status failed", "error", err)
		return nil, err
	}

	log.DebugContext(ctx, "status collected",
		"branch", status.CurrentBranch,
		"staged", len(status.Staged),
		"unstaged", len(status.Unstaged),
		"untracked", len(status.Untracked),
	)
	return status, nil
}

func (e *Engine) status(ctx context.Context, h *handle) (*SyncStatus, error) {
	wtStatus, err := h.wt.Status()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree status")
	}

	out := &SyncStatus{
		Staged:    []FileStatus{},
		Unstaged:  []FileStatus{},
		Untracked: []string{},
	}

	for path, fs := range wtStatus {
		if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
			out.Untracked = append(out.Untracked, path)
			continue
		}

		if fs.Staging == git.UpdatedButUnmerged || fs.Worktree == git.UpdatedButUnmerged {
			out.HasConflicts = true
		}

		if kind, ok := stagedKind(fs.Staging); ok {
			out.Staged = append(out.Staged, FileStatus{Path: path, Kind: kind})
		}
		if kind, ok := unstagedKind(fs.Worktree); ok {
			out.Unstaged = append(out.Unstaged, FileStatus{Path: path, Kind: kind})
		}
	}

	sortFileStatuses(out.Staged)
	sortFileStatuses(out.Unstaged)
	sort.Strings(out.Untracked)

	out.CurrentBranch, err = e.currentBranch(h)
	if err != nil {
		return nil, err
	}

	head, err := h.head()
	if err != nil {
		return nil, err
	}
	if head != nil && head.Name().IsBranch() {
		out.Ahead, out.Behind = e.aheadBehind(ctx, h, head)
	}

	return out, nil
}

// currentBranch returns the checked out branch name, the unborn branch
// HEAD points at, "HEAD" when detached, or the default branch.
func (e *Engine) currentBranch(h *handle) (string, error) {
	name, err := h.branchName()
	if err != nil {
		return "", err
	}
	if name != "" {
		return name, nil
	}

	ref, err := h.repo.Storer.Reference(plumbing.HEAD)
	if err == nil && ref.Type() == plumbing.HashReference {
		return plumbing.HEAD.String(), nil
	}
	return e.opts.DefaultBranch, nil
}

// aheadBehind counts commits between the branch and its configured
// upstream. Without an upstream, or when the counts cannot be computed,
// it returns (0, 0).
func (e *Engine) aheadBehind(ctx context.Context, h *handle, head *plumbing.Reference) (int, int) {
	upstream, ok := upstreamRef(h.repo, head.Name().Short())
	if !ok {
		return 0, 0
	}

	tracking, err := h.repo.Reference(upstream, true)
	if err != nil {
		return 0, 0
	}

	ahead, behind, err := countDivergence(h.repo, head.Hash(), tracking.Hash())
	if err != nil {
		e.logger.WarnContext(ctx, "failed to compute ahead/behind", "error", err)
		return 0, 0
	}
	return ahead, behind
}

func stagedKind(code git.StatusCode) (ChangeKind, bool) {
	switch code {
	case git.Added, git.Renamed, git.Copied:
		return ChangeAdded, true
	case git.Modified:
		return ChangeModified, true
	case git.Deleted:
		return ChangeDeleted, true
	default:
		return "", false
	}
}

func unstagedKind(code git.StatusCode) (ChangeKind, bool) {
	switch code {
	case git.Modified:
		return ChangeModified, true
	case git.Deleted:
		return ChangeDeleted, true
	default:
		return "", false
	}
}

func sortFileStatuses(entries []FileStatus) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
}
