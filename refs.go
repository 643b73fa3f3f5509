package gitsync

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// RefKind classifies what a checkout target resolved to.
type RefKind int

const (
	// RefBranch is an existing local branch.
	RefBranch RefKind = iota

	// RefRemoteBranch is a remote-tracking branch without a local counterpart.
	RefRemoteBranch

	// RefCommit is any other resolvable revision, checked out detached.
	RefCommit
)

// String returns a human-readable string representation of the RefKind.
func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefRemoteBranch:
		return "remote-branch"
	case RefCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// resolvedRef is a checkout target.
type resolvedRef struct {
	Kind RefKind
	Name plumbing.ReferenceName
	Hash plumbing.Hash
}

// resolveCheckoutTarget resolves name as a local branch, then as a branch
// of remote, then as an arbitrary revision.
func resolveCheckoutTarget(repo *git.Repository, remote, name string) (*resolvedRef, error) {
	local := plumbing.NewBranchReferenceName(name)
	if ref, err := repo.Reference(local, true); err == nil {
		return &resolvedRef{Kind: RefBranch, Name: local, Hash: ref.Hash()}, nil
	}

	tracking := plumbing.NewRemoteReferenceName(remote, name)
	if ref, err := repo.Reference(tracking, true); err == nil {
		return &resolvedRef{Kind: RefRemoteBranch, Name: tracking, Hash: ref.Hash()}, nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		return nil, WrapErrorf(ErrInvalidRef, "cannot resolve %q", name)
	}
	return &resolvedRef{Kind: RefCommit, Hash: *hash}, nil
}

// upstreamBranch returns the remote and remote branch name configured as
// the upstream of a local branch.
func upstreamBranch(repo *git.Repository, branch string) (remote, name string, ok bool) {
	cfg, err := repo.Config()
	if err != nil {
		return "", "", false
	}
	b, exists := cfg.Branches[branch]
	if !exists || b.Remote == "" || b.Merge == "" {
		return "", "", false
	}
	return b.Remote, b.Merge.Short(), true
}

// upstreamRef returns the remote-tracking reference of a branch's
// configured upstream.
func upstreamRef(repo *git.Repository, branch string) (plumbing.ReferenceName, bool) {
	remote, name, ok := upstreamBranch(repo, branch)
	if !ok {
		return "", false
	}
	return plumbing.NewRemoteReferenceName(remote, name), true
}

// ancestors returns every commit reachable from tip, tip included.
func ancestors(repo *git.Repository, tip plumbing.Hash) (map[plumbing.Hash]bool, error) {
	commit, err := repo.CommitObject(tip)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", tip, err)
	}

	seen := make(map[plumbing.Hash]bool)
	iter := object.NewCommitPreorderIter(commit, nil, nil)
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history from %s: %w", tip, err)
	}
	return seen, nil
}

// countExclusive counts commits reachable from tip that are not in
// exclude. The walk stops descending at excluded commits.
func countExclusive(repo *git.Repository, tip plumbing.Hash, exclude map[plumbing.Hash]bool) (int, error) {
	if exclude[tip] {
		return 0, nil
	}

	commit, err := repo.CommitObject(tip)
	if err != nil {
		return 0, fmt.Errorf("failed to load commit %s: %w", tip, err)
	}

	n := 0
	iter := object.NewCommitPreorderIter(commit, exclude, nil)
	defer iter.Close()

	err = iter.ForEach(func(*object.Commit) error {
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk history from %s: %w", tip, err)
	}
	return n, nil
}

// countDivergence returns how many commits local has that upstream lacks,
// and the reverse.
func countDivergence(repo *git.Repository, local, upstream plumbing.Hash) (ahead, behind int, err error) {
	if local == upstream {
		return 0, 0, nil
	}

	upstreamSet, err := ancestors(repo, upstream)
	if err != nil {
		return 0, 0, err
	}
	if ahead, err = countExclusive(repo, local, upstreamSet); err != nil {
		return 0, 0, err
	}

	localSet, err := ancestors(repo, local)
	if err != nil {
		return 0, 0, err
	}
	if behind, err = countExclusive(repo, upstream, localSet); err != nil {
		return 0, 0, err
	}
	return ahead, behind, nil
}
