package gitsync

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/Geoion/VibeBase/gitsync/internal/fsbridge"
)

// handle is an opened repository. It is owned by a single operation.
type handle struct {
	root string

	// prefix is the workspace location relative to root, "" when the
	// workspace is the root itself.
	prefix string

	repo *git.Repository
	wt   *git.Worktree
}

// head returns the HEAD reference, or nil when the current branch has no
// commits yet.
func (h *handle) head() (*plumbing.Reference, error) {
	ref, err := h.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(err, "failed to resolve HEAD")
	}
	return ref, nil
}

// branchName returns the branch HEAD points at, even when that branch is
// unborn. It returns "" for a detached HEAD.
func (h *handle) branchName() (string, error) {
	ref, err := h.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", WrapError(err, "failed to read HEAD")
	}
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short(), nil
	}
	return "", nil
}

// Open discovers the repository containing the workspace and returns its
// root. It never creates a repository.
func (e *Engine) Open(ctx context.Context) (string, error) {
	h, err := e.open(ctx)
	if err != nil {
		return "", err
	}
	return h.root, nil
}

// Init creates an empty repository at exactly the workspace path with HEAD
// on the default branch.
func (e *Engine) Init(ctx context.Context) (string, error) {
	log := e.opLogger("init")

	h, err := e.init(ctx)
	if err != nil {
		log.ErrorContext(ctx, "init failed", "error", err)
		return "", err
	}
	log.InfoContext(ctx, "repository initialized", "root", h.root, "branch", e.opts.DefaultBranch)
	return h.root, nil
}

// OpenOrInit opens the repository containing the workspace, initializing
// one at the workspace path only when none is found.
func (e *Engine) OpenOrInit(ctx context.Context) (string, error) {
	h, err := e.openOrInit(ctx)
	if err != nil {
		return "", err
	}
	return h.root, nil
}

func (e *Engine) open(ctx context.Context) (*handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError(err, "context cancelled")
	}

	root, err := fsbridge.Discover(e.opts.FS, e.opts.Workspace)
	if err != nil {
		if errors.Is(err, fsbridge.ErrNoRepository) {
			return nil, WrapErrorf(ErrNotARepository, "%s", e.opts.Workspace)
		}
		return nil, err
	}

	layout, err := fsbridge.Mount(e.opts.FS, root, e.opts.StorerCacheSize)
	if err != nil {
		return nil, WrapError(err, "failed to mount repository")
	}

	repo, err := git.Open(layout.Storage, layout.Worktree)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, WrapErrorf(ErrNotARepository, "%s", root)
		}
		return nil, WrapError(err, "failed to open repository")
	}

	h, err := newHandle(root, repo)
	if err != nil {
		return nil, err
	}
	h.prefix = strings.TrimPrefix(strings.TrimPrefix(path.Clean("/"+e.opts.Workspace), root), "/")
	return h, nil
}

func (e *Engine) init(ctx context.Context) (*handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError(err, "context cancelled")
	}

	root := e.opts.Workspace
	if fsbridge.HasRepository(e.opts.FS, root) {
		return nil, WrapErrorf(ErrRepositoryExists, "%s", root)
	}

	if err := e.opts.FS.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %q: %w", root, err)
	}

	layout, err := fsbridge.Mount(e.opts.FS, root, e.opts.StorerCacheSize)
	if err != nil {
		return nil, WrapError(err, "failed to mount repository")
	}

	repo, err := git.InitWithOptions(layout.Storage, layout.Worktree, git.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(e.opts.DefaultBranch),
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryAlreadyExists) {
			return nil, WrapErrorf(ErrRepositoryExists, "%s", root)
		}
		return nil, WrapError(err, "failed to initialize repository")
	}

	return newHandle(root, repo)
}

func (e *Engine) openOrInit(ctx context.Context) (*handle, error) {
	h, err := e.open(ctx)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, ErrNotARepository) {
		return nil, err
	}

	e.logger.InfoContext(ctx, "no repository found, initializing", "path", e.opts.Workspace)
	return e.init(ctx)
}

func newHandle(root string, repo *git.Repository) (*handle, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}
	return &handle{root: root, repo: repo, wt: wt}, nil
}
