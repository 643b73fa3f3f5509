package gitsync

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/Geoion/VibeBase/gitsync/internal/diff"
)

// Diff returns the unified diff of the HEAD tree against the working tree
// for every staged or unstaged path. Untracked files are not included.
// Before the first commit HEAD is treated as the empty tree.
func (e *Engine) Diff(ctx context.Context) (string, error) {
	log := e.opLogger("diff")

	h, err := e.open(ctx)
	if err != nil {
		return "", err
	}

	wtStatus, err := h.wt.Status()
	if err != nil {
		return "", WrapError(err, "failed to get worktree status")
	}

	var tree *object.Tree
	head, err := h.head()
	if err != nil {
		return "", err
	}
	if head != nil {
		commit, err := h.repo.CommitObject(head.Hash())
		if err != nil {
			return "", WrapError(err, "failed to load HEAD commit")
		}
		if tree, err = commit.Tree(); err != nil {
			return "", WrapError(err, "failed to load HEAD tree")
		}
	}

	paths := make([]string, 0, len(wtStatus))
	for p, fs := range wtStatus {
		if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
			continue
		}
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	changes := make([]diff.Change, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return "", WrapError(err, "context cancelled")
		}

		from, err := headBlob(tree, p)
		if err != nil {
			return "", WrapErrorf(err, "failed to read %q at HEAD", p)
		}
		to, err := worktreeBlob(h.wt.Filesystem, p)
		if err != nil {
			return "", WrapErrorf(err, "failed to read %q", p)
		}
		changes = append(changes, diff.Change{From: from, To: to})
	}

	text, err := diff.Text(changes)
	if err != nil {
		return "", WrapError(err, "failed to encode diff")
	}

	log.DebugContext(ctx, "diff computed",
		"files", diff.CountChangedFiles(text),
		"binary", diff.ContainsBinaryFiles(text),
	)
	return text, nil
}

// headBlob returns the committed side of p, or nil when p is not in tree.
func headBlob(tree *object.Tree, p string) (*diff.Blob, error) {
	if tree == nil {
		return nil, nil
	}

	f, err := tree.File(p)
	if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &diff.Blob{Path: p, Mode: f.Mode, Content: content}, nil
}

// worktreeBlob returns the working tree side of p, or nil when p has been
// deleted.
func worktreeBlob(fs billy.Filesystem, p string) (*diff.Blob, error) {
	info, err := fs.Lstat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, nil
	}

	mode, err := filemode.NewFromOSFileMode(info.Mode())
	if err != nil {
		return nil, err
	}

	if mode == filemode.Symlink {
		target, err := fs.Readlink(p)
		if err != nil {
			return nil, err
		}
		return &diff.Blob{Path: p, Mode: mode, Content: []byte(target)}, nil
	}

	f, err := fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &diff.Blob{Path: p, Mode: mode, Content: content}, nil
}
