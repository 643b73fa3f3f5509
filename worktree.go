package gitsync

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	// DefaultUserName is the commit identity used when neither the sync
	// configuration nor git configuration provide one.
	DefaultUserName = "VibeBase User"

	// DefaultUserEmail pairs with DefaultUserName.
	DefaultUserEmail = "user@vibebase.local"
)

// Stage adds paths to the index. With no paths every change in the working
// tree is staged, deletions included. Otherwise each path, or glob pattern,
// must match something in the working tree or the index; if any does not,
// nothing is staged and ErrPathNotFound is returned.
func (e *Engine) Stage(ctx context.Context, paths []string) error {
	log := e.opLogger("stage")

	h, err := e.open(ctx)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		if err := h.wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return WrapError(err, "failed to stage all changes")
		}
		log.InfoContext(ctx, "staged all changes")
		return nil
	}

	resolved, err := expandPaths(h, paths)
	if err != nil {
		return err
	}

	for _, p := range resolved {
		if err := ctx.Err(); err != nil {
			return WrapError(err, "context cancelled")
		}
		if _, err := h.wt.Add(p); err != nil {
			return WrapErrorf(err, "failed to stage %q", p)
		}
	}

	log.InfoContext(ctx, "staged paths", "count", len(resolved))
	return nil
}

// expandPaths validates every requested path before anything is staged.
// Glob patterns expand against the working tree. Literal paths must exist
// in the working tree or be tracked in the index.
func expandPaths(h *handle, paths []string) ([]string, error) {
	idx, err := h.repo.Storer.Index()
	if err != nil {
		return nil, WrapError(err, "failed to read index")
	}

	var resolved []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			resolved = append(resolved, p)
		}
	}

	for _, raw := range paths {
		p := h.repoPath(raw)
		if p == "" {
			return nil, WrapErrorf(ErrPathNotFound, "empty path")
		}

		if strings.ContainsAny(p, "*?[") {
			matches, err := util.Glob(h.wt.Filesystem, p)
			if err != nil {
				return nil, WrapErrorf(ErrInvalidInput, "invalid glob pattern %q", raw)
			}
			if len(matches) == 0 {
				return nil, WrapErrorf(ErrPathNotFound, "pattern %q matched nothing", raw)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		if _, err := h.wt.Filesystem.Lstat(p); err == nil {
			add(p)
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, WrapErrorf(err, "failed to stat %q", raw)
		}

		if indexHasPath(idx, p) {
			add(p)
			continue
		}

		return nil, WrapErrorf(ErrPathNotFound, "%q", raw)
	}

	return resolved, nil
}

// indexHasPath reports whether p is an index entry or a directory holding
// index entries.
func indexHasPath(idx *index.Index, p string) bool {
	for _, entry := range idx.Entries {
		if entry.Name == p || strings.HasPrefix(entry.Name, p+"/") {
			return true
		}
	}
	return false
}

// repoPath converts a path relative to the workspace into the
// slash-separated, root-relative form go-git uses.
func (h *handle) repoPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	p = path.Join(h.prefix, strings.TrimPrefix(path.Clean("/"+p), "/"))
	if p == "" {
		return "."
	}
	return p
}

// Unstage resets the index entries of paths to their HEAD state, leaving
// the working tree alone. With no paths the whole index is reset.
func (e *Engine) Unstage(ctx context.Context, paths []string) error {
	log := e.opLogger("unstage")

	h, err := e.open(ctx)
	if err != nil {
		return err
	}

	var files []string
	for _, p := range paths {
		if c := h.repoPath(p); c != "" {
			files = append(files, c)
		}
	}

	head, err := h.head()
	if err != nil {
		return err
	}

	if head == nil {
		if err := unstageUnborn(h, files); err != nil {
			return err
		}
		log.InfoContext(ctx, "unstaged paths", "count", len(files))
		return nil
	}

	err = h.wt.Reset(&git.ResetOptions{
		Commit: head.Hash(),
		Mode:   git.MixedReset,
		Files:  files,
	})
	if err != nil {
		return WrapError(err, "failed to unstage files")
	}

	log.InfoContext(ctx, "unstaged paths", "count", len(files))
	return nil
}

// unstageUnborn drops index entries when there is no HEAD to reset to.
func unstageUnborn(h *handle, files []string) error {
	idx, err := h.repo.Storer.Index()
	if err != nil {
		return WrapError(err, "failed to read index")
	}

	if len(files) == 0 {
		idx.Entries = nil
	} else {
		kept := idx.Entries[:0]
		for _, entry := range idx.Entries {
			drop := false
			for _, f := range files {
				if entry.Name == f || strings.HasPrefix(entry.Name, f+"/") {
					drop = true
					break
				}
			}
			if !drop {
				kept = append(kept, entry)
			}
		}
		idx.Entries = kept
	}

	if err := h.repo.Storer.SetIndex(idx); err != nil {
		return WrapError(err, "failed to write index")
	}
	return nil
}

// Commit records the index as a new commit on the current branch and
// returns its hash. Empty commits are allowed; an empty message is not.
func (e *Engine) Commit(ctx context.Context, message string) (string, error) {
	log := e.opLogger("commit")

	if strings.TrimSpace(message) == "" {
		return "", WrapError(ErrInvalidInput, "commit message cannot be empty")
	}

	h, err := e.open(ctx)
	if err != nil {
		return "", err
	}

	cfg, _ := e.loadConfig(ctx, log)
	name, email := e.identity(h, cfg)

	sig := &object.Signature{Name: name, Email: email, When: time.Now()}
	hash, err := h.wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		log.ErrorContext(ctx, "commit failed", "error", err)
		return "", WrapError(err, "failed to create commit")
	}

	log.InfoContext(ctx, "commit created", "commit", hash.String(), "author", name)
	return hash.String(), nil
}

// identity resolves the commit signature: configuration override, then
// git configuration (global merged with local), then the built-in default.
func (e *Engine) identity(h *handle, cfg SyncConfig) (string, string) {
	if cfg.hasIdentity() {
		return strings.TrimSpace(cfg.UserName), strings.TrimSpace(cfg.UserEmail)
	}

	gitCfg, err := h.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		gitCfg, err = h.repo.Config()
	}
	if err == nil && gitCfg.User.Name != "" && gitCfg.User.Email != "" {
		return gitCfg.User.Name, gitCfg.User.Email
	}

	return DefaultUserName, DefaultUserEmail
}
