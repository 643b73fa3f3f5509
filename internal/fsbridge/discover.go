package fsbridge

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// GitDirName is the metadata directory of a non-bare repository.
const GitDirName = ".git"

// ErrNoRepository is returned when Discover walks past the filesystem root
// without finding a metadata directory.
var ErrNoRepository = errors.New("no repository found")

// Layout is a repository located on a filesystem.
type Layout struct {
	// Root is the worktree root, the directory holding GitDirName.
	Root string

	// Storage is the object and reference storage under Root/.git.
	Storage *filesystem.Storage

	// Worktree is the filesystem chrooted to Root.
	Worktree billy.Filesystem
}

// Discover walks upward from start through its parents and returns the
// first directory containing a GitDirName directory.
// Paths are slash-separated and interpreted relative to fsys.
func Discover(fsys billy.Filesystem, start string) (string, error) {
	dir := path.Clean("/" + start)
	for {
		if HasRepository(fsys, dir) {
			return dir, nil
		}

		parent := path.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w from %s", ErrNoRepository, start)
		}
		dir = parent
	}
}

// HasRepository reports whether dir itself holds repository metadata.
func HasRepository(fsys billy.Filesystem, dir string) bool {
	info, err := fsys.Stat(path.Join(dir, GitDirName))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Mount builds storage and worktree filesystems for the repository rooted at
// root. The metadata directory is created if it does not exist yet.
func Mount(fsys billy.Filesystem, root string, cacheSize int) (*Layout, error) {
	worktree, err := fsys.Chroot(root)
	if err != nil {
		return nil, fmt.Errorf("failed to chroot to %q: %w", root, err)
	}

	if err := worktree.MkdirAll(GitDirName, os.ModeDir|0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", GitDirName, err)
	}

	dotGit, err := worktree.Chroot(GitDirName)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s directory: %w", GitDirName, err)
	}

	return &Layout{
		Root:     root,
		Storage:  NewStorage(dotGit, cacheSize),
		Worktree: worktree,
	}, nil
}
