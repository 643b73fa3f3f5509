package gitsync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/Geoion/VibeBase/gitsync/internal/fsbridge"
)

// TestMain isolates the tests from the user's git configuration.
func TestMain(m *testing.M) {
	home, err := os.MkdirTemp("", "gitsync-home-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Setenv("HOME", home)
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}

// testWorkspace is an engine bound to a workspace with direct access to
// its filesystem.
type testWorkspace struct {
	engine *Engine
	fs     billy.Filesystem
	path   string
	ctx    context.Context
}

// newMemWorkspace creates an engine over an in-memory filesystem with the
// workspace at /work. No repository is created.
func newMemWorkspace(t *testing.T, opts ...func(*Options)) *testWorkspace {
	t.Helper()

	o := Options{Workspace: "/work", FS: memfs.New()}
	for _, opt := range opts {
		opt(&o)
	}
	require.NoError(t, o.FS.MkdirAll(o.Workspace, 0o755))

	e, err := New(o)
	require.NoError(t, err, "failed to create engine")

	return &testWorkspace{engine: e, fs: o.FS, path: o.Workspace, ctx: context.Background()}
}

// newDiskWorkspace creates an engine over a temporary directory on disk.
func newDiskWorkspace(t *testing.T, opts ...func(*Options)) *testWorkspace {
	t.Helper()

	o := Options{Workspace: t.TempDir()}
	for _, opt := range opts {
		opt(&o)
	}

	e, err := New(o)
	require.NoError(t, err, "failed to create engine")

	return &testWorkspace{engine: e, fs: e.opts.FS, path: e.Workspace(), ctx: context.Background()}
}

// setupRepo creates an in-memory workspace with an initialized repository.
func setupRepo(t *testing.T, opts ...func(*Options)) *testWorkspace {
	t.Helper()

	w := newMemWorkspace(t, opts...)
	w.init(t)
	return w
}

// setupRepoWithCommit creates an in-memory repository with one commit
// holding test.txt.
func setupRepoWithCommit(t *testing.T, opts ...func(*Options)) *testWorkspace {
	t.Helper()

	w := setupRepo(t, opts...)
	w.commitFile(t, "test.txt", "initial content", "Initial commit")
	return w
}

func (w *testWorkspace) init(t *testing.T) {
	t.Helper()
	_, err := w.engine.Init(w.ctx)
	require.NoError(t, err, "failed to initialize repository")
}

func (w *testWorkspace) write(t *testing.T, name, content string) {
	t.Helper()
	p := path.Join(w.path, name)
	require.NoError(t, w.fs.MkdirAll(path.Dir(p), 0o755))
	require.NoError(t, util.WriteFile(w.fs, p, []byte(content), 0o644))
}

func (w *testWorkspace) read(t *testing.T, name string) string {
	t.Helper()
	data, err := util.ReadFile(w.fs, path.Join(w.path, name))
	require.NoError(t, err)
	return string(data)
}

func (w *testWorkspace) remove(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, w.fs.Remove(path.Join(w.path, name)))
}

// commitFile writes, stages and commits a single file and returns the
// commit hash.
func (w *testWorkspace) commitFile(t *testing.T, name, content, message string) string {
	t.Helper()

	w.write(t, name, content)
	require.NoError(t, w.engine.Stage(w.ctx, []string{name}))

	hash, err := w.engine.Commit(w.ctx, message)
	require.NoError(t, err, "failed to commit %s", name)
	return hash
}

// repo opens the workspace repository directly with go-git.
func (w *testWorkspace) repo(t *testing.T) *git.Repository {
	t.Helper()

	root, err := fsbridge.Discover(w.fs, w.path)
	require.NoError(t, err)
	layout, err := fsbridge.Mount(w.fs, root, 0)
	require.NoError(t, err)
	repo, err := git.Open(layout.Storage, layout.Worktree)
	require.NoError(t, err)
	return repo
}

func (w *testWorkspace) addRemote(t *testing.T, name, url string) {
	t.Helper()
	_, err := w.repo(t).CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	require.NoError(t, err, "failed to add remote %s", name)
}

func (w *testWorkspace) headHash(t *testing.T) string {
	t.Helper()
	head, err := w.repo(t).Head()
	require.NoError(t, err)
	return head.Hash().String()
}

// requireGitTransport skips the test unless go-git's file transport can
// run the git pack services.
func requireGitTransport(t *testing.T) {
	t.Helper()

	for _, bin := range []string{"git-upload-pack", "git"} {
		if _, err := exec.LookPath(bin); err == nil {
			return
		}
	}
	t.Skip("file:// remotes need git-upload-pack and git-receive-pack on PATH")
}

// newBareRemote creates an empty bare repository on disk whose HEAD points
// at main. Tests using it are skipped when no git binary is installed.
func newBareRemote(t *testing.T) string {
	t.Helper()
	requireGitTransport(t)

	dir := t.TempDir()
	_, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		Bare: true,
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranchName),
		},
	})
	require.NoError(t, err, "failed to create bare remote")
	return dir
}

// seedRemote creates a disk workspace with one commit pushed to a new bare
// remote, and returns both.
func seedRemote(t *testing.T) (*testWorkspace, string) {
	t.Helper()

	remote := newBareRemote(t)
	w := newDiskWorkspace(t)
	w.init(t)
	w.commitFile(t, "README.md", "# prompts\n", "Initial commit")
	w.addRemote(t, DefaultRemoteName, remote)

	res, err := w.engine.Push(w.ctx)
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	return w, remote
}

// cloneWorkspace clones remote into a new disk workspace tracking main.
func cloneWorkspace(t *testing.T, remote string) *testWorkspace {
	t.Helper()

	dir := t.TempDir()
	_, err := git.PlainClone(dir, false, &git.CloneOptions{
		URL:           remote,
		ReferenceName: plumbing.NewBranchReferenceName(DefaultBranchName),
	})
	require.NoError(t, err, "failed to clone remote")

	e, err := New(Options{Workspace: dir})
	require.NoError(t, err)
	return &testWorkspace{engine: e, fs: e.opts.FS, path: e.Workspace(), ctx: context.Background()}
}
