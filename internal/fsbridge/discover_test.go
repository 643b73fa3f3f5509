package fsbridge

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.MkdirAll("/work/project/.git", 0o755))
	require.NoError(t, fsys.MkdirAll("/work/project/prompts/nested", 0o755))
	require.NoError(t, fsys.MkdirAll("/elsewhere/dir", 0o755))

	tests := []struct {
		name     string
		start    string
		expected string
		wantErr  bool
	}{
		{name: "repository root", start: "/work/project", expected: "/work/project"},
		{name: "nested directory", start: "/work/project/prompts/nested", expected: "/work/project"},
		{name: "relative start", start: "work/project/prompts", expected: "/work/project"},
		{name: "no repository above", start: "/elsewhere/dir", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Discover(fsys, tt.start)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNoRepository))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, root)
		})
	}
}

func TestDiscover_IgnoresMetadataFile(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.MkdirAll("/work", 0o755))
	f, err := fsys.Create("/work/.git")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Discover(fsys, "/work")
	assert.True(t, errors.Is(err, ErrNoRepository))
}

func TestMount(t *testing.T) {
	fsys := memfs.New()

	layout, err := Mount(fsys, "/repo", 0)
	require.NoError(t, err)
	require.NotNil(t, layout.Storage)
	assert.Equal(t, "/repo", layout.Root)
	assert.True(t, HasRepository(fsys, "/repo"))

	f, err := layout.Worktree.Create("file.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = fsys.Stat("/repo/file.txt")
	assert.NoError(t, err)
}
