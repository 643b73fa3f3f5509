package store

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID        string    `yaml:"id"`
	RemoteURL string    `yaml:"remote_url,omitempty"`
	Timeout   int       `yaml:"timeout_seconds,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

func TestRecord_LoadMissing(t *testing.T) {
	rec := ConfigRecord(memfs.New(), "/work")
	assert.Equal(t, "/work/.vibebase/git_config.yaml", rec.Path())

	var doc testDoc
	found, err := rec.Load(&doc)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecord_SaveLoad(t *testing.T) {
	fs := memfs.New()
	rec := ConfigRecord(fs, "/work")

	in := testDoc{
		ID:        "default",
		RemoteURL: "git@github.com:user/repo.git",
		Timeout:   45,
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, rec.Save(in))

	var out testDoc
	found, err := rec.Load(&out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	in.Timeout = 60
	require.NoError(t, rec.Save(in))
	found, err = rec.Load(&out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 60, out.Timeout)

	entries, err := fs.ReadDir("/work/.vibebase")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, ConfigFileName, entries[0].Name())
}

func TestRecord_Corrupt(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/work/.vibebase/git_config.yaml", []byte("id: [unterminated"), 0o644))

	var out testDoc
	found, err := ConfigRecord(fs, "/work").Load(&out)
	require.Error(t, err)
	assert.False(t, found)
}

func TestRecord_Empty(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/work/.vibebase/git_config.yaml", []byte("\n"), 0o644))

	var out testDoc
	found, err := ConfigRecord(fs, "/work").Load(&out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecord_Delete(t *testing.T) {
	fs := memfs.New()
	rec := NewRecord(fs, "/state.yaml")

	require.NoError(t, rec.Delete())
	require.NoError(t, rec.Save(map[string]string{"a": "b"}))
	require.NoError(t, rec.Delete())

	_, err := fs.Stat("/state.yaml")
	assert.Error(t, err)
}

func TestRecord_OnDisk(t *testing.T) {
	dir := t.TempDir()
	rec := ConfigRecord(osfs.New(dir), "/")

	require.NoError(t, rec.Save(testDoc{ID: "default"}))

	var out testDoc
	found, err := rec.Load(&out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "default", out.ID)
}

func TestIgnoreDir(t *testing.T) {
	fs := memfs.New()

	require.NoError(t, IgnoreDir(fs, "/work/.vibebase"))
	data, err := util.ReadFile(fs, "/work/.vibebase/.gitignore")
	require.NoError(t, err)
	assert.Equal(t, "*\n", string(data))

	require.NoError(t, util.WriteFile(fs, "/work/.vibebase/.gitignore", []byte("custom\n"), 0o644))
	require.NoError(t, IgnoreDir(fs, "/work/.vibebase"))
	data, err = util.ReadFile(fs, "/work/.vibebase/.gitignore")
	require.NoError(t, err)
	assert.Equal(t, "custom\n", string(data))
}
