package gitsync

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_History(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T) *testWorkspace
		limit    int
		validate func(t *testing.T, w *testWorkspace, records []CommitRecord)
	}{
		{
			name:  "unborn branch",
			setup: func(t *testing.T) *testWorkspace { return setupRepo(t) },
			limit: 10,
			validate: func(t *testing.T, _ *testWorkspace, records []CommitRecord) {
				assert.NotNil(t, records)
				assert.Empty(t, records)
			},
		},
		{
			name:  "non-positive limit",
			setup: func(t *testing.T) *testWorkspace { return setupRepoWithCommit(t) },
			limit: 0,
			validate: func(t *testing.T, _ *testWorkspace, records []CommitRecord) {
				assert.NotNil(t, records)
				assert.Empty(t, records)
			},
		},
		{
			name: "newest first",
			setup: func(t *testing.T) *testWorkspace {
				w := setupRepoWithCommit(t)
				w.commitFile(t, "a.txt", "a", "Second commit\n\nwith a body\n")
				return w
			},
			limit: 10,
			validate: func(t *testing.T, w *testWorkspace, records []CommitRecord) {
				require.Len(t, records, 2)

				newest := records[0]
				assert.Equal(t, w.headHash(t), newest.ID)
				assert.Equal(t, newest.ID[:7], newest.ShortID)
				assert.Equal(t, "Second commit\n\nwith a body", newest.Message)
				assert.Equal(t, DefaultUserName, newest.AuthorName)
				assert.Equal(t, DefaultUserEmail, newest.AuthorEmail)
				assert.Positive(t, newest.Timestamp)
				assert.Equal(t, []string{records[1].ID}, newest.ParentIDs)

				assert.Equal(t, "Initial commit", records[1].Message)
				assert.Empty(t, records[1].ParentIDs)
				assert.NotNil(t, records[1].ParentIDs)
			},
		},
		{
			name: "limit truncates",
			setup: func(t *testing.T) *testWorkspace {
				w := setupRepoWithCommit(t)
				w.commitFile(t, "a.txt", "a", "A")
				w.commitFile(t, "b.txt", "b", "B")
				return w
			},
			limit: 2,
			validate: func(t *testing.T, _ *testWorkspace, records []CommitRecord) {
				assert.Len(t, records, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.setup(t)
			records, err := w.engine.History(w.ctx, tt.limit)
			require.NoError(t, err)
			tt.validate(t, w, records)
		})
	}
}

func TestEngine_HistoryCancelled(t *testing.T) {
	w := setupRepoWithCommit(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.engine.History(ctx, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLimitedCommitIter(t *testing.T) {
	w := setupRepoWithCommit(t)
	w.commitFile(t, "a.txt", "a", "A")
	w.commitFile(t, "b.txt", "b", "B")

	repo := w.repo(t)
	head, err := repo.Head()
	require.NoError(t, err)

	newIter := func(max int) *limitedCommitIter {
		iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
		require.NoError(t, err)
		return &limitedCommitIter{iter: iter, maxCount: max}
	}

	t.Run("Next stops at the limit", func(t *testing.T) {
		iter := newIter(2)
		defer iter.Close()

		for i := 0; i < 2; i++ {
			c, err := iter.Next()
			require.NoError(t, err)
			require.NotNil(t, c)
		}
		_, err := iter.Next()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("ForEach visits at most the limit", func(t *testing.T) {
		iter := newIter(1)
		defer iter.Close()

		n := 0
		require.NoError(t, iter.ForEach(func(*object.Commit) error {
			n++
			return nil
		}))
		assert.Equal(t, 1, n)
	})
}
