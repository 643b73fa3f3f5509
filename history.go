package gitsync

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ShortIDLength is the number of hex characters in CommitRecord.ShortID.
const ShortIDLength = 7

// CommitRecord is one entry of the branch history.
type CommitRecord struct {
	ID          string   `json:"id"`
	ShortID     string   `json:"short_id"`
	Message     string   `json:"message"`
	AuthorName  string   `json:"author_name"`
	AuthorEmail string   `json:"author_email"`
	Timestamp   int64    `json:"timestamp"`
	ParentIDs   []string `json:"parent_ids"`
}

func newCommitRecord(c *object.Commit) CommitRecord {
	id := c.Hash.String()
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return CommitRecord{
		ID:          id,
		ShortID:     id[:ShortIDLength],
		Message:     strings.TrimSpace(c.Message),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		Timestamp:   c.Committer.When.Unix(),
		ParentIDs:   parents,
	}
}

// History returns at most limit commits reachable from HEAD, newest first
// by committer time. An unborn branch or a non-positive limit yields an
// empty slice.
func (e *Engine) History(ctx context.Context, limit int) ([]CommitRecord, error) {
	log := e.opLogger("history")

	h, err := e.open(ctx)
	if err != nil {
		return nil, err
	}

	records := []CommitRecord{}
	if limit <= 0 {
		return records, nil
	}

	head, err := h.head()
	if err != nil {
		return nil, err
	}
	if head == nil {
		return records, nil
	}

	iter, err := h.repo.Log(&git.LogOptions{
		From:  head.Hash(),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, WrapError(err, "failed to create commit iterator")
	}

	limited := &limitedCommitIter{iter: iter, maxCount: limit}
	defer limited.Close()

	err = limited.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		records = append(records, newCommitRecord(c))
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate commits")
	}

	log.DebugContext(ctx, "history read", "count", len(records), "limit", limit)
	return records, nil
}

// limitedCommitIter wraps a CommitIter to limit the number of commits returned
type limitedCommitIter struct {
	iter     object.CommitIter
	maxCount int
	count    int
}

// Next returns the next commit or io.EOF once the limit is reached
func (l *limitedCommitIter) Next() (*object.Commit, error) {
	if l.count >= l.maxCount {
		return nil, io.EOF
	}
	commit, err := l.iter.Next()
	if err != nil {
		return nil, err
	}
	l.count++
	return commit, nil
}

// ForEach executes the function for each commit up to the max count
func (l *limitedCommitIter) ForEach(fn func(*object.Commit) error) error {
	for {
		commit, err := l.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(commit); err != nil {
			return err
		}
	}
}

// Close closes the underlying iterator
func (l *limitedCommitIter) Close() {
	l.iter.Close()
}
