// Package store persists gitsync state as YAML documents on a billy
// filesystem.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-workspace state directory.
	DirName = ".vibebase"

	// ConfigFileName is the sync configuration document inside DirName.
	ConfigFileName = "git_config.yaml"
)

// Record is a single YAML document at a fixed path.
type Record struct {
	fs   billy.Filesystem
	path string
}

// NewRecord returns the record at name relative to the root of fs.
func NewRecord(fs billy.Filesystem, name string) *Record {
	return &Record{fs: fs, path: path.Clean(name)}
}

// ConfigRecord returns the sync configuration record of the workspace at
// root.
func ConfigRecord(fs billy.Filesystem, root string) *Record {
	return NewRecord(fs, path.Join(root, DirName, ConfigFileName))
}

// Path returns the record location within the filesystem.
func (r *Record) Path() string {
	return r.path
}

// Load decodes the record into out. It reports false without error when
// the record does not exist.
func (r *Record) Load(out any) (bool, error) {
	f, err := r.fs.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open %s: %w", r.path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", r.path, err)
	}
	return true, nil
}

// Save encodes in and replaces the record atomically: the document is
// written to a temporary file in the same directory and renamed over the
// old one.
func (r *Record) Save(in any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.path, err)
	}

	dir := path.Dir(r.path)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := r.fs.TempFile(dir, "."+path.Base(r.path)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := r.fs.Rename(tmpName, r.path); err != nil {
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}
	return nil
}

// Delete removes the record. A missing record is not an error.
func (r *Record) Delete() error {
	if err := r.fs.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", r.path, err)
	}
	return nil
}

// IgnoreDir makes dir invisible to git by placing a catch-all .gitignore
// in it. An existing .gitignore is left untouched.
func IgnoreDir(fs billy.Filesystem, dir string) error {
	name := path.Join(dir, ".gitignore")
	if _, err := fs.Stat(name); err == nil {
		return nil
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	f, err := fs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := f.Write([]byte("*\n")); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return f.Close()
}
