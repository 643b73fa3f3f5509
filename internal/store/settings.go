package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
)

// SettingsRelPath is the settings file location below the XDG config home.
const SettingsRelPath = "gitsync/settings.yaml"

// DefaultSettingsPath returns the absolute settings path under
// $XDG_CONFIG_HOME (or the platform equivalent).
func DefaultSettingsPath() string {
	return filepath.Join(xdg.ConfigHome, filepath.FromSlash(SettingsRelPath))
}

// FileSettings is a flat key-value store kept in a YAML document.
// The document is re-read on every Get so edits made outside the process
// are picked up by the next operation.
type FileSettings struct {
	record *Record
	mu     sync.Mutex
}

// NewFileSettings opens the settings document at name on fs.
func NewFileSettings(fs billy.Filesystem, name string) *FileSettings {
	return &FileSettings{record: NewRecord(fs, name)}
}

// Path returns the settings document location.
func (s *FileSettings) Path() string {
	return s.record.Path()
}

// Get returns the value stored under key and whether it exists.
func (s *FileSettings) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *FileSettings) Set(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("setting key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.record.Save(values)
}

// All returns every stored setting.
func (s *FileSettings) All(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Keys returns the stored keys in sorted order.
func (s *FileSettings) Keys(ctx context.Context) ([]string, error) {
	values, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// load reads the document. Scalars of any YAML type are kept in their
// string form.
func (s *FileSettings) load() (map[string]string, error) {
	raw := map[string]any{}
	if _, err := s.record.Load(&raw); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}
