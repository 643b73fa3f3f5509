package gitsync

import (
	"path"
	"sync"
)

// WorkspaceLocks is a registry of per-workspace mutexes. The engine does
// not lock; callers that run operations concurrently share one registry and
// hold a workspace's lock around each operation. The zero value is ready
// to use.
type WorkspaceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock acquires the mutex for workspace and returns its release function.
func (l *WorkspaceLocks) Lock(workspace string) func() {
	m := l.get(workspace)
	m.Lock()
	return m.Unlock
}

// With runs fn while holding the workspace mutex.
func (l *WorkspaceLocks) With(workspace string, fn func() error) error {
	unlock := l.Lock(workspace)
	defer unlock()
	return fn()
}

func (l *WorkspaceLocks) get(workspace string) *sync.Mutex {
	key := path.Clean("/" + workspace)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}
