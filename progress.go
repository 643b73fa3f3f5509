package gitsync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// errOperationTimedOut is returned from progress writes once the guard has
// aborted, which makes go-git stop reading from the remote.
var errOperationTimedOut = errors.New("operation exceeded its time limit")

// timeoutGuard bounds a fetch or push. Every progress write checks the
// elapsed time, and a timer arms the same abort for remotes that go quiet.
// Aborting cancels the context handed to go-git.
type timeoutGuard struct {
	mu      sync.Mutex
	start   time.Time
	limit   time.Duration
	aborted bool
	last    string

	cancel context.CancelFunc
	timer  *time.Timer
	logger *slog.Logger
	now    func() time.Time
}

// newTimeoutGuard starts the clock. The returned context is cancelled when
// the guard aborts or Stop is called.
func newTimeoutGuard(ctx context.Context, limit time.Duration, logger *slog.Logger) (*timeoutGuard, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	g := &timeoutGuard{
		start:  time.Now(),
		limit:  limit,
		cancel: cancel,
		logger: logger,
		now:    time.Now,
	}
	g.timer = time.AfterFunc(limit, g.abort)
	return g, ctx
}

// Write implements sideband.Progress.
func (g *timeoutGuard) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.aborted {
		return 0, errOperationTimedOut
	}
	if g.now().Sub(g.start) > g.limit {
		g.abortLocked()
		return 0, errOperationTimedOut
	}

	if line := lastLine(p); line != "" && line != g.last {
		g.last = line
		g.logger.Debug("remote progress", "message", line)
	}
	return len(p), nil
}

// Aborted reports whether the time limit was hit.
func (g *timeoutGuard) Aborted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.aborted
}

// Stop releases the timer and the derived context.
func (g *timeoutGuard) Stop() {
	g.timer.Stop()
	g.cancel()
}

func (g *timeoutGuard) abort() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.abortLocked()
}

func (g *timeoutGuard) abortLocked() {
	if g.aborted {
		return
	}
	g.aborted = true
	g.cancel()
	g.logger.Warn("network operation timed out", "limit", g.limit.String())
}

// lastLine returns the final non-empty progress line. Remotes separate
// updates of the same line with carriage returns.
func lastLine(p []byte) string {
	p = bytes.TrimRight(p, "\r\n")
	if i := bytes.LastIndexAny(p, "\r\n"); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimSpace(string(p))
}
