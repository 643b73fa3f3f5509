package gitsync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutGuard_Write(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	g, ctx := newTimeoutGuard(context.Background(), time.Hour, logger)
	defer g.Stop()

	now := time.Now()
	g.now = func() time.Time { return now }

	msg := []byte("Counting objects:  50% (1/2)\rCounting objects: 100% (2/2)\n")
	n, err := g.Write(msg)
	require.NoError(t, err)
	assert.Equal(t, len(msg), n)
	assert.False(t, g.Aborted())
	assert.NoError(t, ctx.Err())
	assert.Contains(t, logs.String(), "Counting objects: 100% (2/2)")

	now = now.Add(2 * time.Hour)
	_, err = g.Write([]byte("Compressing objects\n"))
	assert.True(t, errors.Is(err, errOperationTimedOut))
	assert.True(t, g.Aborted())
	assert.True(t, errors.Is(ctx.Err(), context.Canceled))

	_, err = g.Write([]byte("more\n"))
	assert.True(t, errors.Is(err, errOperationTimedOut), "writes after abort keep failing")
}

func TestTimeoutGuard_Timer(t *testing.T) {
	g, ctx := newTimeoutGuard(context.Background(), 10*time.Millisecond, slog.New(slog.DiscardHandler))
	defer g.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("guard did not abort a quiet operation")
	}
	assert.True(t, g.Aborted())
	assert.True(t, errors.Is(classifyTransportError(ctx.Err(), g), ErrNetworkTimeout))
}

func TestTimeoutGuard_StopIsNotATimeout(t *testing.T) {
	g, ctx := newTimeoutGuard(context.Background(), time.Hour, slog.New(slog.DiscardHandler))
	g.Stop()

	assert.Error(t, ctx.Err())
	assert.False(t, g.Aborted())
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"done\n", "done"},
		{"a\rb\rc", "c"},
		{"first\nsecond\r\n", "second"},
		{"  padded  \n", "padded"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lastLine([]byte(tt.in)), "lastLine(%q)", tt.in)
	}
}
