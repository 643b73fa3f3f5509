package vault

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded lookup", func(t *testing.T) {
		m := NewMemory(map[string]string{"token": "abc"})
		v, err := m.GetSecret(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, "abc", v)
	})

	t.Run("missing reference", func(t *testing.T) {
		_, err := NewMemory(nil).GetSecret(ctx, "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("set replace delete", func(t *testing.T) {
		m := NewMemory(nil)
		require.NoError(t, m.SetSecret(ctx, "k", "v1"))
		require.NoError(t, m.SetSecret(ctx, "k", "v2"))

		v, err := m.GetSecret(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v2", v)

		require.NoError(t, m.DeleteSecret(ctx, "k"))
		_, err = m.GetSecret(ctx, "k")
		assert.ErrorIs(t, err, ErrSecretNotFound)

		assert.Error(t, m.SetSecret(ctx, "", "x"))
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		m := NewMemory(map[string]string{"k": "secret"})
		v, err := m.GetSecret(ctx, "k")
		require.NoError(t, err)
		require.NoError(t, m.Close())
		assert.Equal(t, "secret", v)

		_, err = m.GetSecret(ctx, "k")
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewMemory(map[string]string{"k": "v"}).GetSecret(cctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("concurrent access", func(t *testing.T) {
		m := NewMemory(nil)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = m.SetSecret(ctx, "shared", "v")
				_, _ = m.GetSecret(ctx, "shared")
			}()
		}
		wg.Wait()

		v, err := m.GetSecret(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})
}

func TestEnv(t *testing.T) {
	ctx := context.Background()

	env := &Env{lookup: func(name string) (string, bool) {
		vars := map[string]string{"GITSYNC_SECRET_GITHUB_TOKEN": "ghp_x"}
		v, ok := vars[name]
		return v, ok
	}}

	v, err := env.GetSecret(ctx, "github-token")
	require.NoError(t, err)
	assert.Equal(t, "ghp_x", v)

	_, err = env.GetSecret(ctx, "other")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.Contains(t, err.Error(), "GITSYNC_SECRET_OTHER")

	assert.Equal(t, "APP_SSH_KEY_PASS", (&Env{Prefix: "APP_"}).VarName("ssh.key pass"))
}

func TestEnv_ProcessEnvironment(t *testing.T) {
	t.Setenv("GITSYNC_SECRET_DEPLOY", "from-env")

	v, err := (&Env{}).GetSecret(context.Background(), "deploy")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}
