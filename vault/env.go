package vault

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultEnvPrefix is prepended to the normalized reference.
const DefaultEnvPrefix = "GITSYNC_SECRET_"

// Env reads secrets from environment variables. A reference such as
// "github-token" is looked up as GITSYNC_SECRET_GITHUB_TOKEN.
type Env struct {
	// Prefix overrides DefaultEnvPrefix when set.
	Prefix string

	// lookup overrides os.LookupEnv in tests.
	lookup func(string) (string, bool)
}

// GetSecret implements the secret vault lookup.
func (e *Env) GetSecret(_ context.Context, ref string) (string, error) {
	name := e.VarName(ref)

	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	value, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s (set %s)", ErrSecretNotFound, ref, name)
	}
	return value, nil
}

// VarName returns the environment variable consulted for ref.
func (e *Env) VarName(ref string) string {
	prefix := e.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	var b strings.Builder
	b.WriteString(prefix)
	for _, r := range strings.ToUpper(ref) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
