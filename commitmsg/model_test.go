package commitmsg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	answer string
	err    error

	system, user string
}

func (m *stubModel) Complete(_ context.Context, system, user string) (string, error) {
	m.system, m.user = system, user
	return m.answer, m.err
}

func resolverFor(m Model, err error) ModelResolver {
	return func(context.Context, string) (Model, error) { return m, err }
}

func TestModelGenerator_Generate(t *testing.T) {
	fallback, err := Fallback{}.Generate(context.Background(), Request{Diff: modifyPatch})
	require.NoError(t, err)

	tests := []struct {
		name     string
		resolve  ModelResolver
		expected string
	}{
		{
			name:     "model answer is used",
			resolve:  resolverFor(&stubModel{answer: "  fix(api): handle empty body\n"}, nil),
			expected: "fix(api): handle empty body",
		},
		{
			name:     "detailed answer keeps its body",
			resolve:  resolverFor(&stubModel{answer: "feat: add y\n\nIntroduce y next to x."}, nil),
			expected: "feat: add y\n\nIntroduce y next to x.",
		},
		{
			name:     "no provider",
			resolve:  resolverFor(nil, errors.New("no providers configured")),
			expected: fallback,
		},
		{
			name:     "model failure",
			resolve:  resolverFor(&stubModel{err: errors.New("rate limited")}, nil),
			expected: fallback,
		},
		{
			name:     "non-conventional answer",
			resolve:  resolverFor(&stubModel{answer: "Updated some handler code."}, nil),
			expected: fallback,
		},
		{
			name:     "empty answer",
			resolve:  resolverFor(&stubModel{answer: "   "}, nil),
			expected: fallback,
		},
		{
			name:     "no resolver",
			resolve:  nil,
			expected: fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := WithModel(tt.resolve, nil)
			msg, err := g.Generate(context.Background(), Request{Diff: modifyPatch})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg)
		})
	}
}

func TestModelGenerator_Prompts(t *testing.T) {
	model := &stubModel{answer: "docs: update readme"}
	var gotRef string
	g := WithModel(func(_ context.Context, ref string) (Model, error) {
		gotRef = ref
		return model, nil
	}, nil)

	_, err := g.Generate(context.Background(), Request{
		Diff:        deletePatch,
		Style:       StyleDetailed,
		Language:    LanguageChinese,
		ProviderRef: "work-openai",
	})
	require.NoError(t, err)

	assert.Equal(t, "work-openai", gotRef)
	assert.Contains(t, model.system, "comprehensive")
	assert.Contains(t, model.system, "请用中文回复。")
	assert.Contains(t, model.user, "```diff\n"+deletePatch)
}

func TestModelGenerator_InvalidRequest(t *testing.T) {
	called := false
	g := WithModel(func(context.Context, string) (Model, error) {
		called = true
		return nil, nil
	}, nil)

	_, err := g.Generate(context.Background(), Request{})
	assert.True(t, errors.Is(err, ErrNoChanges))
	assert.False(t, called)
}
