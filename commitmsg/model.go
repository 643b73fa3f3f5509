package commitmsg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Model is a language model client able to complete one exchange.
type Model interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ModelResolver returns the model for a provider reference. An empty
// reference asks for the default provider.
type ModelResolver func(ctx context.Context, providerRef string) (Model, error)

// ModelGenerator asks a model for the message and uses Fallback whenever
// the model cannot be resolved, fails, or answers with a message whose
// header is not a conventional commit.
type ModelGenerator struct {
	resolve  ModelResolver
	fallback Generator
	logger   *slog.Logger
}

var _ Generator = (*ModelGenerator)(nil)

// WithModel returns a generator backed by the models resolve returns.
func WithModel(resolve ModelResolver, logger *slog.Logger) *ModelGenerator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ModelGenerator{
		resolve:  resolve,
		fallback: Fallback{},
		logger:   logger,
	}
}

// Generate implements Generator.
func (g *ModelGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	log := g.logger.With("style", req.Style, "language", req.Language, "provider", req.ProviderRef)

	if g.resolve == nil {
		return g.fallback.Generate(ctx, req)
	}

	model, err := g.resolve(ctx, req.ProviderRef)
	if err != nil {
		log.WarnContext(ctx, "no model provider available, using fallback", "error", err)
		return g.fallback.Generate(ctx, req)
	}

	out, err := model.Complete(ctx, systemPrompt(req.Style, req.Language), userPrompt(req.Diff))
	if err != nil {
		log.WarnContext(ctx, "model call failed, using fallback", "error", err)
		return g.fallback.Generate(ctx, req)
	}

	msg := strings.TrimSpace(out)
	if _, err := ParseHeader(msg); err != nil {
		log.WarnContext(ctx, "model answer is not a conventional commit, using fallback",
			"answer_length", len(msg),
		)
		return g.fallback.Generate(ctx, req)
	}

	log.DebugContext(ctx, "commit message generated", "length", len(msg))
	return msg, nil
}

func languageInstruction(language string) string {
	switch language {
	case LanguageChinese:
		return "请用中文回复。"
	case LanguageEnglish:
		return "Please respond in English."
	default:
		return "Respond in the same language as the system."
	}
}

func systemPrompt(style, language string) string {
	if style == StyleDetailed {
		return `You are an expert at writing comprehensive git commit messages following Conventional Commits format.

Rules:
1. Use the format:
   <type>(<scope>): <short description>

   <detailed description>

   <optional footer>
2. Type must be one of: feat, fix, docs, style, refactor, test, chore, perf, build, ci
3. Short description: imperative mood, max 72 characters, no period
4. Detailed description: describe what changed at a high level and any side effects, wrapped at 72 characters
5. Footer (optional): BREAKING CHANGE: <description>, Refs #123

` + languageInstruction(language) + `

Output ONLY the commit message, nothing else.`
	}

	return `You are an expert at writing concise git commit messages following Conventional Commits format.

Rules:
1. Use the format: <type>(<scope>): <description>
2. Type must be one of: feat, fix, docs, style, refactor, test, chore, perf
3. Description should be brief (max 50 characters)
4. Use imperative mood ("add" not "added")
5. No period at the end

` + languageInstruction(language) + `

Output ONLY the commit message, nothing else.`
}

func userPrompt(diff string) string {
	return fmt.Sprintf("Based on the following git diff, generate a commit message:\n\n```diff\n%s\n```", diff)
}
