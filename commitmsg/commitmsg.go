// Package commitmsg proposes commit messages from a unified diff.
//
// A Fallback generator derives a Conventional Commits message from diff
// statistics alone. A ModelGenerator asks a language model first and falls
// back whenever the model is unavailable or answers with something that is
// not a conventional commit header.
package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Message styles.
const (
	StyleConcise  = "concise"
	StyleDetailed = "detailed"
)

// Output languages.
const (
	LanguageAuto    = "auto"
	LanguageEnglish = "en"
	LanguageChinese = "zh-CN"
)

var (
	// ErrNoChanges is returned for an empty diff.
	ErrNoChanges = errors.New("no changes to commit")

	// ErrInvalidStyle is returned for a style other than concise or detailed.
	ErrInvalidStyle = errors.New("invalid style")
)

// Request describes the message to generate.
type Request struct {
	// Diff is the unified diff of the changes being committed.
	Diff string

	// Style is StyleConcise or StyleDetailed. Empty means concise.
	Style string

	// Language is one of the Language constants. Empty means auto.
	Language string

	// ProviderRef names the model provider to use. Empty selects the
	// default provider, if any.
	ProviderRef string
}

// Validate checks the request and fills in defaults.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Diff) == "" {
		return ErrNoChanges
	}

	if r.Style == "" {
		r.Style = StyleConcise
	}
	if r.Style != StyleConcise && r.Style != StyleDetailed {
		return fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidStyle, r.Style, StyleConcise, StyleDetailed)
	}

	if r.Language == "" {
		r.Language = LanguageAuto
	}
	return nil
}

// Generator produces a commit message for a diff. Only request validation
// errors are returned; generation problems degrade to a simpler message.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
