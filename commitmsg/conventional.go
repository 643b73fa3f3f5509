package commitmsg

import (
	"errors"
	"strings"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// ErrNotConventional is returned by ParseHeader for a header that does not
// follow Conventional Commits.
var ErrNotConventional = errors.New("not a conventional commit header")

// Header is the first line of a conventional commit.
type Header struct {
	Type        string
	Scope       string
	Description string
	Breaking    bool
}

// ParseHeader parses the first line of message. Only the header is
// checked; bodies are free-form.
func ParseHeader(message string) (*Header, error) {
	line := strings.TrimSpace(message)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" {
		return nil, ErrNotConventional
	}

	machine := parser.NewMachine(parser.WithTypes(conventionalcommits.TypesConventional))
	msg, err := machine.Parse([]byte(line))
	if err != nil {
		return nil, errors.Join(ErrNotConventional, err)
	}

	cc, ok := msg.(*conventionalcommits.ConventionalCommit)
	if !ok {
		return nil, ErrNotConventional
	}

	h := &Header{
		Type:        cc.Type,
		Description: cc.Description,
		Breaking:    cc.Exclamation,
	}
	if cc.Scope != nil {
		h.Scope = *cc.Scope
	}
	return h, nil
}

// IsConventional reports whether message starts with a conventional header.
func IsConventional(message string) bool {
	_, err := ParseHeader(message)
	return err == nil
}
