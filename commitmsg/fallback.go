package commitmsg

import (
	"context"
	"fmt"
	"strings"

	"github.com/Geoion/VibeBase/gitsync/internal/diff"
)

// maxListedFiles is the number of file names a concise header spells out
// before it switches to a count.
const maxListedFiles = 3

// Fallback derives a message from diff statistics without any model.
type Fallback struct{}

var _ Generator = Fallback{}

// Generate implements Generator.
func (Fallback) Generate(_ context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return fallbackMessage(req), nil
}

// summary is what the fallback message is built from.
type summary struct {
	files     []string
	added     int
	deleted   int
	additions int
	deletions int
}

func summarize(patch string) summary {
	stats := diff.ParseStats(patch)

	var s summary
	var removed []string
	for _, f := range stats.Files {
		switch {
		case f.Deleted:
			s.deleted++
			removed = append(removed, f.Path)
		default:
			if f.Added {
				s.added++
			}
			s.files = append(s.files, f.Path)
		}
	}
	if len(s.files) == 0 {
		s.files = removed
	}

	s.additions = stats.Additions
	s.deletions = stats.Deletions
	return s
}

func fallbackMessage(req Request) string {
	s := summarize(req.Diff)
	commitType, scope := ClassifyFiles(s.files)
	zh := req.Language == LanguageChinese

	action, verb := commitType, "update"
	switch {
	case s.added > 0:
		action, verb = "feat", "add"
	case s.deleted > 0:
		action, verb = "refactor", "remove"
	}

	if req.Style == StyleConcise {
		list := strings.Join(s.files, ", ")
		if len(s.files) > maxListedFiles {
			list = fmt.Sprintf(pick(zh, "%d files", "%d 个文件"), len(s.files))
		}
		return fmt.Sprintf("%s(%s): %s %s", action, scope, pick(zh, verb, zhVerb(verb)), list)
	}

	// Detailed messages keep the type derived from the file kinds.
	desc := fmt.Sprintf(pick(zh, "%d files", "%d 个文件"), len(s.files))
	if len(s.files) == 1 {
		desc = s.files[0]
	}

	var details []string
	if s.added > 0 {
		details = append(details, fmt.Sprintf(pick(zh, "- %d new file(s)", "- 新增 %d 个文件"), s.added))
	}
	if s.deleted > 0 {
		details = append(details, fmt.Sprintf(pick(zh, "- %d deleted file(s)", "- 删除 %d 个文件"), s.deleted))
	}
	if s.additions > 0 {
		details = append(details, fmt.Sprintf(pick(zh, "- %d additions", "- 新增 %d 行代码"), s.additions))
	}
	if s.deletions > 0 {
		details = append(details, fmt.Sprintf(pick(zh, "- %d deletions", "- 删除 %d 行代码"), s.deletions))
	}

	files := make([]string, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, "- "+f)
	}

	return fmt.Sprintf("%s(%s): %s %s\n\n%s\n%s\n\n%s\n%s",
		commitType, scope, pick(zh, verb, zhVerb(verb)), desc,
		pick(zh, "Changes:", "修改内容："), strings.Join(details, "\n"),
		pick(zh, "Files modified:", "涉及文件："), strings.Join(files, "\n"),
	)
}

func pick(zh bool, en, cn string) string {
	if zh {
		return cn
	}
	return en
}

func zhVerb(verb string) string {
	switch verb {
	case "add":
		return "新增"
	case "remove":
		return "删除"
	default:
		return "更新"
	}
}

// ClassifyFiles picks a commit type and scope from the kinds of files
// changed. Tests outrank docs, docs outrank configuration, and anything
// else is a feature. The scope follows the first matching area.
func ClassifyFiles(files []string) (commitType, scope string) {
	var docs, tests, config, ui, backend, db bool

	for _, f := range files {
		lower := strings.ToLower(f)
		switch {
		case strings.Contains(lower, "readme") ||
			(strings.Contains(lower, ".md") && !strings.Contains(lower, ".vibe.md")):
			docs = true
		case strings.Contains(lower, "test") || strings.Contains(lower, "spec"):
			tests = true
		case strings.Contains(lower, "config") || hasAnySuffix(lower, ".json", ".toml", ".yaml", ".yml"):
			config = true
		case strings.Contains(lower, "component") || strings.Contains(lower, "ui") ||
			hasAnySuffix(lower, ".tsx", ".css"):
			ui = true
		case hasAnySuffix(lower, ".go", ".rs") || strings.Contains(lower, "api") ||
			strings.Contains(lower, "service"):
			backend = true
		case strings.Contains(lower, "sql") || strings.Contains(lower, "database") ||
			strings.Contains(lower, ".db"):
			db = true
		}
	}

	switch {
	case tests:
		commitType = "test"
	case docs:
		commitType = "docs"
	case config:
		commitType = "chore"
	default:
		commitType = "feat"
	}

	switch {
	case ui:
		scope = "ui"
	case backend:
		scope = "backend"
	case db:
		scope = "database"
	case docs:
		scope = "docs"
	case tests:
		scope = "tests"
	default:
		scope = "core"
	}
	return commitType, scope
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
