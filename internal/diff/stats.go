package diff

import (
	"strconv"
	"strings"
)

// FileStat is the per-file line count of a unified patch.
type FileStat struct {
	Path      string
	Additions int
	Deletions int
	Binary    bool
	Added     bool
	Deleted   bool
}

// Stats is the aggregate of a unified patch.
type Stats struct {
	Files     []FileStat
	Additions int
	Deletions int
}

// ContainsBinaryFiles reports whether the patch text mentions a binary file.
func ContainsBinaryFiles(patchText string) bool {
	for _, line := range strings.Split(patchText, "\n") {
		if strings.HasPrefix(line, "Binary files ") || line == "GIT binary patch" {
			return true
		}
	}
	return false
}

// CountChangedFiles counts the file headers in the patch text.
func CountChangedFiles(patchText string) int {
	n := 0
	for _, line := range strings.Split(patchText, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			n++
		}
	}
	return n
}

// ParseStats reads per-file additions and deletions from unified patch text.
// Hunk bodies are bounded by the line counts in their "@@" headers, so
// content lines that look like headers are counted correctly. Patches
// without "diff --git" headers are split on their "---" lines.
func ParseStats(patchText string) Stats {
	var (
		stats            Stats
		current          *FileStat
		oldLeft, newLeft int
	)

	flush := func() {
		if current != nil && current.Path != "" {
			stats.Files = append(stats.Files, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(patchText, "\n") {
		if oldLeft > 0 || newLeft > 0 {
			switch {
			case strings.HasPrefix(line, "+"):
				current.Additions++
				stats.Additions++
				newLeft--
			case strings.HasPrefix(line, "-"):
				current.Deletions++
				stats.Deletions++
				oldLeft--
			case strings.HasPrefix(line, "\\"):
				// "\ No newline at end of file"
			default:
				oldLeft--
				newLeft--
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			current = &FileStat{Path: pathFromHeader(line)}
		case strings.HasPrefix(line, "@@"):
			if current == nil {
				current = &FileStat{}
			}
			oldLeft, newLeft = parseHunkHeader(line)
		case strings.HasPrefix(line, "--- "):
			if current == nil || current.Additions+current.Deletions > 0 {
				flush()
				current = &FileStat{}
			}
			if p := stripSide(line[4:], "a/"); p == "" {
				current.Added = true
			} else if current.Path == "" {
				current.Path = p
			}
		case current == nil:
		case strings.HasPrefix(line, "+++ "):
			if p := stripSide(line[4:], "b/"); p == "" {
				current.Deleted = true
			} else {
				current.Path = p
			}
		case strings.HasPrefix(line, "new file mode"):
			current.Added = true
		case strings.HasPrefix(line, "deleted file mode"):
			current.Deleted = true
		case strings.HasPrefix(line, "Binary files "), line == "GIT binary patch":
			current.Binary = true
		}
	}
	flush()

	return stats
}

// parseHunkHeader returns the old and new line counts of "@@ -a,b +c,d @@".
// A missing count means one line.
func parseHunkHeader(line string) (int, int) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, 0
	}
	return rangeCount(fields[1], "-"), rangeCount(fields[2], "+")
}

func rangeCount(field, sign string) int {
	if !strings.HasPrefix(field, sign) {
		return 0
	}
	_, count, found := strings.Cut(field[1:], ",")
	if !found {
		return 1
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return 0
	}
	return n
}

// pathFromHeader extracts the new-side path of "diff --git a/x b/x".
func pathFromHeader(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return rest[i+3:]
	}
	return ""
}

// stripSide removes the a/ or b/ prefix and returns "" for /dev/null.
func stripSide(p, prefix string) string {
	p = strings.TrimSpace(p)
	if p == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(p, prefix)
}
