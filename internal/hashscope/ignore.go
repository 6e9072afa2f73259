package hashscope

import (
	"bufio"
	"os"
	"strings"
)

// IgnoreMatcher matches workspace-relative paths against a gitignore-subset
// loaded from .intentignore. Negation (!) is accepted at parse time but has
// no effect in this version.
type IgnoreMatcher struct {
	patterns []string
}

// LoadIgnoreMatcher reads path and compiles its patterns. A missing file
// yields an empty, always-false matcher rather than an error — the ignore
// list is optional.
func LoadIgnoreMatcher(path string) (*IgnoreMatcher, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &IgnoreMatcher{}, nil
		}
		return nil, err
	}
	defer f.Close()

	m := &IgnoreMatcher{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "!") {
			continue
		}
		if strings.HasSuffix(trimmed, "/") {
			trimmed = trimmed + "**"
		}
		m.patterns = append(m.patterns, trimmed)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// IsIgnored reports whether relPath matches any pattern in the ignore set.
func (m *IgnoreMatcher) IsIgnored(relPath string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	return IsInScope(relPath, m.patterns)
}
