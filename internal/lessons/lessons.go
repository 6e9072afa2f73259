// Package lessons records fire-and-forget "lessons learned" entries into
// the shared brain markdown file, for the engine to leave a durable trail
// of scope violations, stale reads, and other agent-actionable friction.
package lessons

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const sectionHeader = "## Lessons Learned"

const (
	CategoryScopeViolation = "Scope Violation"
	CategoryHashMismatch   = "Hash Mismatch"
)

// Clock supplies the current date for dated entries.
type Clock interface {
	Today() string // "YYYY-MM-DD"
}

// SystemClock is the default Clock, using the real wall-clock date in UTC.
type SystemClock struct{}

// Today returns the current UTC date as YYYY-MM-DD.
func (SystemClock) Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// Recorder appends lesson entries to the brain file at Path.
type Recorder struct {
	Path  string
	Clock Clock
}

// New returns a Recorder backed by path, using the real system clock.
func New(path string) *Recorder {
	return &Recorder{Path: path, Clock: SystemClock{}}
}

// Lesson is one entry to record.
type Lesson struct {
	IntentID    string
	ToolName    string
	Description string
	Category    string
}

// RecordLesson appends a dated entry under the "## Lessons Learned"
// section, creating the section (and the file) if absent. The entry is
// inserted at the end of the section — just before the next "## " header,
// or at end of file. All failures are logged and swallowed; the caller is
// never blocked by a recording failure.
func (r *Recorder) RecordLesson(l Lesson) {
	lines := r.readLines()
	lines = ensureLessonsSection(lines)

	entry := formatEntry(l, r.Clock.Today())
	lines = insertAtSectionEnd(lines, sectionHeader, entry)

	r.writeLines(lines)
}

// RecordScopeViolation is a convenience wrapper pre-filling category and
// description for a scope-fence rejection.
func (r *Recorder) RecordScopeViolation(intentID, toolName, path string, ownedScope []string) {
	r.RecordLesson(Lesson{
		IntentID:    intentID,
		ToolName:    toolName,
		Description: fmt.Sprintf("%s is outside owned scope %v", path, ownedScope),
		Category:    CategoryScopeViolation,
	})
}

// RecordHashMismatch is a convenience wrapper pre-filling category and
// description for a stale-read rejection.
func (r *Recorder) RecordHashMismatch(intentID, toolName, path string) {
	r.RecordLesson(Lesson{
		IntentID:    intentID,
		ToolName:    toolName,
		Description: fmt.Sprintf("%s was modified externally since it was last read", path),
		Category:    CategoryHashMismatch,
	})
}

func formatEntry(l Lesson, date string) []string {
	header := fmt.Sprintf("### %s: %s (%s)", date, l.Category, l.IntentID)
	return []string{
		"",
		header,
		"- Tool: " + l.ToolName,
		"- Issue: " + l.Description,
		"- Intent: " + l.IntentID,
	}
}

func ensureLessonsSection(lines []string) []string {
	if len(lines) == 0 {
		lines = []string{"# CLAUDE.md", "", sectionHeader}
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == sectionHeader {
			return lines
		}
	}
	return append(append(lines, ""), sectionHeader)
}

// insertAtSectionEnd inserts entry (a multi-line block) just before the
// next top-level "## " header following sectionHeader, or at EOF.
func insertAtSectionEnd(lines []string, sectionHeader string, entry []string) []string {
	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == sectionHeader {
			start = i
			break
		}
	}
	if start == -1 {
		return append(lines, entry...)
	}

	insertAt := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") {
			insertAt = i
			break
		}
	}
	out := make([]string, 0, len(lines)+len(entry))
	out = append(out, lines[:insertAt]...)
	out = append(out, entry...)
	out = append(out, lines[insertAt:]...)
	return out
}

func (r *Recorder) readLines() []string {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Warn().Err(err).Str("path", r.Path).Msg("lessons: read failed, treating as empty")
		return nil
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func (r *Recorder) writeLines(lines []string) {
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(r.Path, []byte(content), 0644); err != nil {
		log.Warn().Err(err).Str("path", r.Path).Msg("lessons: write failed")
	}
}
