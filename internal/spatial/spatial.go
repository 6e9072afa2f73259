// Package spatial maintains the spatial map: a human-editable markdown
// file, partitioned into per-intent sections, recording which files an
// intent has touched and (for INTENT_EVOLUTION mutations) a dated
// evolution log. The map is best-effort and informational; its absence
// is never a fault.
package spatial

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultHeader = "# Spatial Map\n\nTracks which files belong to which intent.\n"

// EvolutionMutationClass is the mutation class that triggers an evolution
// log entry. Duplicated from internal/hashscope rather than imported, to
// keep this package free of a hashscope dependency — see DESIGN.md.
const EvolutionMutationClass = "INTENT_EVOLUTION"

// Index reads and writes the spatial map at Path.
type Index struct {
	Path  string
	Clock Clock
}

// Clock supplies the current date for evolution-log entries.
type Clock interface {
	Today() string // "YYYY-MM-DD"
}

// SystemClock is the default Clock, using the real wall-clock date in UTC.
type SystemClock struct{}

// Today returns the current UTC date as YYYY-MM-DD.
func (SystemClock) Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// New returns an Index backed by path, using the real system clock.
func New(path string) *Index {
	return &Index{Path: path, Clock: SystemClock{}}
}

// AddFileToIntent ensures relPath is recorded under intentID's section,
// creating the section if absent, and — when mutationClass is
// EvolutionMutationClass — appends a dated evolution-log entry. It is
// idempotent: calling it twice in succession with the same arguments
// produces identical file content (Property 7). All errors are logged
// and swallowed; the map is informational.
func (idx *Index) AddFileToIntent(intentID, relPath, intentName, mutationClass string) {
	lines := idx.readLines()
	lines = ensureHeader(lines)

	start, end, found := findSection(lines, intentID)
	if !found {
		lines = appendSection(lines, intentID, intentName, relPath)
	} else if !sectionHasFile(lines[start:end], relPath) {
		lines = insertFileInSection(lines, start, end, relPath)
	}

	if mutationClass == EvolutionMutationClass {
		start, end, _ = findSection(lines, intentID)
		lines = ensureEvolutionEntry(lines, start, end, relPath, idx.Clock.Today())
	}

	idx.writeLines(lines)
}

// RemoveFileFromIntent removes any line referencing relPath inside
// intentID's section. No-op if the file or section is absent.
func (idx *Index) RemoveFileFromIntent(intentID, relPath string) {
	lines := idx.readLines()
	if lines == nil {
		return
	}
	start, end, found := findSection(lines, intentID)
	if !found {
		return
	}

	var out []string
	out = append(out, lines[:start]...)
	for _, l := range lines[start:end] {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "- ") && strings.Contains(trimmed, relPath) {
			continue
		}
		out = append(out, l)
	}
	out = append(out, lines[end:]...)
	idx.writeLines(out)
}

func (idx *Index) readLines() []string {
	data, err := os.ReadFile(idx.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Warn().Err(err).Str("path", idx.Path).Msg("spatial: read failed, treating as empty")
		return nil
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func (idx *Index) writeLines(lines []string) {
	content := strings.Join(lines, "\n") + "\n"
	if err := atomicWrite(idx.Path, content); err != nil {
		log.Warn().Err(err).Str("path", idx.Path).Msg("spatial: write failed")
	}
}

func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".spatial-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	success = true
	return nil
}

func ensureHeader(lines []string) []string {
	if len(lines) == 0 {
		return strings.Split(strings.TrimRight(defaultHeader, "\n"), "\n")
	}
	return lines
}

// findSection returns the [start, end) line range of the "## <intentID>..."
// section (start is the heading line itself; end is the index of the next
// top-level "## " heading or len(lines)).
func findSection(lines []string, intentID string) (start, end int, found bool) {
	prefix := "## " + intentID
	for i, l := range lines {
		if l == prefix || strings.HasPrefix(l, prefix+":") || strings.HasPrefix(l, prefix+" ") {
			start = i
			found = true
			break
		}
	}
	if !found {
		return 0, 0, false
	}
	end = len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") {
			end = i
			break
		}
	}
	return start, end, true
}

func sectionHasFile(sectionLines []string, relPath string) bool {
	for _, l := range sectionLines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "- ") && strings.TrimSpace(strings.TrimPrefix(trimmed, "-")) == relPath {
			return true
		}
	}
	return false
}

// appendSection adds a new "## <id>[: <name>]" section with a "### Files"
// subsection, inserted before any trailing horizontal rule or italicized
// footer line.
func appendSection(lines []string, intentID, intentName, relPath string) []string {
	heading := "## " + intentID
	if intentName != "" {
		heading += ": " + intentName
	}
	section := []string{"", heading, "### Files", "- " + relPath}

	insertAt := trailingFooterStart(lines)
	out := make([]string, 0, len(lines)+len(section))
	out = append(out, lines[:insertAt]...)
	out = append(out, section...)
	out = append(out, lines[insertAt:]...)
	return out
}

// trailingFooterStart finds the index before a trailing "---" or
// italicized "_..._" footer block, or len(lines) if none.
func trailingFooterStart(lines []string) int {
	i := len(lines)
	for i > 0 {
		trimmed := strings.TrimSpace(lines[i-1])
		if trimmed == "" || trimmed == "---" || (strings.HasPrefix(trimmed, "_") && strings.HasSuffix(trimmed, "_")) {
			i--
			continue
		}
		break
	}
	return i
}

// insertFileInSection appends relPath after the last non-empty content
// line of the [start, end) section, under its "### Files" subsection.
func insertFileInSection(lines []string, start, end int, relPath string) []string {
	filesHeader := -1
	for i := start; i < end; i++ {
		if strings.TrimSpace(lines[i]) == "### Files" {
			filesHeader = i
			break
		}
	}
	if filesHeader == -1 {
		out := make([]string, 0, len(lines)+2)
		out = append(out, lines[:start+1]...)
		out = append(out, "### Files", "- "+relPath)
		out = append(out, lines[start+1:]...)
		return out
	}

	insertAt := filesHeader + 1
	for i := filesHeader + 1; i < end; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "- ") {
			insertAt = i + 1
			continue
		}
		break
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, "- "+relPath)
	out = append(out, lines[insertAt:]...)
	return out
}

func ensureEvolutionEntry(lines []string, start, end int, relPath, date string) []string {
	logHeader := -1
	for i := start; i < end; i++ {
		if strings.TrimSpace(lines[i]) == "### Evolution Log" {
			logHeader = i
			break
		}
	}
	entry := fmt.Sprintf("- _[EVOLUTION %s]_ %s — new behavior added", date, relPath)

	if logHeader == -1 {
		out := make([]string, 0, len(lines)+2)
		out = append(out, lines[:end]...)
		out = append(out, "### Evolution Log", entry)
		out = append(out, lines[end:]...)
		return out
	}

	insertAt := end
	for i := logHeader + 1; i < end; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == entry {
			return lines
		}
		if strings.HasPrefix(trimmed, "- ") {
			insertAt = i + 1
		}
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, entry)
	out = append(out, lines[insertAt:]...)
	return out
}
