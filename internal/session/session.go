// Package session maintains the advisory "## Active Sessions" table in
// the shared brain file. It imposes no lock of its own — the hook
// engine's optimistic lock (its per-path content-hash cache) is the real
// guard —
// it only lets cooperating sessions see what intent, if any, a peer has
// claimed.
package session

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const sectionHeader = "## Active Sessions"
const staleAfter = 5 * time.Minute
const noIntent = "none"

// Clock supplies the current time for heartbeat timestamps and staleness
// checks.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, using the real wall clock in UTC.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Info is one row of the Active Sessions table.
type Info struct {
	SessionID string
	IntentID  string // empty means no intent claimed
	Timestamp string // ISO8601, as stored
}

// Coordinator reads and writes the Active Sessions table at Path.
type Coordinator struct {
	Path  string
	Clock Clock
}

// New returns a Coordinator backed by path, using the real system clock.
func New(path string) *Coordinator {
	return &Coordinator{Path: path, Clock: SystemClock{}}
}

// Heartbeat upserts a row for sessionID with the given intentID (empty
// for "none") and the current timestamp. If the brain file is missing,
// this is a no-op — cooperation requires the brain to already exist.
func (c *Coordinator) Heartbeat(sessionID, intentID string) {
	lines := c.readLines()
	if lines == nil {
		return
	}
	if !hasSection(lines, sectionHeader) {
		return
	}

	intentCell := intentID
	if intentCell == "" {
		intentCell = noIntent
	}
	row := tableRow(sessionID, intentCell, c.Clock.Now().Format(time.RFC3339))

	start, end := tableBounds(lines, sectionHeader)
	replaced := false
	for i := start; i < end; i++ {
		if rowSessionID(lines[i]) == sessionID {
			lines[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		insertAt := end
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:insertAt]...)
		out = append(out, row)
		out = append(out, lines[insertAt:]...)
		lines = out
	}

	c.writeLines(lines)
}

// ListSessions parses the Active Sessions table, skipping header and
// separator rows.
func (c *Coordinator) ListSessions() []Info {
	lines := c.readLines()
	start, end := tableBounds(lines, sectionHeader)
	var infos []Info
	for i := start; i < end; i++ {
		if info, ok := parseRow(lines[i]); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// IsIntentClaimedByOther reports whether any session other than
// sessionID currently lists intentID as its claimed intent.
func (c *Coordinator) IsIntentClaimedByOther(sessionID, intentID string) bool {
	for _, info := range c.ListSessions() {
		if info.SessionID != sessionID && info.IntentID == intentID {
			return true
		}
	}
	return false
}

// CleanupStaleSessions removes rows whose timestamp is older than 5
// minutes, writing back only if any row was actually removed. Returns
// the number of rows removed.
func (c *Coordinator) CleanupStaleSessions() int {
	lines := c.readLines()
	if lines == nil {
		return 0
	}
	start, end := tableBounds(lines, sectionHeader)
	now := c.Clock.Now()

	var kept []string
	removed := 0
	for i := start; i < end; i++ {
		info, ok := parseRow(lines[i])
		if !ok {
			kept = append(kept, lines[i])
			continue
		}
		ts, err := time.Parse(time.RFC3339, info.Timestamp)
		if err != nil || now.Sub(ts) < staleAfter {
			kept = append(kept, lines[i])
			continue
		}
		removed++
	}
	if removed == 0 {
		return 0
	}

	out := make([]string, 0, len(lines))
	out = append(out, lines[:start]...)
	out = append(out, kept...)
	out = append(out, lines[end:]...)
	c.writeLines(out)
	return removed
}

func tableRow(sessionID, intentCell, timestamp string) string {
	return fmt.Sprintf("| %s | %s | %s |", sessionID, intentCell, timestamp)
}

func rowSessionID(line string) string {
	info, ok := parseRow(line)
	if !ok {
		return ""
	}
	return info.SessionID
}

func parseRow(line string) (Info, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") {
		return Info{}, false
	}
	cells := splitCells(trimmed)
	if len(cells) != 3 {
		return Info{}, false
	}
	if isHeaderOrSeparator(cells) {
		return Info{}, false
	}
	intentID := cells[1]
	if intentID == noIntent {
		intentID = ""
	}
	return Info{SessionID: cells[0], IntentID: intentID, Timestamp: cells[2]}, true
}

func splitCells(line string) []string {
	inner := strings.Trim(line, "|")
	parts := strings.Split(inner, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isHeaderOrSeparator(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	first := strings.ToLower(cells[0])
	if first == "session" || strings.Trim(cells[0], "-") == "" {
		return true
	}
	return false
}

func hasSection(lines []string, header string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) == header {
			return true
		}
	}
	return false
}

// tableBounds returns the [start, end) line range of table rows
// belonging to header's section (the first two lines after the header —
// the markdown header row and separator row — are skipped by the
// caller's row parser via isHeaderOrSeparator).
func tableBounds(lines []string, header string) (start, end int) {
	for i, l := range lines {
		if strings.TrimSpace(l) == header {
			start = i + 1
			break
		}
	}
	end = len(lines)
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") {
			end = i
			break
		}
	}
	return start, end
}

func (c *Coordinator) readLines() []string {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", c.Path).Msg("session: read failed, treating as empty")
		}
		return nil
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func (c *Coordinator) writeLines(lines []string) {
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(c.Path, []byte(content), 0644); err != nil {
		log.Warn().Err(err).Str("path", c.Path).Msg("session: write failed")
	}
}
