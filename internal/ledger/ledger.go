package ledger

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryDelay is how long Log waits before its single retry on an append
// failure.
const RetryDelay = 100 * time.Millisecond

// DefaultRecentLimit is getRecentEntries' default window when the caller
// doesn't specify one.
const DefaultRecentLimit = 20

// Clock supplies the current time to Log, injected for test determinism.
type Clock interface {
	Now() string
}

// SystemClock returns RFC3339 timestamps in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() string { return time.Now().UTC().Format(time.RFC3339) }

// Ledger is the append-only JSONL audit trail described by spec §4.4.
type Ledger struct {
	path          string
	workspaceRoot string
	probe         Probe
	clock         Clock
}

// New returns a Ledger appending to path, resolving revisions for
// workspaceRoot via probe.
func New(path, workspaceRoot string, probe Probe) *Ledger {
	return &Ledger{path: path, workspaceRoot: workspaceRoot, probe: probe, clock: SystemClock{}}
}

// WithClock overrides the Ledger's clock, for test determinism.
func (l *Ledger) WithClock(c Clock) *Ledger {
	l.clock = c
	return l
}

// Log converts entry into the external LedgerRecord shape and appends it.
// On I/O failure it waits RetryDelay and retries once; on a second failure
// it logs and returns false without ever propagating an error to the
// caller — this is the fail-open rule spec §4.4 mandates for the ledger.
func (l *Ledger) Log(entry TraceEntry, opts LogOptions) bool {
	record := l.buildRecord(entry, opts)

	data, err := json.Marshal(record)
	if err != nil {
		log.Warn().Err(err).Msg("ledger: record marshal failed")
		return false
	}
	line := append(data, '\n')

	if appendLine(l.path, line) {
		return true
	}

	time.Sleep(RetryDelay)
	if appendLine(l.path, line) {
		return true
	}

	log.Warn().Str("path", l.path).Msg("ledger: append failed twice, dropping entry")
	return false
}

func appendLine(path string, line []byte) bool {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return false
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return false
	}
	return f.Sync() == nil
}

func (l *Ledger) buildRecord(entry TraceEntry, opts LogOptions) LedgerRecord {
	id := entry.ID
	if id == "" {
		id = NewID()
	}
	timestamp := entry.Timestamp
	if timestamp == "" {
		timestamp = l.clock.Now()
	}

	var revisionID *string
	if l.probe != nil {
		if rev := l.probe.CurrentRevisionID(l.workspaceRoot); rev != "" {
			revisionID = &rev
		}
	}

	record := LedgerRecord{
		ID:        id,
		Timestamp: timestamp,
		VCS:       VCSInfo{RevisionID: revisionID},
		Files:     nil,
	}

	if entry.File == nil {
		return record
	}

	modelID := opts.ModelIdentifier
	if modelID == "" {
		modelID = "unknown"
	}
	startLine, endLine := opts.StartLine, opts.EndLine
	if startLine == 0 {
		startLine = 1
	}
	if endLine == 0 {
		endLine = 1
	}

	contentHash := entry.File.PostHash
	if contentHash == "" {
		contentHash = entry.File.PreHash
	}

	related := []RelatedRef{{Type: "intent", Value: entry.IntentID}}
	for _, spec := range opts.RelatedSpecs {
		related = append(related, RelatedRef{Type: "specification", Value: spec})
	}

	record.Files = []FileRecord{{
		RelativePath: entry.File.RelativePath,
		Conversations: []Conversation{{
			URL: entry.SessionID,
			Contributor: Contributor{
				EntityType:      "AI",
				ModelIdentifier: modelID,
			},
			Ranges: []Range{{
				StartLine:   startLine,
				EndLine:     endLine,
				ContentHash: contentHash,
			}},
			Related: related,
		}},
	}}

	return record
}

// Entry is the unified view GetRecentEntries returns, built from either
// the current LedgerRecord shape or the legacy flat TraceEntry shape.
type Entry struct {
	ID            string
	Timestamp     string
	IntentID      string
	ToolName      string
	RelativePath  string
	ContentHash   string
	Success       bool
	MutationClass string
}

// GetRecentEntries streams the ledger file, accepting both the current
// and the legacy flat format, and returns up to limit entries matching
// intentId in file order (oldest of the retained window first).
func (l *Ledger) GetRecentEntries(intentID string, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var matches []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		entry, ok := parseLine(line, intentID)
		if !ok {
			continue
		}
		matches = append(matches, entry)
	}

	if len(matches) <= limit {
		return matches
	}
	return matches[len(matches)-limit:]
}

func parseLine(line []byte, intentID string) (Entry, bool) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(line, &generic); err != nil {
		return Entry{}, false
	}

	if _, isCurrent := generic["vcs"]; isCurrent {
		return parseCurrentLine(line, intentID)
	}
	return parseLegacyLine(line, intentID)
}

func parseCurrentLine(line []byte, intentID string) (Entry, bool) {
	var rec LedgerRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Entry{}, false
	}

	for _, file := range rec.Files {
		for _, conv := range file.Conversations {
			matched := false
			for _, rel := range conv.Related {
				if rel.Type == "intent" && rel.Value == intentID {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
			var contentHash string
			if len(conv.Ranges) > 0 {
				contentHash = conv.Ranges[0].ContentHash
			}
			return Entry{
				ID:           rec.ID,
				Timestamp:    rec.Timestamp,
				IntentID:     intentID,
				RelativePath: file.RelativePath,
				ContentHash:  contentHash,
				Success:      true,
			}, true
		}
	}
	if len(rec.Files) == 0 && intentID == "" {
		return Entry{ID: rec.ID, Timestamp: rec.Timestamp, Success: true}, true
	}
	return Entry{}, false
}

func parseLegacyLine(line []byte, intentID string) (Entry, bool) {
	var legacy legacyTraceEntry
	if err := json.Unmarshal(line, &legacy); err != nil {
		return Entry{}, false
	}
	if legacy.ID == "" {
		return Entry{}, false
	}
	if legacy.IntentID != intentID {
		return Entry{}, false
	}

	entry := Entry{
		ID:            legacy.ID,
		Timestamp:     legacy.Timestamp,
		IntentID:      legacy.IntentID,
		ToolName:      legacy.ToolName,
		Success:       legacy.Success,
		MutationClass: legacy.MutationClass,
	}
	if legacy.File != nil {
		entry.RelativePath = legacy.File.RelativePath
		entry.ContentHash = legacy.File.PostHash
		if entry.ContentHash == "" {
			entry.ContentHash = legacy.File.PreHash
		}
	}
	return entry, true
}
