package lessons

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fixedClock struct{ date string }

func (c fixedClock) Today() string { return c.date }

func TestRecordLesson_CreatesFileAndSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	r := &Recorder{Path: path, Clock: fixedClock{"2026-07-31"}}

	r.RecordLesson(Lesson{IntentID: "INT-001", ToolName: "write_to_file", Description: "oops", Category: "Scope Violation"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, sectionHeader) {
		t.Errorf("expected Lessons Learned section, got:\n%s", content)
	}
	if !strings.Contains(content, "### 2026-07-31: Scope Violation (INT-001)") {
		t.Errorf("expected dated header, got:\n%s", content)
	}
	if !strings.Contains(content, "- Tool: write_to_file") || !strings.Contains(content, "- Issue: oops") || !strings.Contains(content, "- Intent: INT-001") {
		t.Errorf("expected bullet lines, got:\n%s", content)
	}
}

func TestRecordLesson_InsertsBeforeNextHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	os.WriteFile(path, []byte("# CLAUDE.md\n\n"+sectionHeader+"\n\n## Active Sessions\n\n| a | b |\n"), 0644)
	r := &Recorder{Path: path, Clock: fixedClock{"2026-07-31"}}

	r.RecordLesson(Lesson{IntentID: "INT-001", ToolName: "execute_command", Description: "bad", Category: "Scope Violation"})

	data, _ := os.ReadFile(path)
	content := string(data)
	lessonsIdx := strings.Index(content, sectionHeader)
	sessionsIdx := strings.Index(content, "## Active Sessions")
	entryIdx := strings.Index(content, "### 2026-07-31")
	if !(lessonsIdx < entryIdx && entryIdx < sessionsIdx) {
		t.Errorf("expected entry inserted between the two headers, got:\n%s", content)
	}
}

func TestRecordLesson_AppendsAtEOFWhenNoTrailingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	os.WriteFile(path, []byte("# CLAUDE.md\n\n"+sectionHeader+"\n"), 0644)
	r := &Recorder{Path: path, Clock: fixedClock{"2026-07-31"}}

	r.RecordLesson(Lesson{IntentID: "INT-001", ToolName: "write_to_file", Description: "x", Category: "Scope Violation"})

	data, _ := os.ReadFile(path)
	if !strings.HasSuffix(strings.TrimRight(string(data), "\n"), "- Intent: INT-001") {
		t.Errorf("expected entry appended at EOF, got:\n%s", data)
	}
}

func TestRecordScopeViolation_FillsCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	r := &Recorder{Path: path, Clock: fixedClock{"2026-07-31"}}

	r.RecordScopeViolation("INT-001", "write_to_file", "src/api/x.ts", []string{"src/core/**"})

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "Scope Violation") || !strings.Contains(content, "src/api/x.ts") {
		t.Errorf("expected scope violation entry, got:\n%s", content)
	}
}

func TestRecordHashMismatch_FillsCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	r := &Recorder{Path: path, Clock: fixedClock{"2026-07-31"}}

	r.RecordHashMismatch("INT-001", "edit", "src/core/x.ts")

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "Hash Mismatch") || !strings.Contains(content, "modified externally") {
		t.Errorf("expected hash mismatch entry, got:\n%s", content)
	}
}
