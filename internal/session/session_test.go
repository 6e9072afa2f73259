package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func brainWithTable(t *testing.T, path string) {
	t.Helper()
	content := "# CLAUDE.md\n\n## Active Sessions\n\n| Session | Intent | Timestamp |\n|---|---|---|\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestHeartbeat_NoOpWhenBrainMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	c := &Coordinator{Path: path, Clock: fixedClock{time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)}}

	c.Heartbeat("S1", "INT-001")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file created for missing brain")
	}
}

func TestHeartbeat_InsertsRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	brainWithTable(t, path)
	c := &Coordinator{Path: path, Clock: fixedClock{time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)}}

	c.Heartbeat("S1", "INT-001")

	sessions := c.ListSessions()
	if len(sessions) != 1 || sessions[0].SessionID != "S1" || sessions[0].IntentID != "INT-001" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestHeartbeat_UpsertsExistingRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	brainWithTable(t, path)
	c := &Coordinator{Path: path, Clock: fixedClock{time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)}}

	c.Heartbeat("S1", "INT-001")
	c.Heartbeat("S1", "INT-002")

	sessions := c.ListSessions()
	if len(sessions) != 1 || sessions[0].IntentID != "INT-002" {
		t.Fatalf("expected upsert not append, got: %+v", sessions)
	}
}

func TestHeartbeat_NoneIntent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	brainWithTable(t, path)
	c := &Coordinator{Path: path, Clock: fixedClock{time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)}}

	c.Heartbeat("S1", "")

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "| S1 | none |") {
		t.Errorf("expected none sentinel, got:\n%s", data)
	}
	sessions := c.ListSessions()
	if len(sessions) != 1 || sessions[0].IntentID != "" {
		t.Fatalf("expected empty IntentID for none row, got: %+v", sessions)
	}
}

func TestIsIntentClaimedByOther(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	brainWithTable(t, path)
	c := &Coordinator{Path: path, Clock: fixedClock{time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)}}

	c.Heartbeat("S1", "INT-001")

	if !c.IsIntentClaimedByOther("S2", "INT-001") {
		t.Error("expected INT-001 to be claimed by S1 from S2's perspective")
	}
	if c.IsIntentClaimedByOther("S1", "INT-001") {
		t.Error("expected S1's own claim to not count as 'other'")
	}
}

func TestCleanupStaleSessions_RemovesOldRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	brainWithTable(t, path)
	base := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	c := &Coordinator{Path: path, Clock: fixedClock{base.Add(-10 * time.Minute)}}
	c.Heartbeat("Sold", "INT-001")

	c.Clock = fixedClock{base}
	c.Heartbeat("Snew", "INT-002")

	c.Clock = fixedClock{base}
	removed := c.CleanupStaleSessions()
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	sessions := c.ListSessions()
	if len(sessions) != 1 || sessions[0].SessionID != "Snew" {
		t.Fatalf("expected only Snew to remain, got: %+v", sessions)
	}
}

func TestCleanupStaleSessions_NoOpWhenNoneStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	brainWithTable(t, path)
	base := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	c := &Coordinator{Path: path, Clock: fixedClock{base}}
	c.Heartbeat("S1", "INT-001")

	before, _ := os.ReadFile(path)
	removed := c.CleanupStaleSessions()
	after, _ := os.ReadFile(path)

	if removed != 0 {
		t.Errorf("expected 0 removed, got %d", removed)
	}
	if string(before) != string(after) {
		t.Error("expected no write when nothing was stale")
	}
}
