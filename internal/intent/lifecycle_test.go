package intent

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fixedClock struct{ t string }

func (c fixedClock) Now() string { return c.t }

func setupLifecycle(t *testing.T, content string) (*Lifecycle, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "active_intents.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cat := NewCatalog(path)
	lc := NewLifecycle(path, cat).WithClock(fixedClock{t: "2026-06-01T00:00:00Z"})
	return lc, path
}

const sampleCatalog = `# human comment preserved
active_intents:
  - id: INT-001
    name: Sample intent
    status: PENDING
    owned_scope:
      - "src/core/**"
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
`

func TestLifecycle_TransitionIntent_Allowed(t *testing.T) {
	lc, path := setupLifecycle(t, sampleCatalog)
	if err := lc.TransitionIntent("INT-001", StatusInProgress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := os.ReadFile(path)
	out := string(data)
	if !strings.Contains(out, "status: IN_PROGRESS") {
		t.Errorf("expected status to be updated, got:\n%s", out)
	}
	if !strings.Contains(out, "2026-06-01T00:00:00Z") {
		t.Errorf("expected updated_at to be refreshed, got:\n%s", out)
	}
	if !strings.Contains(out, "human comment preserved") {
		t.Errorf("expected leading comment to survive, got:\n%s", out)
	}
}

func TestLifecycle_TransitionIntent_Illegal(t *testing.T) {
	lc, path := setupLifecycle(t, strings.Replace(sampleCatalog, "status: PENDING", "status: COMPLETE", 1))
	before, _ := os.ReadFile(path)

	err := lc.TransitionIntent("INT-001", StatusInProgress)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}

	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("expected file to be untouched after an illegal transition")
	}
}

func TestLifecycle_TransitionIntent_NotFound(t *testing.T) {
	lc, _ := setupLifecycle(t, sampleCatalog)
	err := lc.TransitionIntent("INT-999", StatusInProgress)
	if !errors.Is(err, ErrIntentNotFound) {
		t.Fatalf("expected ErrIntentNotFound, got %v", err)
	}
}

func TestLifecycle_UpdateIntentField_Scalar(t *testing.T) {
	lc, path := setupLifecycle(t, sampleCatalog)
	if err := lc.UpdateIntentField("INT-001", "name", "Renamed intent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "name: Renamed intent") {
		t.Errorf("expected name to be updated, got:\n%s", string(data))
	}
}

func TestLifecycle_UpdateIntentField_Sequence(t *testing.T) {
	lc, path := setupLifecycle(t, sampleCatalog)
	if err := lc.UpdateIntentField("INT-001", "owned_scope", []string{"src/**", "docs/**"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	out := string(data)
	if !strings.Contains(out, "docs/**") {
		t.Errorf("expected owned_scope to be replaced, got:\n%s", out)
	}
}

func TestLifecycle_Transition_InvalidatesCatalogCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active_intents.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	cat := NewCatalog(path)
	lc := NewLifecycle(path, cat).WithClock(fixedClock{t: "2026-06-01T00:00:00Z"})

	cat.Load()
	if err := lc.TransitionIntent("INT-001", StatusInProgress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in, ok := cat.Find("INT-001")
	if !ok || in.Status != StatusInProgress {
		t.Fatalf("expected catalog to observe the transition after cache invalidation, got %+v", in)
	}
}
