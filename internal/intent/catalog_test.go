package intent

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "active_intents.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCatalog_Load_Valid(t *testing.T) {
	path := writeCatalog(t, `
active_intents:
  - id: INT-001
    name: Implement the thing
    status: IN_PROGRESS
    version: 1
    owned_scope:
      - "src/core/**"
    constraints:
      - no breaking changes
    acceptance_criteria:
      - tests pass
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-02T00:00:00Z"
`)
	c := NewCatalog(path)
	intents := c.Load()
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	if intents[0].ID != "INT-001" {
		t.Errorf("unexpected id: %s", intents[0].ID)
	}
}

func TestCatalog_Load_LegacyIntentsKey(t *testing.T) {
	path := writeCatalog(t, `
intents:
  - id: INT-002
    name: Legacy key intent
    status: PENDING
    owned_scope: ["docs/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
`)
	c := NewCatalog(path)
	intents := c.Load()
	if len(intents) != 1 || intents[0].ID != "INT-002" {
		t.Fatalf("expected legacy intents key to be honored, got %+v", intents)
	}
}

func TestCatalog_Load_MissingFile(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	intents := c.Load()
	if intents != nil {
		t.Fatalf("expected nil intents for missing file, got %v", intents)
	}
}

func TestCatalog_Load_MalformedYAML(t *testing.T) {
	path := writeCatalog(t, "active_intents: [this is not valid: yaml: at all")
	c := NewCatalog(path)
	intents := c.Load()
	if intents != nil {
		t.Fatalf("expected nil intents for malformed yaml, got %v", intents)
	}
}

func TestCatalog_Load_DropsInvalidDropsOnlyThatOne(t *testing.T) {
	path := writeCatalog(t, `
active_intents:
  - id: INT-001
    name: Valid one
    status: IN_PROGRESS
    owned_scope: ["src/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
  - id: bad-id
    name: Invalid one
    status: IN_PROGRESS
    owned_scope: ["src/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
`)
	c := NewCatalog(path)
	intents := c.Load()
	if len(intents) != 1 || intents[0].ID != "INT-001" {
		t.Fatalf("expected only the valid intent to survive, got %+v", intents)
	}
}

func TestCatalog_Load_DuplicateIDDropsSecond(t *testing.T) {
	path := writeCatalog(t, `
active_intents:
  - id: INT-001
    name: First
    status: IN_PROGRESS
    owned_scope: ["src/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
  - id: INT-001
    name: Duplicate
    status: PENDING
    owned_scope: ["docs/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
`)
	c := NewCatalog(path)
	intents := c.Load()
	if len(intents) != 1 || intents[0].Name != "First" {
		t.Fatalf("expected duplicate id to be dropped, got %+v", intents)
	}
}

func TestCatalog_Find(t *testing.T) {
	path := writeCatalog(t, `
active_intents:
  - id: INT-001
    name: Findable
    status: IN_PROGRESS
    owned_scope: ["src/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
`)
	c := NewCatalog(path)
	in, ok := c.Find("INT-001")
	if !ok || in.Name != "Findable" {
		t.Fatalf("expected to find INT-001, got %+v ok=%v", in, ok)
	}
	if _, ok := c.Find("INT-999"); ok {
		t.Fatal("expected INT-999 to be absent")
	}
}

func TestCatalog_Load_CachesWithinTTL(t *testing.T) {
	path := writeCatalog(t, `
active_intents:
  - id: INT-001
    name: Cached
    status: IN_PROGRESS
    owned_scope: ["src/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
`)
	c := NewCatalog(path)
	first := c.Load()

	if err := os.WriteFile(path, []byte("active_intents: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	second := c.Load()
	if len(second) != len(first) {
		t.Fatalf("expected cached result within TTL, got %+v vs %+v", first, second)
	}
}

func TestCatalog_Reload_InvalidatesCache(t *testing.T) {
	path := writeCatalog(t, `
active_intents:
  - id: INT-001
    name: Cached
    status: IN_PROGRESS
    owned_scope: ["src/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
`)
	c := NewCatalog(path)
	c.Load()

	if err := os.WriteFile(path, []byte("active_intents: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c.Reload()
	intents := c.Load()
	if len(intents) != 0 {
		t.Fatalf("expected reload to pick up empty catalog, got %+v", intents)
	}
}

func TestCatalog_Load_ExpiresAfterTTL(t *testing.T) {
	path := writeCatalog(t, `active_intents: []`)
	c := NewCatalog(path)
	c.Load()
	c.loadedAt = time.Now().Add(-2 * CacheTTL)

	if err := os.WriteFile(path, []byte(`
active_intents:
  - id: INT-001
    name: Fresh read
    status: IN_PROGRESS
    owned_scope: ["src/**"]
    created_at: "2026-01-01T00:00:00Z"
    updated_at: "2026-01-01T00:00:00Z"
`), 0644); err != nil {
		t.Fatal(err)
	}
	intents := c.Load()
	if len(intents) != 1 {
		t.Fatalf("expected TTL expiry to trigger re-read, got %+v", intents)
	}
}
