package hashscope

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIgnoreMatcher_Missing(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadIgnoreMatcher(filepath.Join(dir, ".intentignore"))
	if err != nil {
		t.Fatalf("LoadIgnoreMatcher() error = %v", err)
	}
	if m.IsIgnored("anything.go") {
		t.Error("empty matcher should never ignore")
	}
}

func TestLoadIgnoreMatcher_SkipsCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".intentignore")
	content := "\n# a comment\n\nbuild/\n*.log\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadIgnoreMatcher(path)
	if err != nil {
		t.Fatalf("LoadIgnoreMatcher() error = %v", err)
	}
	if !m.IsIgnored("build/output.bin") {
		t.Error("expected build/ prefix to ignore nested files")
	}
	if !m.IsIgnored("server.log") {
		t.Error("expected *.log to match server.log")
	}
	if m.IsIgnored("src/main.go") {
		t.Error("src/main.go should not be ignored")
	}
}

func TestLoadIgnoreMatcher_NegationAcceptedButInert(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".intentignore")
	content := "*.log\n!important.log\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadIgnoreMatcher(path)
	if err != nil {
		t.Fatalf("LoadIgnoreMatcher() error = %v", err)
	}
	// Negation has no effect: the "!important.log" line is skipped, so the
	// *.log pattern still applies to every .log file.
	if !m.IsIgnored("server.log") {
		t.Error("expected *.log to still ignore server.log")
	}
}

func TestLoadIgnoreMatcher_TrailingSlashIsDirectoryPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".intentignore")
	if err := os.WriteFile(path, []byte("node_modules/\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadIgnoreMatcher(path)
	if err != nil {
		t.Fatalf("LoadIgnoreMatcher() error = %v", err)
	}
	if !m.IsIgnored("node_modules/pkg/index.js") {
		t.Error("expected node_modules/ to ignore files nested under it")
	}
}

func TestIgnoreMatcher_NilReceiver(t *testing.T) {
	var m *IgnoreMatcher
	if m.IsIgnored("anything") {
		t.Error("nil matcher should report not ignored")
	}
}
