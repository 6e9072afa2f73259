package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const emptyCatalogYAML = "active_intents: []\n"

const spatialMapHeader = `# Intent Spatial Map

Maps workspace files to the intents that own them.
`

const brainHeader = `# intentgate

Shared scratchpad for active-session bookkeeping: the active-sessions
table below is owned by ` + "`intentgate session`" + `; lesson entries are appended
by the lesson recorder under their own headers.
`

const ignoreExample = `# intentgate ignore patterns (gitignore-style globs, one per line).
# Paths matching these are exempt from scope and staleness gating.
# node_modules/**
# *.generated.go
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize intentgate in the current repository",
	Long: `Scaffold .orchestration/ in the workspace root: an empty intent
catalog, an empty trace ledger, a header-only spatial map, a header-only
brain file, and a commented-out example ignore file.

Safe to run multiple times (idempotent) — existing files are left
untouched.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	orchDir := cfg.OrchPath(workspaceRoot)
	if err := os.MkdirAll(orchDir, 0700); err != nil {
		return fmt.Errorf("create %s: %w", orchDir, err)
	}

	files := []struct {
		path    string
		content string
	}{
		{cfg.CatalogPath(workspaceRoot), emptyCatalogYAML},
		{cfg.LedgerPath(workspaceRoot), ""},
		{cfg.SpatialMapPath(workspaceRoot), spatialMapHeader},
		{cfg.BrainPath(workspaceRoot), brainHeader},
		{cfg.IgnoreFilePath(workspaceRoot), ignoreExample},
	}

	var created []string
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("create %s: %w", f.path, err)
		}
		created = append(created, f.path)
	}

	fmt.Printf("Initialized intentgate in %s\n", orchDir)
	if len(created) == 0 {
		fmt.Println("Already initialized — nothing to create.")
		return nil
	}
	fmt.Println("Created:")
	for _, p := range created {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
