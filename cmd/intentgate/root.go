package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	flagWorkspace string
	flagSession   string
	flagVerbose   bool
	flagOutput    string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "intentgate",
	Short: "Intent-gated governance middleware for agentic coding tools",
	Long: `intentgate gates an AI coding agent's file writes against a declared
catalog of intents, logs every mutation to an append-only trace ledger, and
assembles the activation context an agent needs when it picks up a new
intent.

Core Commands:
  intent   Inspect and transition the intent catalog
  trace    Query the append-only audit trail
  gate     Dry-run the pre-tool-use gate from the shell
  session  Inspect and clean up session heartbeats
  status   Show current state
  version  Show version information

The primary API (preToolUse/postToolUse) is meant to be embedded directly
into a host process; this CLI exists for operators to inspect and debug
that state from outside the host.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "Workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "Session id (default: $INTENTGATE_SESSION or \"cli\")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output format (table, json)")
}

// resolveWorkspace returns the absolute workspace root: --workspace if set,
// otherwise the current working directory.
func resolveWorkspace() (string, error) {
	if flagWorkspace != "" {
		return filepath.Abs(flagWorkspace)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

// resolveSessionID returns --session, $INTENTGATE_SESSION, or "cli" in
// that order — a CLI invocation has no long-lived host session of its own.
func resolveSessionID() string {
	if flagSession != "" {
		return flagSession
	}
	if env := os.Getenv("INTENTGATE_SESSION"); env != "" {
		return env
	}
	return "cli"
}
