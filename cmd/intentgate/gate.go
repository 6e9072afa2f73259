package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/intentgate/internal/hook"
)

var (
	gateTool   string
	gatePath   string
	gateIntent string
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Dry-run the pre-tool-use gate from the shell",
	Long: `Run the same 10-step pre-tool-use validation chain the hook
engine runs for a live host, against a tool/path/intent tuple supplied
from the shell. Useful for debugging a scope or staleness denial without
a live host integration.

This performs the full gate check with the same side effects a live
pre-hook has: a destructive tool still triggers the HITL gate, a scope or
stale-file denial records a lesson in the brain file, and an allowed write
stores the file's hash in the engine's cache. No ledger or session entry
is written.

Examples:
  intentgate gate check --tool write_to_file --path src/core/hooks/engine.go --intent INT-001`,
}

var gateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate preToolUse for a single tool invocation",
	RunE:  runGateCheck,
}

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.AddCommand(gateCheckCmd)

	gateCheckCmd.Flags().StringVar(&gateTool, "tool", "", "Tool name (e.g. write_to_file, apply_diff, execute_command)")
	gateCheckCmd.Flags().StringVar(&gatePath, "path", "", "Workspace-relative file path")
	gateCheckCmd.Flags().StringVar(&gateIntent, "intent", "", "Intent id claimed for this call")
	_ = gateCheckCmd.MarkFlagRequired("tool")
}

func runGateCheck(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sessionID := resolveSessionID()

	engine := newEngine(workspaceRoot, sessionID, cfg)
	if !engine.IsEnabled() {
		fmt.Println("Gating disabled for this workspace (no catalog present)")
		return nil
	}

	decision := engine.PreToolUse(hook.PreToolUseRequest{
		ToolName:  gateTool,
		FilePath:  gatePath,
		IntentID:  gateIntent,
		SessionID: sessionID,
	})

	if decision.Allowed() {
		fmt.Println("ALLOW")
		if decision.Metadata().Exempt {
			fmt.Println("  exempt tool")
		}
		if decision.Metadata().Unclassified {
			fmt.Println("  unclassified tool")
		}
		if decision.Metadata().IntentIgnored {
			fmt.Println("  path is ignored; scope and staleness checks skipped")
		}
		if decision.PreHash() != "" {
			fmt.Printf("  pre-hash: %s\n", decision.PreHash())
		}
		return nil
	}

	fmt.Println("DENY")
	fmt.Printf("  kind:   %s\n", decision.Kind())
	fmt.Printf("  reason: %s\n", decision.Reason())
	return nil
}
