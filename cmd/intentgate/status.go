package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/intentgate/internal/intent"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show intentgate status",
	Long: `Display the current state of the workspace's intentgate setup:
catalog initialization, intent counts by status, ledger record count, and
active sessions.

Examples:
  intentgate status
  intentgate status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	Initialized  bool           `json:"initialized"`
	OrchDir      string         `json:"orch_dir"`
	IntentCounts map[string]int `json:"intent_counts,omitempty"`
	LedgerRecord int            `json:"ledger_records"`
	Sessions     int            `json:"active_sessions"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := &statusOutput{OrchDir: cfg.OrchPath(workspaceRoot)}
	if _, err := os.Stat(out.OrchDir); os.IsNotExist(err) {
		return printStatus(out, outputFormat(cfg))
	}
	out.Initialized = true

	cat := newCatalog(workspaceRoot, cfg)
	counts := map[string]int{}
	for _, in := range cat.Load() {
		counts[string(in.Status)]++
	}
	out.IntentCounts = counts

	out.LedgerRecord = countLedgerLines(cfg.LedgerPath(workspaceRoot))

	coord := newSessionCoordinator(workspaceRoot, cfg)
	out.Sessions = len(coord.ListSessions())

	return printStatus(out, outputFormat(cfg))
}

func countLedgerLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		n++
	}
	return n
}

func printStatus(out *statusOutput, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println("intentgate Status")
	fmt.Println("=================")
	fmt.Println()

	if !out.Initialized {
		fmt.Println("Status: Not initialized")
		fmt.Println()
		fmt.Println("Run 'intentgate init' to initialize this workspace.")
		return nil
	}

	fmt.Println("Status: Initialized")
	fmt.Printf("Orchestration dir: %s\n", out.OrchDir)
	fmt.Println()

	fmt.Println("Intents:")
	if len(out.IntentCounts) == 0 {
		fmt.Println("  (none)")
	}
	for _, s := range []intent.Status{
		intent.StatusPending, intent.StatusInProgress, intent.StatusComplete,
		intent.StatusBlocked, intent.StatusArchived,
	} {
		if n := out.IntentCounts[string(s)]; n > 0 {
			fmt.Printf("  %-12s %d\n", s, n)
		}
	}

	fmt.Printf("\nLedger records: %d\n", out.LedgerRecord)
	fmt.Printf("Active sessions: %d\n", out.Sessions)
	return nil
}
