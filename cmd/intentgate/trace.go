package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var traceShowLimit int

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Query the append-only audit trail",
	Long: `Read the trace ledger — the append-only JSONL audit log the hook
engine writes to on every tool invocation.

Examples:
  intentgate trace show INT-001
  intentgate trace show INT-001 --limit 50
  intentgate trace stats`,
}

var traceShowCmd = &cobra.Command{
	Use:   "show <intent-id>",
	Short: "Show recent ledger entries for an intent",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceShow,
}

var traceStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate ledger statistics",
	RunE:  runTraceStats,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceShowCmd, traceStatsCmd)
	traceShowCmd.Flags().IntVar(&traceShowLimit, "limit", 0, "Maximum entries to show (default: the ledger's configured recent-entries limit)")
}

func runTraceShow(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit := traceShowLimit
	if limit <= 0 {
		limit = cfg.Ledger.RecentEntriesLimit
	}

	entries := newLedger(workspaceRoot, cfg).GetRecentEntries(args[0], limit)

	if outputFormat(cfg) == "json" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal entries: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Printf("No ledger entries for %s\n", args[0])
		return nil
	}
	fmt.Printf("%-24s %-40s %-10s %s\n", "TIMESTAMP", "PATH", "SUCCESS", "MUTATION")
	for _, e := range entries {
		fmt.Printf("%-24s %-40s %-10t %s\n", e.Timestamp, e.RelativePath, e.Success, e.MutationClass)
	}
	return nil
}

// ledgerStats summarizes the whole ledger file without filtering by
// intent — GetRecentEntries requires a non-empty intentId to match
// against, so stats reads the file directly. Every non-empty line counts
// toward TotalRecords; files and intents are taken only from the
// current-format "files" array, so legacy flat-format lines add no files
// or intents.
type ledgerStats struct {
	TotalRecords int            `json:"total_records"`
	UniqueFiles  int            `json:"unique_files"`
	ByIntent     map[string]int `json:"by_intent,omitempty"`
}

func runTraceStats(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stats, err := computeLedgerStats(cfg.LedgerPath(workspaceRoot))
	if err != nil {
		return err
	}

	if outputFormat(cfg) == "json" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Total records: %d\n", stats.TotalRecords)
	fmt.Printf("Unique files touched: %d\n", stats.UniqueFiles)
	if len(stats.ByIntent) > 0 {
		fmt.Println("\nBy intent:")
		for id, n := range stats.ByIntent {
			fmt.Printf("  %-12s %d\n", id, n)
		}
	}
	return nil
}

func computeLedgerStats(path string) (*ledgerStats, error) {
	stats := &ledgerStats{ByIntent: map[string]int{}}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	files := map[string]bool{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.TotalRecords++

		var rec struct {
			Files []struct {
				RelativePath  string `json:"relative_path"`
				Conversations []struct {
					Related []struct {
						Type  string `json:"type"`
						Value string `json:"value"`
					} `json:"related"`
				} `json:"conversations"`
			} `json:"files"`
		}
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		for _, file := range rec.Files {
			files[file.RelativePath] = true
			for _, conv := range file.Conversations {
				for _, rel := range conv.Related {
					if rel.Type == "intent" {
						stats.ByIntent[rel.Value]++
					}
				}
			}
		}
	}
	stats.UniqueFiles = len(files)
	return stats, nil
}
