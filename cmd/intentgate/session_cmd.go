package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and clean up session heartbeats",
	Long: `Read and prune the active-sessions table the session coordinator
maintains in the brain file, tracking which intent each session has
claimed and how recently it last heartbeat.

Examples:
  intentgate session list
  intentgate session cleanup`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active sessions and their claimed intents",
	RunE:  runSessionList,
}

var sessionCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove sessions whose heartbeat has gone stale",
	RunE:  runSessionCleanup,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionCleanupCmd)
}

func runSessionList(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sessions := newSessionCoordinator(workspaceRoot, cfg).ListSessions()

	if outputFormat(cfg) == "json" {
		data, err := json.MarshalIndent(sessions, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal sessions: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(sessions) == 0 {
		fmt.Println("No active sessions")
		return nil
	}
	fmt.Printf("%-20s %-12s %s\n", "SESSION", "INTENT", "LAST HEARTBEAT")
	for _, s := range sessions {
		fmt.Printf("%-20s %-12s %s\n", s.SessionID, s.IntentID, s.Timestamp)
	}
	return nil
}

func runSessionCleanup(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	removed := newSessionCoordinator(workspaceRoot, cfg).CleanupStaleSessions()
	fmt.Printf("Removed %d stale session(s)\n", removed)
	return nil
}
