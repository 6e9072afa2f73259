package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/intentgate/internal/intent"
)

var intentCmd = &cobra.Command{
	Use:   "intent",
	Short: "Inspect and transition the intent catalog",
	Long: `Read the intent catalog and drive its lifecycle directly — the
same operations the hook engine performs on an agent's behalf, exposed
here for operators.

Examples:
  intentgate intent list
  intentgate intent show INT-001
  intentgate intent select INT-001
  intentgate intent verify INT-001
  intentgate intent transition INT-001 BLOCKED
  intentgate intent set INT-001 name "Rename the gate"`,
}

var intentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all intents in the catalog",
	RunE:  runIntentList,
}

var intentShowCmd = &cobra.Command{
	Use:   "show <intent-id>",
	Short: "Show a single intent's full record",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntentShow,
}

var intentSelectCmd = &cobra.Command{
	Use:   "select <intent-id>",
	Short: "Claim an intent as the active intent for this session",
	Long: `Look up the intent, transition it PENDING -> IN_PROGRESS if
needed, claim it as the active intent for --session, heartbeat the
session coordinator, and print the assembled activation context.`,
	Args: cobra.ExactArgs(1),
	RunE: runIntentSelect,
}

var intentVerifyCmd = &cobra.Command{
	Use:   "verify <intent-id>",
	Short: "Verify acceptance criteria and complete an intent",
	Long: `Require the intent to be IN_PROGRESS, transition it to COMPLETE,
and clear it as the active intent for --session if it was claimed there.`,
	Args: cobra.ExactArgs(1),
	RunE: runIntentVerify,
}

var intentTransitionCmd = &cobra.Command{
	Use:   "transition <intent-id> <status>",
	Short: "Move an intent to an arbitrary legal status",
	Long: `Transition an intent directly, for moves select/verify don't
cover (e.g. IN_PROGRESS -> BLOCKED, or archiving a COMPLETE intent).
Statuses: PENDING, IN_PROGRESS, COMPLETE, BLOCKED, ARCHIVED.`,
	Args: cobra.ExactArgs(2),
	RunE: runIntentTransition,
}

var intentSetCmd = &cobra.Command{
	Use:   "set <intent-id> <field> <value>",
	Short: "Overwrite a single scalar or list field on an intent",
	Long: `Overwrite one field of an intent in place, preserving comments
and ordering elsewhere in the catalog. List-valued fields (owned_scope,
constraints, acceptance_criteria, tags) accept a comma-separated value.`,
	Args: cobra.ExactArgs(3),
	RunE: runIntentSet,
}

func init() {
	rootCmd.AddCommand(intentCmd)
	intentCmd.AddCommand(intentListCmd, intentShowCmd, intentSelectCmd,
		intentVerifyCmd, intentTransitionCmd, intentSetCmd)
}

func runIntentList(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	intents := newCatalog(workspaceRoot, cfg).Load()

	if outputFormat(cfg) == "json" {
		data, err := json.MarshalIndent(intents, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal intents: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(intents) == 0 {
		fmt.Println("No intents in catalog")
		return nil
	}
	fmt.Printf("%-10s %-12s %-40s\n", "ID", "STATUS", "NAME")
	for _, in := range intents {
		fmt.Printf("%-10s %-12s %-40s\n", in.ID, in.Status, truncateName(in.Name, 40))
	}
	return nil
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func runIntentShow(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, ok := newCatalog(workspaceRoot, cfg).Find(args[0])
	if !ok {
		return fmt.Errorf("intent not found: %s", args[0])
	}

	if outputFormat(cfg) == "json" {
		data, err := json.MarshalIndent(in, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal intent: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("ID:       %s\n", in.ID)
	fmt.Printf("Name:     %s\n", in.Name)
	fmt.Printf("Status:   %s\n", in.Status)
	fmt.Printf("Version:  %d\n", in.Version)
	fmt.Printf("Scope:    %s\n", strings.Join(in.OwnedScope, ", "))
	if len(in.Constraints) > 0 {
		fmt.Printf("Constraints:\n")
		for _, c := range in.Constraints {
			fmt.Printf("  - %s\n", c)
		}
	}
	if len(in.AcceptanceCriteria) > 0 {
		fmt.Printf("Acceptance criteria:\n")
		for _, c := range in.AcceptanceCriteria {
			fmt.Printf("  - %s\n", c)
		}
	}
	if in.ParentIntent != "" {
		fmt.Printf("Parent:   %s\n", in.ParentIntent)
	}
	fmt.Printf("Created:  %s\n", in.CreatedAt)
	fmt.Printf("Updated:  %s\n", in.UpdatedAt)
	return nil
}

func runIntentSelect(cmd *cobra.Command, args []string) error {
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
	ctx, err := engine.SelectActiveIntent(args[0])
	if err != nil {
		return fmt.Errorf("select intent: %w", err)
	}

	fmt.Printf("Selected %s as the active intent for session %s\n", args[0], sessionID)
	if ctx != "" {
		fmt.Println()
		fmt.Println(ctx)
	}
	return nil
}

func runIntentVerify(cmd *cobra.Command, args []string) error {
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
	if err := engine.VerifyAcceptanceCriteria(args[0]); err != nil {
		return fmt.Errorf("verify intent: %w", err)
	}

	fmt.Printf("Verified %s: transitioned to COMPLETE\n", args[0])
	return nil
}

func runIntentTransition(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	newStatus := intent.Status(strings.ToUpper(args[1]))
	if !intent.ValidStatuses[newStatus] {
		return fmt.Errorf("unknown status %q", args[1])
	}

	cat := newCatalog(workspaceRoot, cfg)
	lifecycle := newLifecycle(workspaceRoot, cfg, cat)
	if err := lifecycle.TransitionIntent(args[0], newStatus); err != nil {
		return fmt.Errorf("transition intent: %w", err)
	}

	fmt.Printf("Transitioned %s -> %s\n", args[0], newStatus)
	return nil
}

func runIntentSet(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id, field, rawValue := args[0], args[1], args[2]

	var value interface{} = rawValue
	switch field {
	case "owned_scope", "constraints", "acceptance_criteria", "tags":
		value = splitTrim(rawValue, ",")
	}

	cat := newCatalog(workspaceRoot, cfg)
	lifecycle := newLifecycle(workspaceRoot, cfg, cat)
	if err := lifecycle.UpdateIntentField(id, field, value); err != nil {
		return fmt.Errorf("set field: %w", err)
	}

	fmt.Printf("Updated %s.%s\n", id, field)
	return nil
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
