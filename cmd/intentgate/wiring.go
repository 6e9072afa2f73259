package main

import (
	"fmt"

	"github.com/boshu2/intentgate/internal/config"
	"github.com/boshu2/intentgate/internal/hook"
	"github.com/boshu2/intentgate/internal/intent"
	"github.com/boshu2/intentgate/internal/ledger"
	"github.com/boshu2/intentgate/internal/session"
)

// registry is shared process-wide so that a single CLI invocation touching
// the same (workspace, session) twice — e.g. a subcommand that both reads
// and writes engine state — reuses one Engine instance. Each process exits
// after one command, so this never outlives a single invocation.
var registry = hook.NewRegistry(nil, nil)

// loadConfig resolves configuration with the usual flag > env > project >
// home > defaults precedence, applying only the globals this CLI exposes
// as flag overrides.
func loadConfig() (*config.Config, error) {
	overrides := &config.Config{}
	if flagOutput != "" {
		overrides.Output = flagOutput
	}
	if flagVerbose {
		overrides.Verbose = true
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// outputFormat returns the resolved output format, falling back to the
// config default when no --output flag was given.
func outputFormat(cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output
}

func newCatalog(workspaceRoot string, cfg *config.Config) *intent.Catalog {
	return intent.NewCatalog(cfg.CatalogPath(workspaceRoot))
}

func newLifecycle(workspaceRoot string, cfg *config.Config, cat *intent.Catalog) *intent.Lifecycle {
	return intent.NewLifecycle(cfg.CatalogPath(workspaceRoot), cat)
}

func newLedger(workspaceRoot string, cfg *config.Config) *ledger.Ledger {
	return ledger.New(cfg.LedgerPath(workspaceRoot), workspaceRoot, ledger.GitProbe{})
}

func newSessionCoordinator(workspaceRoot string, cfg *config.Config) *session.Coordinator {
	return session.New(cfg.BrainPath(workspaceRoot))
}

// newEngine builds (or reuses, via the shared registry) the hook Engine
// for the resolved workspace and session.
func newEngine(workspaceRoot, sessionID string, cfg *config.Config) *hook.Engine {
	return registry.Get(workspaceRoot, sessionID, cfg)
}
