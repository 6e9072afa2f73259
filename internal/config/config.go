// Package config provides configuration management for intentgate.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (INTENTGATE_*)
// 3. Project config (.orchestration/config.yaml in the workspace)
// 4. Home config (~/.intentgate/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all intentgate configuration.
type Config struct {
	// Output controls the default output format (table, json).
	Output string `yaml:"output" json:"output"`

	// OrchDir is the hidden directory holding the catalog, ledger, and maps
	// relative to the workspace root (default: .orchestration).
	OrchDir string `yaml:"orch_dir" json:"orch_dir"`

	// Verbose enables verbose diagnostic output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Catalog settings.
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Ledger settings.
	Ledger LedgerConfig `yaml:"ledger" json:"ledger"`

	// Hook settings.
	Hook HookConfig `yaml:"hook" json:"hook"`
}

// CatalogConfig holds intent-catalog-specific settings.
type CatalogConfig struct {
	// CacheTTLSeconds is loaded and merged but not read by intent.Catalog,
	// which always caches for its fixed intent.CacheTTL (5s).
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	// File is the catalog filename under OrchDir.
	File string `yaml:"file" json:"file"`

	// RequireApprovalOverride is loaded and merged but not read by the hook
	// engine; setting it adds no HITL approval step.
	RequireApprovalOverride bool `yaml:"require_approval_override" json:"require_approval_override"`
}

// LedgerConfig holds trace-ledger-specific settings.
type LedgerConfig struct {
	// File is the ledger filename under OrchDir.
	File string `yaml:"file" json:"file"`

	// RecentEntriesLimit is the default number of entries `trace show` lists.
	// Activation context does not read it; contextbuild uses its own
	// RecentEntriesLimit constant (20).
	RecentEntriesLimit int `yaml:"recent_entries_limit" json:"recent_entries_limit"`

	// RetryDelayMillis is loaded and merged but not read by the ledger,
	// which always waits its fixed ledger.RetryDelay (100ms) before retrying.
	RetryDelayMillis int `yaml:"retry_delay_millis" json:"retry_delay_millis"`

	// VCSProbeTimeoutSeconds is loaded and merged but not read by the
	// revision probe, which always uses its fixed ledger.ProbeTimeout (5s).
	VCSProbeTimeoutSeconds int `yaml:"vcs_probe_timeout_seconds" json:"vcs_probe_timeout_seconds"`
}

// HookConfig holds hook-engine-specific settings.
type HookConfig struct {
	// EnabledCacheTTLSeconds is how long isEnabled() results are cached
	// per (workspace, session) before re-checking the catalog.
	EnabledCacheTTLSeconds int `yaml:"enabled_cache_ttl_seconds" json:"enabled_cache_ttl_seconds"`

	// ContextBudgetBytes is loaded and merged but not read when activation
	// context is built; contextbuild always uses its fixed Budget (16384).
	ContextBudgetBytes int `yaml:"context_budget_bytes" json:"context_budget_bytes"`

	// RelatedSpecExcerptBytes is loaded and merged but not read when
	// activation context is built; contextbuild always uses its fixed
	// SpecExcerptLimit (2048).
	RelatedSpecExcerptBytes int `yaml:"related_spec_excerpt_bytes" json:"related_spec_excerpt_bytes"`

	// StaleSessionMinutes is loaded and merged but not read by the session
	// coordinator, which always treats heartbeats older than 5 minutes as
	// stale.
	StaleSessionMinutes int `yaml:"stale_session_minutes" json:"stale_session_minutes"`

	// HITLEnabled is loaded and merged but not read when the HITL gate is
	// built; whether approval is active is decided by the hitl.Gate itself
	// (see its SetEnabled).
	HITLEnabled bool `yaml:"hitl_enabled" json:"hitl_enabled"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput  = "table"
	defaultOrchDir = ".orchestration"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:  defaultOutput,
		OrchDir: defaultOrchDir,
		Verbose: false,
		Catalog: CatalogConfig{
			CacheTTLSeconds:         5,
			File:                    "active_intents.yaml",
			RequireApprovalOverride: false,
		},
		Ledger: LedgerConfig{
			File:                   "agent_trace.jsonl",
			RecentEntriesLimit:     20,
			RetryDelayMillis:       100,
			VCSProbeTimeoutSeconds: 5,
		},
		Hook: HookConfig{
			EnabledCacheTTLSeconds:  5,
			ContextBudgetBytes:      16384,
			RelatedSpecExcerptBytes: 2048,
			StaleSessionMinutes:     5,
			HITLEnabled:             true,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults.
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".intentgate", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("INTENTGATE_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, defaultOrchDir, "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("INTENTGATE_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("INTENTGATE_ORCH_DIR"); v != "" {
		cfg.OrchDir = v
	}
	if os.Getenv("INTENTGATE_VERBOSE") == "true" || os.Getenv("INTENTGATE_VERBOSE") == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("INTENTGATE_CATALOG_FILE"); v != "" {
		cfg.Catalog.File = v
	}
	if v := os.Getenv("INTENTGATE_LEDGER_FILE"); v != "" {
		cfg.Ledger.File = v
	}
	if v := os.Getenv("INTENTGATE_NO_HITL"); v == "true" || v == "1" {
		cfg.Hook.HITLEnabled = false
	}
	if v := os.Getenv("INTENTGATE_STALE_SESSION_MINUTES"); v != "" {
		if n, ok := parsePositiveInt(v); ok {
			cfg.Hook.StaleSessionMinutes = n
		}
	}
	return cfg
}

// parsePositiveInt parses a small positive integer without importing
// strconv's full surface for a single-digit-heavy config knob.
func parsePositiveInt(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, n > 0
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	if src.Output != "" {
		dst.Output = src.Output
	}
	if src.OrchDir != "" {
		dst.OrchDir = src.OrchDir
	}
	if src.Verbose {
		dst.Verbose = true
	}

	if src.Catalog.CacheTTLSeconds != 0 {
		dst.Catalog.CacheTTLSeconds = src.Catalog.CacheTTLSeconds
	}
	if src.Catalog.File != "" {
		dst.Catalog.File = src.Catalog.File
	}
	if src.Catalog.RequireApprovalOverride {
		dst.Catalog.RequireApprovalOverride = true
	}

	if src.Ledger.File != "" {
		dst.Ledger.File = src.Ledger.File
	}
	if src.Ledger.RecentEntriesLimit != 0 {
		dst.Ledger.RecentEntriesLimit = src.Ledger.RecentEntriesLimit
	}
	if src.Ledger.RetryDelayMillis != 0 {
		dst.Ledger.RetryDelayMillis = src.Ledger.RetryDelayMillis
	}
	if src.Ledger.VCSProbeTimeoutSeconds != 0 {
		dst.Ledger.VCSProbeTimeoutSeconds = src.Ledger.VCSProbeTimeoutSeconds
	}

	if src.Hook.EnabledCacheTTLSeconds != 0 {
		dst.Hook.EnabledCacheTTLSeconds = src.Hook.EnabledCacheTTLSeconds
	}
	if src.Hook.ContextBudgetBytes != 0 {
		dst.Hook.ContextBudgetBytes = src.Hook.ContextBudgetBytes
	}
	if src.Hook.RelatedSpecExcerptBytes != 0 {
		dst.Hook.RelatedSpecExcerptBytes = src.Hook.RelatedSpecExcerptBytes
	}
	if src.Hook.StaleSessionMinutes != 0 {
		dst.Hook.StaleSessionMinutes = src.Hook.StaleSessionMinutes
	}
	// HITLEnabled's zero value (false) is ambiguous with "not set" in project
	// and home YAML, so merge only ever turns it on here; this includes the
	// flag layer, which Load applies through merge. applyEnv is the only
	// path that turns it off.
	if src.Hook.HITLEnabled {
		dst.Hook.HITLEnabled = true
	}

	return dst
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.intentgate/config.yaml"
	SourceProject Source = ".orchestration/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// getEnvString returns the value and whether the env var was set.
func getEnvString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// getEnvBool returns the boolean value and whether it was truthy.
func getEnvBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "true" || v == "1" {
		return true, true
	}
	return false, false
}

// resolveStringField resolves a string through the precedence chain.
// Returns the resolved value and its source.
func resolveStringField(home, project, env, flag, def string) resolved {
	result := resolved{Value: def, Source: SourceDefault}

	if home != "" {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = resolved{Value: flag, Source: SourceFlag}
	}

	return result
}

// ResolvedConfig shows config values with their sources.
type ResolvedConfig struct {
	Output  resolved `json:"output"`
	OrchDir resolved `json:"orch_dir"`
	Verbose resolved `json:"verbose"`
}

type resolved struct {
	Value  interface{} `json:"value"`
	Source Source      `json:"source"`
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
func Resolve(flagOutput, flagOrchDir string, flagVerbose bool) *ResolvedConfig {
	homeConfig, _ := loadFromPath(homeConfigPath())
	projectConfig, _ := loadFromPath(projectConfigPath())

	var homeOutput, homeOrchDir string
	var homeVerbose bool
	if homeConfig != nil {
		homeOutput = homeConfig.Output
		homeOrchDir = homeConfig.OrchDir
		homeVerbose = homeConfig.Verbose
	}

	var projectOutput, projectOrchDir string
	var projectVerbose bool
	if projectConfig != nil {
		projectOutput = projectConfig.Output
		projectOrchDir = projectConfig.OrchDir
		projectVerbose = projectConfig.Verbose
	}

	envOutput, _ := getEnvString("INTENTGATE_OUTPUT")
	envOrchDir, _ := getEnvString("INTENTGATE_ORCH_DIR")
	envVerbose, envVerboseSet := getEnvBool("INTENTGATE_VERBOSE")

	rc := &ResolvedConfig{
		Output:  resolveStringField(homeOutput, projectOutput, envOutput, flagOutput, defaultOutput),
		OrchDir: resolveStringField(homeOrchDir, projectOrchDir, envOrchDir, flagOrchDir, defaultOrchDir),
		Verbose: resolved{Value: false, Source: SourceDefault},
	}

	if homeVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceHome}
	}
	if projectVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceProject}
	}
	if envVerboseSet && envVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceEnv}
	}
	if flagVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceFlag}
	}

	return rc
}

// OrchPath returns the absolute path to the orchestration directory for a
// given workspace root.
func (c *Config) OrchPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, c.OrchDir)
}

// CatalogPath returns the absolute path to the catalog file.
func (c *Config) CatalogPath(workspaceRoot string) string {
	return filepath.Join(c.OrchPath(workspaceRoot), c.Catalog.File)
}

// LedgerPath returns the absolute path to the ledger file.
func (c *Config) LedgerPath(workspaceRoot string) string {
	return filepath.Join(c.OrchPath(workspaceRoot), c.Ledger.File)
}

// SpatialMapPath returns the absolute path to the spatial map file.
func (c *Config) SpatialMapPath(workspaceRoot string) string {
	return filepath.Join(c.OrchPath(workspaceRoot), "intent_map.md")
}

// BrainPath returns the absolute path to the shared brain file.
func (c *Config) BrainPath(workspaceRoot string) string {
	return filepath.Join(c.OrchPath(workspaceRoot), "CLAUDE.md")
}

// IgnoreFilePath returns the absolute path to the .intentignore file.
func (c *Config) IgnoreFilePath(workspaceRoot string) string {
	return filepath.Join(c.OrchPath(workspaceRoot), ".intentignore")
}
