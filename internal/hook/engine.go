// Package hook implements the gating state machine that runs before and
// after every tool invocation: intent enforcement, scope fencing,
// optimistic-lock stale-read detection, HITL escalation for destructive
// actions, and post-hoc audit logging. Instances are keyed by
// (workspace-root, session-id); see Registry.
package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/boshu2/intentgate/internal/config"
	"github.com/boshu2/intentgate/internal/contextbuild"
	"github.com/boshu2/intentgate/internal/diag"
	"github.com/boshu2/intentgate/internal/hashscope"
	"github.com/boshu2/intentgate/internal/hitl"
	"github.com/boshu2/intentgate/internal/intent"
	"github.com/boshu2/intentgate/internal/ledger"
	"github.com/boshu2/intentgate/internal/lessons"
	"github.com/boshu2/intentgate/internal/session"
	"github.com/boshu2/intentgate/internal/spatial"
)

// State is the engine's coarse activation state. preToolUse/postToolUse
// are callable in any non-UNINITIALIZED state; they never transition the
// engine themselves — only SetActiveIntent/ClearActiveIntent do.
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateIdle          State = "IDLE"
	StateActive        State = "ACTIVE"
)

// Engine is one (workspace, session)'s gating state: its active intent,
// hash cache, and ignore list, plus the wired subsystem collaborators.
type Engine struct {
	WorkspaceRoot string
	SessionID     string
	Config        *config.Config

	Catalog       *intent.Catalog
	Lifecycle     *intent.Lifecycle
	Ledger        *ledger.Ledger
	Spatial       *spatial.Index
	Lessons       *lessons.Recorder
	Sessions      *session.Coordinator
	HITL          hitl.Gate

	mu             sync.Mutex
	state          State
	activeIntentID string
	hashCache      map[string]string
	ignoreMatcher  *hashscope.IgnoreMatcher
	ignoreLoaded   bool

	enabledCheckedAt time.Time
	enabledValue     bool

	log *diag.Logger
}

// NewEngine constructs an Engine for workspaceRoot/sessionID, wiring the
// catalog, ledger, spatial index, lesson recorder, and session
// coordinator from cfg's path helpers. probe and hitlGate are injected
// capabilities.
func NewEngine(workspaceRoot, sessionID string, cfg *config.Config, probe ledger.Probe, hitlGate hitl.Gate) *Engine {
	cat := intent.NewCatalog(cfg.CatalogPath(workspaceRoot))
	return &Engine{
		WorkspaceRoot: workspaceRoot,
		SessionID:     sessionID,
		Config:        cfg,
		Catalog:       cat,
		Lifecycle:     intent.NewLifecycle(cfg.CatalogPath(workspaceRoot), cat),
		Ledger:        ledger.New(cfg.LedgerPath(workspaceRoot), workspaceRoot, probe),
		Spatial:       spatial.New(cfg.SpatialMapPath(workspaceRoot)),
		Lessons:       lessons.New(cfg.BrainPath(workspaceRoot)),
		Sessions:      session.New(cfg.BrainPath(workspaceRoot)),
		HITL:          hitlGate,
		state:         StateIdle,
		hashCache:     make(map[string]string),
		log:           diag.New().Scoped(workspaceRoot, sessionID, ""),
	}
}

// IsEnabled reports whether the workspace has the catalog directory and
// catalog file present — the system is strictly opt-in. Cached with the
// config's EnabledCacheTTLSeconds.
func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ttl := time.Duration(e.Config.Hook.EnabledCacheTTLSeconds) * time.Second
	if !e.enabledCheckedAt.IsZero() && time.Since(e.enabledCheckedAt) < ttl {
		return e.enabledValue
	}

	orchDir := e.Config.OrchPath(e.WorkspaceRoot)
	catalogPath := e.Config.CatalogPath(e.WorkspaceRoot)
	enabled := dirExists(orchDir) && fileExists(catalogPath)

	e.enabledCheckedAt = time.Now()
	e.enabledValue = enabled

	if enabled && !e.ignoreLoaded {
		matcher, err := hashscope.LoadIgnoreMatcher(e.Config.IgnoreFilePath(e.WorkspaceRoot))
		if err != nil {
			e.log.Warn().Err(err).Msg("hook: failed to load ignore file, treating as empty")
		}
		e.ignoreMatcher = matcher
		e.ignoreLoaded = true
	}

	return enabled
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// State returns the engine's current activation state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ActiveIntentID returns the currently claimed intent id, or "" if none.
func (e *Engine) ActiveIntentID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeIntentID
}

// setActiveIntent transitions the engine to ACTIVE with id claimed.
func (e *Engine) setActiveIntent(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeIntentID = id
	e.state = StateActive
}

// clearActiveIntent transitions the engine back to IDLE with no claim.
func (e *Engine) clearActiveIntent() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeIntentID = ""
	e.state = StateIdle
}

// SelectActiveIntent implements the select_active_intent agent-facing
// operation (§6.5): look up the intent, transition PENDING to
// IN_PROGRESS, claim it on the engine, and return the formatted
// activation context.
func (e *Engine) SelectActiveIntent(id string) (string, error) {
	in, ok := e.Catalog.Find(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", intent.ErrIntentNotFound, id)
	}
	if in.Status == intent.StatusPending {
		if err := e.Lifecycle.TransitionIntent(id, intent.StatusInProgress); err != nil {
			return "", err
		}
	}
	e.setActiveIntent(id)
	e.Sessions.Heartbeat(e.SessionID, id)

	ctx, ok := contextbuild.Build(e.Catalog, e.Ledger, e.WorkspaceRoot, e.Config.SpatialMapPath(e.WorkspaceRoot), id)
	if !ok {
		return "", nil
	}
	return contextbuild.FormatForPrompt(ctx), nil
}

// VerifyAcceptanceCriteria implements the verify_acceptance_criteria
// agent-facing operation (§6.5): requires IN_PROGRESS, transitions to
// COMPLETE, and clears the engine's active intent if it matched.
func (e *Engine) VerifyAcceptanceCriteria(id string) error {
	in, ok := e.Catalog.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", intent.ErrIntentNotFound, id)
	}
	if in.Status != intent.StatusInProgress {
		return fmt.Errorf("%w: intent %s is %s, not IN_PROGRESS", intent.ErrIllegalTransition, id, in.Status)
	}
	if err := e.Lifecycle.TransitionIntent(id, intent.StatusComplete); err != nil {
		return err
	}
	if e.ActiveIntentID() == id {
		e.clearActiveIntent()
		e.Sessions.Heartbeat(e.SessionID, "")
	}
	return nil
}

// PreToolUseRequest is one invocation's pre-hook input.
type PreToolUseRequest struct {
	ToolName  string
	FilePath  string // workspace-relative; empty if not applicable
	IntentID  string
	SessionID string
}

// PreToolUse is the gate: the 10-step validation chain from §4.9,
// short-circuiting on the first failure.
func (e *Engine) PreToolUse(req PreToolUseRequest) Decision {
	class := ClassifyTool(req.ToolName)

	// Step 1: exempt.
	if class == ToolExempt {
		return Allow("", Metadata{Exempt: true})
	}

	// Step 2: destructive.
	if class == ToolDestructive {
		return e.gateDestructive(req)
	}

	// Step 3: write with no intent.
	if class == ToolWrite && req.IntentID == "" {
		return Deny(ErrNoActiveIntent, "no active intent: call select_active_intent with an intent id from "+e.Config.CatalogPath(e.WorkspaceRoot)+" before writing")
	}

	// Step 4: unclassified.
	if class == ToolUnclassified {
		return Allow("", Metadata{Unclassified: true})
	}

	// Step 5: intent lookup.
	in, ok := e.Catalog.Find(req.IntentID)
	if !ok {
		return Deny(ErrIntentNotFound, fmt.Sprintf("intent %q was not found in the catalog at %s", req.IntentID, e.Config.CatalogPath(e.WorkspaceRoot)))
	}

	// Step 6: status gate.
	if in.Status != intent.StatusInProgress {
		return Deny(ErrIntentNotActionable, statusMessage(in))
	}

	// Step 7: ignore list.
	if req.FilePath != "" && e.ignoreMatcher.IsIgnored(req.FilePath) {
		return Allow("", Metadata{IntentIgnored: true})
	}

	// Step 8: scope.
	if req.FilePath != "" && !hashscope.IsInScope(req.FilePath, in.OwnedScope) {
		e.Lessons.RecordScopeViolation(req.IntentID, req.ToolName, req.FilePath, in.OwnedScope)
		return Deny(ErrScopeViolation, fmt.Sprintf("%s is outside intent %s's owned scope %v; select a different intent or narrow the request", req.FilePath, req.IntentID, in.OwnedScope))
	}

	// Step 9: optimistic lock.
	if req.FilePath != "" {
		absPath := filepath.Join(e.WorkspaceRoot, req.FilePath)
		preHash := hashscope.ComputeFileHash(absPath)

		e.mu.Lock()
		cached, hasCached := e.hashCache[req.FilePath]
		e.mu.Unlock()

		if hasCached && cached != preHash {
			e.Lessons.RecordHashMismatch(req.IntentID, req.ToolName, req.FilePath)
			return Deny(ErrStaleFile, fmt.Sprintf("%s changed since it was last read (cached %s, now %s); re-read the file before writing", req.FilePath, truncateHash(cached), truncateHash(preHash)))
		}

		e.mu.Lock()
		e.hashCache[req.FilePath] = preHash
		e.mu.Unlock()

		return Allow(preHash, Metadata{})
	}

	return Allow("", Metadata{})
}

func (e *Engine) gateDestructive(req PreToolUseRequest) Decision {
	if req.IntentID == "" {
		return Deny(ErrNoActiveIntent, "no active intent: destructive tools require an active IN_PROGRESS intent")
	}
	in, ok := e.Catalog.Find(req.IntentID)
	if !ok {
		return Deny(ErrIntentNotFound, fmt.Sprintf("intent %q was not found in the catalog", req.IntentID))
	}
	if in.Status != intent.StatusInProgress {
		return Deny(ErrIntentNotActionable, statusMessage(in))
	}

	result := e.HITL.RequestApproval(hitl.Request{
		ToolName: req.ToolName,
		IntentID: req.IntentID,
		FilePath: req.FilePath,
	})
	if !result.Approved {
		reason := result.Reason
		if reason == "" {
			reason = "human reviewer declined the request"
		}
		return Deny(ErrHITLRejected, reason)
	}
	return Allow("", Metadata{Destructive: true})
}

func statusMessage(in *intent.Intent) string {
	switch in.Status {
	case intent.StatusPending:
		return fmt.Sprintf("intent %s is PENDING; call select_active_intent to move it to IN_PROGRESS first", in.ID)
	case intent.StatusBlocked:
		return fmt.Sprintf("intent %s is BLOCKED; resolve the blocker before writing against it", in.ID)
	case intent.StatusComplete:
		return fmt.Sprintf("intent %s is COMPLETE and cannot return to IN_PROGRESS; select a different intent", in.ID)
	case intent.StatusArchived:
		return fmt.Sprintf("intent %s is ARCHIVED; it can no longer accept writes", in.ID)
	default:
		return fmt.Sprintf("intent %s is not actionable (status %s)", in.ID, in.Status)
	}
}

func truncateHash(h string) string {
	const prefix = "sha256:"
	const shown = 12
	h = strings.TrimPrefix(h, prefix)
	if len(h) <= shown {
		return h
	}
	return h[:shown]
}

// PostToolUseRequest is one invocation's post-hook input.
type PostToolUseRequest struct {
	ToolName        string
	FilePath        string
	IntentID        string
	SessionID       string
	PreHash         string
	Success         bool
	Error           string
	ModelIdentifier string
	StartLine       int
	EndLine         int
	RelatedSpecs    []string
	// MutationClass, when non-empty and a valid enum value, is accepted
	// as the caller-supplied classification instead of the heuristic.
	MutationClass string
}

// PostToolUse is the logger: it never rejects. 10-step chain from §4.9.
func (e *Engine) PostToolUse(req PostToolUseRequest) {
	// Step 1: exempt tools are not logged.
	if ClassifyTool(req.ToolName) == ToolExempt {
		return
	}

	// Step 2: post-hash and relative-path normalization.
	var postHash string
	if req.FilePath != "" {
		absPath := filepath.Join(e.WorkspaceRoot, req.FilePath)
		postHash = hashscope.ComputeFileHash(absPath)
	}

	// Step 3: mutation class.
	mutationClass := resolveMutationClass(req.MutationClass, req.ToolName, req.PreHash)

	// Step 4: scope validation marker.
	scopeValidation := ledger.ScopeExempt
	if ClassifyTool(req.ToolName) == ToolWrite {
		scopeValidation = ledger.ScopePass
	}

	// Step 5: related specs from the intent's speckit refs.
	var relatedSpecs []string
	relatedSpecs = append(relatedSpecs, req.RelatedSpecs...)
	if in, ok := e.Catalog.Find(req.IntentID); ok {
		for _, rs := range in.RelatedSpecs {
			if rs.Type == intent.RelatedSpecSpeckit {
				relatedSpecs = append(relatedSpecs, rs.Ref)
			}
		}
	}

	// Step 6: build and log the trace entry.
	var fileInfo *ledger.FileInfo
	if req.FilePath != "" {
		fileInfo = &ledger.FileInfo{
			RelativePath: req.FilePath,
			PreHash:      req.PreHash,
			PostHash:     postHash,
		}
	}
	entry := ledger.TraceEntry{
		IntentID:        req.IntentID,
		SessionID:       req.SessionID,
		ToolName:        req.ToolName,
		MutationClass:   ledger.MutationClass(mutationClass),
		File:            fileInfo,
		ScopeValidation: scopeValidation,
		Success:         req.Success,
		Error:           req.Error,
	}
	startLine, endLine := req.StartLine, req.EndLine
	if startLine == 0 {
		startLine = 1
	}
	if endLine == 0 {
		endLine = 1
	}
	e.Ledger.Log(entry, ledger.LogOptions{
		ModelIdentifier: defaultModelIdentifier(req.ModelIdentifier),
		StartLine:       startLine,
		EndLine:         endLine,
		RelatedSpecs:    relatedSpecs,
	})

	// Step 7: suspicious no-op warning.
	if req.Success && req.PreHash != "" && req.PreHash == postHash {
		e.log.Scoped("", "", req.IntentID).Warn().Str("path", req.FilePath).Str("tool", req.ToolName).Msg("hook: write succeeded but content hash did not change")
	}

	// Step 8: spatial index update.
	if req.Success && req.FilePath != "" {
		var intentName string
		if in, ok := e.Catalog.Find(req.IntentID); ok {
			intentName = in.Name
		}
		e.Spatial.AddFileToIntent(req.IntentID, req.FilePath, intentName, mutationClass)
	}

	// Step 9: hash cache update; remove the entry on delete (open
	// question 1, resolved per spec §9: avoids false stale-read
	// rejections if the path is recreated).
	if req.FilePath != "" {
		e.mu.Lock()
		if postHash == "" {
			delete(e.hashCache, req.FilePath)
		} else {
			e.hashCache[req.FilePath] = postHash
		}
		e.mu.Unlock()
	}

	// Step 10: lesson on failure.
	if !req.Success && req.Error != "" && req.FilePath != "" {
		e.Lessons.RecordLesson(lessons.Lesson{
			IntentID:    req.IntentID,
			ToolName:    req.ToolName,
			Description: req.Error,
			Category:    "Tool Failure",
		})
	}
}

func resolveMutationClass(supplied, toolName, preHash string) string {
	if isValidMutationClass(supplied) {
		return supplied
	}
	return string(hashscope.ClassifyMutation(toolName, preHash))
}

func isValidMutationClass(s string) bool {
	switch ledger.MutationClass(s) {
	case ledger.MutationASTRefactor, ledger.MutationIntentEvolution, ledger.MutationBugFix,
		ledger.MutationDocumentation, ledger.MutationConfiguration, ledger.MutationFileCreation,
		ledger.MutationFileDeletion:
		return true
	default:
		return false
	}
}

func defaultModelIdentifier(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
