package hook

import (
	"sync"

	"github.com/boshu2/intentgate/internal/config"
	"github.com/boshu2/intentgate/internal/hitl"
	"github.com/boshu2/intentgate/internal/ledger"
)

// key identifies one (workspace, session) engine instance.
type key struct {
	workspaceRoot string
	sessionID     string
}

// Registry hands out one Engine per (workspace-root, session-id) pair,
// constructing it lazily on first use. It is an explicit, injectable
// object owned by the host rather than a process-wide singleton map —
// per spec §9's design note, two Registry values never share state.
type Registry struct {
	mu      sync.Mutex
	engines map[key]*Engine

	newProbe func() ledger.Probe
	newHITL  func() hitl.Gate
}

// NewRegistry returns an empty Registry. probeFactory and hitlFactory
// construct fresh capability instances for each new Engine; pass nil to
// use the default GitProbe and an auto-approving HostGate.
func NewRegistry(probeFactory func() ledger.Probe, hitlFactory func() hitl.Gate) *Registry {
	if probeFactory == nil {
		probeFactory = func() ledger.Probe { return ledger.GitProbe{} }
	}
	if hitlFactory == nil {
		hitlFactory = func() hitl.Gate { return hitl.NewHostGate(autoApproveConfirmer{}) }
	}
	return &Registry{
		engines:  make(map[key]*Engine),
		newProbe: probeFactory,
		newHITL:  hitlFactory,
	}
}

// Get returns the Engine for (workspaceRoot, sessionID), constructing it
// with cfg on first use. Same key always yields the same instance;
// different sessions get independent instances with independent hash
// caches and active-intent state.
func (r *Registry) Get(workspaceRoot, sessionID string, cfg *config.Config) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{workspaceRoot: workspaceRoot, sessionID: sessionID}
	if e, ok := r.engines[k]; ok {
		return e
	}

	e := NewEngine(workspaceRoot, sessionID, cfg, r.newProbe(), r.newHITL())
	r.engines[k] = e
	return e
}

// Forget drops the cached Engine for (workspaceRoot, sessionID), if any,
// so the next Get constructs a fresh one. Used when a session ends.
func (r *Registry) Forget(workspaceRoot, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, key{workspaceRoot: workspaceRoot, sessionID: sessionID})
}

// autoApproveConfirmer is the zero-configuration default Confirmer: it
// approves every request. Hosts wire a real modal confirmation mechanism
// in its place.
type autoApproveConfirmer struct{}

func (autoApproveConfirmer) Confirm(title, message string) bool { return true }
