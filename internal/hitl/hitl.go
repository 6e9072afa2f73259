// Package hitl implements the human-in-the-loop approval gate consulted
// before destructive tool invocations. The core is host-agnostic: it
// defines the capability interface and a deterministic test double; a
// real host wires a modal confirmation mechanism behind the same
// interface.
package hitl

// Request describes the action awaiting approval.
type Request struct {
	ToolName    string
	IntentID    string
	FilePath    string
	Description string
}

// Result is the approval outcome.
type Result struct {
	Approved bool
	Reason   string
}

// Gate requests human approval for a destructive action.
type Gate interface {
	RequestApproval(req Request) Result
	SetEnabled(enabled bool)
}

// Confirmer abstracts the host-provided modal confirmation mechanism:
// present title/message, return the human's decision.
type Confirmer interface {
	Confirm(title, message string) bool
}

// HostGate is the default Gate, delegating to a host Confirmer. When
// disabled (SetEnabled(false)), it auto-approves without consulting the
// confirmer — this is the test-determinism escape hatch the spec calls
// for.
type HostGate struct {
	confirmer Confirmer
	enabled   bool
}

// NewHostGate returns an enabled HostGate delegating to confirmer.
func NewHostGate(confirmer Confirmer) *HostGate {
	return &HostGate{confirmer: confirmer, enabled: true}
}

// SetEnabled toggles whether approval is actually requested from the
// host. Disabling auto-approves every request.
func (g *HostGate) SetEnabled(enabled bool) {
	g.enabled = enabled
}

// RequestApproval asks the confirmer to approve req. When the gate is
// disabled, it auto-approves without consulting the confirmer.
func (g *HostGate) RequestApproval(req Request) Result {
	if !g.enabled {
		return Result{Approved: true}
	}
	title := "Approve " + req.ToolName + "?"
	message := req.Description
	if req.FilePath != "" {
		message = req.FilePath + ": " + message
	}
	if g.confirmer.Confirm(title, message) {
		return Result{Approved: true}
	}
	return Result{Approved: false, Reason: "human reviewer declined the request"}
}
