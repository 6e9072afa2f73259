package hook

// DenialKind is the discriminant for why a pre-hook call was denied,
// mirroring the §7 error taxonomy.
type DenialKind string

const (
	ErrNoActiveIntent      DenialKind = "ERR_NO_ACTIVE_INTENT"
	ErrIntentNotFound      DenialKind = "ERR_INTENT_NOT_FOUND"
	ErrIntentNotActionable DenialKind = "ERR_INTENT_NOT_ACTIONABLE"
	ErrScopeViolation      DenialKind = "ERR_SCOPE_VIOLATION"
	ErrStaleFile           DenialKind = "ERR_STALE_FILE"
	ErrHITLRejected        DenialKind = "ERR_HITL_REJECTED"
)

// Metadata tags a Decision with which gating path allowed it, so callers
// that want to distinguish "exempt" from "gated and passed" can without
// parsing the reason string.
type Metadata struct {
	Exempt        bool
	Destructive   bool
	Unclassified  bool
	IntentIgnored bool
}

// Decision is the pre-hook's tagged-union result: either Allowed (carrying
// the observed pre-write hash and gating metadata) or Denied (carrying a
// machine-readable kind plus an agent-actionable reason). Exactly one of
// allowed/denied is meaningful at a time — callers must check Allowed()
// before reading PreHash or Metadata, and check !Allowed() before reading
// Kind or Reason, so a denial can never be read as a silent pass.
type Decision struct {
	allowed  bool
	preHash  string
	metadata Metadata
	kind     DenialKind
	reason   string
}

// Allow constructs an allowed Decision carrying preHash (possibly empty,
// meaning the file did not previously exist) and metadata.
func Allow(preHash string, metadata Metadata) Decision {
	return Decision{allowed: true, preHash: preHash, metadata: metadata}
}

// Deny constructs a denied Decision carrying the discriminant kind and an
// agent-actionable reason string.
func Deny(kind DenialKind, reason string) Decision {
	return Decision{allowed: false, kind: kind, reason: reason}
}

// Allowed reports whether the tool call may proceed.
func (d Decision) Allowed() bool { return d.allowed }

// PreHash returns the observed pre-write hash. Only meaningful when
// Allowed() is true.
func (d Decision) PreHash() string { return d.preHash }

// Metadata returns the gating metadata. Only meaningful when Allowed() is
// true.
func (d Decision) Metadata() Metadata { return d.metadata }

// Kind returns the denial discriminant. Only meaningful when Allowed() is
// false.
func (d Decision) Kind() DenialKind { return d.kind }

// Reason returns the agent-actionable denial message. Only meaningful when
// Allowed() is false.
func (d Decision) Reason() string { return d.reason }
