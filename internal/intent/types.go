// Package intent implements the intent catalog: the loader, the lenient
// validator, and the CST-preserving lifecycle manager described by the
// intent data model.
package intent

import "regexp"

// Status is the lifecycle state of an Intent.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusBlocked    Status = "BLOCKED"
	StatusArchived   Status = "ARCHIVED"
)

// ValidStatuses enumerates the allowed Status values.
var ValidStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusComplete:   true,
	StatusBlocked:    true,
	StatusArchived:   true,
}

// IDPattern matches a well-formed intent id, e.g. "INT-001".
var IDPattern = regexp.MustCompile(`^[A-Z]+-\d{3,}$`)

// RelatedSpecType enumerates the kinds a RelatedSpec entry may have.
type RelatedSpecType string

const (
	RelatedSpecSpeckit      RelatedSpecType = "speckit"
	RelatedSpecGithubIssue  RelatedSpecType = "github_issue"
	RelatedSpecGithubPR     RelatedSpecType = "github_pr"
	RelatedSpecConstitution RelatedSpecType = "constitution"
	RelatedSpecExternal     RelatedSpecType = "external"
)

var validRelatedSpecTypes = map[RelatedSpecType]bool{
	RelatedSpecSpeckit:      true,
	RelatedSpecGithubIssue:  true,
	RelatedSpecGithubPR:     true,
	RelatedSpecConstitution: true,
	RelatedSpecExternal:     true,
}

// RelatedSpec references an external artifact associated with an Intent.
type RelatedSpec struct {
	Type RelatedSpecType `yaml:"type"`
	Ref  string          `yaml:"ref"`
}

// Intent is the unit of authorization: a declared piece of work, scoped to
// a set of workspace paths, carried through a small lifecycle.
type Intent struct {
	ID                 string        `yaml:"id"`
	Name               string        `yaml:"name"`
	Status             Status        `yaml:"status"`
	Version            int           `yaml:"version"`
	OwnedScope         []string      `yaml:"owned_scope"`
	Constraints        []string      `yaml:"constraints,omitempty"`
	AcceptanceCriteria []string      `yaml:"acceptance_criteria,omitempty"`
	RelatedSpecs       []RelatedSpec `yaml:"related_specs,omitempty"`
	ParentIntent       string        `yaml:"parent_intent,omitempty"`
	Tags               []string      `yaml:"tags,omitempty"`
	CreatedAt          string        `yaml:"created_at"`
	UpdatedAt          string        `yaml:"updated_at"`
}

// CatalogFile is the top-level structure of the catalog YAML document.
// ActiveIntents is the canonical key; Intents is accepted as a legacy alias
// and merged in by the loader.
type CatalogFile struct {
	ActiveIntents []Intent `yaml:"active_intents"`
	Intents       []Intent `yaml:"intents"`
}

// allowedTransitions enumerates every legal (from, to) status pair. Any
// pair absent from this table is illegal.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:    {StatusInProgress: true, StatusArchived: true},
	StatusInProgress: {StatusComplete: true, StatusBlocked: true, StatusArchived: true},
	StatusBlocked:    {StatusInProgress: true, StatusArchived: true},
	StatusComplete:   {StatusArchived: true},
	StatusArchived:   {},
}

// IsTransitionAllowed reports whether moving from `from` to `to` is legal
// under the lifecycle state machine.
func IsTransitionAllowed(from, to Status) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}
