package ledger

import "github.com/google/uuid"

// NewID returns a UUID v4 string, the id format required by spec §3.2 for
// both TraceEntry.id and LedgerRecord.id.
func NewID() string {
	return uuid.NewString()
}
