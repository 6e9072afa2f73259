// Package diag wraps the zerolog package-level logger with the
// request-scoped fields (workspace, session, active intent) the hook
// engine's fail-open diagnostics need, so every log line from a gated
// tool invocation carries enough context to trace it back to a specific
// session without each call site re-attaching the same three fields.
package diag

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a zerolog.Logger pre-populated with request-scoped fields.
type Logger struct {
	base zerolog.Logger
}

// New returns a Logger wrapping the package-level zerolog logger with no
// scoping fields attached yet — the same instance other packages
// (hashscope, intent) log through directly.
func New() *Logger {
	return &Logger{base: log.Logger}
}

// Scoped returns a Logger with workspace/session/intent fields attached
// to every subsequent entry. Any of the three may be empty.
func (l *Logger) Scoped(workspace, session, intentID string) *Logger {
	ctx := l.base.With()
	if workspace != "" {
		ctx = ctx.Str("workspace", workspace)
	}
	if session != "" {
		ctx = ctx.Str("session", session)
	}
	if intentID != "" {
		ctx = ctx.Str("intent", intentID)
	}
	return &Logger{base: ctx.Logger()}
}

// Warn starts a warning-level event.
func (l *Logger) Warn() *zerolog.Event { return l.base.Warn() }

// Debug starts a debug-level event.
func (l *Logger) Debug() *zerolog.Event { return l.base.Debug() }

// Error starts an error-level event.
func (l *Logger) Error() *zerolog.Event { return l.base.Error() }
