package diag

import "testing"

func TestScoped_DoesNotPanic(t *testing.T) {
	l := New().Scoped("/workspace", "S1", "INT-001")
	l.Warn().Msg("test warning")
	l.Debug().Msg("test debug")
	l.Error().Msg("test error")
}

func TestScoped_EmptyFieldsOmitted(t *testing.T) {
	l := New().Scoped("", "", "")
	l.Warn().Msg("no fields attached")
}
