package hook

import "testing"

func TestAllow(t *testing.T) {
	d := Allow("sha256:abc", Metadata{Exempt: true})
	if !d.Allowed() {
		t.Fatal("expected Allowed() true")
	}
	if d.PreHash() != "sha256:abc" {
		t.Errorf("unexpected PreHash: %s", d.PreHash())
	}
	if !d.Metadata().Exempt {
		t.Error("expected Exempt metadata to survive construction")
	}
}

func TestDeny(t *testing.T) {
	d := Deny(ErrScopeViolation, "path outside scope")
	if d.Allowed() {
		t.Fatal("expected Allowed() false")
	}
	if d.Kind() != ErrScopeViolation {
		t.Errorf("unexpected Kind: %s", d.Kind())
	}
	if d.Reason() != "path outside scope" {
		t.Errorf("unexpected Reason: %s", d.Reason())
	}
}
