package policy

import "testing"

func TestAuthorizeExactMatch(t *testing.T) {
	allowed := []string{"tenant-a", "tenant-b"}
	if !Authorize("tenant-b", allowed) {
		t.Fatal("tenant-b should be authorized")
	}
	for _, id := range []string{"tenant", "TENANT-A", "tenant-a ", ""} {
		if Authorize(id, allowed) {
			t.Fatalf("%q should not be authorized", id)
		}
	}
}

func TestAuthorizeEmptyAllowListDeniesAll(t *testing.T) {
	if Authorize("tenant-a", nil) {
		t.Fatal("nil allow-list should deny")
	}
	if Authorize("", []string{}) {
		t.Fatal("empty allow-list should deny")
	}
}

func TestTenantEngineDecisions(t *testing.T) {
	eng := NewTenantEngine([]string{"x"})
	d := eng.Evaluate("x", "trace-1")
	if !d.Allow || d.Reason != "tenant_allowlisted" || d.TraceID != "trace-1" {
		t.Fatalf("unexpected allow decision: %+v", d)
	}
	d = eng.Evaluate("y", "trace-2")
	if d.Allow {
		t.Fatal("tenant y should be denied")
	}
	if d.Reason != "tenant_not_authorized: y" {
		t.Fatalf("unexpected reason: %s", d.Reason)
	}

	empty := NewTenantEngine(nil)
	if d := empty.Evaluate("x", ""); d.Allow || d.Reason != "tenant_allowlist_empty" {
		t.Fatalf("unexpected empty-list decision: %+v", d)
	}
}
