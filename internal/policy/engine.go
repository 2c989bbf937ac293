// Package policy decides whether an inbound tenant may use the bridge.
package policy

import (
	"fmt"
	"time"
)

// RejectionText is delivered to users whose tenant is not allow-listed.
const RejectionText = "Sorry, you must be part of an authorized domain to use this application."

// Decision is the result of a tenant evaluation.
type Decision struct {
	Allow    bool
	Reason   string
	TenantID string
	TraceID  string
	Ts       time.Time
}

// TenantEngine allows exactly the tenants in AllowedTenantIDs.
type TenantEngine struct {
	AllowedTenantIDs []string
}

// NewTenantEngine creates an engine over the given allow-list.
func NewTenantEngine(allowed []string) *TenantEngine {
	return &TenantEngine{AllowedTenantIDs: allowed}
}

// Evaluate checks tenantID against the allow-list.
func (e *TenantEngine) Evaluate(tenantID, traceID string) Decision {
	d := Decision{
		TenantID: tenantID,
		TraceID:  traceID,
		Ts:       time.Now(),
	}
	if len(e.AllowedTenantIDs) == 0 {
		d.Reason = "tenant_allowlist_empty"
		return d
	}
	if !Authorize(tenantID, e.AllowedTenantIDs) {
		d.Reason = fmt.Sprintf("tenant_not_authorized: %s", tenantID)
		return d
	}
	d.Allow = true
	d.Reason = "tenant_allowlisted"
	return d
}

// Authorize reports whether tenantID exactly matches one of allowed.
// An empty allow-list authorizes nothing.
func Authorize(tenantID string, allowed []string) bool {
	if tenantID == "" {
		return false
	}
	for _, id := range allowed {
		if id == tenantID {
			return true
		}
	}
	return false
}
