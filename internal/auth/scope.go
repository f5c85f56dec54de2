package auth

import (
	"github.com/google/uuid"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/model"
)

// Scope is the set of tenants a request may touch: exactly one tenant, or
// every tenant for super admins.
type Scope struct {
	tenantID     uuid.UUID
	unrestricted bool
}

// TenantScope returns a Scope limited to tenantID.
func TenantScope(tenantID uuid.UUID) Scope {
	return Scope{tenantID: tenantID}
}

// UnrestrictedScope returns the cross-tenant super admin scope.
func UnrestrictedScope() Scope {
	return Scope{unrestricted: true}
}

func (s Scope) Unrestricted() bool { return s.unrestricted }

// TenantID returns the effective tenant id. ok is false for unrestricted scopes.
func (s Scope) TenantID() (id uuid.UUID, ok bool) {
	if s.unrestricted {
		return uuid.Nil, false
	}
	return s.tenantID, true
}

// Allows reports whether rows owned by tenantID are visible in s.
func (s Scope) Allows(tenantID uuid.UUID) bool {
	return s.unrestricted || s.tenantID == tenantID
}

// Resolve picks the tenant a new row is created under. Tenant-scoped callers
// always get their own tenant and requested is ignored; unrestricted callers
// must name one.
func (s Scope) Resolve(requested *uuid.UUID) (uuid.UUID, error) {
	if !s.unrestricted {
		return s.tenantID, nil
	}
	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, apperr.Invalid("tenantId is required")
	}
	return *requested, nil
}

// RequestContext is the immutable result of authenticating and scoping a request.
type RequestContext struct {
	identity Identity
	scope    Scope
}

func (rc RequestContext) Identity() Identity { return rc.identity }
func (rc RequestContext) Scope() Scope       { return rc.scope }
func (rc RequestContext) UserID() uuid.UUID  { return rc.identity.UserID }
func (rc RequestContext) Role() model.Role   { return rc.identity.Role }

// ScopeIdentity derives the effective tenant for id. Super admins are not
// tenant-scoped; any other role must carry a tenant id.
func ScopeIdentity(id Identity) (RequestContext, error) {
	if id.Role == model.RoleSuperAdmin {
		return RequestContext{identity: id, scope: UnrestrictedScope()}, nil
	}
	if id.TenantID == nil || *id.TenantID == uuid.Nil {
		return RequestContext{}, apperr.Denied("Tenant access denied")
	}
	return RequestContext{identity: id, scope: TenantScope(*id.TenantID)}, nil
}

// Authenticate runs the verifier and the tenant scoper over a bearer token.
func Authenticate(tm *TokenManager, token string) (RequestContext, error) {
	id, err := tm.Verify(token)
	if err != nil {
		return RequestContext{}, err
	}
	return ScopeIdentity(id)
}
