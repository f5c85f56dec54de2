package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/model"
)

func TestScopeIdentity_TenantScoped(t *testing.T) {
	tenantID := uuid.New()
	rc, err := ScopeIdentity(Identity{UserID: uuid.New(), TenantID: &tenantID, Role: model.RoleUser})
	require.NoError(t, err)

	got, ok := rc.Scope().TenantID()
	assert.True(t, ok)
	assert.Equal(t, tenantID, got)
	assert.True(t, rc.Scope().Allows(tenantID))
	assert.False(t, rc.Scope().Allows(uuid.New()))

	other := uuid.New()
	resolved, err := rc.Scope().Resolve(&other)
	require.NoError(t, err)
	assert.Equal(t, tenantID, resolved, "caller supplied tenant id must be ignored")
}

func TestScopeIdentity_MissingTenantIsForbidden(t *testing.T) {
	_, err := ScopeIdentity(Identity{UserID: uuid.New(), Role: model.RoleTenantAdmin})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	nilTenant := uuid.Nil
	_, err = ScopeIdentity(Identity{UserID: uuid.New(), TenantID: &nilTenant, Role: model.RoleUser})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestScopeIdentity_SuperAdminIsUnrestricted(t *testing.T) {
	rc, err := ScopeIdentity(Identity{UserID: uuid.New(), Role: model.RoleSuperAdmin})
	require.NoError(t, err)

	assert.True(t, rc.Scope().Unrestricted())
	_, ok := rc.Scope().TenantID()
	assert.False(t, ok)
	assert.True(t, rc.Scope().Allows(uuid.New()))

	_, err = rc.Scope().Resolve(nil)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))

	target := uuid.New()
	resolved, err := rc.Scope().Resolve(&target)
	require.NoError(t, err)
	assert.Equal(t, target, resolved)
}

func TestRequireRole(t *testing.T) {
	tenantID := uuid.New()
	admin, err := ScopeIdentity(Identity{UserID: uuid.New(), TenantID: &tenantID, Role: model.RoleTenantAdmin})
	require.NoError(t, err)
	member, err := ScopeIdentity(Identity{UserID: uuid.New(), TenantID: &tenantID, Role: model.RoleUser})
	require.NoError(t, err)

	assert.NoError(t, RequireRole(admin, model.RoleTenantAdmin))
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(RequireRole(member, model.RoleTenantAdmin)))
	assert.NoError(t, RequireRole(member, model.RoleTenantAdmin, model.RoleUser))
}

func TestAuthenticate(t *testing.T) {
	tm := newTestManager(t)
	tenantID := uuid.New()
	token, _, err := tm.Issue(Identity{UserID: uuid.New(), TenantID: &tenantID, Role: model.RoleUser})
	require.NoError(t, err)

	rc, err := Authenticate(tm, token)
	require.NoError(t, err)
	assert.True(t, rc.Scope().Allows(tenantID))

	_, err = Authenticate(tm, "bogus")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}
