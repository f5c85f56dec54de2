package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/model"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager("test-secret")
	require.NoError(t, err)
	return tm
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	tm := newTestManager(t)
	tenantID := uuid.New()
	id := Identity{UserID: uuid.New(), TenantID: &tenantID, Role: model.RoleTenantAdmin}

	token, expiresAt, err := tm.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	got, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, got.UserID)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, tenantID, *got.TenantID)
	assert.Equal(t, model.RoleTenantAdmin, got.Role)
}

func TestTokenManager_SuperAdminHasNoTenant(t *testing.T) {
	tm := newTestManager(t)
	token, _, err := tm.Issue(Identity{UserID: uuid.New(), Role: model.RoleSuperAdmin})
	require.NoError(t, err)

	got, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Nil(t, got.TenantID)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	tm := newTestManager(t)
	tenantID := uuid.New()
	id := Identity{UserID: uuid.New(), TenantID: &tenantID, Role: model.RoleUser}
	valid, _, err := tm.Issue(id)
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret")
	require.NoError(t, err)
	foreign, _, err := other.Issue(id)
	require.NoError(t, err)

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	old, _, err := expired.Issue(id)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: id.UserID.String(), Role: "user"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"foreign":  foreign,
		"expired":  old,
		"tampered": tampered,
		"alg none": none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tm.Verify(token)
			assert.Error(t, err)
			assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
		})
	}
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	tm := newTestManager(t)
	claims := Claims{
		UserID: uuid.NewString(),
		Role:   "root",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("")
	assert.Error(t, err)
}
