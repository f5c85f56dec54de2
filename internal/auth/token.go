package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/model"
)

// TokenTTL is the fixed lifetime of an issued credential.
const TokenTTL = 24 * time.Hour

// Identity is the verified (user, tenant, role) triple carried by a credential.
// TenantID is nil for super admins.
type Identity struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	Role     model.Role
}

// Claims is the JWT payload.
type Claims struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 credentials with a process-wide secret.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager creates a TokenManager for secret
func NewTokenManager(secret string) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenManager{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a credential for id that expires TokenTTL from now.
func (m *TokenManager) Issue(id Identity) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(TokenTTL)

	claims := Claims{
		UserID: id.UserID.String(),
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if id.TenantID != nil {
		claims.TenantID = id.TenantID.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks integrity and expiry of token and returns the identity it
// asserts. Every failure is reported as Unauthenticated with the same message.
func (m *TokenManager) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Unauthorized("Authentication required")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, &apperr.Error{Kind: apperr.Unauthenticated, Message: "Invalid or expired token", Err: err}
	}

	id, err := claims.identity()
	if err != nil {
		return Identity{}, &apperr.Error{Kind: apperr.Unauthenticated, Message: "Invalid or expired token", Err: err}
	}
	return id, nil
}

func (c *Claims) identity() (Identity, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("user id: %w", err)
	}
	role := model.Role(c.Role)
	if !role.Valid() {
		return Identity{}, fmt.Errorf("unknown role %q", c.Role)
	}

	id := Identity{UserID: userID, Role: role}
	if c.TenantID != "" {
		tenantID, err := uuid.Parse(c.TenantID)
		if err != nil {
			return Identity{}, fmt.Errorf("tenant id: %w", err)
		}
		id.TenantID = &tenantID
	}
	return id, nil
}
