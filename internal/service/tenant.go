package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/auth"
	"github.com/teresa-solution/workspace-service/internal/crypto"
	"github.com/teresa-solution/workspace-service/internal/model"
	"github.com/teresa-solution/workspace-service/internal/monitoring"
	"github.com/teresa-solution/workspace-service/internal/store"
)

// TenantStore is the part of the store used for registration and login.
type TenantStore interface {
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error)
	RegisterTenant(ctx context.Context, tenant *model.Tenant, admin *model.User) error
	GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.User, error)
	GetUserWithTenant(ctx context.Context, id uuid.UUID) (*model.UserWithTenant, error)
}

// TenantService registers tenants and authenticates their users.
type TenantService struct {
	store   TenantStore
	hasher  PasswordHasher
	tokens  *auth.TokenManager
	limiter *auth.LoginLimiter
}

// NewTenantService creates a TenantService. limiter may be nil.
func NewTenantService(store TenantStore, hasher PasswordHasher, tokens *auth.TokenManager, limiter *auth.LoginLimiter) *TenantService {
	return &TenantService{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
	}
}

type RegisterTenantRequest struct {
	TenantName    string `json:"tenantName"`
	Subdomain     string `json:"subdomain"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
	AdminFullName string `json:"adminFullName"`
}

type RegisterTenantResponse struct {
	TenantID  uuid.UUID     `json:"tenantId"`
	Subdomain string        `json:"subdomain"`
	AdminUser model.Profile `json:"adminUser"`
}

// Register creates a tenant on the free plan together with its first
// tenant admin. Either both rows exist afterwards or neither does.
func (s *TenantService) Register(ctx context.Context, req RegisterTenantRequest) (resp *RegisterTenantResponse, err error) {
	start := time.Now()
	defer func() {
		monitoring.TenantsRegistered.WithLabelValues(outcome(err)).Inc()
		if err == nil {
			monitoring.RegistrationDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if blank(req.TenantName, req.Subdomain, req.AdminEmail, req.AdminPassword, req.AdminFullName) {
		return nil, apperr.Invalid("All fields are required")
	}
	subdomain := strings.ToLower(strings.TrimSpace(req.Subdomain))
	if !isValidSubdomain(subdomain) {
		return nil, apperr.Invalid("Invalid subdomain format")
	}
	email := strings.TrimSpace(req.AdminEmail)
	if !isValidEmail(email) {
		return nil, apperr.Invalid("Invalid email format")
	}

	hash, err := s.hasher.Hash(req.AdminPassword)
	if err != nil {
		return nil, internal(ctx, err, "Tenant registration failed")
	}

	tenant := &model.Tenant{
		Name:             strings.TrimSpace(req.TenantName),
		Subdomain:        subdomain,
		Status:           model.TenantStatusActive,
		SubscriptionPlan: model.PlanFree,
		MaxUsers:         model.FreePlanMaxUsers,
		MaxProjects:      model.FreePlanMaxProjects,
	}
	admin := &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.AdminFullName),
		Role:         model.RoleTenantAdmin,
		IsActive:     true,
	}
	if err := s.store.RegisterTenant(ctx, tenant, admin); err != nil {
		if errors.Is(err, store.ErrSubdomainTaken) {
			return nil, apperr.Duplicate("Subdomain already exists")
		}
		return nil, internal(ctx, err, "Tenant registration failed")
	}

	log.Ctx(ctx).Info().
		Str("tenant_id", tenant.ID.String()).
		Str("subdomain", tenant.Subdomain).
		Msg("Tenant registered")

	return &RegisterTenantResponse{
		TenantID:  tenant.ID,
		Subdomain: tenant.Subdomain,
		AdminUser: admin.Profile(),
	}, nil
}

type LoginRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	TenantSubdomain string `json:"tenantSubdomain"`
}

type LoginResponse struct {
	User      model.Profile `json:"user"`
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expiresIn"`
}

var errBadCredentials = apperr.Unauthorized("Invalid credentials")

// Login verifies credentials against the tenant named by subdomain and issues
// a credential. Unknown email and wrong password fail identically.
func (s *TenantService) Login(ctx context.Context, req LoginRequest) (resp *LoginResponse, err error) {
	defer func() {
		monitoring.LoginAttempts.WithLabelValues(outcome(err)).Inc()
	}()

	if blank(req.Email, req.Password, req.TenantSubdomain) {
		return nil, apperr.Invalid("Email, password, and tenant subdomain are required")
	}
	subdomain := strings.ToLower(strings.TrimSpace(req.TenantSubdomain))
	email := strings.TrimSpace(req.Email)

	if !s.limiter.Allowed(ctx, subdomain, email) {
		return nil, apperr.TooManyAttempts("Too many failed login attempts, try again later")
	}

	tenant, err := s.store.GetTenantBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, internal(ctx, err, "Login failed")
	}
	if tenant == nil {
		return nil, apperr.Missing("Tenant not found")
	}
	if !tenant.IsActive() {
		return nil, apperr.Denied("Tenant is not active")
	}

	user, err := s.store.GetUserByEmail(ctx, tenant.ID, email)
	if err != nil {
		return nil, internal(ctx, err, "Login failed")
	}
	if user == nil {
		s.limiter.Fail(ctx, subdomain, email)
		return nil, errBadCredentials
	}
	if !user.IsActive {
		return nil, apperr.Denied("Account is inactive")
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, crypto.ErrMismatch) {
			s.limiter.Fail(ctx, subdomain, email)
			return nil, errBadCredentials
		}
		return nil, internal(ctx, err, "Login failed")
	}

	token, _, err := s.tokens.Issue(auth.Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
	})
	if err != nil {
		return nil, internal(ctx, err, "Login failed")
	}
	s.limiter.Reset(ctx, subdomain, email)

	return &LoginResponse{
		User:      user.Profile(),
		Token:     token,
		ExpiresIn: int64(auth.TokenTTL / time.Second),
	}, nil
}

type TenantSummary struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Subdomain        string    `json:"subdomain"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	MaxUsers         int       `json:"maxUsers"`
	MaxProjects      int       `json:"maxProjects"`
}

type MeResponse struct {
	model.Profile
	Tenant *TenantSummary `json:"tenant"`
}

// Me returns the caller's profile and, for tenant members, their tenant.
func (s *TenantService) Me(ctx context.Context, rc auth.RequestContext) (*MeResponse, error) {
	u, err := s.store.GetUserWithTenant(ctx, rc.UserID())
	if err != nil {
		return nil, internal(ctx, err, "Failed to fetch user")
	}
	if u == nil {
		return nil, apperr.Missing("User not found")
	}

	resp := &MeResponse{Profile: u.User.Profile()}
	if t := u.Tenant; t != nil {
		resp.Tenant = &TenantSummary{
			ID:               t.ID,
			Name:             t.Name,
			Subdomain:        t.Subdomain,
			SubscriptionPlan: t.SubscriptionPlan,
			MaxUsers:         t.MaxUsers,
			MaxProjects:      t.MaxProjects,
		}
	}
	return resp, nil
}
