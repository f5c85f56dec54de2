package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/auth"
	"github.com/teresa-solution/workspace-service/internal/model"
	"github.com/teresa-solution/workspace-service/internal/monitoring"
	"github.com/teresa-solution/workspace-service/internal/quota"
	"github.com/teresa-solution/workspace-service/internal/store"
)

// UserStore is the part of the store used for user management.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, tenantID uuid.UUID) ([]model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id, tenantID uuid.UUID) error
}

// UserService manages the members of a tenant.
type UserService struct {
	store  UserStore
	hasher PasswordHasher
}

func NewUserService(store UserStore, hasher PasswordHasher) *UserService {
	return &UserService{store: store, hasher: hasher}
}

type AddUserRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	FullName string     `json:"fullName"`
	Role     model.Role `json:"role"`
}

// assignable reports whether r may be given to a tenant member.
func assignable(r model.Role) bool {
	return r.Valid() && r != model.RoleSuperAdmin
}

// Add creates a user in tenantID. Only a tenant admin of that same tenant may
// do so, and only while the tenant is below its user cap.
func (s *UserService) Add(ctx context.Context, rc auth.RequestContext, tenantID uuid.UUID, req AddUserRequest) (*model.Profile, error) {
	if err := auth.RequireRole(rc, model.RoleTenantAdmin); err != nil {
		return nil, err
	}
	if blank(req.Email, req.Password, req.FullName) {
		return nil, apperr.Invalid("Missing required fields")
	}
	if own, ok := rc.Scope().TenantID(); !ok || own != tenantID {
		return nil, apperr.Denied("Unauthorized tenant access")
	}

	email := strings.TrimSpace(req.Email)
	if !isValidEmail(email) {
		return nil, apperr.Invalid("Invalid email format")
	}
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if !assignable(role) {
		return nil, apperr.Invalid("Invalid role")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, internal(ctx, err, "Failed to create user")
	}
	user := &model.User{
		TenantID:     &tenantID,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, quota.ErrExceeded):
			monitoring.QuotaAlert(ctx, tenantID, string(quota.Users))
			return nil, apperr.Denied("Subscription user limit reached")
		case errors.Is(err, store.ErrEmailTaken):
			return nil, apperr.Duplicate("Email already exists in this tenant")
		}
		return nil, internal(ctx, err, "Failed to create user")
	}

	log.Ctx(ctx).Info().
		Str("tenant_id", tenantID.String()).
		Str("user_id", user.ID.String()).
		Msg("User created")
	profile := user.Profile()
	return &profile, nil
}

// List returns the users of tenantID, newest first.
func (s *UserService) List(ctx context.Context, rc auth.RequestContext, tenantID uuid.UUID) ([]model.Profile, error) {
	if !rc.Scope().Allows(tenantID) {
		return nil, apperr.Denied("Unauthorized access")
	}
	users, err := s.store.ListUsers(ctx, tenantID)
	if err != nil {
		return nil, internal(ctx, err, "Failed to fetch users")
	}
	profiles := make([]model.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}

type UpdateUserRequest struct {
	FullName model.Optional[string]     `json:"fullName"`
	Role     model.Optional[model.Role] `json:"role"`
	IsActive model.Optional[bool]       `json:"isActive"`
}

// visible reports whether u can be seen from scope. Users without a tenant
// are only visible to unrestricted callers.
func visible(scope auth.Scope, u *model.User) bool {
	if u.TenantID == nil {
		return scope.Unrestricted()
	}
	return scope.Allows(*u.TenantID)
}

// Update applies a merge-patch to a user. Tenant admins may change any
// field of a member of their tenant; everyone else may only rename themselves.
func (s *UserService) Update(ctx context.Context, rc auth.RequestContext, id uuid.UUID, req UpdateUserRequest) (*model.Profile, error) {
	target, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, internal(ctx, err, "Failed to update user")
	}
	if target == nil || !visible(rc.Scope(), target) {
		return nil, apperr.Missing("User not found")
	}

	admin := auth.RequireRole(rc, model.RoleTenantAdmin) == nil
	if !admin && rc.UserID() != target.ID {
		return nil, apperr.Denied("Not authorized")
	}
	if !admin && (req.Role.Present() || req.IsActive.Present()) {
		return nil, apperr.Denied("Only tenant admins can change role or status")
	}
	if req.Role.Present() && !assignable(req.Role.Value) {
		return nil, apperr.Invalid("Invalid role")
	}
	if req.FullName.Present() && blank(req.FullName.Value) {
		return nil, apperr.Invalid("Full name cannot be empty")
	}

	target.FullName = strings.TrimSpace(req.FullName.Merge(target.FullName))
	target.Role = req.Role.Merge(target.Role)
	target.IsActive = req.IsActive.Merge(target.IsActive)

	if err := s.store.UpdateUser(ctx, target); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Missing("User not found")
		}
		return nil, internal(ctx, err, "Failed to update user")
	}
	profile := target.Profile()
	return &profile, nil
}

// Delete removes a user from the caller's tenant and clears the user's task
// assignments. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, rc auth.RequestContext, id uuid.UUID) error {
	if err := auth.RequireRole(rc, model.RoleTenantAdmin); err != nil {
		return err
	}
	if rc.UserID() == id {
		return apperr.Denied("Cannot delete yourself")
	}
	tenantID, ok := rc.Scope().TenantID()
	if !ok {
		return apperr.Denied("Tenant access denied")
	}

	if err := s.store.DeleteUser(ctx, id, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Missing("User not found")
		}
		return internal(ctx, err, "Failed to delete user")
	}

	log.Ctx(ctx).Info().
		Str("tenant_id", tenantID.String()).
		Str("user_id", id.String()).
		Msg("User deleted")
	return nil
}
