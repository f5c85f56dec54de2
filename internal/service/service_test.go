package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/auth"
	"github.com/teresa-solution/workspace-service/internal/crypto"
	"github.com/teresa-solution/workspace-service/internal/model"
	"github.com/teresa-solution/workspace-service/internal/store/storetest"
)

const testPassword = "s3cret-pass"

type fixture struct {
	mem      *storetest.Memory
	tokens   *auth.TokenManager
	hasher   *crypto.Hasher
	tenants  *TenantService
	users    *UserService
	projects *ProjectService
	tasks    *TaskService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithLimiter(t, nil)
}

func newFixtureWithLimiter(t *testing.T, limiter *auth.LoginLimiter) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret")
	require.NoError(t, err)

	mem := storetest.NewMemory()
	hasher := crypto.NewHasher(4)
	return &fixture{
		mem:      mem,
		tokens:   tokens,
		hasher:   hasher,
		tenants:  NewTenantService(mem, hasher, tokens, limiter),
		users:    NewUserService(mem, hasher),
		projects: NewProjectService(mem),
		tasks:    NewTaskService(mem),
	}
}

// register creates a tenant named after subdomain and returns the admin's context.
func (f *fixture) register(t *testing.T, subdomain string) (*RegisterTenantResponse, auth.RequestContext) {
	t.Helper()
	resp, err := f.tenants.Register(context.Background(), RegisterTenantRequest{
		TenantName:    subdomain + " Inc",
		Subdomain:     subdomain,
		AdminEmail:    "admin@" + subdomain + ".test",
		AdminPassword: testPassword,
		AdminFullName: "Admin " + subdomain,
	})
	require.NoError(t, err)
	return resp, f.login(t, subdomain, "admin@"+subdomain+".test")
}

// login authenticates through the service and turns the token into a RequestContext.
func (f *fixture) login(t *testing.T, subdomain, email string) auth.RequestContext {
	t.Helper()
	resp, err := f.tenants.Login(context.Background(), LoginRequest{
		Email:           email,
		Password:        testPassword,
		TenantSubdomain: subdomain,
	})
	require.NoError(t, err)
	rc, err := auth.Authenticate(f.tokens, resp.Token)
	require.NoError(t, err)
	return rc
}

// addMember creates a plain user in the admin's tenant and logs them in.
func (f *fixture) addMember(t *testing.T, admin auth.RequestContext, subdomain, name string) (*model.Profile, auth.RequestContext) {
	t.Helper()
	tenantID, _ := admin.Scope().TenantID()
	email := name + "@" + subdomain + ".test"
	profile, err := f.users.Add(context.Background(), admin, tenantID, AddUserRequest{
		Email:    email,
		Password: testPassword,
		FullName: name,
	})
	require.NoError(t, err)
	return profile, f.login(t, subdomain, email)
}

func superAdmin(t *testing.T) auth.RequestContext {
	t.Helper()
	rc, err := auth.ScopeIdentity(auth.Identity{UserID: uuid.New(), Role: model.RoleSuperAdmin})
	require.NoError(t, err)
	return rc
}

func assertKind(t *testing.T, kind apperr.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
}

// memRedis is a minimal counter store for the login limiter.
type memRedis struct {
	counts map[string]int64
}

func (r *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	n, ok := r.counts[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(n, 10), nil)
}

func (r *memRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	r.counts[key]++
	return redis.NewIntResult(r.counts[key], nil)
}

func (r *memRedis) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (r *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(r.counts, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (r *memRedis) Close() error { return nil }
