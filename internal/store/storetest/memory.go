// Package storetest provides an in-memory stand-in for the Postgres store,
// for tests of the layers above it.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teresa-solution/workspace-service/internal/model"
	"github.com/teresa-solution/workspace-service/internal/quota"
	"github.com/teresa-solution/workspace-service/internal/store"
)

// Memory mirrors the semantics of *store.Store, including the tenant-scoped
// conditional writes and the atomic quota check, behind a single mutex.
type Memory struct {
	mu       sync.Mutex
	tenants  map[uuid.UUID]model.Tenant
	users    map[uuid.UUID]model.User
	projects map[uuid.UUID]model.Project
	tasks    map[uuid.UUID]model.Task
	clock    time.Time

	// Err, when set, is returned by every call.
	Err error
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		tenants:  map[uuid.UUID]model.Tenant{},
		users:    map[uuid.UUID]model.User{},
		projects: map[uuid.UUID]model.Project{},
		tasks:    map[uuid.UUID]model.Task{},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// now returns strictly increasing timestamps so "newest first" is deterministic.
func (m *Memory) now() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// memUsage reads usage while m.mu is held.
type memUsage struct{ m *Memory }

func (u memUsage) Usage(_ context.Context, tenantID uuid.UUID, r quota.Resource) (quota.Usage, error) {
	t, ok := u.m.tenants[tenantID]
	if !ok {
		return quota.Usage{}, store.ErrNotFound
	}
	var usage quota.Usage
	switch r {
	case quota.Users:
		usage.Limit = t.MaxUsers
		for _, user := range u.m.users {
			if user.BelongsTo(tenantID) {
				usage.Count++
			}
		}
	case quota.Projects:
		usage.Limit = t.MaxProjects
		for _, p := range u.m.projects {
			if p.TenantID == tenantID {
				usage.Count++
			}
		}
	default:
		return quota.Usage{}, fmt.Errorf("unknown quota resource %q", r)
	}
	return usage, nil
}

func (m *Memory) emailTaken(tenantID uuid.UUID, email string) bool {
	for _, u := range m.users {
		if u.BelongsTo(tenantID) && u.Email == email {
			return true
		}
	}
	return false
}

// SeedTenant stores t as-is, assigning an ID when missing.
func (m *Memory) SeedTenant(t model.Tenant) model.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = m.now()
	t.UpdatedAt = t.CreatedAt
	m.tenants[t.ID] = t
	return t
}

// SeedUser stores u as-is, bypassing quota, assigning an ID when missing.
func (m *Memory) SeedUser(u model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return u
}

// CountUsers returns the number of users in tenantID.
func (m *Memory) CountUsers(tenantID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	usage, _ := memUsage{m}.Usage(context.Background(), tenantID, quota.Users)
	return usage.Count
}

// CountTenants returns the number of tenants with subdomain.
func (m *Memory) CountTenants(subdomain string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tenants {
		if t.Subdomain == subdomain {
			n++
		}
	}
	return n
}

func (m *Memory) GetTenantByID(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	t, ok := m.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) GetTenantBySubdomain(_ context.Context, subdomain string) (*model.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, t := range m.tenants {
		if t.Subdomain == subdomain {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *Memory) RegisterTenant(_ context.Context, tenant *model.Tenant, admin *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, t := range m.tenants {
		if t.Subdomain == tenant.Subdomain {
			return store.ErrSubdomainTaken
		}
	}
	now := m.now()
	tenant.ID, tenant.CreatedAt, tenant.UpdatedAt = uuid.New(), now, now
	admin.ID, admin.CreatedAt, admin.UpdatedAt = uuid.New(), now, now
	admin.TenantID = &tenant.ID
	m.tenants[tenant.ID] = *tenant
	m.users[admin.ID] = *admin
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, tenantID uuid.UUID, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.BelongsTo(tenantID) && u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetUserWithTenant(_ context.Context, id uuid.UUID) (*model.UserWithTenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	out := &model.UserWithTenant{User: u}
	if u.TenantID != nil {
		if t, ok := m.tenants[*u.TenantID]; ok {
			out.Tenant = &t
		}
	}
	return out, nil
}

func (m *Memory) UserInTenant(_ context.Context, userID, tenantID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	u, ok := m.users[userID]
	return ok && u.BelongsTo(tenantID), nil
}

func (m *Memory) ListUsers(_ context.Context, tenantID uuid.UUID) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	users := []model.User{}
	for _, u := range m.users {
		if u.BelongsTo(tenantID) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (m *Memory) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if user.TenantID == nil {
		return fmt.Errorf("user tenant is required")
	}
	if err := quota.Enforce(ctx, memUsage{m}, *user.TenantID, quota.Users); err != nil {
		return err
	}
	if m.emailTaken(*user.TenantID, user.Email) {
		return store.ErrEmailTaken
	}
	now := m.now()
	user.ID, user.CreatedAt, user.UpdatedAt = uuid.New(), now, now
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cur, ok := m.users[user.ID]
	if !ok || !sameTenant(cur.TenantID, user.TenantID) {
		return store.ErrNotFound
	}
	cur.FullName, cur.Role, cur.IsActive = user.FullName, user.Role, user.IsActive
	cur.UpdatedAt = m.now()
	user.UpdatedAt = cur.UpdatedAt
	m.users[cur.ID] = cur
	return nil
}

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *Memory) DeleteUser(_ context.Context, id, tenantID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.users[id]
	if !ok || !u.BelongsTo(tenantID) {
		return store.ErrNotFound
	}
	for tid, t := range m.tasks {
		if t.TenantID == tenantID && t.AssignedTo != nil && *t.AssignedTo == id {
			t.AssignedTo = nil
			m.tasks[tid] = t
		}
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateProject(ctx context.Context, project *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := quota.Enforce(ctx, memUsage{m}, project.TenantID, quota.Projects); err != nil {
		return err
	}
	now := m.now()
	project.ID, project.CreatedAt, project.UpdatedAt = uuid.New(), now, now
	m.projects[project.ID] = *project
	return nil
}

func (m *Memory) GetProject(_ context.Context, id uuid.UUID) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListProjects(_ context.Context, tenantID *uuid.UUID) ([]model.ProjectListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	projects := []model.ProjectListItem{}
	for _, p := range m.projects {
		if tenantID != nil && p.TenantID != *tenantID {
			continue
		}
		item := model.ProjectListItem{Project: p}
		if p.CreatedBy != nil {
			if u, ok := m.users[*p.CreatedBy]; ok {
				name := u.FullName
				item.CreatorName = &name
			}
		}
		projects = append(projects, item)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	return projects, nil
}

func (m *Memory) UpdateProject(_ context.Context, project *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cur, ok := m.projects[project.ID]
	if !ok || cur.TenantID != project.TenantID {
		return store.ErrNotFound
	}
	cur.Name, cur.Description, cur.Status = project.Name, project.Description, project.Status
	cur.UpdatedAt = m.now()
	project.UpdatedAt = cur.UpdatedAt
	m.projects[cur.ID] = cur
	return nil
}

func (m *Memory) DeleteProject(_ context.Context, id, tenantID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	p, ok := m.projects[id]
	if !ok || p.TenantID != tenantID {
		return store.ErrNotFound
	}
	delete(m.projects, id)
	for tid, t := range m.tasks {
		if t.ProjectID == id {
			delete(m.tasks, tid)
		}
	}
	return nil
}

func (m *Memory) CreateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	now := m.now()
	task.ID, task.CreatedAt, task.UpdatedAt = uuid.New(), now, now
	m.tasks[task.ID] = *task
	return nil
}

func (m *Memory) GetTask(_ context.Context, id uuid.UUID) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) ListTasks(_ context.Context, projectID uuid.UUID) ([]model.TaskListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	tasks := []model.TaskListItem{}
	for _, t := range m.tasks {
		if t.ProjectID != projectID {
			continue
		}
		item := model.TaskListItem{Task: t}
		if t.AssignedTo != nil {
			if u, ok := m.users[*t.AssignedTo]; ok {
				name := u.FullName
				item.AssigneeName = &name
			}
		}
		tasks = append(tasks, item)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return taskLess(tasks[i].Task, tasks[j].Task) })
	return tasks, nil
}

// taskLess matches the ORDER BY of store.ListTasks.
func taskLess(a, b model.Task) bool {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate == nil && b.DueDate != nil:
		return false
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
		return a.DueDate.Before(*b.DueDate)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (m *Memory) UpdateTaskStatus(_ context.Context, id, tenantID uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	t, ok := m.tasks[id]
	if !ok || t.TenantID != tenantID {
		return store.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = m.now()
	m.tasks[id] = t
	return nil
}

func (m *Memory) UpdateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cur, ok := m.tasks[task.ID]
	if !ok || cur.TenantID != task.TenantID {
		return store.ErrNotFound
	}
	cur.Title, cur.Description, cur.Status, cur.Priority = task.Title, task.Description, task.Status, task.Priority
	cur.AssignedTo, cur.DueDate = task.AssignedTo, task.DueDate
	cur.UpdatedAt = m.now()
	task.UpdatedAt = cur.UpdatedAt
	m.tasks[cur.ID] = cur
	return nil
}
