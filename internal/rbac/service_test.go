package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillpress/quillpress/internal/shared"
)

type mockRepo struct {
	roles  map[string]Role
	perms  map[int64]Permission
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{roles: map[string]Role{}, perms: map[int64]Permission{}, nextID: 1}
}

func (m *mockRepo) FindRolesByNames(_ context.Context, names []string) ([]Role, error) {
	var out []Role
	for _, name := range names {
		if role, ok := m.roles[name]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (m *mockRepo) SearchPermissions(_ context.Context, opts shared.ListOptions) ([]Permission, int, error) {
	var out []Permission
	for _, p := range m.perms {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) GetPermission(_ context.Context, id int64) (Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) CreatePermission(_ context.Context, action, resource string) (Permission, error) {
	for _, p := range m.perms {
		if p.Action == action && p.Resource == resource {
			return Permission{}, shared.ErrDuplicate
		}
	}
	p := Permission{ID: m.nextID, Action: action, Resource: resource}
	m.perms[m.nextID] = p
	m.nextID++
	return p, nil
}

func (m *mockRepo) UpdatePermission(_ context.Context, id int64, action, resource string) (Permission, error) {
	if _, ok := m.perms[id]; !ok {
		return Permission{}, shared.ErrNotFound
	}
	p := Permission{ID: id, Action: action, Resource: resource}
	m.perms[id] = p
	return p, nil
}

func (m *mockRepo) DeletePermission(_ context.Context, id int64) error {
	if _, ok := m.perms[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.perms, id)
	return nil
}

func TestResolveUnionsAndDedupes(t *testing.T) {
	repo := newMockRepo()
	showPost := Permission{ID: 1, Action: "show", Resource: "post"}
	likePost := Permission{ID: 2, Action: "like", Resource: "post"}
	repo.roles["user"] = Role{ID: 1, Name: "user", Permissions: []Permission{showPost, likePost}}
	repo.roles["editor"] = Role{ID: 2, Name: "editor", Permissions: []Permission{showPost}}
	svc := NewService(repo, nil)

	set, err := svc.ResolveEffectivePermissions(context.Background(), []string{"user", "editor"})

	require.NoError(t, err)
	assert.Len(t, set.List(), 2)
	assert.True(t, set.Has("show", "post"))
	assert.True(t, set.Has("like", "post"))
}

func TestResolveDeletedRoleContributesNothing(t *testing.T) {
	repo := newMockRepo()
	repo.roles["user"] = Role{ID: 1, Name: "user", Permissions: []Permission{{ID: 1, Action: "show", Resource: "post"}}}
	svc := NewService(repo, nil)

	set, err := svc.ResolveEffectivePermissions(context.Background(), []string{"user", "ghost"})

	require.NoError(t, err)
	assert.Len(t, set.List(), 1)
}

func TestResolveEmptyRoles(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	set, err := svc.ResolveEffectivePermissions(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, set.List())
}

func TestCreatePermissionDuplicate(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.CreatePermission(context.Background(), "show", "post")
	require.NoError(t, err)

	_, err = svc.CreatePermission(context.Background(), "show", "post")

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 409, appErr.Code)
	assert.Equal(t, "Permission already exists", appErr.Message)
}

func TestCreatePermissionUnknownResource(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.CreatePermission(context.Background(), "show", "widget")

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Code)
	assert.Contains(t, appErr.Errors, "resource")
}

func TestCreatePermissionUnknownAction(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.CreatePermission(context.Background(), "stats", "post")

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Code)
	assert.Contains(t, appErr.Errors, "action")
}

func TestGetPermissionNotFound(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.GetPermission(context.Background(), 42)

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Code)
	assert.Equal(t, "Permission not found", appErr.Message)
}
