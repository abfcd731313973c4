package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillpress/quillpress/internal/shared"
)

type mockRepo struct {
	users  map[int64]*User
	roles  map[int64]string
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: map[int64]*User{}, roles: map[int64]string{}, nextID: 1}
}

func (m *mockRepo) Search(_ context.Context, opts shared.ListOptions) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepo) ExistsByIdentifier(_ context.Context, username, email string, excludeID int64) (string, error) {
	for id, u := range m.users {
		if id == excludeID {
			continue
		}
		if username != "" && u.Username == username {
			return "username", nil
		}
		if email != "" && u.Email == email {
			return "email", nil
		}
	}
	return "", nil
}

func (m *mockRepo) CountRoles(_ context.Context, ids []int64) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := m.roles[id]; ok {
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) Create(_ context.Context, params CreateParams) (*User, error) {
	id := m.nextID
	m.nextID++
	u := &User{ID: id, Username: params.Username, Email: params.Email, IsVerified: true}
	for _, roleID := range params.RoleIDs {
		u.Roles = append(u.Roles, RoleRef{ID: roleID, Name: m.roles[roleID]})
	}
	m.users[id] = u
	return u, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, params UpdateParams) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if params.Email != nil {
		u.Email = *params.Email
	}
	if params.Avatar != nil {
		u.Avatar = *params.Avatar
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func TestCreateRejectsTakenUsername(t *testing.T) {
	repo := newMockRepo()
	repo.users[1] = &User{ID: 1, Username: "ada", Email: "ada@example.com"}
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), CreateInput{Username: "ada", Email: "other@example.com", Password: "secret-pass", RoleIDs: []int64{1}})

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 409, appErr.Code)
	assert.Equal(t, "Username already exists", appErr.Message)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	repo := newMockRepo()
	repo.roles[1] = "user"
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), CreateInput{Username: "ada", Email: "ada@example.com", Password: "secret-pass", RoleIDs: []int64{1, 99}})

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Code)
	assert.Equal(t, []string{"Invalid role id"}, appErr.Errors["roles"])
}

func TestCreateAssignsRoles(t *testing.T) {
	repo := newMockRepo()
	repo.roles[1] = "user"
	repo.roles[2] = "admin"
	svc := NewService(repo, nil)

	user, err := svc.Create(context.Background(), CreateInput{Username: "ada", Email: "ada@example.com", Password: "secret-pass", RoleIDs: []int64{1, 2}})

	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Len(t, user.Roles, 2)
}

func TestUpdateRejectsTakenEmail(t *testing.T) {
	repo := newMockRepo()
	repo.users[1] = &User{ID: 1, Username: "ada", Email: "ada@example.com"}
	repo.users[2] = &User{ID: 2, Username: "bob", Email: "bob@example.com"}
	svc := NewService(repo, nil)

	taken := "ada@example.com"
	_, err := svc.Update(context.Background(), 2, UpdateInput{Email: &taken})

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 409, appErr.Code)
	assert.Equal(t, "Email already exists", appErr.Message)
}

func TestUpdateKeepsOwnEmail(t *testing.T) {
	repo := newMockRepo()
	repo.users[1] = &User{ID: 1, Username: "ada", Email: "ada@example.com"}
	svc := NewService(repo, nil)

	same := "ada@example.com"
	user, err := svc.Update(context.Background(), 1, UpdateInput{Email: &same})

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestGetUnknownUser(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Get(context.Background(), 42)

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Code)
	assert.Equal(t, "User not found", appErr.Message)
}

func TestDeleteUnknownUser(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	err := svc.Delete(context.Background(), 42)

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Code)
}
