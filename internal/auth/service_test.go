package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillpress/quillpress/internal/rbac"
	"github.com/quillpress/quillpress/internal/shared"
	"github.com/quillpress/quillpress/internal/token"
)

type mockRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: map[int64]*User{}, nextID: 1}
}

func (m *mockRepo) findWhere(match func(*User) bool) (*User, error) {
	for _, u := range m.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	return m.findWhere(func(u *User) bool { return u.Email == email })
}

func (m *mockRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*User, error) {
	return m.findWhere(func(u *User) bool { return u.Username == username || u.Email == email })
}

func (m *mockRepo) FindByRefreshToken(_ context.Context, tok string) (*User, error) {
	return m.findWhere(func(u *User) bool { return u.RefreshToken != nil && *u.RefreshToken == tok })
}

func (m *mockRepo) CreateUser(_ context.Context, params CreateUserParams) (*User, error) {
	for _, u := range m.users {
		if u.Username == params.Username || u.Email == params.Email {
			return nil, shared.ErrDuplicate
		}
	}
	id := m.nextID
	m.nextID++
	expires := params.VerificationTokenExpires
	verification := params.VerificationToken
	u := &User{
		ID:                       id,
		Username:                 params.Username,
		Email:                    params.Email,
		PasswordHash:             params.PasswordHash,
		VerificationToken:        &verification,
		VerificationTokenExpires: &expires,
		Roles:                    []string{params.DefaultRole},
	}
	m.users[id] = u
	copied := *u
	return &copied, nil
}

func (m *mockRepo) StoreRefreshToken(_ context.Context, userID int64, tok string) error {
	u, ok := m.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.RefreshToken = &tok
	return nil
}

func (m *mockRepo) ClearRefreshToken(_ context.Context, tok string) error {
	for _, u := range m.users {
		if u.RefreshToken != nil && *u.RefreshToken == tok {
			u.RefreshToken = nil
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepo) MarkVerified(_ context.Context, tok string) error {
	for _, u := range m.users {
		if u.VerificationToken != nil && *u.VerificationToken == tok &&
			u.VerificationTokenExpires != nil && u.VerificationTokenExpires.After(time.Now()) {
			u.IsVerified = true
			u.VerificationToken = nil
			u.VerificationTokenExpires = nil
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepo) SetVerificationToken(_ context.Context, email, tok string, expires time.Time) (*User, error) {
	for _, u := range m.users {
		if u.Email == email && !u.IsVerified {
			u.VerificationToken = &tok
			u.VerificationTokenExpires = &expires
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) SetResetToken(_ context.Context, email, tok string, expires time.Time) (*User, error) {
	for _, u := range m.users {
		if u.Email == email && u.IsVerified {
			u.ResetToken = &tok
			u.ResetTokenExpires = &expires
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) ResetPassword(_ context.Context, tok, passwordHash string) error {
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == tok &&
			u.ResetTokenExpires != nil && u.ResetTokenExpires.After(time.Now()) {
			u.PasswordHash = passwordHash
			u.ResetToken = nil
			u.ResetTokenExpires = nil
			return nil
		}
	}
	return shared.ErrNotFound
}

type mockResolver struct{}

func (mockResolver) ResolveEffectivePermissions(context.Context, []string) (rbac.PermissionSet, error) {
	return rbac.PermissionSet{}, nil
}

type mailRecorder struct {
	sent []string
}

func (m *mailRecorder) EnqueueSendEmail(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, subject)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mailRecorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMockRepo()
	mail := &mailRecorder{}
	tokens := token.NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, NewBlacklist(client), tokens, mockResolver{}, mail, "http://localhost:5173", logger)
	return svc, repo, mail
}

func signUpAndVerify(t *testing.T, svc *Service, repo *mockRepo) *User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.SignUp(ctx, SignUpParams{Username: "ada", Email: "ada@example.com", Password: "secret-pass"}))
	user, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.VerificationToken)
	require.NoError(t, svc.VerifyEmail(ctx, *user.VerificationToken))
	return user
}

func TestSignUpVerifySignInHappyPath(t *testing.T) {
	svc, repo, mail := newTestService(t)
	signUpAndVerify(t, svc, repo)
	require.Equal(t, []string{"Verify Email"}, mail.sent)

	result, err := svc.SignIn(context.Background(), "ada@example.com", "secret-pass")

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, []string{shared.RoleUser}, result.Roles)
}

func TestSignUpExistingAccountIsSilent(t *testing.T) {
	svc, repo, mail := newTestService(t)
	signUpAndVerify(t, svc, repo)
	mail.sent = nil

	err := svc.SignUp(context.Background(), SignUpParams{Username: "ada", Email: "other@example.com", Password: "secret-pass"})

	require.NoError(t, err)
	assert.Empty(t, mail.sent)
	assert.Len(t, repo.users, 1)
}

func TestSignInWrongPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	signUpAndVerify(t, svc, repo)

	_, err := svc.SignIn(context.Background(), "ada@example.com", "wrong-password")

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Code)
	assert.Equal(t, "Invalid email or password", appErr.Message)
}

func TestSignInUnknownEmailSameMessage(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SignIn(context.Background(), "ghost@example.com", "whatever-pass")

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Invalid email or password", appErr.Message)
}

func TestSignOutThenRefreshRejected(t *testing.T) {
	svc, repo, _ := newTestService(t)
	signUpAndVerify(t, svc, repo)
	result, err := svc.SignIn(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), result.RefreshToken))

	_, err = svc.Refresh(context.Background(), result.RefreshToken)
	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Code)
	assert.Equal(t, "Invalid token", appErr.Message)
}

func TestRefreshMintsAccessToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	signUpAndVerify(t, svc, repo)
	result, err := svc.SignIn(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)

	access, err := svc.Refresh(context.Background(), result.RefreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, access)
}

func TestSecondSignInInvalidatesFirstRefreshToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	signUpAndVerify(t, svc, repo)
	first, err := svc.SignIn(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)
	second, err := svc.SignIn(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Code)

	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshMissingToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "")

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Token is missing", appErr.Message)
}

func TestVerifyEmailInvalidToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.VerifyEmail(context.Background(), "bogus")

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Code)
	assert.Equal(t, "Invalid verification token", appErr.Message)
}

func TestResendVerificationUnknownEmailIsSilent(t *testing.T) {
	svc, _, mail := newTestService(t)

	err := svc.ResendVerification(context.Background(), "ghost@example.com")

	require.NoError(t, err)
	assert.Empty(t, mail.sent)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, mail := newTestService(t)
	signUpAndVerify(t, svc, repo)
	mail.sent = nil

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ada@example.com"))
	require.Equal(t, []string{"Reset Password"}, mail.sent)

	user, err := repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.ResetToken)

	require.NoError(t, svc.ResetPassword(context.Background(), *user.ResetToken, "brand-new-pass"))

	updated, err := repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("brand-new-pass")))
	assert.Nil(t, updated.ResetToken)
}

func TestResetPasswordInvalidToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.ResetPassword(context.Background(), "bogus", "brand-new-pass")

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Code)
	assert.Equal(t, "Invalid reset token", appErr.Message)
}

func TestRequestResetUnverifiedEmailIsSilent(t *testing.T) {
	svc, _, mail := newTestService(t)
	require.NoError(t, svc.SignUp(context.Background(), SignUpParams{Username: "bob", Email: "bob@example.com", Password: "secret-pass"}))
	mail.sent = nil

	err := svc.RequestPasswordReset(context.Background(), "bob@example.com")

	require.NoError(t, err)
	assert.Empty(t, mail.sent)
}
