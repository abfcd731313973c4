package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillpress/quillpress/internal/shared"
)

func newTestService() *Service {
	return NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	principal := shared.Principal{ID: 42, Username: "ada", Roles: []string{"user", "editor"}}

	raw, err := svc.IssueAccessToken(principal)
	require.NoError(t, err)

	got, err := svc.Verify(raw, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, got.ID)
	assert.Equal(t, principal.Username, got.Username)
	assert.Equal(t, principal.Roles, got.Roles)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	principal := shared.Principal{ID: 7, Username: "bob", Roles: []string{"user"}}

	raw, err := svc.IssueRefreshToken(principal)
	require.NoError(t, err)

	got, err := svc.Verify(raw, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, got.ID)
}

func TestKindMismatchRejected(t *testing.T) {
	svc := newTestService()
	principal := shared.Principal{ID: 1, Username: "ada", Roles: []string{"user"}}

	access, err := svc.IssueAccessToken(principal)
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(principal)
	require.NoError(t, err)

	_, err = svc.Verify(access, KindRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = svc.Verify(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExpiredToken(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", -time.Minute, -time.Minute)
	raw, err := svc.IssueAccessToken(shared.Principal{ID: 1, Username: "ada"})
	require.NoError(t, err)

	_, err = svc.Verify(raw, KindAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWrongSecretRejected(t *testing.T) {
	svc := newTestService()
	raw, err := svc.IssueAccessToken(shared.Principal{ID: 1, Username: "ada"})
	require.NoError(t, err)

	other := NewService("different-secret", "refresh-secret", 15*time.Minute, time.Hour)
	_, err = other.Verify(raw, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGarbageRejected(t *testing.T) {
	svc := newTestService()

	_, err := svc.Verify("not-a-jwt", KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
