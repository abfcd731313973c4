package rbac

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillpress/quillpress/internal/shared"
	"github.com/quillpress/quillpress/internal/token"
)

type mockVerifier struct {
	principal shared.Principal
	err       error
}

func (m mockVerifier) Verify(raw string, kind token.Kind) (shared.Principal, error) {
	return m.principal, m.err
}

type mockResolver struct {
	set PermissionSet
	err error
}

func (m mockResolver) ResolveEffectivePermissions(context.Context, []string) (PermissionSet, error) {
	return m.set, m.err
}

func grantedSet(pairs ...[2]string) PermissionSet {
	set := make(PermissionSet)
	for i, pair := range pairs {
		set[permissionKey{action: pair[0], resource: pair[1]}] = Permission{ID: int64(i + 1), Action: pair[0], Resource: pair[1]}
	}
	return set
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type errorBody struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw := Middleware{Tokens: mockVerifier{}, Logger: testLogger()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)

	mw.Authenticate(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Token is not provided", body.Message)
	assert.Nil(t, body.Errors)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	mw := Middleware{Tokens: mockVerifier{err: token.ErrTokenExpired}, Logger: testLogger()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer stale")

	mw.Authenticate(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is invalid or expired", decodeError(t, rec).Message)
}

func TestAuthenticateStoresPrincipal(t *testing.T) {
	principal := shared.Principal{ID: 1, Username: "ada", Roles: []string{"user"}}
	mw := Middleware{Tokens: mockVerifier{principal: principal}, Logger: testLogger()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer good")

	var seen shared.Principal
	mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = shared.PrincipalFromContext(r.Context())
	})).ServeHTTP(rec, req)

	assert.Equal(t, principal, seen)
}

func TestAuthorizeDenied(t *testing.T) {
	mw := Middleware{
		Resolver: mockResolver{set: grantedSet([2]string{"show", "post"})},
		Logger:   testLogger(),
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/posts/1", nil)
	ctx := shared.ContextWithPrincipal(req.Context(), shared.Principal{ID: 1, Roles: []string{"user"}})

	mw.Authorize("remove", "post")(okHandler()).ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Permission denied", decodeError(t, rec).Message)
}

func TestAuthorizeGranted(t *testing.T) {
	mw := Middleware{
		Resolver: mockResolver{set: grantedSet([2]string{"remove", "post"})},
		Logger:   testLogger(),
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/posts/1", nil)
	ctx := shared.ContextWithPrincipal(req.Context(), shared.Principal{ID: 1, Roles: []string{"admin"}})

	mw.Authorize("remove", "post")(okHandler()).ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorizeWithoutPrincipal(t *testing.T) {
	mw := Middleware{Resolver: mockResolver{set: grantedSet()}, Logger: testLogger()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)

	mw.Authorize("show", "user")(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func ownerRequest(t *testing.T, principal shared.Principal, id string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/users/"+id, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	return req.WithContext(shared.ContextWithPrincipal(ctx, principal))
}

func TestRequireOwnerMismatch(t *testing.T) {
	mw := Middleware{Logger: testLogger()}
	lookup := func(ctx context.Context, id int64) (int64, error) { return 99, nil }
	rec := httptest.NewRecorder()

	mw.RequireOwner("id", lookup)(okHandler()).ServeHTTP(rec, ownerRequest(t, shared.Principal{ID: 1, Roles: []string{"user"}}, "5"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Permission denied", decodeError(t, rec).Message)
}

func TestRequireOwnerMatch(t *testing.T) {
	mw := Middleware{Logger: testLogger()}
	lookup := func(ctx context.Context, id int64) (int64, error) { return 1, nil }
	rec := httptest.NewRecorder()

	mw.RequireOwner("id", lookup)(okHandler()).ServeHTTP(rec, ownerRequest(t, shared.Principal{ID: 1, Roles: []string{"user"}}, "5"))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireOwnerAdminBypass(t *testing.T) {
	mw := Middleware{Logger: testLogger()}
	lookup := func(ctx context.Context, id int64) (int64, error) {
		t.Fatal("lookup should not run for admins")
		return 0, nil
	}
	rec := httptest.NewRecorder()

	mw.RequireOwner("id", lookup)(okHandler()).ServeHTTP(rec, ownerRequest(t, shared.Principal{ID: 2, Roles: []string{shared.RoleAdmin}}, "5"))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireOwnerInvalidID(t *testing.T) {
	mw := Middleware{Logger: testLogger()}
	lookup := func(ctx context.Context, id int64) (int64, error) { return 1, nil }
	rec := httptest.NewRecorder()

	mw.RequireOwner("id", lookup)(okHandler()).ServeHTTP(rec, ownerRequest(t, shared.Principal{ID: 1, Roles: []string{"user"}}, "abc"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireOwnerLookupNotFound(t *testing.T) {
	mw := Middleware{Logger: testLogger()}
	lookup := func(ctx context.Context, id int64) (int64, error) {
		return 0, shared.NotFound("User not found")
	}
	rec := httptest.NewRecorder()

	mw.RequireOwner("id", lookup)(okHandler()).ServeHTTP(rec, ownerRequest(t, shared.Principal{ID: 1, Roles: []string{"user"}}, "5"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	mw := Middleware{Logger: testLogger()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	ctx := shared.ContextWithPrincipal(req.Context(), shared.Principal{ID: 1, Roles: []string{"user"}})

	mw.RequireAdmin(okHandler()).ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	ctx = shared.ContextWithPrincipal(req.Context(), shared.Principal{ID: 1, Roles: []string{shared.RoleAdmin}})
	mw.RequireAdmin(okHandler()).ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
}
