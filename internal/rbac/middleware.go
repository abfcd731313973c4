package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quillpress/quillpress/internal/platform/httpx"
	"github.com/quillpress/quillpress/internal/shared"
	"github.com/quillpress/quillpress/internal/token"
)

// Verifier checks a raw bearer token and extracts the principal.
type Verifier interface {
	Verify(raw string, kind token.Kind) (shared.Principal, error)
}

// Resolver computes the effective permission set for a role-name snapshot.
type Resolver interface {
	ResolveEffectivePermissions(ctx context.Context, roleNames []string) (PermissionSet, error)
}

// OwnerLookup loads the owning principal id of the record identified by id.
// It returns the domain's own *shared.Error when the record is absent.
type OwnerLookup func(ctx context.Context, id int64) (int64, error)

// Middleware wires authentication and authorization gates for HTTP handlers.
type Middleware struct {
	Tokens   Verifier
	Resolver Resolver
	Logger   *slog.Logger
}

// Authenticate validates the bearer access token and stores the principal in
// the request context. Every failure mode collapses to a 401 with a generic
// message.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			httpx.RespondError(w, m.Logger, shared.Unauthorized("Token is not provided"))
			return
		}
		principal, err := m.Tokens.Verify(raw, token.KindAccess)
		if err != nil {
			httpx.RespondError(w, m.Logger, shared.Unauthorized("Token is invalid or expired"))
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize returns a gate requiring the (action, resource) pair. It assumes
// Authenticate already ran; the request fails 401 when no principal is
// present. Denials carry no detail about the catalog shape.
func (m Middleware) Authorize(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, m.Logger, shared.Unauthorized("Token is not provided"))
				return
			}
			granted, err := m.Resolver.ResolveEffectivePermissions(r.Context(), principal.Roles)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authorize", slog.String("action", action), slog.String("resource", resource), slog.Any("error", err))
				}
				httpx.RespondError(w, m.Logger, err)
				return
			}
			if !granted.Has(action, resource) {
				httpx.RespondError(w, m.Logger, shared.PermissionDenied())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner gates record-scoped actions: the record loaded through lookup
// must belong to the requesting principal unless the principal carries the
// administrative role. An ownership failure is indistinguishable from a
// missing permission.
func (m Middleware) RequireOwner(param string, lookup OwnerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, m.Logger, shared.Unauthorized("Token is not provided"))
				return
			}
			if principal.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil {
				httpx.RespondError(w, m.Logger, shared.InvalidID(param, "Invalid id"))
				return
			}
			ownerID, err := lookup(r.Context(), id)
			if err != nil {
				httpx.RespondError(w, m.Logger, err)
				return
			}
			if ownerID != principal.ID {
				httpx.RespondError(w, m.Logger, shared.PermissionDenied())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin restricts an endpoint to principals carrying the
// administrative role regardless of catalog grants.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := shared.PrincipalFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, m.Logger, shared.Unauthorized("Token is not provided"))
			return
		}
		if !principal.IsAdmin() {
			httpx.RespondError(w, m.Logger, shared.PermissionDenied())
			return
		}
		next.ServeHTTP(w, r)
	})
}
