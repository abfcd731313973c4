package shared

import (
	"context"
	"slices"
)

// Role names created by the seeder. RoleAdmin bypasses ownership checks.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Principal is the authenticated identity attached to a request after token
// verification. Roles is a snapshot taken at token issuance; it is not
// re-validated against live role state until the token is refreshed.
type Principal struct {
	ID       int64
	Username string
	Roles    []string
}

// HasRole reports whether the principal carries the named role.
func (p Principal) HasRole(name string) bool {
	return slices.Contains(p.Roles, name)
}

// IsAdmin reports whether the principal carries the administrative role.
func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. The second return
// value is false when authentication has not run.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
