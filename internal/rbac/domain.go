// Package rbac implements the permission catalog, role resolution and the
// authorization middleware gating every protected endpoint.
package rbac

// Permission is an immutable (action, resource) capability unit. No two
// records share the same pair.
type Permission struct {
	ID       int64  `json:"id"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
}

// Role is a named bundle of permissions assumable by a principal.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}

type permissionKey struct {
	action   string
	resource string
}

// PermissionSet is a deduplicated effective permission set resolved from a
// principal's role names.
type PermissionSet map[permissionKey]Permission

// Has reports whether the set grants the (action, resource) pair.
func (s PermissionSet) Has(action, resource string) bool {
	_, ok := s[permissionKey{action: action, resource: resource}]
	return ok
}

// List returns the set as a slice. Order is unspecified.
func (s PermissionSet) List() []Permission {
	perms := make([]Permission, 0, len(s))
	for _, p := range s {
		perms = append(perms, p)
	}
	return perms
}
