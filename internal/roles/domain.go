// Package roles implements role management: CRUD over named roles and the
// assignment of catalog permissions to them.
package roles

import (
	"time"

	"github.com/quillpress/quillpress/internal/rbac"
)

// Role is the public projection of a role record with its grants.
type Role struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Permissions []rbac.Permission `json:"permissions"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
