package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/quillpress/quillpress/internal/shared"
)

// Service orchestrates catalog operations and role resolution.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service. The audit logger may be nil in tests.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ResolveEffectivePermissions unions the permission sets of every role in
// roleNames, deduplicated by (action, resource). A name that no longer
// resolves to a role contributes nothing: the role was deleted after the
// token was issued and the design favours availability over forcing a
// re-login.
func (s *Service) ResolveEffectivePermissions(ctx context.Context, roleNames []string) (PermissionSet, error) {
	set := make(PermissionSet)
	if len(roleNames) == 0 {
		return set, nil
	}
	roles, err := s.repo.FindRolesByNames(ctx, roleNames)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve permissions: %w", err)
	}
	for _, role := range roles {
		for _, p := range role.Permissions {
			set[permissionKey{action: p.Action, resource: p.Resource}] = p
		}
	}
	return set, nil
}

// SearchPermissions returns a page of the catalog.
func (s *Service) SearchPermissions(ctx context.Context, opts shared.ListOptions) ([]Permission, shared.Meta, error) {
	perms, total, err := s.repo.SearchPermissions(ctx, opts)
	if err != nil {
		return nil, shared.Meta{}, err
	}
	return perms, shared.NewMeta(opts, total), nil
}

// GetPermission fetches a catalog entry by id.
func (s *Service) GetPermission(ctx context.Context, id int64) (Permission, error) {
	p, err := s.repo.GetPermission(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return Permission{}, shared.NotFound("Permission not found")
	}
	return p, err
}

// CreatePermission inserts a catalog entry after checking the action and
// resource against the fixed vocabulary.
func (s *Service) CreatePermission(ctx context.Context, action, resource string) (Permission, error) {
	if verr := validatePair(action, resource); verr != nil {
		return Permission{}, verr
	}
	p, err := s.repo.CreatePermission(ctx, action, resource)
	if errors.Is(err, shared.ErrDuplicate) {
		return Permission{}, shared.Conflict("Permission already exists")
	}
	if err == nil {
		s.recordAudit(ctx, "permission.create", p.ID, map[string]any{"action": action, "resource": resource})
	}
	return p, err
}

// UpdatePermission rewrites a catalog entry.
func (s *Service) UpdatePermission(ctx context.Context, id int64, action, resource string) (Permission, error) {
	if verr := validatePair(action, resource); verr != nil {
		return Permission{}, verr
	}
	p, err := s.repo.UpdatePermission(ctx, id, action, resource)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return Permission{}, shared.NotFound("Permission not found")
	case errors.Is(err, shared.ErrDuplicate):
		return Permission{}, shared.Conflict("Permission already exists")
	}
	if err == nil {
		s.recordAudit(ctx, "permission.update", p.ID, map[string]any{"action": action, "resource": resource})
	}
	return p, err
}

// DeletePermission removes a catalog entry.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	err := s.repo.DeletePermission(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("Permission not found")
	}
	if err == nil {
		s.recordAudit(ctx, "permission.delete", id, nil)
	}
	return err
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	principal, _ := shared.PrincipalFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  principal.ID,
		Action:   action,
		Entity:   "permission",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}

func validatePair(action, resource string) *shared.Error {
	matrix := shared.CatalogMatrix()
	actions, ok := matrix[resource]
	if !ok {
		return shared.ValidationFailed(map[string][]string{"resource": {"Unknown resource"}})
	}
	if !slices.Contains(actions, action) {
		return shared.ValidationFailed(map[string][]string{"action": {"Unknown action for resource"}})
	}
	return nil
}
