package roles

import (
	"context"
	"errors"
	"strconv"

	"github.com/quillpress/quillpress/internal/shared"
)

// Service handles role management business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service. The audit logger may be nil in tests.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Search returns a page of roles matching the term.
func (s *Service) Search(ctx context.Context, opts shared.ListOptions) ([]Role, shared.Meta, error) {
	roles, total, err := s.repo.Search(ctx, opts)
	if err != nil {
		return nil, shared.Meta{}, err
	}
	return roles, shared.NewMeta(opts, total), nil
}

// Get fetches a single role.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	role, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("Role not found")
	}
	return role, err
}

// Create inserts a role with the given permission assignments.
func (s *Service) Create(ctx context.Context, name string, permissionIDs []int64) (*Role, error) {
	if err := s.checkPermissionIDs(ctx, permissionIDs); err != nil {
		return nil, err
	}
	role, err := s.repo.Create(ctx, name, permissionIDs)
	if errors.Is(err, shared.ErrDuplicate) {
		return nil, shared.Conflict("Role already exists")
	}
	if err == nil {
		s.recordAudit(ctx, "role.create", role.ID, map[string]any{"name": role.Name})
	}
	return role, err
}

// Update renames a role or replaces its permission set. A nil permissionIDs
// slice leaves the existing assignments untouched.
func (s *Service) Update(ctx context.Context, id int64, name *string, permissionIDs []int64) (*Role, error) {
	if permissionIDs != nil {
		if err := s.checkPermissionIDs(ctx, permissionIDs); err != nil {
			return nil, err
		}
	}
	role, err := s.repo.Update(ctx, id, name, permissionIDs)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil, shared.NotFound("Role not found")
	case errors.Is(err, shared.ErrDuplicate):
		return nil, shared.Conflict("Role already exists")
	}
	if err == nil {
		s.recordAudit(ctx, "role.update", role.ID, nil)
	}
	return role, err
}

// Delete removes a role. Sessions holding the role name keep their tokens but
// the name stops resolving to any permissions.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("Role not found")
	}
	if err == nil {
		s.recordAudit(ctx, "role.delete", id, nil)
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
		Entity:   "role",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}

func (s *Service) checkPermissionIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := s.repo.CountPermissions(ctx, ids)
	if err != nil {
		return err
	}
	if count != len(ids) {
		return shared.ValidationFailed(map[string][]string{"permissions": {"Invalid permission id"}})
	}
	return nil
}
