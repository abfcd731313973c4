package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/quillpress/quillpress/internal/shared"
)

const bcryptCost = 10

// Service handles account administration business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service. The audit logger may be nil in tests.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Search returns a page of users matching the term.
func (s *Service) Search(ctx context.Context, opts shared.ListOptions) ([]User, shared.Meta, error) {
	users, total, err := s.repo.Search(ctx, opts)
	if err != nil {
		return nil, shared.Meta{}, err
	}
	return users, shared.NewMeta(opts, total), nil
}

// Get fetches a single user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("User not found")
	}
	return user, err
}

// OwnerID is the ownership lookup for user records: a user record is owned
// by itself.
func (s *Service) OwnerID(ctx context.Context, id int64) (int64, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// CreateInput collects validated admin-create input.
type CreateInput struct {
	Username string
	Email    string
	Password string
	RoleIDs  []int64
}

// Create inserts a pre-verified account with explicit role assignments.
func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	taken, err := s.repo.ExistsByIdentifier(ctx, input.Username, input.Email, 0)
	if err != nil {
		return nil, err
	}
	switch taken {
	case "username":
		return nil, shared.Conflict("Username already exists")
	case "email":
		return nil, shared.Conflict("Email already exists")
	}

	count, err := s.repo.CountRoles(ctx, input.RoleIDs)
	if err != nil {
		return nil, err
	}
	if count != len(input.RoleIDs) {
		return nil, shared.ValidationFailed(map[string][]string{"roles": {"Invalid role id"}})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, CreateParams{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		RoleIDs:      input.RoleIDs,
	})
	if errors.Is(err, shared.ErrDuplicate) {
		return nil, shared.Conflict("Username already exists")
	}
	if err == nil {
		s.recordAudit(ctx, "user.create", user.ID, map[string]any{"username": user.Username})
	}
	return user, err
}

// UpdateInput collects validated profile-update input.
type UpdateInput struct {
	Email    *string
	Password *string
	Avatar   *string
}

// Update applies a partial profile update.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if input.Email != nil {
		taken, err := s.repo.ExistsByIdentifier(ctx, "", *input.Email, id)
		if err != nil {
			return nil, err
		}
		if taken != "" {
			return nil, shared.Conflict("Email already exists")
		}
	}

	params := UpdateParams{Email: input.Email, Avatar: input.Avatar}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("users: hash password: %w", err)
		}
		hashed := string(hash)
		params.PasswordHash = &hashed
	}

	user, err := s.repo.Update(ctx, id, params)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil, shared.NotFound("User not found")
	case errors.Is(err, shared.ErrDuplicate):
		return nil, shared.Conflict("Email already exists")
	}
	return user, err
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("User not found")
	}
	if err == nil {
		s.recordAudit(ctx, "user.delete", id, nil)
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
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
