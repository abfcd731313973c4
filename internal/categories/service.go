package categories

import (
	"context"
	"errors"

	"github.com/quillpress/quillpress/internal/shared"
)

// Service handles category business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search returns a page of categories matching the term.
func (s *Service) Search(ctx context.Context, opts shared.ListOptions) ([]Category, shared.Meta, error) {
	cats, total, err := s.repo.Search(ctx, opts)
	if err != nil {
		return nil, shared.Meta{}, err
	}
	return cats, shared.NewMeta(opts, total), nil
}

// Get fetches a single category.
func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("Category not found")
	}
	return c, err
}

// Create inserts a category.
func (s *Service) Create(ctx context.Context, name string) (*Category, error) {
	c, err := s.repo.Create(ctx, name)
	if errors.Is(err, shared.ErrDuplicate) {
		return nil, shared.Conflict("Category already exists")
	}
	return c, err
}

// Update renames a category.
func (s *Service) Update(ctx context.Context, id int64, name string) (*Category, error) {
	c, err := s.repo.Update(ctx, id, name)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil, shared.NotFound("Category not found")
	case errors.Is(err, shared.ErrDuplicate):
		return nil, shared.Conflict("Category already exists")
	}
	return c, err
}

// Delete removes a category.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("Category not found")
	}
	return err
}
