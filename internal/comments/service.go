package comments

import (
	"context"
	"errors"

	"github.com/quillpress/quillpress/internal/shared"
)

// Service handles comment business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListByPost returns a page of a post's comments.
func (s *Service) ListByPost(ctx context.Context, postID int64, opts shared.ListOptions) ([]Comment, shared.Meta, error) {
	exists, err := s.repo.PostExists(ctx, postID)
	if err != nil {
		return nil, shared.Meta{}, err
	}
	if !exists {
		return nil, shared.Meta{}, shared.NotFound("Post not found")
	}
	comments, total, err := s.repo.ListByPost(ctx, postID, opts)
	if err != nil {
		return nil, shared.Meta{}, err
	}
	return comments, shared.NewMeta(opts, total), nil
}

// Search returns a page of comments matching the term.
func (s *Service) Search(ctx context.Context, opts shared.ListOptions) ([]Comment, shared.Meta, error) {
	comments, total, err := s.repo.Search(ctx, opts)
	if err != nil {
		return nil, shared.Meta{}, err
	}
	return comments, shared.NewMeta(opts, total), nil
}

// Get fetches a single comment.
func (s *Service) Get(ctx context.Context, id int64) (*Comment, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("Comment not found")
	}
	return c, err
}

// OwnerID is the ownership lookup for the edit gates.
func (s *Service) OwnerID(ctx context.Context, id int64) (int64, error) {
	ownerID, err := s.repo.OwnerID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return 0, shared.NotFound("Comment not found")
	}
	return ownerID, err
}

// Create inserts a comment on an existing post.
func (s *Service) Create(ctx context.Context, postID, userID int64, content string) (*Comment, error) {
	exists, err := s.repo.PostExists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NotFound("Post not found")
	}
	return s.repo.Create(ctx, postID, userID, content)
}

// Update rewrites a comment's content.
func (s *Service) Update(ctx context.Context, id int64, content string) (*Comment, error) {
	c, err := s.repo.Update(ctx, id, content)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("Comment not found")
	}
	return c, err
}

// Delete removes a comment.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("Comment not found")
	}
	return err
}
