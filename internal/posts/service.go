package posts

import (
	"context"
	"errors"

	"github.com/quillpress/quillpress/internal/shared"
)

// Service handles post business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search returns a page of posts, newest first. viewerID 0 means anonymous.
func (s *Service) Search(ctx context.Context, opts shared.ListOptions, viewerID int64) ([]Post, shared.Meta, error) {
	posts, total, err := s.repo.Search(ctx, opts, viewerID)
	if err != nil {
		return nil, shared.Meta{}, err
	}
	return posts, shared.NewMeta(opts, total), nil
}

// Get fetches a single post with the viewer's like state.
func (s *Service) Get(ctx context.Context, id, viewerID int64) (*Post, error) {
	post, err := s.repo.Get(ctx, id, viewerID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("Post not found")
	}
	return post, err
}

// CreateInput collects validated post-create input.
type CreateInput struct {
	CategoryID int64
	Title      string
	Content    string
	PostImage  *string
}

// Create inserts a post authored by userID. The slug derives from the title.
func (s *Service) Create(ctx context.Context, userID int64, input CreateInput) (*Post, error) {
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, CreateParams{
		UserID:     userID,
		CategoryID: input.CategoryID,
		Title:      input.Title,
		Slug:       Slugify(input.Title),
		Content:    input.Content,
		PostImage:  input.PostImage,
	})
}

// UpdateInput collects validated post-update input.
type UpdateInput struct {
	CategoryID *int64
	Title      *string
	Content    *string
	PostImage  *string
}

// Update applies a partial update as viewerID. A new title regenerates the
// slug; the returned post reflects the caller's like state.
func (s *Service) Update(ctx context.Context, id, viewerID int64, input UpdateInput) (*Post, error) {
	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	params := UpdateParams{
		CategoryID: input.CategoryID,
		Title:      input.Title,
		Content:    input.Content,
		PostImage:  input.PostImage,
	}
	if input.Title != nil {
		slug := Slugify(*input.Title)
		params.Slug = &slug
	}
	post, err := s.repo.Update(ctx, id, params, viewerID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("Post not found")
	}
	return post, err
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("Post not found")
	}
	return err
}

// ToggleLike flips the caller's like and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	if _, err := s.repo.OwnerID(ctx, postID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, shared.NotFound("Post not found")
		}
		return false, err
	}
	return s.repo.ToggleLike(ctx, postID, userID)
}

func (s *Service) checkCategory(ctx context.Context, id int64) error {
	exists, err := s.repo.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NotFound("Category not found")
	}
	return nil
}
