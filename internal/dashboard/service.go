package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Stats carries the aggregate totals for the admin overview.
type Stats struct {
	Users      int64 `json:"users"`
	Posts      int64 `json:"posts"`
	Comments   int64 `json:"comments"`
	Categories int64 `json:"categories"`
}

// Service computes dashboard aggregates.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Stats runs the four counting queries concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Users, err = s.repo.CountUsers(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Posts, err = s.repo.CountPosts(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Comments, err = s.repo.CountComments(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Categories, err = s.repo.CountCategories(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
