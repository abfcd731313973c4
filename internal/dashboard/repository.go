// Package dashboard exposes aggregate counters for the admin overview.
package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the counting queries behind the stats endpoint.
type Repository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountPosts(ctx context.Context) (int64, error)
	CountComments(ctx context.Context) (int64, error)
	CountCategories(ctx context.Context) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) count(ctx context.Context, query string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, query).Scan(&n)
	return n, err
}

func (r *PGRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (r *PGRepository) CountPosts(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM posts`)
}

func (r *PGRepository) CountComments(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM comments`)
}

func (r *PGRepository) CountCategories(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM categories`)
}

var _ Repository = (*PGRepository)(nil)
