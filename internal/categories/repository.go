package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/shared"
)

// Repository defines persistence operations for categories.
type Repository interface {
	Search(ctx context.Context, opts shared.ListOptions) ([]Category, int, error)
	Get(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, name string) (*Category, error)
	Update(ctx context.Context, id int64, name string) (*Category, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const categorySelect = `
	SELECT c.id, c.name,
		(SELECT COUNT(*) FROM posts p WHERE p.category_id = c.id),
		c.created_at, c.updated_at
	FROM categories c`

// Search matches the term against category names.
func (r *PGRepository) Search(ctx context.Context, opts shared.ListOptions) ([]Category, int, error) {
	pattern := "%" + opts.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM categories WHERE name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, categorySelect+`
		WHERE c.name ILIKE $1
		ORDER BY c.name
		LIMIT $2 OFFSET $3`, pattern, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Posts, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Get fetches a single category with its post count.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, categorySelect+` WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Posts, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a category. A duplicate name maps to shared.ErrDuplicate.
func (r *PGRepository) Create(ctx context.Context, name string) (*Category, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update renames a category.
func (r *PGRepository) Update(ctx context.Context, id int64, name string) (*Category, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a category. Posts referencing it block the delete through
// the foreign key.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return shared.Conflict("Category still has posts")
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
