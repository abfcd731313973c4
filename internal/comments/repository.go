package comments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/shared"
)

// Repository defines persistence operations for comments.
type Repository interface {
	ListByPost(ctx context.Context, postID int64, opts shared.ListOptions) ([]Comment, int, error)
	Search(ctx context.Context, opts shared.ListOptions) ([]Comment, int, error)
	Get(ctx context.Context, id int64) (*Comment, error)
	PostExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, postID, userID int64, content string) (*Comment, error)
	Update(ctx context.Context, id int64, content string) (*Comment, error)
	Delete(ctx context.Context, id int64) error
	OwnerID(ctx context.Context, id int64) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const commentSelect = `
	SELECT co.id, co.post_id, co.content, u.id, u.username, u.avatar,
		co.created_at, co.updated_at
	FROM comments co
	JOIN users u ON u.id = co.user_id`

func scanComment(row pgx.Row) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Content,
		&c.Author.ID, &c.Author.Username, &c.Author.Avatar,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByPost returns a page of a post's comments, newest first.
func (r *PGRepository) ListByPost(ctx context.Context, postID int64, opts shared.ListOptions) ([]Comment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, commentSelect+`
		WHERE co.post_id = $1
		ORDER BY co.created_at DESC, co.id DESC
		LIMIT $2 OFFSET $3`, postID, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

// Search matches the term against comment content and author username.
func (r *PGRepository) Search(ctx context.Context, opts shared.ListOptions) ([]Comment, int, error) {
	pattern := "%" + opts.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM comments co
		JOIN users u ON u.id = co.user_id
		WHERE co.content ILIKE $1 OR u.username ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, commentSelect+`
		WHERE co.content ILIKE $1 OR u.username ILIKE $1
		ORDER BY co.created_at DESC, co.id DESC
		LIMIT $2 OFFSET $3`, pattern, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func collect(rows pgx.Rows, total int) ([]Comment, int, error) {
	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// Get fetches a single comment.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, commentSelect+` WHERE co.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return c, err
}

// PostExists reports whether a post id resolves.
func (r *PGRepository) PostExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Create inserts a comment.
func (r *PGRepository) Create(ctx context.Context, postID, userID int64, content string) (*Comment, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (post_id, user_id, content)
		VALUES ($1, $2, $3) RETURNING id`, postID, userID, content).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update rewrites a comment's content.
func (r *PGRepository) Update(ctx context.Context, id int64, content string) (*Comment, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE comments SET content = $2, updated_at = NOW() WHERE id = $1`, id, content)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a comment.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// OwnerID returns the author id of a comment.
func (r *PGRepository) OwnerID(ctx context.Context, id int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM comments WHERE id = $1`, id).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return ownerID, err
}

var _ Repository = (*PGRepository)(nil)
