package posts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/shared"
)

// CreateParams collects the fields for a new post.
type CreateParams struct {
	UserID     int64
	CategoryID int64
	Title      string
	Slug       string
	Content    string
	PostImage  *string
}

// UpdateParams carries the optional fields of a post update.
type UpdateParams struct {
	CategoryID *int64
	Title      *string
	Slug       *string
	Content    *string
	PostImage  *string
}

// Repository defines persistence operations for posts.
type Repository interface {
	Search(ctx context.Context, opts shared.ListOptions, viewerID int64) ([]Post, int, error)
	Get(ctx context.Context, id int64, viewerID int64) (*Post, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, params CreateParams) (*Post, error)
	Update(ctx context.Context, id int64, params UpdateParams, viewerID int64) (*Post, error)
	Delete(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, postID, userID int64) (bool, error)
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

const postSelect = `
	SELECT p.id, p.title, p.slug, p.content, p.post_image,
		u.id, u.username, u.avatar,
		c.id, c.name,
		(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id),
		(SELECT COUNT(*) FROM comments co WHERE co.post_id = p.id),
		EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $1),
		p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.user_id
	JOIN categories c ON c.id = p.category_id`

func scanPost(row pgx.Row) (*Post, error) {
	var (
		p     Post
		image *string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &image,
		&p.Author.ID, &p.Author.Username, &p.Author.Avatar,
		&p.Category.ID, &p.Category.Name,
		&p.Likes, &p.Comments, &p.IsLiked,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if image != nil {
		p.PostImage = *image
	}
	return &p, nil
}

// Search returns a page of posts, newest first. viewerID 0 means anonymous:
// isLiked is false everywhere.
func (r *PGRepository) Search(ctx context.Context, opts shared.ListOptions, viewerID int64) ([]Post, int, error) {
	pattern := "%" + opts.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM posts p
		JOIN categories c ON c.id = p.category_id
		WHERE p.title ILIKE $1 OR p.content ILIKE $1 OR c.name ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, postSelect+`
		WHERE p.title ILIKE $2 OR p.content ILIKE $2 OR c.name ILIKE $2
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $3 OFFSET $4`, viewerID, pattern, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *post)
	}
	return out, total, rows.Err()
}

// Get fetches a post with author, category, counters and the viewer's like
// state.
func (r *PGRepository) Get(ctx context.Context, id int64, viewerID int64) (*Post, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, postSelect+` WHERE p.id = $2`, viewerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return post, err
}

// CategoryExists reports whether a category id resolves.
func (r *PGRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Create inserts a post.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (*Post, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO posts (user_id, category_id, title, slug, content, post_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		params.UserID, params.CategoryID, params.Title, params.Slug, params.Content, params.PostImage).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id, params.UserID)
}

// Update applies the provided fields to an existing post and re-reads it
// with the caller's like state.
func (r *PGRepository) Update(ctx context.Context, id int64, params UpdateParams, viewerID int64) (*Post, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts SET
			category_id = COALESCE($2, category_id),
			title = COALESCE($3, title),
			slug = COALESCE($4, slug),
			content = COALESCE($5, content),
			post_image = COALESCE($6, post_image),
			updated_at = NOW()
		WHERE id = $1`,
		id, params.CategoryID, params.Title, params.Slug, params.Content, params.PostImage)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.Get(ctx, id, viewerID)
}

// Delete removes a post; likes and comments cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ToggleLike flips the viewer's like on a post and reports the resulting
// state: true when the post is now liked.
func (r *PGRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)`, postID, userID)
	return true, err
}

// OwnerID returns the author id of a post.
func (r *PGRepository) OwnerID(ctx context.Context, id int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1`, id).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return ownerID, err
}

var _ Repository = (*PGRepository)(nil)
