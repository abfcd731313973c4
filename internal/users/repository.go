package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/shared"
)

// CreateParams collects the fields for an admin-created account. Such
// accounts skip email verification.
type CreateParams struct {
	Username     string
	Email        string
	PasswordHash string
	RoleIDs      []int64
}

// UpdateParams carries the optional fields of a profile update.
type UpdateParams struct {
	Email        *string
	PasswordHash *string
	Avatar       *string
}

// Repository defines persistence operations for account administration.
type Repository interface {
	Search(ctx context.Context, opts shared.ListOptions) ([]User, int, error)
	Get(ctx context.Context, id int64) (*User, error)
	ExistsByIdentifier(ctx context.Context, username, email string, excludeID int64) (string, error)
	CountRoles(ctx context.Context, ids []int64) (int, error)
	Create(ctx context.Context, params CreateParams) (*User, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*User, error)
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

// Search matches the term against username, email and role names.
func (r *PGRepository) Search(ctx context.Context, opts shared.ListOptions) ([]User, int, error) {
	pattern := "%" + opts.Search + "%"
	const filter = `
		u.username ILIKE $1 OR u.email ILIKE $1 OR EXISTS (
			SELECT 1 FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id
			WHERE ur.user_id = u.id AND ro.name ILIKE $1
		)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u WHERE `+filter, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username, u.email, u.avatar, u.is_verified, u.created_at, u.updated_at
		FROM users u WHERE `+filter+`
		ORDER BY u.id
		LIMIT $2 OFFSET $3`, pattern, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range users {
		if err := r.loadRoles(ctx, &users[i]); err != nil {
			return nil, 0, err
		}
	}
	return users, total, nil
}

// Get fetches a user with role references.
func (r *PGRepository) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.email, u.avatar, u.is_verified, u.created_at, u.updated_at
		FROM users u WHERE u.id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) loadRoles(ctx context.Context, u *User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT ro.id, ro.name FROM roles ro
		JOIN user_roles ur ON ur.role_id = ro.id
		WHERE ur.user_id = $1 ORDER BY ro.name`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ref RoleRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return err
		}
		u.Roles = append(u.Roles, ref)
	}
	return rows.Err()
}

// ExistsByIdentifier reports which identifier ("username" or "email") is
// already taken by another user, or "" when both are free.
func (r *PGRepository) ExistsByIdentifier(ctx context.Context, username, email string, excludeID int64) (string, error) {
	var takenUsername, takenEmail string
	err := r.pool.QueryRow(ctx, `
		SELECT u.username, u.email FROM users u
		WHERE (u.username = $1 OR u.email = $2) AND u.id <> $3
		LIMIT 1`, username, email, excludeID).Scan(&takenUsername, &takenEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if username != "" && takenUsername == username {
		return "username", nil
	}
	return "email", nil
}

// CountRoles counts how many of the given role ids exist.
func (r *PGRepository) CountRoles(ctx context.Context, ids []int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE id = ANY($1)`, ids).Scan(&count)
	return count, err
}

// Create inserts a verified user with the given role assignments.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (*User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, is_verified)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id`, params.Username, params.Email, params.PasswordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	for _, roleID := range params.RoleIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, id, roleID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update applies the provided fields to an existing user.
func (r *PGRepository) Update(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			email = COALESCE($2, email),
			password_hash = COALESCE($3, password_hash),
			avatar = COALESCE($4, avatar),
			updated_at = NOW()
		WHERE id = $1`, id, params.Email, params.PasswordHash, params.Avatar)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a user; user_roles, comments and likes cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
