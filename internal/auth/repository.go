package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/platform/db"
	"github.com/quillpress/quillpress/internal/shared"
)

// CreateUserParams collects the fields persisted at signup.
type CreateUserParams struct {
	Username                 string
	Email                    string
	PasswordHash             string
	VerificationToken        string
	VerificationTokenExpires time.Time
	DefaultRole              string
}

// Repository defines persistence operations for the session lifecycle.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	FindByRefreshToken(ctx context.Context, token string) (*User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	StoreRefreshToken(ctx context.Context, userID int64, token string) error
	ClearRefreshToken(ctx context.Context, token string) error
	MarkVerified(ctx context.Context, token string) error
	SetVerificationToken(ctx context.Context, email, token string, expires time.Time) (*User, error)
	SetResetToken(ctx context.Context, email, token string, expires time.Time) (*User, error)
	ResetPassword(ctx context.Context, token, passwordHash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.avatar, u.is_verified,
	u.verification_token, u.verification_token_expires, u.reset_token, u.reset_token_expires,
	u.refresh_token, u.created_at, u.updated_at`

func (r *PGRepository) findOne(ctx context.Context, where string, args ...any) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE `+where+` LIMIT 1`, args...)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar, &u.IsVerified,
		&u.VerificationToken, &u.VerificationTokenExpires, &u.ResetToken, &u.ResetTokenExpires,
		&u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
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
	rows, err := r.pool.Query(ctx,
		`SELECT r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = $1 ORDER BY r.name`,
		u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		u.Roles = append(u.Roles, name)
	}
	return rows.Err()
}

// FindByEmail fetches a user with its role names.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `u.email = $1`, email)
}

// FindByUsernameOrEmail fetches a user matching either identifier.
func (r *PGRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	return r.findOne(ctx, `u.username = $1 OR u.email = $2`, username, email)
}

// FindByRefreshToken fetches the user currently holding the refresh token.
func (r *PGRepository) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	return r.findOne(ctx, `u.refresh_token = $1`, token)
}

// CreateUser inserts a user and attaches the default role, creating the role
// record when the seeder has not run yet.
func (r *PGRepository) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, verification_token, verification_token_expires)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			params.Username, params.Email, params.PasswordHash,
			params.VerificationToken, params.VerificationTokenExpires).Scan(&id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return shared.ErrDuplicate
			}
			return err
		}

		var roleID int64
		err = tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, params.DefaultRole).Scan(&roleID)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id`, params.DefaultRole).Scan(&roleID)
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, id, roleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, `u.id = $1`, id)
}

// StoreRefreshToken overwrites the user's active refresh token. Last write
// wins by design: a second sign-in invalidates the first session's refresh
// token.
func (r *PGRepository) StoreRefreshToken(ctx context.Context, userID int64, token string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = NOW() WHERE id = $1`, userID, token)
	return err
}

// ClearRefreshToken removes the stored token from whichever user holds it.
func (r *PGRepository) ClearRefreshToken(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE refresh_token = $1`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkVerified flips is_verified for an unexpired verification token.
func (r *PGRepository) MarkVerified(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET is_verified = TRUE, verification_token = NULL, verification_token_expires = NULL, updated_at = NOW()
		WHERE verification_token = $1 AND verification_token_expires > NOW()`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetVerificationToken rotates the verification token for an unverified
// account.
func (r *PGRepository) SetVerificationToken(ctx context.Context, email, token string, expires time.Time) (*User, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET verification_token = $2, verification_token_expires = $3, updated_at = NOW()
		WHERE email = $1 AND is_verified = FALSE`, email, token, expires)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, `u.email = $1`, email)
}

// SetResetToken stores a password-reset token for a verified account.
func (r *PGRepository) SetResetToken(ctx context.Context, email, token string, expires time.Time) (*User, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expires = $3, updated_at = NOW()
		WHERE email = $1 AND is_verified = TRUE`, email, token, expires)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, `u.email = $1`, email)
}

// ResetPassword replaces the password hash for an unexpired reset token.
func (r *PGRepository) ResetPassword(ctx context.Context, token, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_token_expires = NULL, updated_at = NOW()
		WHERE reset_token = $1 AND reset_token_expires > NOW()`, token, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
