package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/platform/db"
	"github.com/quillpress/quillpress/internal/rbac"
	"github.com/quillpress/quillpress/internal/shared"
)

// Repository defines persistence operations for role management.
type Repository interface {
	Search(ctx context.Context, opts shared.ListOptions) ([]Role, int, error)
	Get(ctx context.Context, id int64) (*Role, error)
	CountPermissions(ctx context.Context, ids []int64) (int, error)
	Create(ctx context.Context, name string, permissionIDs []int64) (*Role, error)
	Update(ctx context.Context, id int64, name *string, permissionIDs []int64) (*Role, error)
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

// Search matches the term against role names.
func (r *PGRepository) Search(ctx context.Context, opts shared.ListOptions) ([]Role, int, error) {
	pattern := "%" + opts.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM roles WHERE name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at, updated_at FROM roles
		WHERE name ILIKE $1
		ORDER BY id
		LIMIT $2 OFFSET $3`, pattern, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range roles {
		if err := r.loadPermissions(ctx, &roles[i]); err != nil {
			return nil, 0, err
		}
	}
	return roles, total, nil
}

// Get fetches a role with its permissions.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPermissions(ctx, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *PGRepository) loadPermissions(ctx context.Context, role *Role) error {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.action, p.resource FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1 ORDER BY p.resource, p.action`, role.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.Action, &p.Resource); err != nil {
			return err
		}
		role.Permissions = append(role.Permissions, p)
	}
	return rows.Err()
}

// CountPermissions counts how many of the given permission ids exist.
func (r *PGRepository) CountPermissions(ctx context.Context, ids []int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE id = ANY($1)`, ids).Scan(&count)
	return count, err
}

// Create inserts a role and links its permissions in one transaction.
func (r *PGRepository) Create(ctx context.Context, name string, permissionIDs []int64) (*Role, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name) VALUES ($1) RETURNING id`, name).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return shared.ErrDuplicate
			}
			return err
		}
		return linkPermissions(ctx, tx, id, permissionIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update renames a role and, when permissionIDs is non-nil, replaces its
// permission links wholesale.
func (r *PGRepository) Update(ctx context.Context, id int64, name *string, permissionIDs []int64) (*Role, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE roles SET name = COALESCE($2, name), updated_at = NOW()
			WHERE id = $1`, id, name)
		if err != nil {
			if isUniqueViolation(err) {
				return shared.ErrDuplicate
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if permissionIDs != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
				return err
			}
			if err := linkPermissions(ctx, tx, id, permissionIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete removes a role; role_permissions and user_roles cascade. Tokens that
// still name the role simply resolve to nothing afterwards.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func linkPermissions(ctx context.Context, tx pgx.Tx, roleID int64, permissionIDs []int64) error {
	for _, permID := range permissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permID); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
