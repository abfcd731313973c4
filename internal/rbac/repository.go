package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/shared"
)

// Repository defines persistence operations for the catalog and for role
// resolution.
type Repository interface {
	FindRolesByNames(ctx context.Context, names []string) ([]Role, error)
	SearchPermissions(ctx context.Context, opts shared.ListOptions) ([]Permission, int, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	CreatePermission(ctx context.Context, action, resource string) (Permission, error)
	UpdatePermission(ctx context.Context, id int64, action, resource string) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindRolesByNames loads roles with their permissions attached. Names that do
// not resolve are simply absent from the result.
func (r *PGRepository) FindRolesByNames(ctx context.Context, names []string) ([]Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, p.id, p.action, p.resource
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE r.name = ANY($1)
		ORDER BY r.id`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*Role)
	var order []int64
	for rows.Next() {
		var (
			roleID   int64
			roleName string
			permID   *int64
			action   *string
			resource *string
		)
		if err := rows.Scan(&roleID, &roleName, &permID, &action, &resource); err != nil {
			return nil, err
		}
		role, ok := byID[roleID]
		if !ok {
			role = &Role{ID: roleID, Name: roleName}
			byID[roleID] = role
			order = append(order, roleID)
		}
		if permID != nil {
			role.Permissions = append(role.Permissions, Permission{ID: *permID, Action: *action, Resource: *resource})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roles := make([]Role, 0, len(order))
	for _, id := range order {
		roles = append(roles, *byID[id])
	}
	return roles, nil
}

// SearchPermissions returns a page of the catalog plus the total count.
func (r *PGRepository) SearchPermissions(ctx context.Context, opts shared.ListOptions) ([]Permission, int, error) {
	pattern := "%" + opts.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM permissions WHERE action ILIKE $1 OR resource ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, action, resource FROM permissions
		WHERE action ILIKE $1 OR resource ILIKE $1
		ORDER BY resource, action
		LIMIT $2 OFFSET $3`, pattern, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Action, &p.Resource); err != nil {
			return nil, 0, err
		}
		perms = append(perms, p)
	}
	return perms, total, rows.Err()
}

// GetPermission fetches a single catalog entry.
func (r *PGRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`SELECT id, action, resource FROM permissions WHERE id = $1`, id).
		Scan(&p.ID, &p.Action, &p.Resource)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, shared.ErrNotFound
	}
	return p, err
}

// CreatePermission inserts a catalog entry. A duplicate (action, resource)
// pair maps to shared.ErrDuplicate.
func (r *PGRepository) CreatePermission(ctx context.Context, action, resource string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (action, resource) VALUES ($1, $2) RETURNING id, action, resource`,
		action, resource).Scan(&p.ID, &p.Action, &p.Resource)
	if isUniqueViolation(err) {
		return Permission{}, shared.ErrDuplicate
	}
	return p, err
}

// UpdatePermission rewrites a catalog entry.
func (r *PGRepository) UpdatePermission(ctx context.Context, id int64, action, resource string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`UPDATE permissions SET action = $2, resource = $3 WHERE id = $1 RETURNING id, action, resource`,
		id, action, resource).Scan(&p.ID, &p.Action, &p.Resource)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, shared.ErrNotFound
	}
	if isUniqueViolation(err) {
		return Permission{}, shared.ErrDuplicate
	}
	return p, err
}

// DeletePermission removes a catalog entry together with its role links.
func (r *PGRepository) DeletePermission(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
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
