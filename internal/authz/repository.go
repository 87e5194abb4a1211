package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comercio-cloud/comercio/internal/platform/db"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// Repository defines persistence operations for the policy store.
type Repository interface {
	GetModuleByName(ctx context.Context, name string) (*Module, error)
	GetPermission(ctx context.Context, roleID, moduleID int64) (*Permission, error)

	ListRoles(ctx context.Context, tenantID *int64) ([]Role, error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	CreateRole(ctx context.Context, role Role) (*Role, error)
	UpdateRole(ctx context.Context, role Role) (*Role, error)
	DeleteRole(ctx context.Context, id int64) error

	ListModules(ctx context.Context) ([]Module, error)
	GetModule(ctx context.Context, id int64) (*Module, error)
	CreateModule(ctx context.Context, module Module) (*Module, error)
	UpdateModule(ctx context.Context, module Module) (*Module, error)
	DeleteModule(ctx context.Context, id int64) error

	ListPermissions(ctx context.Context, roleID int64) ([]Permission, error)
	UpsertPermission(ctx context.Context, perm Permission) (*Permission, error)
	DeletePermission(ctx context.Context, id int64) (*Permission, error)
}

// PGRepository implements Repository using PostgreSQL. Deleting a role or a
// module removes its permission rows in the same transaction, so the matrix
// never points at missing rows.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetModuleByName fetches a registered module by its unique name.
func (r *PGRepository) GetModuleByName(ctx context.Context, name string) (*Module, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, is_active FROM modules WHERE name = $1`, name)
	return scanModule(row)
}

// GetPermission fetches the single permission row for a (role, module) pair.
func (r *PGRepository) GetPermission(ctx context.Context, roleID, moduleID int64) (*Permission, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, role_id, module_id, can_view, can_create, can_update, can_delete
		FROM permissions WHERE role_id = $1 AND module_id = $2`, roleID, moduleID)
	return scanPermission(row)
}

// ListRoles returns roles visible to a tenant: its own plus global ones.
// A nil tenantID lists everything.
func (r *PGRepository) ListRoles(ctx context.Context, tenantID *int64) ([]Role, error) {
	query := `SELECT id, name, description, empresa_id, superadmin, created_at, updated_at FROM roles`
	args := []any{}
	if tenantID != nil {
		query += ` WHERE empresa_id = $1 OR empresa_id IS NULL`
		args = append(args, *tenantID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.TenantID, &role.Superadmin, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by ID.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (*Role, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, empresa_id, superadmin, created_at, updated_at
		FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

// CreateRole inserts a new role.
func (r *PGRepository) CreateRole(ctx context.Context, role Role) (*Role, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, empresa_id, superadmin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, name, description, empresa_id, superadmin, created_at, updated_at`,
		role.Name, role.Description, role.TenantID, role.Superadmin, now)
	created, err := scanRole(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: role name already exists", shared.ErrDuplicate)
		}
		return nil, err
	}
	return created, nil
}

// UpdateRole updates name and description. The superadmin flag is immutable
// through this path so a rename can never grant the bypass.
func (r *PGRepository) UpdateRole(ctx context.Context, role Role) (*Role, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, name, description, empresa_id, superadmin, created_at, updated_at`,
		role.ID, role.Name, role.Description, time.Now().UTC())
	updated, err := scanRole(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: role name already exists", shared.ErrDuplicate)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteRole removes a role and its permission rows in one transaction.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ListModules returns all registered modules ordered by name.
func (r *PGRepository) ListModules(ctx context.Context) ([]Module, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, is_active FROM modules ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.IsActive); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// GetModule fetches a module by ID.
func (r *PGRepository) GetModule(ctx context.Context, id int64) (*Module, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, is_active FROM modules WHERE id = $1`, id)
	return scanModule(row)
}

// CreateModule registers a new protected resource type.
func (r *PGRepository) CreateModule(ctx context.Context, module Module) (*Module, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO modules (name, description, is_active) VALUES ($1, $2, $3)
		RETURNING id, name, description, is_active`,
		module.Name, module.Description, module.IsActive)
	created, err := scanModule(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: module name already exists", shared.ErrDuplicate)
		}
		return nil, err
	}
	return created, nil
}

// UpdateModule updates a module registration.
func (r *PGRepository) UpdateModule(ctx context.Context, module Module) (*Module, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE modules SET name = $2, description = $3, is_active = $4
		WHERE id = $1
		RETURNING id, name, description, is_active`,
		module.ID, module.Name, module.Description, module.IsActive)
	updated, err := scanModule(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: module name already exists", shared.ErrDuplicate)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteModule removes a module and its permission rows in one transaction.
func (r *PGRepository) DeleteModule(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM permissions WHERE module_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM modules WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ListPermissions lists the matrix rows for a role.
func (r *PGRepository) ListPermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, role_id, module_id, can_view, can_create, can_update, can_delete
		FROM permissions WHERE role_id = $1 ORDER BY module_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.RoleID, &p.ModuleID, &p.CanView, &p.CanCreate, &p.CanUpdate, &p.CanDelete); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// UpsertPermission inserts or replaces the single row for a (role, module)
// pair. The unique constraint on (role_id, module_id) makes two rows for the
// same pair impossible.
func (r *PGRepository) UpsertPermission(ctx context.Context, perm Permission) (*Permission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (role_id, module_id, can_view, can_create, can_update, can_delete)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (role_id, module_id) DO UPDATE
		SET can_view = EXCLUDED.can_view, can_create = EXCLUDED.can_create,
		    can_update = EXCLUDED.can_update, can_delete = EXCLUDED.can_delete
		RETURNING id, role_id, module_id, can_view, can_create, can_update, can_delete`,
		perm.RoleID, perm.ModuleID, perm.CanView, perm.CanCreate, perm.CanUpdate, perm.CanDelete)
	return scanPermission(row)
}

// DeletePermission removes a matrix row and returns it for cache eviction.
func (r *PGRepository) DeletePermission(ctx context.Context, id int64) (*Permission, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM permissions WHERE id = $1
		RETURNING id, role_id, module_id, can_view, can_create, can_update, can_delete`, id)
	return scanPermission(row)
}

func scanRole(row pgx.Row) (*Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.TenantID, &role.Superadmin, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func scanModule(row pgx.Row) (*Module, error) {
	var m Module
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func scanPermission(row pgx.Row) (*Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.RoleID, &p.ModuleID, &p.CanView, &p.CanCreate, &p.CanUpdate, &p.CanDelete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ Repository = (*PGRepository)(nil)
