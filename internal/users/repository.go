package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/platform/db"
	"github.com/comercio-cloud/comercio/internal/shared"
)

const userColumns = `id, email, first_name, last_name, COALESCE(phone, ''), role_id, empresa_id, esta_activo, password_hash, created_at, updated_at`

// PGStore persists users in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PGStore.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.RoleID,
		&u.TenantID, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns users within the scope.
func (s *PGStore) List(ctx context.Context, scope lifecycle.Scope) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	var args []any
	if scope.TenantID != nil {
		args = append(args, *scope.TenantID)
		query += ` AND empresa_id = $1`
	}
	if scope.ActiveOnly {
		query += ` AND esta_activo`
	}
	query += ` ORDER BY id`
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Get fetches one user within the scope.
func (s *PGStore) Get(ctx context.Context, id int64, scope lifecycle.Scope) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	args := []any{id}
	if scope.TenantID != nil {
		args = append(args, *scope.TenantID)
		query += ` AND empresa_id = $2`
	}
	if scope.ActiveOnly {
		query += ` AND esta_activo`
	}
	return scanUser(s.pool.QueryRow(ctx, query, args...))
}

// Insert persists a new user.
func (s *PGStore) Insert(ctx context.Context, item *User) (*User, error) {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, first_name, last_name, phone, role_id, empresa_id, esta_activo, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $9) RETURNING id`,
		item.Email, item.FirstName, item.LastName, item.Phone, item.RoleID,
		item.TenantID, item.Active, item.PasswordHash, now,
	).Scan(&item.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

// Update persists changes to an existing user.
func (s *PGStore) Update(ctx context.Context, item *User) (*User, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email = $2, first_name = $3, last_name = $4, phone = NULLIF($5, ''),
		 role_id = $6, esta_activo = $7, password_hash = $8, updated_at = $9 WHERE id = $1`,
		item.ID, item.Email, item.FirstName, item.LastName, item.Phone,
		item.RoleID, item.Active, item.PasswordHash, now,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	item.UpdatedAt = now
	return item, nil
}

// FindByID loads a user and their role for principal resolution. Nil role
// means the account has none assigned.
func (s *PGStore) FindByID(ctx context.Context, id int64) (*User, *authz.Role, error) {
	user, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND esta_activo`, id))
	if err != nil {
		return nil, nil, err
	}
	if user.RoleID == nil {
		return user, nil, nil
	}
	var role authz.Role
	err = s.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, ''), empresa_id, superadmin, created_at, updated_at
		 FROM roles WHERE id = $1`, *user.RoleID,
	).Scan(&role.ID, &role.Name, &role.Description, &role.TenantID, &role.Superadmin,
		&role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, nil, nil
		}
		return nil, nil, err
	}
	return user, &role, nil
}

var _ lifecycle.Store[*User] = (*PGStore)(nil)
