package branches

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// PGStore persists branches in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PGStore.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// List returns branches within the scope.
func (s *PGStore) List(ctx context.Context, scope lifecycle.Scope) ([]*Branch, error) {
	query := `SELECT id, nombre, COALESCE(direccion, ''), empresa_id, esta_activo, created_at, updated_at FROM sucursales WHERE 1=1`
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
	var list []*Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.TenantID, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// Get fetches one branch within the scope.
func (s *PGStore) Get(ctx context.Context, id int64, scope lifecycle.Scope) (*Branch, error) {
	query := `SELECT id, nombre, COALESCE(direccion, ''), empresa_id, esta_activo, created_at, updated_at FROM sucursales WHERE id = $1`
	args := []any{id}
	if scope.TenantID != nil {
		args = append(args, *scope.TenantID)
		query += ` AND empresa_id = $2`
	}
	if scope.ActiveOnly {
		query += ` AND esta_activo`
	}
	var b Branch
	err := s.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.Name, &b.Address, &b.TenantID, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Insert persists a new branch.
func (s *PGStore) Insert(ctx context.Context, item *Branch) (*Branch, error) {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sucursales (nombre, direccion, empresa_id, esta_activo, created_at, updated_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $5) RETURNING id`,
		item.Name, item.Address, item.TenantID, item.Active, now,
	).Scan(&item.ID)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

// Update persists changes to an existing branch.
func (s *PGStore) Update(ctx context.Context, item *Branch) (*Branch, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE sucursales SET nombre = $2, direccion = NULLIF($3, ''), esta_activo = $4, updated_at = $5 WHERE id = $1`,
		item.ID, item.Name, item.Address, item.Active, now,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	item.UpdatedAt = now
	return item, nil
}

var _ lifecycle.Store[*Branch] = (*PGStore)(nil)
