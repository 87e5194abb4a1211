package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/platform/db"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// PGStore persists companies in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PGStore.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// List returns companies within the scope, newest last.
func (s *PGStore) List(ctx context.Context, scope lifecycle.Scope) ([]*Company, error) {
	query := `SELECT id, nombre, COALESCE(direccion, ''), esta_activo, created_at, updated_at FROM empresas`
	if scope.ActiveOnly {
		query += ` WHERE esta_activo`
	}
	query += ` ORDER BY id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var companies []*Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// Get fetches one company within the scope.
func (s *PGStore) Get(ctx context.Context, id int64, scope lifecycle.Scope) (*Company, error) {
	query := `SELECT id, nombre, COALESCE(direccion, ''), esta_activo, created_at, updated_at FROM empresas WHERE id = $1`
	if scope.ActiveOnly {
		query += ` AND esta_activo`
	}
	var c Company
	err := s.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Insert persists a new company.
func (s *PGStore) Insert(ctx context.Context, item *Company) (*Company, error) {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO empresas (nombre, direccion, esta_activo, created_at, updated_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $4) RETURNING id`,
		item.Name, item.Address, item.Active, now,
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

// Update persists changes to an existing company.
func (s *PGStore) Update(ctx context.Context, item *Company) (*Company, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE empresas SET nombre = $2, direccion = NULLIF($3, ''), esta_activo = $4, updated_at = $5 WHERE id = $1`,
		item.ID, item.Name, item.Address, item.Active, now,
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

var _ lifecycle.Store[*Company] = (*PGStore)(nil)
