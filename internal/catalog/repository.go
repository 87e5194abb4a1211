package catalog

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

// ProductStore persists products in PostgreSQL.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore constructs a ProductStore.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// List returns products within the scope.
func (s *ProductStore) List(ctx context.Context, scope lifecycle.Scope) ([]*Product, error) {
	query := `SELECT id, nombre, COALESCE(descripcion, ''), empresa_id, esta_activo, created_at, updated_at FROM productos WHERE 1=1`
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
	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.TenantID, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// Get fetches one product within the scope.
func (s *ProductStore) Get(ctx context.Context, id int64, scope lifecycle.Scope) (*Product, error) {
	query := `SELECT id, nombre, COALESCE(descripcion, ''), empresa_id, esta_activo, created_at, updated_at FROM productos WHERE id = $1`
	args := []any{id}
	if scope.TenantID != nil {
		args = append(args, *scope.TenantID)
		query += ` AND empresa_id = $2`
	}
	if scope.ActiveOnly {
		query += ` AND esta_activo`
	}
	var p Product
	err := s.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Name, &p.Description, &p.TenantID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Insert persists a new product.
func (s *ProductStore) Insert(ctx context.Context, item *Product) (*Product, error) {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO productos (nombre, descripcion, empresa_id, esta_activo, created_at, updated_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $5) RETURNING id`,
		item.Name, item.Description, item.TenantID, item.Active, now,
	).Scan(&item.ID)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

// Update persists changes to an existing product.
func (s *ProductStore) Update(ctx context.Context, item *Product) (*Product, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE productos SET nombre = $2, descripcion = NULLIF($3, ''), esta_activo = $4, updated_at = $5 WHERE id = $1`,
		item.ID, item.Name, item.Description, item.Active, now,
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

// BrandStore persists brands in PostgreSQL.
type BrandStore struct {
	pool *pgxpool.Pool
}

// NewBrandStore constructs a BrandStore.
func NewBrandStore(pool *pgxpool.Pool) *BrandStore {
	return &BrandStore{pool: pool}
}

// List returns brands within the scope.
func (s *BrandStore) List(ctx context.Context, scope lifecycle.Scope) ([]*Brand, error) {
	query := `SELECT id, nombre, esta_activo, created_at, updated_at FROM marcas`
	if scope.ActiveOnly {
		query += ` WHERE esta_activo`
	}
	query += ` ORDER BY nombre`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var brands []*Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		brands = append(brands, &b)
	}
	return brands, rows.Err()
}

// Get fetches one brand within the scope.
func (s *BrandStore) Get(ctx context.Context, id int64, scope lifecycle.Scope) (*Brand, error) {
	query := `SELECT id, nombre, esta_activo, created_at, updated_at FROM marcas WHERE id = $1`
	if scope.ActiveOnly {
		query += ` AND esta_activo`
	}
	var b Brand
	err := s.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Insert persists a new brand. Names are unique.
func (s *BrandStore) Insert(ctx context.Context, item *Brand) (*Brand, error) {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO marcas (nombre, esta_activo, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id`,
		item.Name, item.Active, now,
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

// Update persists changes to an existing brand.
func (s *BrandStore) Update(ctx context.Context, item *Brand) (*Brand, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE marcas SET nombre = $2, esta_activo = $3, updated_at = $4 WHERE id = $1`,
		item.ID, item.Name, item.Active, now,
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

var (
	_ lifecycle.Store[*Product] = (*ProductStore)(nil)
	_ lifecycle.Store[*Brand]   = (*BrandStore)(nil)
)
