package audit

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TimelineRepository reads bitácora windows, newest first.
type TimelineRepository interface {
	TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error)
}

// PGTimeline implements TimelineRepository against the bitacora table.
type PGTimeline struct {
	pool *pgxpool.Pool
}

// NewTimeline constructs a PGTimeline.
func NewTimeline(pool *pgxpool.Pool) *PGTimeline {
	return &PGTimeline{pool: pool}
}

// TimelineWindow returns entries ordered by fecha descending.
func (r *PGTimeline) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error) {
	query := `SELECT id, usuario_id, modulo, accion, descripcion, ip, fecha FROM bitacora WHERE 1=1`
	args := []any{}
	argCount := 0

	if !filters.From.IsZero() {
		argCount++
		query += ` AND fecha >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		query += ` AND fecha <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
	}
	if filters.UserID != nil {
		argCount++
		query += ` AND usuario_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.UserID)
	}
	if filters.Module != "" {
		argCount++
		query += ` AND modulo = $` + strconv.Itoa(argCount)
		args = append(args, filters.Module)
	}
	if filters.Action != "" {
		argCount++
		query += ` AND accion = $` + strconv.Itoa(argCount)
		args = append(args, string(filters.Action))
	}

	query += ` ORDER BY fecha DESC, id DESC`

	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Module, &action, &e.Description, &e.IP, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ TimelineRepository = (*PGTimeline)(nil)
