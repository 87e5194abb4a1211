package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder appends entries to the bitácora. The log is a pure side-effect
// sink: no update or delete is ever exposed.
type Recorder interface {
	Record(ctx context.Context, entry Entry) (Entry, error)
}

// PGRecorder writes entries into the bitacora table.
type PGRecorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new PGRecorder.
func NewRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool}
}

// Record persists the entry. CreatedAt is set here, once, and never touched
// again.
func (r *PGRecorder) Record(ctx context.Context, entry Entry) (Entry, error) {
	if r == nil || r.pool == nil {
		return Entry{}, errors.New("audit recorder not initialised")
	}
	if entry.Module == "" {
		return Entry{}, errors.New("audit entry requires module")
	}
	if !entry.Action.Valid() {
		entry.Action = ActionOther
	}
	entry.CreatedAt = time.Now().UTC()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bitacora (usuario_id, modulo, accion, descripcion, ip, fecha)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.UserID, entry.Module, string(entry.Action), entry.Description, entry.IP, entry.CreatedAt)
	if err := row.Scan(&entry.ID); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

var _ Recorder = (*PGRecorder)(nil)
