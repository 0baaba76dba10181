package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TargetSQLite keeps the target temperature in the single-row
// target_temperature table.
type TargetSQLite struct {
	db *sql.DB
}

func NewTargetSQLite(db *sql.DB) *TargetSQLite { return &TargetSQLite{db: db} }

var _ TargetStore = (*TargetSQLite)(nil)

const (
	targetRowID = 1

	upsertTargetSQL = `
		INSERT INTO target_temperature (id, value_c, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value_c=excluded.value_c,
			updated_at=excluded.updated_at
	`
	selectTargetSQL = `SELECT value_c FROM target_temperature WHERE id=?`
	deleteTargetSQL = `DELETE FROM target_temperature WHERE id=?`
)

func (r *TargetSQLite) Save(ctx context.Context, valueC float64) error {
	_, err := r.db.ExecContext(ctx, upsertTargetSQL, targetRowID, valueC, time.Now().UTC().Format(sqliteTimeLayout))
	return err
}

func (r *TargetSQLite) Load(ctx context.Context) (float64, bool, error) {
	var v float64
	if err := r.db.QueryRowContext(ctx, selectTargetSQL, targetRowID).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return v, true, nil
}

func (r *TargetSQLite) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, deleteTargetSQL, targetRowID)
	return err
}
