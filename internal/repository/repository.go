package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chamber_control/internal/models"
)

type StateRepo interface {
	Save(ctx context.Context, s models.ControllerState) error
	Load(ctx context.Context) (models.ControllerState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.ControllerEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ControllerEvent, error)
}

// TargetStore persists the target temperature of the running heat episode.
// Load reports ok=false, not an error, when nothing is stored.
type TargetStore interface {
	Save(ctx context.Context, valueC float64) error
	Load(ctx context.Context) (valueC float64, ok bool, err error)
	Delete(ctx context.Context) error
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Target    TargetStore
}

// NewRepository wires the sqlite-backed state and event repos next to the
// configured target store.
func NewRepository(db *sql.DB, target TargetStore) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Target:    target,
	}
}

// sqliteTimeLayout is how timestamps are written so that text comparison in
// WHERE clauses orders correctly.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// scanTime converts a scanned TIMESTAMP column to UTC. The sqlite driver hands
// back time.Time for declared TIMESTAMP columns, raw text otherwise.
func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseSQLiteTime(t)
	case []byte:
		return parseSQLiteTime(string(t))
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("repository: cannot convert timestamp of type %T", v)
	}
}

func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("repository: cannot parse timestamp %q", s)
}
