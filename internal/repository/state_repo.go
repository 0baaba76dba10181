package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"chamber_control/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

const (
	controllerStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO controller_state (id, mode, slot, temp_c, target_c, light_on, heater_on, errors, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode=excluded.mode,
			slot=excluded.slot,
			temp_c=excluded.temp_c,
			target_c=excluded.target_c,
			light_on=excluded.light_on,
			heater_on=excluded.heater_on,
			errors=excluded.errors,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, mode, slot, temp_c, target_c, light_on, heater_on, errors, updated_at
		FROM controller_state WHERE id=?
	`
)

// marshalErrorCodes converts the slice to a JSON string.
func marshalErrorCodes(codes []string) (string, error) {
	b, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalErrorCodes parses a JSON string into a slice.
func unmarshalErrorCodes(s string) ([]string, error) {
	if s == "" || s == "null" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(s), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// Save upserts the single controller_state row.
func (r *StateSQLite) Save(ctx context.Context, state models.ControllerState) error {
	errorsJSONStr, err := marshalErrorCodes(state.ErrorCodes)
	if err != nil {
		return err
	}

	tsUTC := state.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		controllerStateRowID,
		state.Mode,
		state.Slot,
		nullFloat(state.CurrentTempC),
		nullFloat(state.TargetTempC),
		state.LightOn,
		state.HeaterOn,
		errorsJSONStr,
		tsUTC.Format(sqliteTimeLayout),
	)
	return err
}

// Load fetches the controller_state row; zero value when none was saved yet.
func (r *StateSQLite) Load(ctx context.Context) (models.ControllerState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, controllerStateRowID)

	var (
		s             models.ControllerState
		tempC         sql.NullFloat64
		targetC       sql.NullFloat64
		errorsJSONStr sql.NullString
		updatedAt     any
	)
	if err := row.Scan(
		&s.ID,
		&s.Mode,
		&s.Slot,
		&tempC,
		&targetC,
		&s.LightOn,
		&s.HeaterOn,
		&errorsJSONStr,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ControllerState{}, nil
		}
		return models.ControllerState{}, err
	}

	codes, err := unmarshalErrorCodes(errorsJSONStr.String)
	if err != nil {
		return models.ControllerState{}, err
	}
	ts, err := scanTime(updatedAt)
	if err != nil {
		return models.ControllerState{}, err
	}
	s.ErrorCodes = codes
	s.CurrentTempC = floatPtr(tempC)
	s.TargetTempC = floatPtr(targetC)
	s.UpdatedAt = ts

	return s, nil
}
