package service

import (
	"context"
	"time"

	"chamber_control/internal/models"
	"chamber_control/internal/repository"
)

type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

// GetState returns the latest persisted controller snapshot.
// Before the first tick it returns an idle baseline.
func (s *MonitoringService) GetState(ctx context.Context) (models.ControllerState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.ControllerState{}, err
	}
	if state.ID == 0 {
		return s.baselineState(), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

// baselineState matches what Run leaves behind at startup: both devices off.
func (s *MonitoringService) baselineState() models.ControllerState {
	return models.ControllerState{
		ID:        1, // single-row state with id=1
		Mode:      "",
		LightOn:   false,
		HeaterOn:  false,
		UpdatedAt: time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
