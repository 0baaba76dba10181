package service

import (
	"context"
	"time"

	"chamber_control/internal/models"
	"chamber_control/internal/repository"
	"chamber_control/internal/schedule"
)

// Monitoring exposes the read-only controller snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (models.ControllerState, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControllerEvent, error)
}

// Scheduler runs the control loop. Stop via context cancellation.
type Scheduler interface {
	Run(ctx context.Context, tick time.Duration)
	Schedule() schedule.Schedule
	Active(t time.Time) (schedule.Slot, bool)
}

// Service aggregates the sub-services used by the HTTP layer and main.
type Service struct {
	Monitoring
	EventLog
	Scheduler
}

// NewService wires the repository layer and the control loop.
func NewService(repos *repository.Repository, scheduler Scheduler) *Service {
	return &Service{
		Monitoring: NewMonitoringService(repos.StateRepo),
		EventLog:   NewEventLogService(repos.EventRepo),
		Scheduler:  scheduler,
	}
}
