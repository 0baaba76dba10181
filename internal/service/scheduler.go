package service

import (
	"context"
	"slices"
	"time"

	"chamber_control/internal/actuator"
	"chamber_control/internal/logger"
	"chamber_control/internal/models"
	"chamber_control/internal/repository"
	"chamber_control/internal/schedule"

	"github.com/google/uuid"
)

// DefaultPollInterval is the time between two schedule evaluations.
const DefaultPollInterval = 20 * time.Second

// SchedulerService evaluates the schedule every tick and drives the executor.
// It is the single writer of actuators, target, state and events.
type SchedulerService struct {
	sched     schedule.Schedule
	exec      *Executor
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	log       *logger.Logger
	clock     func() time.Time

	// previous tick
	active     bool
	lastSlot   schedule.Slot
	lastFaults []string
	lightOn    bool
	heaterOn   bool
}

func NewSchedulerService(sched schedule.Schedule, exec *Executor, stateRepo repository.StateRepo, eventRepo repository.EventRepo, log *logger.Logger) *SchedulerService {
	return &SchedulerService{
		sched:     sched,
		exec:      exec,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		log:       log,
		clock:     time.Now,
	}
}

// Schedule returns the configured slots in evaluation order.
func (s *SchedulerService) Schedule() schedule.Schedule { return s.sched }

// Active resolves the slot for t.
func (s *SchedulerService) Active(t time.Time) (schedule.Slot, bool) { return s.sched.Active(t) }

// Run forces both devices off, then ticks at the given interval until ctx is
// canceled. The first tick happens immediately.
func (s *SchedulerService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultPollInterval
	}
	s.startup(ctx)

	s.Tick(ctx)
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

func (s *SchedulerService) startup(ctx context.Context) {
	if err := s.exec.ForceOff(ctx); err != nil {
		s.log.Errorw("startup_force_off_failed", "err", err)
	}
	s.lightOn, s.heaterOn = false, false
	s.appendEvent(ctx, s.clock(), models.EventStartup, "controller started; light and heater forced off", map[string]any{
		"slots": len(s.sched),
	})
	s.log.Infow("scheduler_started", "slots", len(s.sched))
}

// shutdown runs after ctx is canceled, so it gets a short context of its own.
func (s *SchedulerService) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.appendEvent(ctx, s.clock(), models.EventShutdown, "controller stopped", nil)
	s.log.Infow("scheduler_stopped")
}

// Tick evaluates the schedule once. ok reports whether a block was executed.
func (s *SchedulerService) Tick(ctx context.Context) (schedule.Slot, bool, Outcome) {
	now := s.clock()
	slot, ok := s.sched.Active(now)
	if !ok {
		if s.active {
			s.log.Infow("no_active_slot", "previous", s.lastSlot.Range())
			s.appendEvent(ctx, now, models.EventModeChange, "no slot active", map[string]any{
				"from": s.lastSlot.Mode.String(),
				"to":   "",
			})
		}
		s.active = false
		s.lastFaults = nil
		s.saveState(ctx, now, schedule.Slot{}, Outcome{})
		return schedule.Slot{}, false, Outcome{}
	}

	if !s.active || slot != s.lastSlot {
		s.log.Infow("slot_entered", "slot", slot.Range(), "mode", slot.Mode.String())
		from := ""
		if s.active {
			from = s.lastSlot.Mode.String()
		}
		s.appendEvent(ctx, now, models.EventModeChange, "mode changed to "+slot.Mode.String(), map[string]any{
			"from": from,
			"to":   slot.Mode.String(),
			"slot": slot.Range(),
		})
		if slot.Mode == schedule.ModeHeat && s.exec.NeedsWarmUp(ctx) {
			if err := s.exec.WarmUp(ctx); err != nil {
				s.log.Infow("warm_up_interrupted", "err", err)
				return slot, false, Outcome{Mode: slot.Mode, Skipped: true}
			}
			s.lightOn, s.heaterOn = true, false
			now = s.clock()
			// the warm-up may outlast the slot; leave the new slot to the next tick
			if cur, ok := s.sched.Active(now); !ok || cur != slot {
				s.log.Infow("slot_ended_during_warm_up", "slot", slot.Range())
				s.active = true
				s.lastSlot = slot
				return slot, false, Outcome{Mode: slot.Mode, Skipped: true}
			}
		}
	}
	s.active = true
	s.lastSlot = slot

	out := s.exec.Execute(ctx, slot.Mode)
	s.record(ctx, now, slot, out)
	return slot, true, out
}

// record turns an outcome into events and the state snapshot.
func (s *SchedulerService) record(ctx context.Context, now time.Time, slot schedule.Slot, out Outcome) {
	if out.TargetCreated && out.TargetC != nil {
		meta := map[string]any{"target_c": *out.TargetC}
		if out.TempC != nil {
			meta["temp_c"] = *out.TempC
		}
		s.appendEvent(ctx, now, models.EventTargetSet, "target temperature set", meta)
	}
	if out.TargetCleared {
		s.appendEvent(ctx, now, models.EventTargetCleared, "target temperature cleared by "+out.Mode.String()+" block", nil)
	}

	// fault events only on the tick a fault appears, not while it persists
	codes := out.FaultCodes()
	for _, f := range out.Faults {
		if slices.Contains(s.lastFaults, f.Code) {
			continue
		}
		switch f.Code {
		case models.FaultSensor:
			s.appendEvent(ctx, now, models.EventSensorError, "temperature could not be read; heater off", nil)
		case models.FaultActuator:
			s.appendEvent(ctx, now, models.EventActuatorError, f.Device+" command failed: "+f.Err.Error(), map[string]any{"device": f.Device})
		}
	}
	s.lastFaults = codes

	s.saveState(ctx, now, slot, out)
}

func (s *SchedulerService) saveState(ctx context.Context, now time.Time, slot schedule.Slot, out Outcome) {
	switch out.Light {
	case actuator.CommandOn:
		s.lightOn = true
	case actuator.CommandOff:
		s.lightOn = false
	}
	switch out.Heater {
	case actuator.CommandOn:
		s.heaterOn = true
	case actuator.CommandOff:
		s.heaterOn = false
	}

	st := models.ControllerState{
		ID:           1,
		Mode:         out.Mode.String(),
		CurrentTempC: out.TempC,
		TargetTempC:  out.TargetC,
		LightOn:      s.lightOn,
		HeaterOn:     s.heaterOn,
		ErrorCodes:   out.FaultCodes(),
		UpdatedAt:    now.UTC(),
	}
	if out.Mode != "" {
		st.Slot = slot.Range()
	}
	if err := s.stateRepo.Save(ctx, st); err != nil {
		s.log.Warnw("state_save_failed", "err", err)
	}
}

func (s *SchedulerService) appendEvent(ctx context.Context, now time.Time, typ, desc string, meta map[string]any) {
	ev := models.ControllerEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}
