package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chamber_control/internal/actuator"
	"chamber_control/internal/logger"
	"chamber_control/internal/models"
	"chamber_control/internal/schedule"
)

// schedulerStateRepoStub keeps every saved snapshot.
type schedulerStateRepoStub struct {
	saved   []models.ControllerState
	saveErr error
}

func (s *schedulerStateRepoStub) Save(ctx context.Context, st models.ControllerState) error {
	s.saved = append(s.saved, st)
	return s.saveErr
}

func (s *schedulerStateRepoStub) Load(ctx context.Context) (models.ControllerState, error) {
	if len(s.saved) == 0 {
		return models.ControllerState{}, nil
	}
	return s.saved[len(s.saved)-1], nil
}

func (s *schedulerStateRepoStub) last(t *testing.T) models.ControllerState {
	t.Helper()
	if len(s.saved) == 0 {
		t.Fatalf("no state saved")
	}
	return s.saved[len(s.saved)-1]
}

// schedulerEventRepoStub keeps every appended event.
type schedulerEventRepoStub struct {
	events []models.ControllerEvent
}

func (s *schedulerEventRepoStub) Append(ctx context.Context, e models.ControllerEvent) error {
	s.events = append(s.events, e)
	return nil
}

func (s *schedulerEventRepoStub) List(ctx context.Context, from, to time.Time, typ string) ([]models.ControllerEvent, error) {
	return s.events, nil
}

func (s *schedulerEventRepoStub) types() []string {
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type schedulerFixture struct {
	*executorFixture
	state  *schedulerStateRepoStub
	events *schedulerEventRepoStub
	svc    *SchedulerService
	now    time.Time
}

func newSchedulerFixture(t *testing.T, entries []schedule.Entry, cfg ExecutorConfig) *schedulerFixture {
	t.Helper()
	sched, err := schedule.Parse(entries)
	if err != nil {
		t.Fatalf("schedule.Parse: %v", err)
	}
	f := &schedulerFixture{
		executorFixture: newExecutorFixture(cfg),
		state:           &schedulerStateRepoStub{},
		events:          &schedulerEventRepoStub{},
	}
	f.svc = NewSchedulerService(sched, f.exec, f.state, f.events, logger.Nop())
	f.svc.clock = func() time.Time { return f.now }
	return f
}

func at(hh, mm int) time.Time {
	return time.Date(2024, time.March, 10, hh, mm, 0, 0, time.Local)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var heatThenWait = []schedule.Entry{
	{Range: "10:20-10:35", Mode: "heat"},
	{Range: "10:35-10:50", Mode: "wait"},
}

func TestScheduler_TickResolvesWaitAt1040(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, heatThenWait, ExecutorConfig{IncrementC: 2.0})
	f.target.value, f.target.ok = 23.0, true
	f.now = at(10, 40)

	slot, ok, out := f.svc.Tick(context.Background())

	if !ok || slot.Mode != schedule.ModeWait {
		t.Fatalf("active slot: want wait, got %q (ok=%v)", slot.Mode, ok)
	}
	if out.Light != actuator.CommandOn || out.Heater != actuator.CommandOff {
		t.Errorf("want light on heater off, got light=%s heater=%s", out.Light, out.Heater)
	}
	if f.target.ok {
		t.Errorf("target must be deleted")
	}
	st := f.state.last(t)
	if st.Mode != "wait" || st.Slot != "10:35-10:50" || !st.LightOn || st.HeaterOn {
		t.Errorf("unexpected state: %+v", st)
	}
}

func TestScheduler_EpisodeEvents(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, heatThenWait, ExecutorConfig{IncrementC: 2.0})
	f.reader.value, f.reader.ok = 20.0, true
	ctx := context.Background()

	f.now = at(10, 25)
	f.svc.Tick(ctx)
	if st := f.state.last(t); st.TargetTempC == nil || *st.TargetTempC != 22.0 || !st.HeaterOn {
		t.Fatalf("heat tick state: %+v", st)
	}

	f.now = at(10, 30)
	f.svc.Tick(ctx)

	f.now = at(10, 40)
	f.svc.Tick(ctx)

	f.now = at(11, 0)
	if _, ok, _ := f.svc.Tick(ctx); ok {
		t.Fatalf("11:00 falls in a gap")
	}

	want := []string{
		models.EventModeChange, models.EventTargetSet,
		models.EventModeChange, models.EventTargetCleared,
		models.EventModeChange,
	}
	if got := f.events.types(); !equalStrings(got, want) {
		t.Fatalf("events: want %v, got %v", want, got)
	}
	for _, e := range f.events.events {
		if e.EventID == "" {
			t.Errorf("event %s without id", e.Type)
		}
	}

	if len(f.state.saved) != 4 {
		t.Fatalf("state snapshots: want 4, got %d", len(f.state.saved))
	}
	idle := f.state.last(t)
	if idle.Mode != "" || idle.Slot != "" {
		t.Errorf("idle state: want empty mode and slot, got %+v", idle)
	}
	if !idle.LightOn || idle.HeaterOn {
		t.Errorf("idle state keeps last commanded devices (light on, heater off), got %+v", idle)
	}
}

func TestScheduler_SensorFaultEventOncePerEpisode(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, []schedule.Entry{{Range: "08:00-20:00", Mode: "heat"}}, ExecutorConfig{IncrementC: 2.0})
	ctx := context.Background()

	for _, m := range []int{0, 1, 2} {
		f.now = at(9, m)
		f.svc.Tick(ctx)
	}

	sensorErrors := 0
	for _, typ := range f.events.types() {
		if typ == models.EventSensorError {
			sensorErrors++
		}
	}
	if sensorErrors != 1 {
		t.Fatalf("SENSOR_ERROR events: want 1, got %d (%v)", sensorErrors, f.events.types())
	}
	st := f.state.last(t)
	if st.HeaterOn {
		t.Errorf("heater must be off while the sensor fails")
	}
	if !equalStrings(st.ErrorCodes, []string{models.FaultSensor}) {
		t.Errorf("error codes: want [%s], got %v", models.FaultSensor, st.ErrorCodes)
	}

	// recovery, then a new failure emits again
	f.reader.value, f.reader.ok = 20.0, true
	f.now = at(9, 3)
	f.svc.Tick(ctx)
	f.reader.ok = false
	f.now = at(9, 4)
	f.svc.Tick(ctx)

	sensorErrors = 0
	for _, typ := range f.events.types() {
		if typ == models.EventSensorError {
			sensorErrors++
		}
	}
	if sensorErrors != 2 {
		t.Fatalf("SENSOR_ERROR events after recovery: want 2, got %d", sensorErrors)
	}
}

func TestScheduler_WarmUpOnEpisodeEntry(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, []schedule.Entry{{Range: "08:00-20:00", Mode: "heat"}}, ExecutorConfig{IncrementC: 2.0, WarmUp: time.Minute})
	f.reader.value, f.reader.ok = 20.0, true

	warmUps := 0
	f.exec.wait = func(ctx context.Context, d time.Duration) error {
		warmUps++
		return nil
	}

	f.now = at(9, 0)
	f.svc.Tick(context.Background())
	f.now = at(9, 1)
	f.svc.Tick(context.Background())

	if warmUps != 1 {
		t.Fatalf("warm-ups: want 1, got %d", warmUps)
	}
	if !f.target.ok || f.target.value != 22.0 {
		t.Errorf("target after warm-up: want 22.0, got %v", f.target.value)
	}
}

func TestScheduler_WarmUpInterrupted(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, []schedule.Entry{{Range: "08:00-20:00", Mode: "heat"}}, ExecutorConfig{IncrementC: 2.0, WarmUp: time.Minute})
	f.reader.value, f.reader.ok = 20.0, true
	f.exec.wait = func(ctx context.Context, d time.Duration) error { return context.Canceled }

	f.now = at(9, 0)
	f.svc.Tick(context.Background())

	if f.reader.calls != 0 {
		t.Errorf("interrupted warm-up must not sample")
	}
	if f.target.ok {
		t.Errorf("interrupted warm-up must not create a target")
	}
}

func TestScheduler_WarmUpOutlastingSlotSkipsHeat(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, heatThenWait, ExecutorConfig{IncrementC: 2.0, WarmUp: 30 * time.Minute})
	f.reader.value, f.reader.ok = 20.0, true
	f.exec.wait = func(ctx context.Context, d time.Duration) error {
		f.now = f.now.Add(d)
		return nil
	}
	ctx := context.Background()

	f.now = at(10, 20)
	if _, ok, _ := f.svc.Tick(ctx); ok {
		t.Fatalf("heat block must not run once its slot has ended")
	}
	if f.heater.last() != actuator.CommandOff {
		t.Fatalf("heater: want off after warm-up, got %s", f.heater.last())
	}
	if f.target.ok || f.reader.calls != 0 {
		t.Fatalf("no sample or target outside the heat slot (target=%v reads=%d)", f.target.ok, f.reader.calls)
	}

	// 10:50 falls in a gap: the next tick leaves the heat slot and stays idle
	if _, ok, _ := f.svc.Tick(ctx); ok {
		t.Fatalf("10:50 falls in a gap")
	}
	st := f.state.last(t)
	if st.HeaterOn || st.Mode != "" {
		t.Errorf("idle state after warm-up: %+v", st)
	}
	want := []string{models.EventModeChange, models.EventModeChange}
	if got := f.events.types(); !equalStrings(got, want) {
		t.Errorf("events: want %v, got %v", want, got)
	}
}

func TestScheduler_WarmUpWithinSlotRunsHeat(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, heatThenWait, ExecutorConfig{IncrementC: 2.0, WarmUp: 5 * time.Minute})
	f.reader.value, f.reader.ok = 20.0, true
	f.exec.wait = func(ctx context.Context, d time.Duration) error {
		f.now = f.now.Add(d)
		return nil
	}

	f.now = at(10, 20)
	slot, ok, _ := f.svc.Tick(context.Background())
	if !ok || slot.Mode != schedule.ModeHeat {
		t.Fatalf("heat must run after a warm-up inside the slot, got %q ok=%v", slot.Mode, ok)
	}
	if f.heater.last() != actuator.CommandOn || !f.target.ok {
		t.Errorf("want heater on and target stored, heater=%s target=%v", f.heater.last(), f.target.ok)
	}
}

func TestScheduler_RunForcesOffAndRecordsLifecycle(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, []schedule.Entry{{Range: "08:00-09:00", Mode: "sleep"}}, ExecutorConfig{})
	f.now = at(12, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.svc.Run(ctx, time.Hour)

	if len(f.light.cmds) == 0 || f.light.cmds[0] != actuator.CommandOff {
		t.Errorf("light must be forced off at startup, got %v", f.light.cmds)
	}
	if len(f.heater.cmds) == 0 || f.heater.cmds[0] != actuator.CommandOff {
		t.Errorf("heater must be forced off at startup, got %v", f.heater.cmds)
	}
	types := f.events.types()
	if len(types) < 2 || types[0] != models.EventStartup || types[len(types)-1] != models.EventShutdown {
		t.Fatalf("lifecycle events: got %v", types)
	}
	if len(f.state.saved) != 1 {
		t.Errorf("first tick must run immediately, snapshots=%d", len(f.state.saved))
	}
}

func TestScheduler_StateSaveErrorDoesNotStopTick(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, heatThenWait, ExecutorConfig{})
	f.state.saveErr = errors.New("db locked")
	f.now = at(10, 40)

	if _, ok, _ := f.svc.Tick(context.Background()); !ok {
		t.Fatalf("tick must still resolve the slot")
	}
	if f.light.last() != actuator.CommandOn {
		t.Errorf("actuators must still be driven")
	}
}

func TestScheduler_ActiveDelegatesToSchedule(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t, []schedule.Entry{{Range: "19:30-07:00", Mode: "sleep"}}, ExecutorConfig{})

	if _, ok := f.svc.Active(at(23, 0)); !ok {
		t.Errorf("23:00 must be active")
	}
	if _, ok := f.svc.Active(at(7, 1)); ok {
		t.Errorf("07:01 must be inactive")
	}
	if got := len(f.svc.Schedule()); got != 1 {
		t.Errorf("Schedule(): want 1 slot, got %d", got)
	}
}
