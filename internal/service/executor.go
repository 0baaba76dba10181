package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"chamber_control/internal/actuator"
	"chamber_control/internal/logger"
	"chamber_control/internal/models"
	"chamber_control/internal/repository"
	"chamber_control/internal/schedule"
)

const (
	DefaultIncrementC = 2.0

	deviceLight  = "light"
	deviceHeater = "heater"
)

var errNoSample = errors.New("no temperature sample")

// TemperatureReader yields the current chamber temperature, or false when no
// sample is available this tick.
type TemperatureReader interface {
	ReadTemperature() (float64, bool)
}

// ExecutorConfig holds the tuning constants of one controller instance.
type ExecutorConfig struct {
	IncrementC float64       // target = first sample + IncrementC
	WarmUp     time.Duration // light-only period before the first sample of an episode
}

// Fault is a non-fatal problem met while applying a block.
type Fault struct {
	Code   string
	Device string
	Err    error
}

// Outcome describes what one block execution did.
type Outcome struct {
	Mode          schedule.Mode
	Skipped       bool
	Light         actuator.Command // zero when not commanded
	Heater        actuator.Command
	TempC         *float64
	TargetC       *float64
	TargetCreated bool
	TargetCleared bool
	Faults        []Fault
}

// FaultCodes returns the distinct fault codes in first-seen order.
func (o Outcome) FaultCodes() []string {
	var codes []string
	for _, f := range o.Faults {
		if !slices.Contains(codes, f.Code) {
			codes = append(codes, f.Code)
		}
	}
	return codes
}

// Executor applies one operating mode to the actuators. Apart from the
// target store it keeps no state between calls.
type Executor struct {
	light  actuator.Switch
	heater actuator.Switch
	reader TemperatureReader
	target repository.TargetStore
	cfg    ExecutorConfig
	log    *logger.Logger

	wait func(ctx context.Context, d time.Duration) error
}

func NewExecutor(light, heater actuator.Switch, reader TemperatureReader, target repository.TargetStore, cfg ExecutorConfig, log *logger.Logger) *Executor {
	return &Executor{
		light:  light,
		heater: heater,
		reader: reader,
		target: target,
		cfg:    cfg,
		log:    log,
		wait:   sleepCtx,
	}
}

// Execute runs the block for mode.
func (e *Executor) Execute(ctx context.Context, mode schedule.Mode) Outcome {
	out := Outcome{Mode: mode}
	switch mode {
	case schedule.ModeSleep:
		e.log.Infow("block_sleep", "light", "off", "heater", "off")
		e.command(ctx, &out, deviceLight, e.light, actuator.CommandOff)
		e.command(ctx, &out, deviceHeater, e.heater, actuator.CommandOff)
		e.clearTarget(ctx, &out)
	case schedule.ModeWait:
		e.log.Infow("block_wait", "light", "on", "heater", "off")
		e.command(ctx, &out, deviceLight, e.light, actuator.CommandOn)
		e.command(ctx, &out, deviceHeater, e.heater, actuator.CommandOff)
		e.clearTarget(ctx, &out)
	case schedule.ModeHeat:
		e.heat(ctx, &out)
	default:
		e.log.Warnw("unknown_mode_skipped", "mode", mode.String())
		out.Skipped = true
	}
	return out
}

func (e *Executor) heat(ctx context.Context, out *Outcome) {
	e.command(ctx, out, deviceLight, e.light, actuator.CommandOn)

	temp, ok := e.reader.ReadTemperature()
	if !ok {
		// fail safe: never leave the heater running blind
		e.log.Warnw("block_heat_no_sample", "heater", "off")
		out.Faults = append(out.Faults, Fault{Code: models.FaultSensor, Err: errNoSample})
		e.command(ctx, out, deviceHeater, e.heater, actuator.CommandOff)
		if target, found := e.loadTarget(ctx, out); found {
			out.TargetC = &target
		}
		return
	}
	out.TempC = &temp

	target, found := e.loadTarget(ctx, out)
	if !found {
		target = temp + e.cfg.IncrementC
		if err := e.target.Save(ctx, target); err != nil {
			e.log.Errorw("target_save_failed", "target_c", target, "err", err)
			out.Faults = append(out.Faults, Fault{Code: models.FaultStore, Err: err})
		}
		out.TargetCreated = true
		e.log.Infow("target_created", "temp_c", temp, "increment_c", e.cfg.IncrementC, "target_c", target)
	}
	out.TargetC = &target

	cmd := Decide(temp, target)
	e.log.Infow("block_heat", "temp_c", temp, "target_c", target, "heater", cmd.String())
	e.command(ctx, out, deviceHeater, e.heater, cmd)
}

// loadTarget treats a failing store like an empty one; the caller then
// regenerates the target.
func (e *Executor) loadTarget(ctx context.Context, out *Outcome) (float64, bool) {
	v, ok, err := e.target.Load(ctx)
	if err != nil {
		e.log.Errorw("target_load_failed", "err", err)
		out.Faults = append(out.Faults, Fault{Code: models.FaultStore, Err: err})
		return 0, false
	}
	return v, ok
}

func (e *Executor) clearTarget(ctx context.Context, out *Outcome) {
	_, had, err := e.target.Load(ctx)
	if err != nil {
		// still try to delete below
		e.log.Warnw("target_load_failed", "err", err)
		had = true
	}
	if err := e.target.Delete(ctx); err != nil {
		e.log.Errorw("target_delete_failed", "err", err)
		out.Faults = append(out.Faults, Fault{Code: models.FaultStore, Err: err})
		return
	}
	if had {
		out.TargetCleared = true
		e.log.Infow("target_cleared")
	}
}

func (e *Executor) command(ctx context.Context, out *Outcome, device string, sw actuator.Switch, cmd actuator.Command) {
	switch device {
	case deviceLight:
		out.Light = cmd
	case deviceHeater:
		out.Heater = cmd
	}
	if err := actuator.Apply(ctx, sw, cmd); err != nil {
		e.log.Errorw("actuator_command_failed", "device", device, "command", cmd.String(), "err", err)
		out.Faults = append(out.Faults, Fault{Code: models.FaultActuator, Device: device, Err: err})
	}
}

// NeedsWarmUp reports whether a heat episode starting now would begin fresh
// (no stored target) and a warm-up is configured.
func (e *Executor) NeedsWarmUp(ctx context.Context) bool {
	if e.cfg.WarmUp <= 0 {
		return false
	}
	_, ok, err := e.target.Load(ctx)
	return err == nil && !ok
}

// WarmUp turns the light on and the heater off, then blocks for the
// configured warm-up or until ctx is done.
func (e *Executor) WarmUp(ctx context.Context) error {
	var out Outcome
	e.log.Infow("warm_up_started", "duration", e.cfg.WarmUp.String())
	e.command(ctx, &out, deviceLight, e.light, actuator.CommandOn)
	e.command(ctx, &out, deviceHeater, e.heater, actuator.CommandOff)
	if err := e.wait(ctx, e.cfg.WarmUp); err != nil {
		return err
	}
	e.log.Infow("warm_up_finished")
	return nil
}

// ForceOff switches both devices off unconditionally.
func (e *Executor) ForceOff(ctx context.Context) error {
	return ForceOff(ctx, e.light, e.heater)
}

// ForceOff switches heater and light off; both are attempted even if the
// first fails.
func ForceOff(ctx context.Context, light, heater actuator.Switch) error {
	var errs []error
	if err := heater.TurnOff(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := light.TurnOff(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
