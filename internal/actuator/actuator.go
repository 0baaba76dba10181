// Package actuator drives the chamber's two on/off devices (grow-light and
// heater). Commands are written open loop; state is never read back.
package actuator

import (
	"context"
	"fmt"

	"chamber_control/internal/logger"
)

// Switch is an idempotent on/off device.
type Switch interface {
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

type Command int

const (
	// CommandOn turns something on
	CommandOn Command = iota + 1
	// CommandOff turns something off
	CommandOff
)

func (c Command) String() string {
	switch c {
	case CommandOn:
		return "on"
	case CommandOff:
		return "off"
	default:
		return ""
	}
}

// Apply sends cmd to sw.
func Apply(ctx context.Context, sw Switch, cmd Command) error {
	switch cmd {
	case CommandOn:
		return sw.TurnOn(ctx)
	case CommandOff:
		return sw.TurnOff(ctx)
	default:
		return fmt.Errorf("actuator: unknown command %d", cmd)
	}
}

// Driver names accepted in config (actuators.driver).
const (
	DriverKasa = "kasa"
	DriverLog  = "log"
)

// LogSwitch is the dry-run driver: it only logs the commands it receives.
type LogSwitch struct {
	name string
	log  *logger.Logger
}

func NewLogSwitch(name string, log *logger.Logger) *LogSwitch {
	return &LogSwitch{name: name, log: log}
}

func (s *LogSwitch) TurnOn(ctx context.Context) error {
	s.log.Infow("dry_run_switch", "device", s.name, "command", CommandOn.String())
	return nil
}

func (s *LogSwitch) TurnOff(ctx context.Context) error {
	s.log.Infow("dry_run_switch", "device", s.name, "command", CommandOff.String())
	return nil
}
