package cmd

import (
	"database/sql"
	"fmt"

	"chamber_control/internal/actuator"
	"chamber_control/internal/config"
	"chamber_control/internal/logger"
	"chamber_control/internal/repository"
)

// newSwitches builds the light and heater switches for the configured driver.
func newSwitches(cfg *config.Config, log *logger.Logger) (light, heater actuator.Switch, err error) {
	switch cfg.Actuators.Driver {
	case actuator.DriverLog:
		return actuator.NewLogSwitch("light", log), actuator.NewLogSwitch("heater", log), nil
	case actuator.DriverKasa:
		kasa, err := actuator.NewKasa(cfg.Actuators.KasaPath, cfg.Actuators.KasaTimeout)
		if err != nil {
			return nil, nil, err
		}
		return kasa.Plug(cfg.Actuators.LightHost), kasa.Plug(cfg.Actuators.HeaterHost), nil
	default:
		return nil, nil, fmt.Errorf("unknown actuator driver %q", cfg.Actuators.Driver)
	}
}

// newTargetStore picks the target backend: the target table of db for
// sqlite, the plain-text file otherwise.
func newTargetStore(cfg *config.Config, db *sql.DB) repository.TargetStore {
	if cfg.Target.Backend == config.TargetBackendSQLite {
		return repository.NewTargetSQLite(db)
	}
	return repository.NewTargetFile(cfg.Target.Path)
}
