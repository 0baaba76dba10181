package cmd

import (
	"context"
	"fmt"
	"time"

	"chamber_control/internal/actuator"
	"chamber_control/internal/logger"
	"chamber_control/internal/service"

	"github.com/spf13/cobra"
)

var offHeaterOnly bool

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Switch light and heater off",
	Long: `Switch light and heater off once and exit. Use it after stopping the
controller; the stored target temperature is left untouched.`,
	RunE: runOff,
}

func init() {
	rootCmd.AddCommand(offCmd)

	offCmd.Flags().BoolVar(&offHeaterOnly, "heater-only", false, "Only switch the heater off")
}

func runOff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LogLevel)
	if err := cfg.ValidateActuators(); err != nil {
		return err
	}

	light, heater, err := newSwitches(cfg, log)
	if err != nil {
		return err
	}

	timeout := cfg.Actuators.KasaTimeout
	if timeout <= 0 {
		timeout = actuator.DefaultKasaTimeout
	}
	// two plug commands plus slack
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*timeout+time.Second)
	defer cancel()

	if offHeaterOnly {
		if err := heater.TurnOff(ctx); err != nil {
			return fmt.Errorf("heater off: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "heater off")
		return nil
	}
	if err := service.ForceOff(ctx, light, heater); err != nil {
		return fmt.Errorf("force off: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "light and heater off")
	return nil
}
