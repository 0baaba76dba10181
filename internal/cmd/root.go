package cmd

import (
	"os"

	"chamber_control/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile string

	// v collects defaults, config file, CHAMBER_* env and bound flags.
	v = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "chamberctl",
	Short: "Grow-chamber light and heater controller",
	Long: `chamberctl switches a grow-light and a heater according to a fixed
time-of-day schedule and holds the chamber temperature during heat periods.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: configs/config.yml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func loadConfig() (*config.Config, error) {
	return config.Load(v, cfgFile)
}
