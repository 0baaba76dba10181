package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"chamber_control/internal/schedule"

	"github.com/spf13/cobra"
)

var scheduleAt string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the configured schedule and the active slot",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "Time of day to resolve, HH:MM (default: now)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sched, err := cfg.ParseSchedule()
	if err != nil {
		return err
	}

	at := time.Now()
	if scheduleAt != "" {
		tod, err := schedule.ParseTimeOfDay(scheduleAt)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		at = tod.On(at)
	}
	active, ok := sched.Active(at)

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tRANGE\tMODE\t")
	for i, s := range sched {
		var notes []string
		if ok && s == active {
			notes = append(notes, "<- active")
		}
		if !s.Mode.Known() {
			notes = append(notes, "(unknown mode, skipped)")
		}
		mark := strings.Join(notes, " ")
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, s.Range(), s.Mode, mark)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if ok {
		fmt.Fprintf(out, "at %s: %s (%s)\n", at.Format("15:04"), active.Mode, active.Range())
	} else {
		fmt.Fprintf(out, "at %s: no slot active\n", at.Format("15:04"))
	}
	return nil
}
