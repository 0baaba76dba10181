package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chamber_control/internal/handlers"
	"chamber_control/internal/logger"
	"chamber_control/internal/repository"
	"chamber_control/internal/repository/db"
	"chamber_control/internal/sensor"
	"chamber_control/internal/server"
	"chamber_control/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the control loop",
	Long: `Run the control loop: every poll interval the active schedule slot is
resolved and executed. Light and heater are switched off once at startup. The
read-only status API is served on http.port unless it is empty.`,
	RunE: runController,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("directory", "d", "", "Directory the temperature logger writes its CSV files to (required)")
	runCmd.Flags().String("port", "", "Status API port (overrides http.port)")
	_ = v.BindPFlag("directory", runCmd.Flags().Lookup("directory"))
	_ = v.BindPFlag("http.port", runCmd.Flags().Lookup("port"))
}

func runController(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Errorw("invalid_config", "err", err)
		return err
	}
	sched, err := cfg.ParseSchedule()
	if err != nil {
		return err
	}
	for _, s := range sched.UnknownModes() {
		log.Warnw("unknown_mode_in_schedule", "slot", s.Range(), "mode", s.Mode.String())
	}

	database, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Errorw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
		return err
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	light, heater, err := newSwitches(cfg, log)
	if err != nil {
		log.Errorw("actuator_init_failed", "driver", cfg.Actuators.Driver, "err", err)
		return err
	}

	// wire dependencies
	repos := repository.NewRepository(database, newTargetStore(cfg, database))
	reader := sensor.NewReader(cfg.Directory, cfg.SensorOptions(), log)
	exec := service.NewExecutor(light, heater, reader, repos.Target, service.ExecutorConfig{
		IncrementC: cfg.IncrementC,
		WarmUp:     cfg.WarmUp,
	}, log)
	scheduler := service.NewSchedulerService(sched, exec, repos.StateRepo, repos.EventRepo, log)
	services := service.NewService(repos, scheduler)

	log.Infow("controller_starting",
		"directory", cfg.Directory,
		"slots", len(sched),
		"poll_interval", cfg.PollInterval.String(),
		"driver", cfg.Actuators.Driver,
		"target_backend", cfg.Target.Backend,
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		services.Scheduler.Run(ctx, cfg.PollInterval)
	}()

	var srv *server.Server
	if cfg.HTTP.Port != "" {
		srv = &server.Server{}
		runHTTPServer(srv, cfg.HTTP.Port, handlers.NewHandler(services, log), log)
	}

	waitForShutdown(cancel, srv, loopDone, log)
	return nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_server_listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT/SIGTERM, stops the control loop and
// drains the HTTP server.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, loopDone <-chan struct{}, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	case <-loopDone:
		log.Warnw("control loop exited")
	}

	cancel()
	<-loopDone

	if srv == nil {
		return
	}
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
