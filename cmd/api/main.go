package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"planner.onebusaway.org/internal/app"
	"planner.onebusaway.org/internal/gtfs"
	"planner.onebusaway.org/internal/logging"
	"planner.onebusaway.org/internal/restapi"
	"planner.onebusaway.org/internal/webui"
)

// shutdownTimeout bounds the wait for in-flight requests on exit.
const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env file is fine: the environment and flags still apply.
	_ = godotenv.Load()

	s, err := parseSettings(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(s.logLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, s, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, s settings, logger *slog.Logger) error {
	manager, err := gtfs.InitGTFSManager(s.gtfs)
	if err != nil {
		return fmt.Errorf("failed to initialize GTFS manager: %w", err)
	}
	defer manager.Shutdown()
	logger.Info("timetable ready", slog.String("statistics", manager.Timetable().Statistics().String()))

	application := app.New(s.app, s.gtfs, logger, manager)
	api := restapi.NewRestAPI(application)
	defer api.Shutdown()

	srv := newServer(application, api, logger)
	errs := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", s.app.Env.String()))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServer(application *app.Application, api *restapi.RestAPI, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/api/", api.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if application.GtfsManager.Engine() == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ui := &webui.WebUI{GtfsManager: application.GtfsManager}
	ui.SetWebUIRoutes(mux)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", application.Config.Port),
		Handler:      mux,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
