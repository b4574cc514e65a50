package app

import (
	"log/slog"

	"planner.onebusaway.org/internal/appconf"
	"planner.onebusaway.org/internal/gtfs"
	"planner.onebusaway.org/internal/planner"
)

// Application holds the dependencies shared by the HTTP handlers, helpers
// and middleware.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Planner     *planner.Planner
}

// New wires the planner to the manager's published timetable.
func New(config appconf.Config, gtfsConfig gtfs.Config, logger *slog.Logger, manager *gtfs.Manager) *Application {
	return &Application{
		Config:      config,
		GtfsConfig:  gtfsConfig,
		Logger:      logger,
		GtfsManager: manager,
		Planner:     planner.New(manager, logger),
	}
}
