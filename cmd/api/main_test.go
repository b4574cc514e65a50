package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner.onebusaway.org/internal/app"
	"planner.onebusaway.org/internal/appconf"
	"planner.onebusaway.org/internal/gtfs"
	"planner.onebusaway.org/internal/restapi"
	"planner.onebusaway.org/internal/timetable"
)

func TestNewServer(t *testing.T) {
	b := timetable.NewBuilder(timetable.MustParsePeriod("20250102", 2))
	b.VJ("L1").URI("vj:1").At("A", 3600, 3600).At("B", 4200, 4200)
	tt, err := b.Build()
	require.NoError(t, err)
	manager := gtfs.NewManagerFromTimetable(tt, gtfs.Config{})
	defer manager.Shutdown()

	config := appconf.Config{Port: 4321, ApiKeys: []string{"k"}, MaxTransfers: 3, MaxTransfersLimit: 5}
	application := app.New(config, gtfs.Config{}, slog.Default(), manager)
	api := restapi.NewRestAPI(application)
	defer api.Shutdown()

	srv := newServer(application, api, slog.Default())
	assert.Equal(t, ":4321", srv.Addr)

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/api/where/current-time.json?key=k", http.StatusOK},
		{"/api/where/plan-journeys.json?key=k&from=A&to=B&datetime=20250102T005000", http.StatusOK},
		{"/api/where/current-time.json", http.StatusUnauthorized},
		{"/debug/?dataType=statistics", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			srv.Handler.ServeHTTP(recorder, httptest.NewRequest("GET", tc.path, nil))
			assert.Equal(t, tc.status, recorder.Code)
		})
	}
}
