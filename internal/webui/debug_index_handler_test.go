package webui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner.onebusaway.org/internal/gtfs"
	"planner.onebusaway.org/internal/timetable"
)

func newTestWebUI(t *testing.T) *WebUI {
	t.Helper()
	b := timetable.NewBuilder(timetable.MustParsePeriod("20250102", 3))
	b.Stop("stop:A").Name = "Alpha"
	b.VJ("L1").URI("vj:1").At("stop:A", 3600, 3600).At("stop:B", 7200, 7200)
	tt, err := b.Build()
	require.NoError(t, err)
	manager := gtfs.NewManagerFromTimetable(tt, gtfs.Config{})
	t.Cleanup(manager.Shutdown)
	return &WebUI{GtfsManager: manager}
}

func TestDebugIndexHandler(t *testing.T) {
	webUI := newTestWebUI(t)
	mux := http.NewServeMux()
	webUI.SetWebUIRoutes(mux)

	tests := []struct {
		dataType string
		contains []string
	}{
		{"statistics", []string{"Timetable - Statistics", "1 vehicle journeys"}},
		{"stops", []string{"Timetable - Stops", "Alpha"}},
		{"vehicle_journeys", []string{"vj:1"}},
		{"warnings", []string{"restored from snapshot"}},
		{"", []string{"Choose a data type", "connections"}},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			mux.ServeHTTP(recorder, httptest.NewRequest("GET", "/debug/?dataType="+tt.dataType, nil))

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Equal(t, "text/html; charset=utf-8", recorder.Header().Get("Content-Type"))
			for _, s := range tt.contains {
				assert.Contains(t, recorder.Body.String(), s)
			}
		})
	}
}
