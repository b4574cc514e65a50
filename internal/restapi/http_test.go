package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"planner.onebusaway.org/internal/app"
	"planner.onebusaway.org/internal/appconf"
	"planner.onebusaway.org/internal/gtfs"
	"planner.onebusaway.org/internal/logging"
	"planner.onebusaway.org/internal/timetable"
)

func hm(h, m int) int32 { return int32(h*3600 + m*60) }

// testTimetable: line L1 runs A to C through B, line L2 runs C to D.
func testTimetable(t *testing.T) *timetable.Timetable {
	t.Helper()
	b := timetable.NewBuilder(timetable.MustParsePeriod("20250102", 7))
	for uri, name := range map[string]string{"A": "Alpha", "B": "Bravo", "C": "Charlie", "D": "Delta"} {
		s := b.Stop(uri)
		s.Name = name
		s.Wheelchair = true
	}
	b.Stop("A").Lat, b.Stop("A").Lon = 47.60, -122.33
	b.Stop("D").Lat, b.Stop("D").Lon = 47.62, -122.31
	b.Line("L1").Code = "1"
	b.Line("L2").Code = "2"
	b.VJ("L1").URI("vj:1").Headsign("Charlie").Wheelchair(true).
		At("A", hm(8, 0), hm(8, 0)).
		At("B", hm(8, 10), hm(8, 11)).
		At("C", hm(8, 20), hm(8, 20))
	b.VJ("L2").URI("vj:2").Headsign("Delta").
		At("C", hm(8, 30), hm(8, 30)).
		At("D", hm(8, 45), hm(8, 45))
	tt, err := b.Build()
	require.NoError(t, err)
	return tt
}

// createTestApi creates a RestAPI serving testTimetable.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	manager := gtfs.NewManagerFromTimetable(testTimetable(t), gtfs.Config{})
	t.Cleanup(manager.Shutdown)

	config := appconf.Config{
		Env:               appconf.Test,
		ApiKeys:           []string{"TEST"},
		RateLimit:         100,
		MaxTransfers:      appconf.DefaultMaxTransfers,
		MaxTransfersLimit: appconf.DefaultMaxTransfersLimit,
	}
	api := NewRestAPI(app.New(config, gtfs.Config{}, slog.Default(), manager))
	t.Cleanup(api.Shutdown)
	return api
}

type testResponse struct {
	Code        int                 `json:"code"`
	CurrentTime int64               `json:"currentTime"`
	Text        string              `json:"text"`
	Version     int                 `json:"version"`
	Data        map[string]any      `json:"data"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// serveApiAndRetrieveEndpoint serves api through its full middleware chain
// and decodes the response of endpoint.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, testResponse) {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var response testResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	return resp, response
}

func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, testResponse) {
	t.Helper()
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}
