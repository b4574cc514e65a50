package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/where/stop/C.json?key=TEST")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := model.Data["entry"].(map[string]any)
	assert.Equal(t, "C", entry["id"])
	assert.Equal(t, "Charlie", entry["name"])
	assert.Equal(t, "ACCESSIBLE", entry["wheelchairBoarding"])
	assert.Equal(t, []any{"L1", "L2"}, entry["lineIds"])

	references := model.Data["references"].(map[string]any)
	assert.Len(t, references["lines"], 2)
}

func TestStopHandlerErrors(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		status   int
	}{
		{"unknown stop", "/api/where/stop/Z.json?key=TEST", http.StatusNotFound},
		{"invalid id", "/api/where/stop/%3Cb%3E.json?key=TEST", http.StatusBadRequest},
		{"missing key", "/api/where/stop/C.json", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, _ := serveAndRetrieveEndpoint(t, tt.endpoint)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
