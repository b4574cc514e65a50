package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		delta                  float64
	}{
		{name: "same point", lat1: 47.6, lon1: -122.3, lat2: 47.6, lon2: -122.3, want: 0, delta: 1e-6},
		{name: "one degree of latitude", lat1: 0, lon1: 0, lat2: 1, lon2: 0, want: 111195, delta: 5},
		{name: "paris to london", lat1: 48.8566, lon1: 2.3522, lat2: 51.5074, lon2: -0.1278, want: 343900, delta: 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2), tt.delta)
			assert.InDelta(t, tt.want, Haversine(tt.lat2, tt.lon2, tt.lat1, tt.lon1), tt.delta)
		})
	}
}

func TestWalkingDuration(t *testing.T) {
	assert.Equal(t, int32(100), WalkingDuration(100, 1))
	assert.Equal(t, int32(67), WalkingDuration(100, 1.5))
	assert.Equal(t, int32(0), WalkingDuration(100, 0))
	assert.Equal(t, int32(0), WalkingDuration(0, 1.2))
}
