package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCurrentTimeData(t *testing.T) {
	now := time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC)

	data := NewCurrentTimeData(now)

	assert.Equal(t, "2025-05-03T12:00:00Z", data.Entry.ReadableTime)
	assert.Equal(t, now.UnixMilli(), data.Entry.Time)
	assert.Empty(t, data.References.Stops)
	assert.NotNil(t, data.References.Lines)
}
