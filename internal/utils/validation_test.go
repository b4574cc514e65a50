package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid simple ID",
			id:   "agency_123",
		},
		{
			name: "valid uri with colons",
			id:   "stop_area:OIF:SA:8727100",
		},
		{
			name:    "empty ID",
			id:      "",
			wantErr: true,
			errMsg:  "id cannot be empty",
		},
		{
			name:    "ID too long",
			id:      strings.Repeat("a", 101),
			wantErr: true,
			errMsg:  "id too long (max 100 characters)",
		},
		{
			name:    "ID with invalid characters",
			id:      "stop_123<script>",
			wantErr: true,
			errMsg:  "id contains invalid characters",
		},
		{
			name:    "ID with SQL injection attempt",
			id:      "stop_'; DROP TABLE stops; --",
			wantErr: true,
			errMsg:  "id contains invalid characters",
		},
		{
			name:    "ID with path traversal",
			id:      "../../../etc/passwd",
			wantErr: true,
			errMsg:  "id contains invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr {
				assert.EqualError(t, err, tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateLatitude(47.6))
	assert.Error(t, ValidateLatitude(90.1))
	assert.NoError(t, ValidateLongitude(-180))
	assert.Error(t, ValidateLongitude(-180.5))
}

func TestValidateDateTime(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid", value: "20120614T080000"},
		{name: "empty", value: "", wantErr: true},
		{name: "date only", value: "20120614", wantErr: true},
		{name: "iso layout", value: "2012-06-14T08:00:00", wantErr: true},
		{name: "invalid hour", value: "20120614T250000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr {
				assert.Error(t, ValidateDateTime(tt.value))
			} else {
				assert.NoError(t, ValidateDateTime(tt.value))
			}
		})
	}
}

func TestValidateMaxTransfers(t *testing.T) {
	assert.NoError(t, ValidateMaxTransfers(3, 10))
	assert.NoError(t, ValidateMaxTransfers(30, 0))
	assert.Error(t, ValidateMaxTransfers(0, 10))
	assert.Error(t, ValidateMaxTransfers(-1, 10))
	assert.Error(t, ValidateMaxTransfers(11, 10))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "stop", SanitizeInput("  <b>stop</b> "))
	assert.Equal(t, "", SanitizeInput("<script></script>"))
}
