package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// DateTimeLayout is the wire format of request and response date-times.
const DateTimeLayout = "20060102T150405"

var (
	// GTFS ids and timetable uris: alphanumerics plus _ . : -
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateDateTime checks the layout of a date-time. Whether it falls in the
// production period is left to the planner.
func ValidateDateTime(s string) error {
	if s == "" {
		return errors.New("datetime cannot be empty")
	}
	if _, err := time.Parse(DateTimeLayout, s); err != nil {
		return errors.New("invalid datetime format, use YYYYMMDDTHHMMSS")
	}
	return nil
}

// ValidateMaxTransfers bounds the number of rounds a client may request.
func ValidateMaxTransfers(n, limit int) error {
	if n <= 0 {
		return errors.New("max transfers must be positive")
	}
	if limit > 0 && n > limit {
		return errors.New("max transfers too large")
	}
	return nil
}

// SanitizeInput removes HTML tags and surrounding whitespace
func SanitizeInput(input string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(input, ""))
}
