package timetable

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// SecondsPerDay is the length of a service day.
const SecondsPerDay = 24 * 60 * 60

// DateTimeLayout is the compact date-time format used by the journey API.
const DateTimeLayout = "20060102T150405"

// DateTime is a number of seconds since midnight of the first day of the
// production period. Inf and Min are sentinels and are never valid times.
type DateTime int32

const (
	Inf DateTime = math.MaxInt32
	Min DateTime = math.MinInt32
)

// Date returns the service day index of dt.
func Date(dt DateTime) int {
	d := int(dt) / SecondsPerDay
	if dt < 0 && int(dt)%SecondsPerDay != 0 {
		d--
	}
	return d
}

// Hour returns the number of seconds elapsed since midnight of Date(dt).
func Hour(dt DateTime) int32 {
	return int32(int(dt) - Date(dt)*SecondsPerDay)
}

// Set builds the date-time found seconds after the midnight of day date.
// seconds may exceed one day for trips running past midnight.
func Set(date int, seconds int32) DateTime {
	return DateTime(date*SecondsPerDay + int(seconds))
}

func (dt DateTime) String() string {
	switch dt {
	case Inf:
		return "+inf"
	case Min:
		return "-inf"
	}
	h := Hour(dt)
	return fmt.Sprintf("%d:%02d:%02d:%02d", Date(dt), h/3600, (h/60)%60, h%60)
}

var ErrOutsidePeriod = errors.New("date-time outside production period")

// Period is the production period of a dataset: Days consecutive service days
// starting at Start, a midnight in the dataset's timezone.
type Period struct {
	Start time.Time
	Days  int
}

// NewPeriod returns the period of days service days starting on the date of start in loc.
func NewPeriod(start time.Time, days int, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := start.Date()
	return Period{Start: time.Date(y, m, d, 0, 0, 0, 0, loc), Days: days}
}

// ParsePeriod builds a period from a YYYYMMDD start date.
func ParsePeriod(startDate string, days int, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("20060102", startDate, loc)
	if err != nil {
		return Period{}, fmt.Errorf("invalid production start date %q: %w", startDate, err)
	}
	if days <= 0 {
		return Period{}, fmt.Errorf("production period must have at least one day, got %d", days)
	}
	return NewPeriod(start, days, loc), nil
}

func (p Period) Location() *time.Location {
	if p.Start.Location() == nil {
		return time.UTC
	}
	return p.Start.Location()
}

// End returns the midnight following the last service day.
func (p Period) End() time.Time {
	return p.Start.AddDate(0, 0, p.Days)
}

// ContainsDay reports whether day is a service day of the period.
func (p Period) ContainsDay(day int) bool {
	return day >= 0 && day < p.Days
}

// Contains reports whether dt falls inside the period.
func (p Period) Contains(dt DateTime) bool {
	return dt != Inf && dt != Min && p.ContainsDay(Date(dt))
}

// DayOf returns the service day index of the calendar date of t.
func (p Period) DayOf(t time.Time) int {
	t = t.In(p.Location())
	y, m, d := t.Date()
	sy, sm, sd := p.Start.Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// FromTime converts a wall-clock time into a DateTime.
func (p Period) FromTime(t time.Time) DateTime {
	t = t.In(p.Location())
	seconds := int32(t.Hour()*3600 + t.Minute()*60 + t.Second())
	return Set(p.DayOf(t), seconds)
}

// Time converts dt back into a wall-clock time.
func (p Period) Time(dt DateTime) time.Time {
	y, m, d := p.Start.Date()
	return time.Date(y, m, d+Date(dt), 0, 0, int(Hour(dt)), 0, p.Location())
}

// Format renders dt with DateTimeLayout.
func (p Period) Format(dt DateTime) string {
	return p.Time(dt).Format(DateTimeLayout)
}

// Parse reads a DateTimeLayout string. The result must fall inside the period.
func (p Period) Parse(value string) (DateTime, error) {
	t, err := time.ParseInLocation(DateTimeLayout, value, p.Location())
	if err != nil {
		return 0, fmt.Errorf("invalid date-time %q: %w", value, err)
	}
	dt := p.FromTime(t)
	if !p.Contains(dt) {
		return 0, fmt.Errorf("%s: %w", value, ErrOutsidePeriod)
	}
	return dt, nil
}

// Date returns the calendar date of a service day.
func (p Period) Date(day int) time.Time {
	y, m, d := p.Start.Date()
	return time.Date(y, m, d+day, 0, 0, 0, 0, p.Location())
}
