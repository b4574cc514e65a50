package raptor

import "planner.onebusaway.org/internal/timetable"

// filter holds the per-query boarding restrictions. It is built once per
// request and shared read-only by every start instant.
type filter struct {
	tt               *timetable.Timetable
	clockwise        bool
	wheelchair       bool
	forbiddenVj      []bool
	forbiddenPattern []bool
}

func newFilter(tt *timetable.Timetable, clockwise bool, accessibility AccessibilityParams, forbidden []string) *filter {
	f := &filter{
		tt:         tt,
		clockwise:  clockwise,
		wheelchair: accessibility.Wheelchair,
	}
	for _, uri := range forbidden {
		if vj, ok := tt.VehicleJourneyByURI(uri); ok {
			if f.forbiddenVj == nil {
				f.forbiddenVj = make([]bool, len(tt.VehicleJourneys()))
			}
			f.forbiddenVj[vj.Idx] = true
			continue
		}
		if line, ok := tt.LineByURI(uri); ok {
			if f.forbiddenPattern == nil {
				f.forbiddenPattern = make([]bool, len(tt.JourneyPatterns()))
			}
			for _, jp := range tt.JourneyPatterns() {
				if jp.Line == line.Idx {
					f.forbiddenPattern[jp.Idx] = true
				}
			}
		}
	}
	return f
}

// patternAllowed reports whether any journey of jp may be used.
func (f *filter) patternAllowed(jp timetable.JpIdx) bool {
	return f.forbiddenPattern == nil || !f.forbiddenPattern[jp]
}

// journeyAllowed checks the restrictions that do not depend on a stop.
func (f *filter) journeyAllowed(vj *timetable.VehicleJourney, day int) bool {
	if !vj.RunsOn(day) {
		return false
	}
	if f.forbiddenVj != nil && f.forbiddenVj[vj.Idx] {
		return false
	}
	if !f.patternAllowed(vj.JourneyPattern) {
		return false
	}
	return !f.wheelchair || vj.Wheelchair
}

// stopAllowed reports whether a ride may start or end at jpp.
func (f *filter) stopAllowed(jpp timetable.JppIdx) bool {
	return !f.wheelchair || f.tt.StopOf(jpp).Wheelchair
}

// canBoard reports whether vj may be boarded at its stop time of rank order
// on service day.
func (f *filter) canBoard(vj *timetable.VehicleJourney, order, day int) bool {
	if order < 0 || order >= len(vj.StopTimes) {
		return false
	}
	if !vj.StopTimes[order].ValidBegin(f.clockwise) {
		return false
	}
	return f.journeyAllowed(vj, day)
}
