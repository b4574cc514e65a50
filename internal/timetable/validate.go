package timetable

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidData is wrapped by every load-time data error.
var ErrInvalidData = errors.New("invalid timetable data")

// ValidationError lists the structural problems found in a dataset.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	const shown = 5
	issues := e.Issues
	suffix := ""
	if len(issues) > shown {
		suffix = fmt.Sprintf(" (and %d more)", len(issues)-shown)
		issues = issues[:shown]
	}
	return fmt.Sprintf("%s: %s%s", ErrInvalidData, strings.Join(issues, "; "), suffix)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidData }

func (e *ValidationError) addf(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

// Validate checks the structural invariants the scanner relies on. It returns
// a *ValidationError when any of them is violated.
func (d *Data) Validate() error {
	v := &ValidationError{}
	d.validatePatterns(v)
	d.validateVehicleJourneys(v)
	d.validateChains(v)
	d.validateConnections(v)
	if len(v.Issues) > 0 {
		return v
	}
	return nil
}

func (d *Data) validatePatterns(v *ValidationError) {
	nStops := d.Stops.Len()
	nJpps := d.JourneyPatternPoints.Len()
	for _, jp := range d.JourneyPatterns.Items() {
		if jp.Line != InvalidLine && int(jp.Line) >= d.Lines.Len() {
			v.addf("journey pattern %s references unknown line %d", jp.URI, jp.Line)
		}
		for order, idx := range jp.Points {
			if int(idx) >= nJpps {
				v.addf("journey pattern %s references unknown point %d", jp.URI, idx)
				continue
			}
			jpp := d.JourneyPatternPoints.At(uint32(idx))
			if jpp.Order != order {
				v.addf("journey pattern %s: point %s has order %d at position %d", jp.URI, jpp.URI, jpp.Order, order)
			}
			if jpp.JourneyPattern != jp.Idx {
				v.addf("journey pattern %s: point %s belongs to pattern %d", jp.URI, jpp.URI, jpp.JourneyPattern)
			}
		}
	}
	for _, jpp := range d.JourneyPatternPoints.Items() {
		if int(jpp.Stop) >= nStops {
			v.addf("point %s references unknown stop %d", jpp.URI, jpp.Stop)
		}
		if int(jpp.JourneyPattern) >= d.JourneyPatterns.Len() {
			v.addf("point %s references unknown pattern %d", jpp.URI, jpp.JourneyPattern)
		}
	}
}

func (d *Data) validateVehicleJourneys(v *ValidationError) {
	for _, vj := range d.VehicleJourneys.Items() {
		if int(vj.JourneyPattern) >= d.JourneyPatterns.Len() {
			v.addf("vehicle journey %s references unknown pattern %d", vj.URI, vj.JourneyPattern)
			continue
		}
		jp := d.JourneyPatterns.At(uint32(vj.JourneyPattern))
		if len(vj.StopTimes) != len(jp.Points) {
			v.addf("vehicle journey %s has %d stop times, pattern %s has %d points",
				vj.URI, len(vj.StopTimes), jp.URI, len(jp.Points))
			continue
		}
		for i := range vj.StopTimes {
			st := &vj.StopTimes[i]
			if st.Jpp != jp.Points[i] {
				v.addf("vehicle journey %s: stop time %d is not at point %d of its pattern", vj.URI, i, i)
			}
			if st.VehicleJourney != vj.Idx {
				v.addf("vehicle journey %s: stop time %d belongs to journey %d", vj.URI, i, st.VehicleJourney)
			}
			if st.Arrival > st.Departure {
				v.addf("vehicle journey %s: stop time %d departs before it arrives", vj.URI, i)
			}
			if i > 0 && vj.StopTimes[i-1].Departure > st.Arrival {
				v.addf("vehicle journey %s: stop time %d arrives before the previous departure", vj.URI, i)
			}
		}
	}
}

func (d *Data) validateChains(v *ValidationError) {
	n := d.VehicleJourneys.Len()
	for _, vj := range d.VehicleJourneys.Items() {
		if vj.Next != InvalidVj {
			if int(vj.Next) >= n {
				v.addf("vehicle journey %s has a dangling successor extension %d", vj.URI, vj.Next)
			} else {
				next := d.VehicleJourneys.At(uint32(vj.Next))
				if next.Prev != vj.Idx {
					v.addf("vehicle journey %s: successor %s does not point back", vj.URI, next.URI)
				}
				if !d.sameStop(vj.Last(), next.First()) {
					v.addf("vehicle journey %s: successor %s does not start at its last stop", vj.URI, next.URI)
				}
			}
		}
		if vj.Prev != InvalidVj {
			if int(vj.Prev) >= n {
				v.addf("vehicle journey %s has a dangling predecessor extension %d", vj.URI, vj.Prev)
			} else if prev := d.VehicleJourneys.At(uint32(vj.Prev)); prev.Next != vj.Idx {
				v.addf("vehicle journey %s: predecessor %s does not point forward", vj.URI, prev.URI)
			}
		}
	}
	if len(v.Issues) > 0 {
		return
	}
	// Symmetric links make every chain a simple path or a cycle; walking
	// forward from each head must visit every linked journey.
	visited := make([]bool, n)
	for _, vj := range d.VehicleJourneys.Items() {
		if vj.Prev != InvalidVj {
			continue
		}
		for cur := vj; ; {
			visited[cur.Idx] = true
			if cur.Next == InvalidVj {
				break
			}
			cur = d.VehicleJourneys.At(uint32(cur.Next))
		}
	}
	for _, vj := range d.VehicleJourneys.Items() {
		if !visited[vj.Idx] {
			v.addf("vehicle journey %s is part of a cyclic extension chain", vj.URI)
		}
	}
}

func (d *Data) sameStop(a, b *StopTime) bool {
	if a == nil || b == nil {
		return false
	}
	n := uint32(d.JourneyPatternPoints.Len())
	if uint32(a.Jpp) >= n || uint32(b.Jpp) >= n {
		return false
	}
	return d.JourneyPatternPoints.At(uint32(a.Jpp)).Stop == d.JourneyPatternPoints.At(uint32(b.Jpp)).Stop
}

func (d *Data) validateConnections(v *ValidationError) {
	n := d.JourneyPatternPoints.Len()
	for _, c := range d.Connections {
		if int(c.From) >= n || int(c.To) >= n {
			v.addf("connection %d references an unknown point", c.Idx)
		}
		if c.Duration < 0 {
			v.addf("connection %d has a negative duration", c.Idx)
		}
	}
	for i, c := range d.StopConnections {
		if int(c.From) >= d.Stops.Len() || int(c.To) >= d.Stops.Len() {
			v.addf("stop connection %d references an unknown stop", i)
		}
	}
}
