package timetable

import "math"

// Dense indices into the timetable arenas.
type (
	StopIdx uint32
	LineIdx uint32
	JpIdx   uint32
	JppIdx  uint32
	VjIdx   uint32
)

// InvalidIdx marks a missing reference.
const InvalidIdx = math.MaxUint32

const (
	InvalidStop StopIdx = InvalidIdx
	InvalidLine LineIdx = InvalidIdx
	InvalidJp   JpIdx   = InvalidIdx
	InvalidJpp  JppIdx  = InvalidIdx
	InvalidVj   VjIdx   = InvalidIdx
)

// Stop is a boarding point.
type Stop struct {
	Idx        StopIdx
	URI        string
	Name       string
	Lat        float64
	Lon        float64
	Wheelchair bool
}

func (s *Stop) key() string { return s.URI }
func (s *Stop) index() uint32 { return uint32(s.Idx) }
func (s *Stop) setIndex(idx uint32) { s.Idx = StopIdx(idx) }
func (s *Stop) less(other *Stop) bool { return s.URI < other.URI }

// Line groups the journey patterns of one commercial route.
type Line struct {
	Idx  LineIdx
	URI  string
	Code string
	Name string
}

func (l *Line) key() string { return l.URI }
func (l *Line) index() uint32 { return uint32(l.Idx) }
func (l *Line) setIndex(idx uint32) { l.Idx = LineIdx(idx) }
func (l *Line) less(other *Line) bool { return l.URI < other.URI }

// JourneyPattern is the ordered stop sequence shared by its vehicle journeys.
type JourneyPattern struct {
	Idx    JpIdx
	URI    string
	Line   LineIdx
	Points []JppIdx
}

func (jp *JourneyPattern) key() string { return jp.URI }
func (jp *JourneyPattern) index() uint32 { return uint32(jp.Idx) }
func (jp *JourneyPattern) setIndex(idx uint32) { jp.Idx = JpIdx(idx) }
func (jp *JourneyPattern) less(other *JourneyPattern) bool {
	if jp.Line != other.Line {
		return jp.Line < other.Line
	}
	return jp.URI < other.URI
}

// JourneyPatternPoint is one ordered position of a stop within a pattern.
type JourneyPatternPoint struct {
	Idx            JppIdx
	URI            string
	JourneyPattern JpIdx
	Order          int
	Stop           StopIdx
}

func (jpp *JourneyPatternPoint) key() string { return jpp.URI }
func (jpp *JourneyPatternPoint) index() uint32 { return uint32(jpp.Idx) }
func (jpp *JourneyPatternPoint) setIndex(idx uint32) { jpp.Idx = JppIdx(idx) }
func (jpp *JourneyPatternPoint) less(other *JourneyPatternPoint) bool {
	if jpp.JourneyPattern != other.JourneyPattern {
		return jpp.JourneyPattern < other.JourneyPattern
	}
	return jpp.Order < other.Order
}

// VehicleJourney is one scheduled trip. Prev and Next are the predecessor and
// successor extensions: the same physical run split at a service-day boundary.
type VehicleJourney struct {
	Idx            VjIdx
	URI            string
	Headsign       string
	JourneyPattern JpIdx
	StopTimes      []StopTime
	Prev           VjIdx
	Next           VjIdx
	Validity       *ValidityPattern
	Wheelchair     bool
}

func (vj *VehicleJourney) key() string { return vj.URI }
func (vj *VehicleJourney) index() uint32 { return uint32(vj.Idx) }
func (vj *VehicleJourney) setIndex(idx uint32) { vj.Idx = VjIdx(idx) }
func (vj *VehicleJourney) less(other *VehicleJourney) bool {
	if vj.JourneyPattern != other.JourneyPattern {
		return vj.JourneyPattern < other.JourneyPattern
	}
	a, b := vj.firstDeparture(), other.firstDeparture()
	if a != b {
		return a < b
	}
	return vj.URI < other.URI
}

func (vj *VehicleJourney) firstDeparture() int32 {
	if len(vj.StopTimes) == 0 {
		return -1
	}
	return vj.StopTimes[0].Departure
}

// RunsOn reports whether the journey runs on service day day.
func (vj *VehicleJourney) RunsOn(day int) bool {
	return vj.Validity.Check(day)
}

// First and Last return the boundary stop times; nil when the journey has none.
func (vj *VehicleJourney) First() *StopTime {
	if len(vj.StopTimes) == 0 {
		return nil
	}
	return &vj.StopTimes[0]
}

func (vj *VehicleJourney) Last() *StopTime {
	if len(vj.StopTimes) == 0 {
		return nil
	}
	return &vj.StopTimes[len(vj.StopTimes)-1]
}

// StopTime is a call of a vehicle journey at a journey pattern point. Offsets
// are seconds since the start of the journey's service day.
type StopTime struct {
	VehicleJourney VjIdx
	Jpp            JppIdx
	Order          int
	Arrival        int32
	Departure      int32
	PickUp         bool
	DropOff        bool
}

// SectionEndDate is the date-time at which a ride ends at this stop time:
// the arrival when travelling clockwise, the departure otherwise.
func (st *StopTime) SectionEndDate(date int, clockwise bool) DateTime {
	if clockwise {
		return Set(date, st.Arrival)
	}
	return Set(date, st.Departure)
}

// SectionBeginDate is the date-time at which a ride starts at this stop time.
func (st *StopTime) SectionBeginDate(date int, clockwise bool) DateTime {
	if clockwise {
		return Set(date, st.Departure)
	}
	return Set(date, st.Arrival)
}

// ValidBegin reports whether a ride can start here in the scan direction.
func (st *StopTime) ValidBegin(clockwise bool) bool {
	if clockwise {
		return st.PickUp
	}
	return st.DropOff
}

// ValidEnd reports whether a ride can end here in the scan direction.
func (st *StopTime) ValidEnd(clockwise bool) bool {
	if clockwise {
		return st.DropOff
	}
	return st.PickUp
}

// Connection is a transfer edge between two journey pattern points.
type Connection struct {
	Idx      uint32
	From     JppIdx
	To       JppIdx
	Duration int32
}

// StopConnection is a walkable transfer between two stops, in seconds.
// Connections are derived from it for every pair of pattern points.
type StopConnection struct {
	From     StopIdx
	To       StopIdx
	Duration int32
}

// Transfer is one end of a connection seen from a pattern point.
type Transfer struct {
	Jpp      JppIdx
	Duration int32
}
