package timetable

import (
	"cmp"
	"fmt"
	"slices"
)

// TripTime is one entry of a point's sorted departure or arrival list.
type TripTime struct {
	Offset int32
	VJ     VjIdx
}

// Timetable is the read-only, indexed view of a dataset shared by every
// concurrent search. It is never modified once built; a reload builds a new one.
type Timetable struct {
	data *Data

	departures    [][]TripTime
	arrivals      [][]TripTime
	transfersFrom [][]Transfer
	transfersTo   [][]Transfer
	jppsByStop    [][]JppIdx
	overnightDays int
}

// New sorts, indexes and validates data, then derives the boarding indexes.
// data must not be modified afterwards.
func New(data *Data) (*Timetable, error) {
	data.Sort()
	data.Index()
	data.BuildURI()
	if err := data.Validate(); err != nil {
		return nil, err
	}
	tt := &Timetable{data: data}
	tt.buildTripIndex()
	tt.buildTransfers()
	tt.buildStopIndex()
	return tt, nil
}

func (tt *Timetable) buildTripIndex() {
	n := tt.data.JourneyPatternPoints.Len()
	tt.departures = make([][]TripTime, n)
	tt.arrivals = make([][]TripTime, n)
	maxOffset := int32(0)
	for _, vj := range tt.data.VehicleJourneys.Items() {
		for i := range vj.StopTimes {
			st := &vj.StopTimes[i]
			tt.departures[st.Jpp] = append(tt.departures[st.Jpp], TripTime{Offset: st.Departure, VJ: vj.Idx})
			tt.arrivals[st.Jpp] = append(tt.arrivals[st.Jpp], TripTime{Offset: st.Arrival, VJ: vj.Idx})
			maxOffset = max(maxOffset, st.Departure)
		}
	}
	// Equal offsets resolve to the lowest journey index in both directions:
	// forward scans departures from the front, backward scans arrivals from the back.
	for i := range tt.departures {
		slices.SortFunc(tt.departures[i], func(a, b TripTime) int {
			if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
				return c
			}
			return cmp.Compare(a.VJ, b.VJ)
		})
		slices.SortFunc(tt.arrivals[i], func(a, b TripTime) int {
			if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
				return c
			}
			return cmp.Compare(b.VJ, a.VJ)
		})
	}
	tt.overnightDays = int(maxOffset / SecondsPerDay)
}

func (tt *Timetable) buildTransfers() {
	n := tt.data.JourneyPatternPoints.Len()
	tt.transfersFrom = make([][]Transfer, n)
	tt.transfersTo = make([][]Transfer, n)
	for _, c := range tt.data.Connections {
		tt.transfersFrom[c.From] = append(tt.transfersFrom[c.From], Transfer{Jpp: c.To, Duration: c.Duration})
		tt.transfersTo[c.To] = append(tt.transfersTo[c.To], Transfer{Jpp: c.From, Duration: c.Duration})
	}
}

func (tt *Timetable) buildStopIndex() {
	tt.jppsByStop = make([][]JppIdx, tt.data.Stops.Len())
	for _, jpp := range tt.data.JourneyPatternPoints.Items() {
		tt.jppsByStop[jpp.Stop] = append(tt.jppsByStop[jpp.Stop], jpp.Idx)
	}
}

func (tt *Timetable) Period() Period { return tt.data.Period }

// Data exposes the underlying collections. Callers must treat them as read-only.
func (tt *Timetable) Data() *Data { return tt.data }

func (tt *Timetable) Stops() []*Stop { return tt.data.Stops.Items() }

func (tt *Timetable) Lines() []*Line { return tt.data.Lines.Items() }

func (tt *Timetable) JourneyPatterns() []*JourneyPattern { return tt.data.JourneyPatterns.Items() }

func (tt *Timetable) JourneyPatternPoints() []*JourneyPatternPoint {
	return tt.data.JourneyPatternPoints.Items()
}

func (tt *Timetable) VehicleJourneys() []*VehicleJourney { return tt.data.VehicleJourneys.Items() }

func (tt *Timetable) Connections() []Connection { return tt.data.Connections }

func (tt *Timetable) Stop(idx StopIdx) *Stop { return tt.data.Stops.At(uint32(idx)) }

func (tt *Timetable) Line(idx LineIdx) *Line { return tt.data.Lines.At(uint32(idx)) }

func (tt *Timetable) JourneyPattern(idx JpIdx) *JourneyPattern {
	return tt.data.JourneyPatterns.At(uint32(idx))
}

func (tt *Timetable) Jpp(idx JppIdx) *JourneyPatternPoint {
	return tt.data.JourneyPatternPoints.At(uint32(idx))
}

func (tt *Timetable) VehicleJourney(idx VjIdx) *VehicleJourney {
	return tt.data.VehicleJourneys.At(uint32(idx))
}

// StopByURI looks a stop up by uri.
func (tt *Timetable) StopByURI(uri string) (*Stop, bool) {
	idx, ok := tt.data.Stops.Lookup(uri)
	if !ok {
		return nil, false
	}
	return tt.Stop(StopIdx(idx)), true
}

func (tt *Timetable) LineByURI(uri string) (*Line, bool) {
	idx, ok := tt.data.Lines.Lookup(uri)
	if !ok {
		return nil, false
	}
	return tt.Line(LineIdx(idx)), true
}

func (tt *Timetable) VehicleJourneyByURI(uri string) (*VehicleJourney, bool) {
	idx, ok := tt.data.VehicleJourneys.Lookup(uri)
	if !ok {
		return nil, false
	}
	return tt.VehicleJourney(VjIdx(idx)), true
}

func (tt *Timetable) JppByURI(uri string) (*JourneyPatternPoint, bool) {
	idx, ok := tt.data.JourneyPatternPoints.Lookup(uri)
	if !ok {
		return nil, false
	}
	return tt.Jpp(JppIdx(idx)), true
}

// JppsAtStop returns the pattern points calling at stop.
func (tt *Timetable) JppsAtStop(stop StopIdx) []JppIdx {
	if int(stop) >= len(tt.jppsByStop) {
		return nil
	}
	return tt.jppsByStop[stop]
}

// Departures returns the departures at jpp sorted by offset.
func (tt *Timetable) Departures(jpp JppIdx) []TripTime { return tt.departures[jpp] }

// Arrivals returns the arrivals at jpp sorted by offset.
func (tt *Timetable) Arrivals(jpp JppIdx) []TripTime { return tt.arrivals[jpp] }

// TransfersFrom returns the connections leaving jpp.
func (tt *Timetable) TransfersFrom(jpp JppIdx) []Transfer { return tt.transfersFrom[jpp] }

// TransfersTo returns the connections reaching jpp, keyed by their origin.
func (tt *Timetable) TransfersTo(jpp JppIdx) []Transfer { return tt.transfersTo[jpp] }

// OvernightDays is the number of whole days the latest stop time offset spans.
func (tt *Timetable) OvernightDays() int { return tt.overnightDays }

// StopOf returns the stop of a pattern point.
func (tt *Timetable) StopOf(jpp JppIdx) *Stop { return tt.Stop(tt.Jpp(jpp).Stop) }

// LineOf returns the line of a vehicle journey, nil when it has none.
func (tt *Timetable) LineOf(vj *VehicleJourney) *Line {
	jp := tt.JourneyPattern(vj.JourneyPattern)
	if jp.Line == InvalidLine {
		return nil
	}
	return tt.Line(jp.Line)
}

// Statistics summarizes the dataset for logs and debug pages.
type Statistics struct {
	Stops                int
	Lines                int
	JourneyPatterns      int
	JourneyPatternPoints int
	VehicleJourneys      int
	StopTimes            int
	Connections          int
	Extensions           int
	Days                 int
}

func (tt *Timetable) Statistics() Statistics {
	s := Statistics{
		Stops:                tt.data.Stops.Len(),
		Lines:                tt.data.Lines.Len(),
		JourneyPatterns:      tt.data.JourneyPatterns.Len(),
		JourneyPatternPoints: tt.data.JourneyPatternPoints.Len(),
		VehicleJourneys:      tt.data.VehicleJourneys.Len(),
		Connections:          len(tt.data.Connections),
		Days:                 tt.data.Period.Days,
	}
	for _, vj := range tt.data.VehicleJourneys.Items() {
		s.StopTimes += len(vj.StopTimes)
		if vj.Next != InvalidVj {
			s.Extensions++
		}
	}
	return s
}

func (s Statistics) String() string {
	return fmt.Sprintf("%d stops, %d lines, %d patterns, %d vehicle journeys, %d stop times, %d connections, %d days",
		s.Stops, s.Lines, s.JourneyPatterns, s.VehicleJourneys, s.StopTimes, s.Connections, s.Days)
}
