package timetable

import (
	"cmp"
	"slices"
)

// Data holds every entity of a dataset. It is mutable while a dataset is being
// loaded and becomes read-only once wrapped in a Timetable.
type Data struct {
	Period               Period
	Stops                Collection[*Stop]
	Lines                Collection[*Line]
	JourneyPatterns      Collection[*JourneyPattern]
	JourneyPatternPoints Collection[*JourneyPatternPoint]
	VehicleJourneys      Collection[*VehicleJourney]
	Connections          []Connection
	StopConnections      []StopConnection
	MinChangeDuration    int32
}

// NewData returns an empty container for period.
func NewData(period Period) *Data {
	return &Data{Period: period}
}

// Assign replaces the content of d with the one of src. Each collection is
// copied together with its uri map.
func (d *Data) Assign(src *Data) {
	d.Period = src.Period
	d.Stops = src.Stops
	d.Lines = src.Lines
	d.JourneyPatterns = src.JourneyPatterns
	d.JourneyPatternPoints = src.JourneyPatternPoints
	d.VehicleJourneys = src.VehicleJourneys
	d.Connections = src.Connections
	d.StopConnections = src.StopConnections
	d.MinChangeDuration = src.MinChangeDuration
}

func remap[T ~uint32](perm []uint32, idx T) T {
	if uint64(idx) >= uint64(len(perm)) {
		return idx
	}
	return T(perm[idx])
}

// Sort orders every collection by its Less relation and assigns indices in
// sorted order. Collections are sorted in dependency order so that orderings
// based on referenced indices see final values. Each vehicle journey's stop
// times are then sorted by pattern point order.
func (d *Data) Sort() {
	stops := d.Stops.sort()
	for _, jpp := range d.JourneyPatternPoints.items {
		jpp.Stop = remap(stops, jpp.Stop)
	}
	for i := range d.StopConnections {
		d.StopConnections[i].From = remap(stops, d.StopConnections[i].From)
		d.StopConnections[i].To = remap(stops, d.StopConnections[i].To)
	}

	lines := d.Lines.sort()
	for _, jp := range d.JourneyPatterns.items {
		jp.Line = remap(lines, jp.Line)
	}

	jps := d.JourneyPatterns.sort()
	for _, jpp := range d.JourneyPatternPoints.items {
		jpp.JourneyPattern = remap(jps, jpp.JourneyPattern)
	}
	for _, vj := range d.VehicleJourneys.items {
		vj.JourneyPattern = remap(jps, vj.JourneyPattern)
	}

	jpps := d.JourneyPatternPoints.sort()
	for _, jp := range d.JourneyPatterns.items {
		for i := range jp.Points {
			jp.Points[i] = remap(jpps, jp.Points[i])
		}
		slices.SortStableFunc(jp.Points, func(a, b JppIdx) int {
			return cmp.Compare(d.orderOf(a), d.orderOf(b))
		})
	}
	for _, vj := range d.VehicleJourneys.items {
		for i := range vj.StopTimes {
			vj.StopTimes[i].Jpp = remap(jpps, vj.StopTimes[i].Jpp)
		}
		d.sortStopTimes(vj)
	}
	for i := range d.Connections {
		d.Connections[i].From = remap(jpps, d.Connections[i].From)
		d.Connections[i].To = remap(jpps, d.Connections[i].To)
	}

	vjs := d.VehicleJourneys.sort()
	for _, vj := range d.VehicleJourneys.items {
		vj.Prev = remap(vjs, vj.Prev)
		vj.Next = remap(vjs, vj.Next)
		for i := range vj.StopTimes {
			vj.StopTimes[i].VehicleJourney = vj.Idx
		}
	}

	slices.SortStableFunc(d.Connections, func(a, b Connection) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	slices.SortStableFunc(d.StopConnections, func(a, b StopConnection) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	d.indexConnections()
}

func (d *Data) orderOf(jpp JppIdx) int {
	if int(jpp) >= d.JourneyPatternPoints.Len() {
		return -1
	}
	return d.JourneyPatternPoints.At(uint32(jpp)).Order
}

func (d *Data) sortStopTimes(vj *VehicleJourney) {
	for i := range vj.StopTimes {
		vj.StopTimes[i].Order = d.orderOf(vj.StopTimes[i].Jpp)
	}
	slices.SortStableFunc(vj.StopTimes, func(a, b StopTime) int {
		return cmp.Compare(a.Order, b.Order)
	})
}

func (d *Data) indexConnections() {
	for i := range d.Connections {
		d.Connections[i].Idx = uint32(i)
	}
}

// Index renumbers every entity from zero in current container order.
// References are positions, so Index only changes entities whose index
// drifted from their position.
func (d *Data) Index() {
	d.Stops.index()
	d.Lines.index()
	d.JourneyPatterns.index()
	d.JourneyPatternPoints.index()
	d.VehicleJourneys.index()
	d.indexConnections()
}

// BuildURI rebuilds the uri to index maps of every collection.
func (d *Data) BuildURI() {
	d.Stops.buildURI()
	d.Lines.buildURI()
	d.JourneyPatterns.buildURI()
	d.JourneyPatternPoints.buildURI()
	d.VehicleJourneys.buildURI()
}
