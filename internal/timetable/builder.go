package timetable

import (
	"fmt"
	"strings"
	"time"
)

// StopTimeSpec describes one call of a vehicle journey being built.
type StopTimeSpec struct {
	Stop      string
	Arrival   int32
	Departure int32
	NoPickUp  bool
	NoDropOff bool
}

// Builder assembles a dataset from stops, lines and vehicle journeys given by
// uri. Journey patterns, pattern points and connections are derived on Build.
type Builder struct {
	period     Period
	minChange  int32
	stops      []*Stop
	stopsByURI map[string]*Stop
	lines      []*Line
	linesByURI map[string]*Line
	vjs        []*VJBuilder
	transfers  []stopTransfer
	extensions [][2]string
}

type stopTransfer struct {
	from, to string
	duration int32
}

// NewBuilder returns a builder for a dataset valid over period.
func NewBuilder(period Period) *Builder {
	return &Builder{
		period:     period,
		stopsByURI: make(map[string]*Stop),
		linesByURI: make(map[string]*Line),
	}
}

// MustParsePeriod is ParsePeriod in UTC that panics on error. Meant for tests and fixtures.
func MustParsePeriod(startDate string, days int) Period {
	p, err := ParsePeriod(startDate, days, time.UTC)
	if err != nil {
		panic(err)
	}
	return p
}

// MinChangeDuration sets the duration of connections between points of the same stop.
func (b *Builder) MinChangeDuration(seconds int32) *Builder {
	b.minChange = seconds
	return b
}

// Stop returns the stop registered under uri, creating it when needed.
func (b *Builder) Stop(uri string) *Stop {
	if s, ok := b.stopsByURI[uri]; ok {
		return s
	}
	s := &Stop{URI: uri, Name: uri}
	b.stops = append(b.stops, s)
	b.stopsByURI[uri] = s
	return s
}

// Line returns the line registered under uri, creating it when needed.
func (b *Builder) Line(uri string) *Line {
	if l, ok := b.linesByURI[uri]; ok {
		return l
	}
	l := &Line{URI: uri, Code: uri, Name: uri}
	b.lines = append(b.lines, l)
	b.linesByURI[uri] = l
	return l
}

// VJ starts a vehicle journey of line lineURI running every day of the period.
func (b *Builder) VJ(lineURI string) *VJBuilder {
	b.Line(lineURI)
	vb := &VJBuilder{
		b:        b,
		uri:      fmt.Sprintf("vj:%s:%d", lineURI, len(b.vjs)),
		line:     lineURI,
		validity: EveryDay(b.period.Days),
	}
	b.vjs = append(b.vjs, vb)
	return vb
}

// Connection adds a walkable transfer between two stops.
func (b *Builder) Connection(fromStop, toStop string, seconds int32) *Builder {
	b.Stop(fromStop)
	b.Stop(toStop)
	b.transfers = append(b.transfers, stopTransfer{from: fromStop, to: toStop, duration: seconds})
	return b
}

// Extend links two vehicle journeys, given by uri, as one run split at a
// service-day boundary.
func (b *Builder) Extend(prevURI, nextURI string) *Builder {
	b.extensions = append(b.extensions, [2]string{prevURI, nextURI})
	return b
}

// VJBuilder describes one vehicle journey.
type VJBuilder struct {
	b          *Builder
	uri        string
	line       string
	headsign   string
	validity   *ValidityPattern
	wheelchair bool
	stopTimes  []StopTimeSpec
}

func (vb *VJBuilder) URI(uri string) *VJBuilder {
	vb.uri = uri
	return vb
}

func (vb *VJBuilder) Headsign(headsign string) *VJBuilder {
	vb.headsign = headsign
	return vb
}

func (vb *VJBuilder) Validity(vp *ValidityPattern) *VJBuilder {
	vb.validity = vp
	return vb
}

func (vb *VJBuilder) Wheelchair(accessible bool) *VJBuilder {
	vb.wheelchair = accessible
	return vb
}

// At adds a call at stopURI allowing both pick-up and drop-off.
func (vb *VJBuilder) At(stopURI string, arrival, departure int32) *VJBuilder {
	return vb.StopTime(StopTimeSpec{Stop: stopURI, Arrival: arrival, Departure: departure})
}

func (vb *VJBuilder) StopTime(spec StopTimeSpec) *VJBuilder {
	vb.b.Stop(spec.Stop)
	vb.stopTimes = append(vb.stopTimes, spec)
	return vb
}

// Name returns the uri the journey will be registered under.
func (vb *VJBuilder) Name() string { return vb.uri }

// Build derives patterns and connections and returns the indexed timetable.
func (b *Builder) Build() (*Timetable, error) {
	d, err := b.Data()
	if err != nil {
		return nil, err
	}
	return New(d)
}

// Data derives the unsorted dataset. Entities are copied, so the builder may
// be reused after the dataset has been published.
func (b *Builder) Data() (*Data, error) {
	d := NewData(b.period)
	d.MinChangeDuration = b.minChange
	stops := make(map[string]StopIdx, len(b.stops))
	for _, s := range b.stops {
		stop := *s
		stops[s.URI] = StopIdx(d.Stops.Add(&stop))
	}
	lines := make(map[string]LineIdx, len(b.lines))
	for _, l := range b.lines {
		line := *l
		lines[l.URI] = LineIdx(d.Lines.Add(&line))
	}

	patterns := make(map[string]*JourneyPattern)
	vjs := make(map[string]VjIdx, len(b.vjs))
	for _, vb := range b.vjs {
		if _, dup := vjs[vb.uri]; dup {
			return nil, fmt.Errorf("duplicate vehicle journey uri %q", vb.uri)
		}
		jp := b.pattern(d, patterns, vb, stops, lines[vb.line])
		vj := &VehicleJourney{
			URI:            vb.uri,
			Headsign:       vb.headsign,
			JourneyPattern: jp.Idx,
			Prev:           InvalidVj,
			Next:           InvalidVj,
			Validity:       vb.validity,
			Wheelchair:     vb.wheelchair,
		}
		idx := VjIdx(d.VehicleJourneys.Add(vj))
		vj.StopTimes = make([]StopTime, len(vb.stopTimes))
		for i, spec := range vb.stopTimes {
			vj.StopTimes[i] = StopTime{
				VehicleJourney: idx,
				Jpp:            jp.Points[i],
				Order:          i,
				Arrival:        spec.Arrival,
				Departure:      spec.Departure,
				PickUp:         !spec.NoPickUp,
				DropOff:        !spec.NoDropOff,
			}
		}
		vjs[vb.uri] = idx
	}

	v := &ValidationError{}
	for _, ext := range b.extensions {
		prev, okPrev := vjs[ext[0]]
		next, okNext := vjs[ext[1]]
		if !okPrev || !okNext {
			v.addf("extension %s -> %s references an unknown vehicle journey", ext[0], ext[1])
			continue
		}
		d.Link(prev, next)
	}
	if len(v.Issues) > 0 {
		return nil, v
	}

	for _, t := range b.transfers {
		d.StopConnections = append(d.StopConnections, StopConnection{
			From:     stops[t.from],
			To:       stops[t.to],
			Duration: t.duration,
		})
	}
	d.BuildConnections()
	return d, nil
}

func (b *Builder) pattern(d *Data, patterns map[string]*JourneyPattern, vb *VJBuilder, stopIdx map[string]StopIdx, line LineIdx) *JourneyPattern {
	stops := make([]string, len(vb.stopTimes))
	for i, st := range vb.stopTimes {
		stops[i] = st.Stop
	}
	key := vb.line + "|" + strings.Join(stops, "|")
	if jp, ok := patterns[key]; ok {
		return jp
	}
	jp := &JourneyPattern{
		URI:  fmt.Sprintf("jp:%s:%d", vb.line, len(patterns)),
		Line: line,
	}
	d.JourneyPatterns.Add(jp)
	for order, uri := range stops {
		jpp := &JourneyPatternPoint{
			URI:            fmt.Sprintf("%s:%d", jp.URI, order),
			JourneyPattern: jp.Idx,
			Order:          order,
			Stop:           stopIdx[uri],
		}
		jp.Points = append(jp.Points, JppIdx(d.JourneyPatternPoints.Add(jpp)))
	}
	patterns[key] = jp
	return jp
}

// BuildConnections derives point to point connections from the stop
// connections: every point of the origin stop is linked to every point of the
// destination stop. Distinct points of one stop are linked with
// MinChangeDuration unless a stop connection from the stop to itself exists.
func (d *Data) BuildConnections() {
	byStop := make([][]JppIdx, d.Stops.Len())
	for _, jpp := range d.JourneyPatternPoints.Items() {
		if int(jpp.Stop) < len(byStop) {
			byStop[jpp.Stop] = append(byStop[jpp.Stop], jpp.Idx)
		}
	}
	sameStop := make(map[StopIdx]int32)
	d.Connections = d.Connections[:0]
	for _, sc := range d.StopConnections {
		if int(sc.From) >= len(byStop) || int(sc.To) >= len(byStop) {
			continue
		}
		if sc.From == sc.To {
			sameStop[sc.From] = sc.Duration
			continue
		}
		for _, from := range byStop[sc.From] {
			for _, to := range byStop[sc.To] {
				d.Connections = append(d.Connections, Connection{From: from, To: to, Duration: sc.Duration})
			}
		}
	}
	for stop, jpps := range byStop {
		duration, ok := sameStop[StopIdx(stop)]
		if !ok {
			duration = d.MinChangeDuration
		}
		for _, from := range jpps {
			for _, to := range jpps {
				if from != to {
					d.Connections = append(d.Connections, Connection{From: from, To: to, Duration: duration})
				}
			}
		}
	}
	d.indexConnections()
}
