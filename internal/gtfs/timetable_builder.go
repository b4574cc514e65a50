package gtfs

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jamespfennell/gtfs"

	"planner.onebusaway.org/internal/timetable"
	"planner.onebusaway.org/internal/utils"
)

// maxPeriodDays caps the production period of a feed.
const maxPeriodDays = 366

// GTFS enumeration values used by the conversion.
const (
	wheelchairPossible    = 1
	wheelchairNotPossible = 2
	transferNotPossible   = 3
)

var ErrEmptyFeed = errors.New("feed has no service dates")

// tripInfo is a trip kept for the timetable.
type tripInfo struct {
	trip     *gtfs.ScheduledTrip
	specs    []timetable.StopTimeSpec
	validity *timetable.ValidityPattern
}

func (t *tripInfo) firstStop() string { return t.specs[0].Stop }
func (t *tripInfo) lastStop() string { return t.specs[len(t.specs)-1].Stop }
func (t *tripInfo) firstArrival() int32 { return t.specs[0].Arrival }
func (t *tripInfo) lastDeparture() int32 { return t.specs[len(t.specs)-1].Departure }
func (t *tripInfo) firstDeparture() int32 { return t.specs[0].Departure }

// BuildTimetable converts a parsed static feed into a timetable. Trips with
// fewer than two calls or running on no day of the period are dropped. Calls
// missing from restrictions have regular pickup and drop-off.
func BuildTimetable(static *gtfs.Static, restrictions CallRestrictions, config Config) (*timetable.Timetable, error) {
	config = config.withDefaults()

	loc := feedLocation(static)
	period, err := feedPeriod(static, loc)
	if err != nil {
		return nil, err
	}

	b := timetable.NewBuilder(period).MinChangeDuration(config.MinChangeDuration)
	addStops(b, static)
	for i := range static.Routes {
		r := &static.Routes[i]
		l := b.Line(r.Id)
		l.Code = r.ShortName
		l.Name = cmp.Or(r.LongName, r.ShortName, r.Id)
	}

	validities := make(map[string]*timetable.ValidityPattern, len(static.Services))
	for i := range static.Services {
		s := &static.Services[i]
		validities[s.Id] = serviceValidity(s, period)
	}

	trips := make([]*tripInfo, 0, len(static.Trips))
	for i := range static.Trips {
		trip := &static.Trips[i]
		if trip.Route == nil || trip.Service == nil {
			continue
		}
		validity := validities[trip.Service.Id]
		if validity.Empty() {
			continue
		}
		specs := stopTimeSpecs(trip.ID, trip.StopTimes, restrictions)
		if len(specs) < 2 {
			continue
		}
		info := &tripInfo{trip: trip, specs: specs, validity: validity}
		trips = append(trips, info)

		vb := b.VJ(trip.Route.Id).
			URI(trip.ID).
			Headsign(trip.Headsign).
			Validity(validity).
			Wheelchair(int(trip.WheelchairAccessible) == wheelchairPossible)
		for _, spec := range specs {
			vb.StopTime(spec)
		}
	}

	for _, link := range blockLinks(trips, config.MaxStayInWait) {
		b.Extend(link[0], link[1])
	}
	addTransfers(b, static, config)

	tt, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building timetable: %w", err)
	}
	return tt, nil
}

func feedLocation(static *gtfs.Static) *time.Location {
	for _, a := range static.Agencies {
		if a.Timezone == "" {
			continue
		}
		if loc, err := time.LoadLocation(a.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// civilDay numbers calendar dates independently of the location of t.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// feedPeriod spans every date on which a service may run.
func feedPeriod(static *gtfs.Static, loc *time.Location) (timetable.Period, error) {
	var (
		first, last int
		start       time.Time
	)
	extend := func(t time.Time) {
		if t.IsZero() {
			return
		}
		day := civilDay(t)
		if start.IsZero() {
			first, last, start = day, day, t
			return
		}
		if day < first {
			first, start = day, t
		}
		last = max(last, day)
	}
	for i := range static.Services {
		s := &static.Services[i]
		extend(s.StartDate)
		extend(s.EndDate)
		for _, d := range s.AddedDates {
			extend(d)
		}
	}
	if start.IsZero() {
		return timetable.Period{}, ErrEmptyFeed
	}
	days := min(last-first+1, maxPeriodDays)
	y, m, d := start.Date()
	return timetable.NewPeriod(time.Date(y, m, d, 0, 0, 0, 0, loc), days, loc), nil
}

// serviceValidity expands a calendar entry and its exceptions over period.
func serviceValidity(s *gtfs.Service, period timetable.Period) *timetable.ValidityPattern {
	vp := timetable.NewValidityPattern()
	origin := civilDay(period.Start)
	weekdays := [7]bool{s.Sunday, s.Monday, s.Tuesday, s.Wednesday, s.Thursday, s.Friday, s.Saturday}
	if !s.StartDate.IsZero() && !s.EndDate.IsZero() {
		from := max(civilDay(s.StartDate)-origin, 0)
		to := min(civilDay(s.EndDate)-origin, period.Days-1)
		for day := from; day <= to; day++ {
			if weekdays[period.Date(day).Weekday()] {
				vp.Add(day)
			}
		}
	}
	for _, d := range s.AddedDates {
		if day := civilDay(d) - origin; period.ContainsDay(day) {
			vp.Add(day)
		}
	}
	for _, d := range s.RemovedDates {
		vp.Remove(civilDay(d) - origin)
	}
	return vp
}

// stopTimeSpecs orders the calls of a trip and makes their times
// non-decreasing.
func stopTimeSpecs(tripID string, stopTimes []gtfs.ScheduledStopTime, restrictions CallRestrictions) []timetable.StopTimeSpec {
	sorted := make([]*gtfs.ScheduledStopTime, 0, len(stopTimes))
	for i := range stopTimes {
		if stopTimes[i].Stop != nil {
			sorted = append(sorted, &stopTimes[i])
		}
	}
	slices.SortStableFunc(sorted, func(a, b *gtfs.ScheduledStopTime) int {
		return cmp.Compare(a.StopSequence, b.StopSequence)
	})

	specs := make([]timetable.StopTimeSpec, 0, len(sorted))
	var previous int32
	for _, st := range sorted {
		arrival := int32(st.ArrivalTime / time.Second)
		departure := int32(st.DepartureTime / time.Second)
		arrival = max(arrival, previous)
		departure = max(departure, arrival)
		previous = departure
		rc := restrictions.lookup(tripID, st.StopSequence)
		specs = append(specs, timetable.StopTimeSpec{
			Stop:      st.Stop.Id,
			Arrival:   arrival,
			Departure: departure,
			NoPickUp:  rc.NoPickUp && st.PickupType == gtfs.PickupDropOffPolicy_No,
			NoDropOff: rc.NoDropOff && st.DropOffType == gtfs.PickupDropOffPolicy_No,
		})
	}
	return specs
}

func addStops(b *timetable.Builder, static *gtfs.Static) {
	for i := range static.Stops {
		gs := &static.Stops[i]
		s := b.Stop(gs.Id)
		s.Name = cmp.Or(gs.Name, gs.Id)
		if hasLocation(gs) {
			s.Lat, s.Lon = *gs.Latitude, *gs.Longitude
		}
		wheelchair := int(gs.WheelchairBoarding)
		if wheelchair != wheelchairPossible && wheelchair != wheelchairNotPossible && gs.Parent != nil {
			wheelchair = int(gs.Parent.WheelchairBoarding)
		}
		s.Wheelchair = wheelchair == wheelchairPossible
	}
}

// blockLinks chains the trips of each block: a trip is continued by the trip
// of the same block starting where it ends after the shortest layover not
// exceeding maxWait. A layover wrapping past midnight continues on the next
// service day. Links never close a cycle.
func blockLinks(trips []*tripInfo, maxWait int32) [][2]string {
	blocks := make(map[string][]*tripInfo)
	var ids []string
	for _, t := range trips {
		if t.trip.BlockID == "" {
			continue
		}
		if _, ok := blocks[t.trip.BlockID]; !ok {
			ids = append(ids, t.trip.BlockID)
		}
		blocks[t.trip.BlockID] = append(blocks[t.trip.BlockID], t)
	}
	slices.Sort(ids)

	var links [][2]string
	for _, id := range ids {
		block := blocks[id]
		slices.SortFunc(block, func(a, b *tripInfo) int {
			if c := cmp.Compare(a.firstDeparture(), b.firstDeparture()); c != 0 {
				return c
			}
			return cmp.Compare(a.trip.ID, b.trip.ID)
		})
		prev := make(map[*tripInfo]*tripInfo)
		head := func(t *tripInfo) *tripInfo {
			for prev[t] != nil {
				t = prev[t]
			}
			return t
		}
		for _, a := range block {
			var best *tripInfo
			bestWait := maxWait + 1
			for _, c := range block {
				if c == a || prev[c] != nil || c.firstStop() != a.lastStop() {
					continue
				}
				wait := c.firstArrival() - a.lastDeparture()
				nextDay := wait < 0
				if nextDay {
					wait += timetable.SecondsPerDay
				}
				if wait < 0 || wait >= bestWait || !overlaps(a.validity, c.validity, nextDay) {
					continue
				}
				if head(a) == c {
					continue
				}
				best, bestWait = c, wait
			}
			if best != nil {
				prev[best] = a
				links = append(links, [2]string{a.trip.ID, best.trip.ID})
			}
		}
	}
	return links
}

// overlaps reports whether some run of a is followed by a run of c, on the
// same day or on the next one.
func overlaps(a, c *timetable.ValidityPattern, nextDay bool) bool {
	shift := 0
	if nextDay {
		shift = 1
	}
	for day := 0; day < maxPeriodDays; day++ {
		if a.Check(day) && c.Check(day+shift) {
			return true
		}
	}
	return false
}

// addTransfers converts transfers.txt and links the platforms of each
// station by foot.
func addTransfers(b *timetable.Builder, static *gtfs.Static, config Config) {
	type pair struct{ from, to string }
	seen := make(map[pair]bool)

	for i := range static.Transfers {
		tr := &static.Transfers[i]
		if tr.From == nil || tr.To == nil {
			continue
		}
		key := pair{tr.From.Id, tr.To.Id}
		seen[key] = true
		if int(tr.Type) == transferNotPossible {
			continue
		}
		var duration int32
		if tr.MinTransferTime != nil {
			duration = *tr.MinTransferTime
		} else {
			duration = walkingDuration(tr.From, tr.To, config)
		}
		b.Connection(tr.From.Id, tr.To.Id, duration)
	}

	stations := make(map[string][]*gtfs.Stop)
	var parents []string
	for i := range static.Stops {
		s := &static.Stops[i]
		if s.Parent == nil {
			continue
		}
		if _, ok := stations[s.Parent.Id]; !ok {
			parents = append(parents, s.Parent.Id)
		}
		stations[s.Parent.Id] = append(stations[s.Parent.Id], s)
	}
	slices.Sort(parents)
	for _, parent := range parents {
		platforms := stations[parent]
		for _, from := range platforms {
			for _, to := range platforms {
				if from == to || seen[pair{from.Id, to.Id}] {
					continue
				}
				if !hasLocation(from) || !hasLocation(to) {
					continue
				}
				meters := utils.Haversine(*from.Latitude, *from.Longitude, *to.Latitude, *to.Longitude)
				if meters > config.MaxTransferWalk {
					continue
				}
				b.Connection(from.Id, to.Id, max(utils.WalkingDuration(meters, config.WalkingSpeed), config.MinChangeDuration))
			}
		}
	}
}

// hasLocation reports whether s has usable coordinates. Out of range values
// are treated as missing.
func hasLocation(s *gtfs.Stop) bool {
	if s.Latitude == nil || s.Longitude == nil {
		return false
	}
	return utils.ValidateLatitude(*s.Latitude) == nil && utils.ValidateLongitude(*s.Longitude) == nil
}

// walkingDuration prices a transfer without a minimum time: the walk between
// the stops, or the minimum change duration when either stop has no location.
func walkingDuration(from, to *gtfs.Stop, config Config) int32 {
	if from.Id == to.Id || !hasLocation(from) || !hasLocation(to) {
		return config.MinChangeDuration
	}
	meters := utils.Haversine(*from.Latitude, *from.Longitude, *to.Latitude, *to.Longitude)
	return max(utils.WalkingDuration(meters, config.WalkingSpeed), config.MinChangeDuration)
}
