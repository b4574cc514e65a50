package raptor

import (
	"iter"
	"math"
	"sort"

	"planner.onebusaway.org/internal/timetable"
)

// Visitor supplies every direction-dependent primitive of the scan. Forward
// computes earliest arrivals from a departure time, Backward latest departures
// from an arrival time. Implementations are stateless.
type Visitor interface {
	// Clockwise reports whether the visitor travels forward in time.
	Clockwise() bool
	// Comp is the strict "better than" order on date-times.
	Comp(a, b timetable.DateTime) bool
	// Be is "better or equal", derived from Comp.
	Be(a, b timetable.DateTime) bool
	// Combine moves dt by seconds in the direction of travel.
	Combine(dt timetable.DateTime, seconds int32) timetable.DateTime
	// BetterOrEqual reports whether a is no worse than the time st yields
	// when its vehicle journey runs on the service day of current.
	BetterOrEqual(a, current timetable.DateTime, st *timetable.StopTime) bool
	// JppsFromOrder iterates the points of jp from order in scan direction.
	JppsFromOrder(jp *timetable.JourneyPattern, order int) iter.Seq2[int, timetable.JppIdx]
	// StopTimesFrom iterates the stop times of vj from order in scan direction.
	StopTimesFrom(vj *timetable.VehicleJourney, order int) iter.Seq[*timetable.StopTime]
	// StopTimeList iterates every stop time of vj in scan direction.
	StopTimeList(vj *timetable.VehicleJourney) iter.Seq[*timetable.StopTime]
	// ExtensionVJ returns the journey continuing vj in scan direction.
	ExtensionVJ(tt *timetable.Timetable, vj *timetable.VehicleJourney) *timetable.VehicleJourney
	// ExtensionServiceDay returns the service day of ExtensionVJ(vj) when vj runs on day.
	ExtensionServiceDay(tt *timetable.Timetable, vj *timetable.VehicleJourney, day int) int
	// LastJpp is the point bounding a ride continued onto the extension of vj.
	LastJpp(tt *timetable.Timetable, vj *timetable.VehicleJourney) timetable.JppIdx
	// InitQueueItem is the empty value of a pattern queue slot.
	InitQueueItem() int
	// WorstDateTime is the unreached label value.
	WorstDateTime() timetable.DateTime
	// BetterOrder reports whether scanning from order a covers more of a pattern than b.
	BetterOrder(a, b int) bool
	// Transfers returns the connections walked from jpp in scan direction.
	Transfers(tt *timetable.Timetable, jpp timetable.JppIdx) []timetable.Transfer
	// Board finds the best vehicle journey catchable at jpp given dt.
	Board(tt *timetable.Timetable, jpp timetable.JppIdx, order int, dt timetable.DateTime, f *filter) (run, bool)
}

// run is a vehicle journey on one service day.
type run struct {
	vj  timetable.VjIdx
	day int
	dt  timetable.DateTime
}

// Forward scans from a departure time towards later date-times.
type Forward struct{}

// Backward scans from an arrival time towards earlier date-times.
type Backward struct{}

var (
	_ Visitor = Forward{}
	_ Visitor = Backward{}
)

func (Forward) Clockwise() bool { return true }

func (Forward) Comp(a, b timetable.DateTime) bool { return a < b }

func (v Forward) Be(a, b timetable.DateTime) bool { return !v.Comp(b, a) }

func (Forward) Combine(dt timetable.DateTime, seconds int32) timetable.DateTime {
	return dt + timetable.DateTime(seconds)
}

func (Forward) BetterOrEqual(a, current timetable.DateTime, st *timetable.StopTime) bool {
	return a <= st.SectionEndDate(timetable.Date(current), true)
}

func (Forward) JppsFromOrder(jp *timetable.JourneyPattern, order int) iter.Seq2[int, timetable.JppIdx] {
	return func(yield func(int, timetable.JppIdx) bool) {
		for i := max(order, 0); i < len(jp.Points); i++ {
			if !yield(i, jp.Points[i]) {
				return
			}
		}
	}
}

func (Forward) StopTimesFrom(vj *timetable.VehicleJourney, order int) iter.Seq[*timetable.StopTime] {
	return func(yield func(*timetable.StopTime) bool) {
		for i := max(order, 0); i < len(vj.StopTimes); i++ {
			if !yield(&vj.StopTimes[i]) {
				return
			}
		}
	}
}

func (v Forward) StopTimeList(vj *timetable.VehicleJourney) iter.Seq[*timetable.StopTime] {
	return v.StopTimesFrom(vj, 0)
}

func (Forward) ExtensionVJ(tt *timetable.Timetable, vj *timetable.VehicleJourney) *timetable.VehicleJourney {
	return tt.Successor(vj)
}

func (Forward) ExtensionServiceDay(tt *timetable.Timetable, vj *timetable.VehicleJourney, day int) int {
	return tt.SuccessorServiceDay(vj, day)
}

func (Forward) LastJpp(tt *timetable.Timetable, vj *timetable.VehicleJourney) timetable.JppIdx {
	next := tt.Successor(vj)
	if next == nil {
		return timetable.InvalidJpp
	}
	points := tt.JourneyPattern(next.JourneyPattern).Points
	if len(points) == 0 {
		return timetable.InvalidJpp
	}
	return points[len(points)-1]
}

func (Forward) InitQueueItem() int { return math.MaxInt }

func (Forward) WorstDateTime() timetable.DateTime { return timetable.Inf }

func (Forward) BetterOrder(a, b int) bool { return a < b }

func (Forward) Transfers(tt *timetable.Timetable, jpp timetable.JppIdx) []timetable.Transfer {
	return tt.TransfersFrom(jpp)
}

// Board returns the earliest departure at jpp no earlier than dt. Journeys
// running past midnight are looked up on the previous service days too.
func (Forward) Board(tt *timetable.Timetable, jpp timetable.JppIdx, order int, dt timetable.DateTime, f *filter) (run, bool) {
	departures := tt.Departures(jpp)
	if len(departures) == 0 {
		return run{}, false
	}
	best := run{dt: timetable.Inf}
	found := false
	today := timetable.Date(dt)
	for day := max(today-tt.OvernightDays(), 0); day <= today+1; day++ {
		target := int32(dt - timetable.Set(day, 0))
		start := sort.Search(len(departures), func(i int) bool {
			return departures[i].Offset >= target
		})
		for _, dep := range departures[start:] {
			at := timetable.Set(day, dep.Offset)
			if found && at >= best.dt {
				break
			}
			vj := tt.VehicleJourney(dep.VJ)
			if !f.canBoard(vj, order, day) {
				continue
			}
			best = run{vj: dep.VJ, day: day, dt: at}
			found = true
			break
		}
	}
	return best, found
}

func (Backward) Clockwise() bool { return false }

func (Backward) Comp(a, b timetable.DateTime) bool { return a > b }

func (v Backward) Be(a, b timetable.DateTime) bool { return !v.Comp(b, a) }

func (Backward) Combine(dt timetable.DateTime, seconds int32) timetable.DateTime {
	return dt - timetable.DateTime(seconds)
}

func (Backward) BetterOrEqual(a, current timetable.DateTime, st *timetable.StopTime) bool {
	return a >= st.SectionEndDate(timetable.Date(current), false)
}

func (Backward) JppsFromOrder(jp *timetable.JourneyPattern, order int) iter.Seq2[int, timetable.JppIdx] {
	return func(yield func(int, timetable.JppIdx) bool) {
		for i := min(order, len(jp.Points)-1); i >= 0; i-- {
			if !yield(i, jp.Points[i]) {
				return
			}
		}
	}
}

func (Backward) StopTimesFrom(vj *timetable.VehicleJourney, order int) iter.Seq[*timetable.StopTime] {
	return func(yield func(*timetable.StopTime) bool) {
		for i := min(order, len(vj.StopTimes)-1); i >= 0; i-- {
			if !yield(&vj.StopTimes[i]) {
				return
			}
		}
	}
}

func (v Backward) StopTimeList(vj *timetable.VehicleJourney) iter.Seq[*timetable.StopTime] {
	return v.StopTimesFrom(vj, len(vj.StopTimes)-1)
}

func (Backward) ExtensionVJ(tt *timetable.Timetable, vj *timetable.VehicleJourney) *timetable.VehicleJourney {
	return tt.Predecessor(vj)
}

func (Backward) ExtensionServiceDay(tt *timetable.Timetable, vj *timetable.VehicleJourney, day int) int {
	return tt.PredecessorServiceDay(vj, day)
}

func (Backward) LastJpp(tt *timetable.Timetable, vj *timetable.VehicleJourney) timetable.JppIdx {
	prev := tt.Predecessor(vj)
	if prev == nil {
		return timetable.InvalidJpp
	}
	points := tt.JourneyPattern(prev.JourneyPattern).Points
	if len(points) == 0 {
		return timetable.InvalidJpp
	}
	return points[0]
}

func (Backward) InitQueueItem() int { return -1 }

func (Backward) WorstDateTime() timetable.DateTime { return timetable.Min }

func (Backward) BetterOrder(a, b int) bool { return a > b }

func (Backward) Transfers(tt *timetable.Timetable, jpp timetable.JppIdx) []timetable.Transfer {
	return tt.TransfersTo(jpp)
}

// Board returns the latest arrival at jpp no later than dt. Equal arrivals are
// stored by decreasing journey index, so walking down picks the lowest one.
func (Backward) Board(tt *timetable.Timetable, jpp timetable.JppIdx, order int, dt timetable.DateTime, f *filter) (run, bool) {
	arrivals := tt.Arrivals(jpp)
	if len(arrivals) == 0 {
		return run{}, false
	}
	best := run{dt: timetable.Min}
	found := false
	today := timetable.Date(dt)
	for day := today; day >= today-1-tt.OvernightDays() && day >= 0; day-- {
		target := int32(dt - timetable.Set(day, 0))
		end := sort.Search(len(arrivals), func(i int) bool {
			return arrivals[i].Offset > target
		})
		for i := end - 1; i >= 0; i-- {
			at := timetable.Set(day, arrivals[i].Offset)
			if found && at <= best.dt {
				break
			}
			vj := tt.VehicleJourney(arrivals[i].VJ)
			if !f.canBoard(vj, order, day) {
				continue
			}
			best = run{vj: arrivals[i].VJ, day: day, dt: at}
			found = true
			break
		}
	}
	return best, found
}
