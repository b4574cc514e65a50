// Package raptor implements the round-based journey search over a timetable.
// One scan runs per start instant; round r holds the best date-times reachable
// with at most r boardings.
package raptor

import (
	"context"
	"slices"

	"planner.onebusaway.org/internal/timetable"
)

type readyKind uint8

const (
	notReady readyKind = iota
	accessReady
	transferReady
)

// ride is the boarding context of a point reached by vehicle. vj and day are
// the journey at the alighting point, which differs from boardVj when the
// ride continued along the extension chain.
type ride struct {
	board    timetable.JppIdx
	boardVj  timetable.VjIdx
	boardDay int
	vj       timetable.VjIdx
	day      int
}

// label is the state of one journey pattern point in one round. arrival is
// the best date-time a vehicle drops the traveller there; ready is the best
// date-time at which a vehicle can be boarded there, either from the entry
// point or after a connection.
type label struct {
	arrival  timetable.DateTime
	arrRound int
	ride     ride

	ready      timetable.DateTime
	readyRound int
	kind       readyKind
	from       timetable.JppIdx
	duration   int32
}

type access struct {
	jpp      timetable.JppIdx
	duration int32
}

// query is the resolved part of a request, shared read-only by every start
// instant of the request.
type query struct {
	clockwise bool
	rounds    int
	// origins are where the scan starts: the request origin going forward,
	// the request destination going backward.
	origins []access
	// targets are sorted by point and hold one entry per point.
	targets []access
	filter  *filter
}

type queueItem struct {
	jp    timetable.JpIdx
	order int
}

// scanner owns the transient state of one scan. Scanners are pooled and reused
// across searches on the same timetable; they are never shared by two scans
// at once.
type scanner struct {
	tt *timetable.Timetable

	labels    [][]label
	bestArr   []timetable.DateTime
	bestReady []timetable.DateTime
	bestDest  timetable.DateTime

	queue    []int
	queued   []timetable.JpIdx
	items    []queueItem
	improved []timetable.JppIdx

	rounds int
}

func newScanner(tt *timetable.Timetable) *scanner {
	n := len(tt.JourneyPatternPoints())
	return &scanner{
		tt:        tt,
		bestArr:   make([]timetable.DateTime, n),
		bestReady: make([]timetable.DateTime, n),
		queue:     make([]int, len(tt.JourneyPatterns())),
	}
}

func (s *scanner) reset(worst timetable.DateTime, initQueue, rounds int) {
	n := len(s.bestArr)
	for len(s.labels) <= rounds {
		s.labels = append(s.labels, make([]label, n))
	}
	empty := label{
		arrival: worst,
		ready:   worst,
		from:    timetable.InvalidJpp,
		ride: ride{
			board:   timetable.InvalidJpp,
			boardVj: timetable.InvalidVj,
			vj:      timetable.InvalidVj,
		},
	}
	for i := range s.labels[0] {
		s.labels[0][i] = empty
	}
	for i := range s.bestArr {
		s.bestArr[i] = worst
		s.bestReady[i] = worst
	}
	for i := range s.queue {
		s.queue[i] = initQueue
	}
	s.queued = s.queued[:0]
	s.improved = s.improved[:0]
	s.bestDest = worst
	s.rounds = 0
}

// mark queues the pattern of jpp for the next round, from the point covering
// the most of it.
func mark[V Visitor](s *scanner, v V, jpp timetable.JppIdx) {
	p := s.tt.Jpp(jpp)
	current := s.queue[p.JourneyPattern]
	if current == v.InitQueueItem() {
		s.queued = append(s.queued, p.JourneyPattern)
	}
	if v.BetterOrder(p.Order, current) {
		s.queue[p.JourneyPattern] = p.Order
	}
}

// takeQueue empties the queue. Patterns are returned by index so that the
// scan does not depend on marking order.
func (s *scanner) takeQueue(initQueue int) []queueItem {
	slices.Sort(s.queued)
	s.items = s.items[:0]
	for _, jp := range s.queued {
		s.items = append(s.items, queueItem{jp: jp, order: s.queue[jp]})
		s.queue[jp] = initQueue
	}
	s.queued = s.queued[:0]
	return s.items
}

// scan runs the rounds for one start instant. It stops after q.rounds rounds
// or at the first round that makes no point boardable. ctx is only checked
// between rounds.
func scan[V Visitor](ctx context.Context, s *scanner, v V, q *query, start timetable.DateTime) error {
	s.reset(v.WorstDateTime(), v.InitQueueItem(), q.rounds)

	initial := s.labels[0]
	for _, a := range q.origins {
		dt := v.Combine(start, a.duration)
		if !v.Comp(dt, initial[a.jpp].ready) {
			continue
		}
		l := &initial[a.jpp]
		l.ready = dt
		l.readyRound = 0
		l.kind = accessReady
		l.duration = a.duration
		s.bestReady[a.jpp] = dt
		mark(s, v, a.jpp)
	}
	relaxAccessTransfers(s, v, q)

	for r := 1; r <= q.rounds && len(s.queued) > 0; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		copy(s.labels[r], s.labels[r-1])
		s.rounds = r
		relaxTrips(s, v, q, r)
		relaxTransfers(s, v, r)
		updateDestination(s, v, q, r)
	}
	return nil
}

// relaxTrips scans every queued pattern from its marked point, riding the
// best catchable journey and re-boarding whenever the previous round offers
// a strictly better one.
func relaxTrips[V Visitor](s *scanner, v V, q *query, r int) {
	tt := s.tt
	worst := v.WorstDateTime()
	clockwise := v.Clockwise()
	prev := s.labels[r-1]
	s.improved = s.improved[:0]

	for _, item := range s.takeQueue(v.InitQueueItem()) {
		if !q.filter.patternAllowed(item.jp) {
			continue
		}
		jp := tt.JourneyPattern(item.jp)
		var (
			on       run
			board    timetable.JppIdx
			boarded  bool
			vj       *timetable.VehicleJourney
			boarding timetable.DateTime
		)
		for order, jpp := range v.JppsFromOrder(jp, item.order) {
			if boarded {
				st := &vj.StopTimes[order]
				relax(s, v, q, r, board, on, st, on.day)
				boarding = st.SectionBeginDate(on.day, clockwise)
			}
			ready := prev[jpp].ready
			if ready == worst {
				continue
			}
			if boarded && !v.Comp(ready, boarding) {
				continue
			}
			if !q.filter.stopAllowed(jpp) {
				continue
			}
			candidate, ok := v.Board(tt, jpp, order, ready, q.filter)
			if !ok || (boarded && !v.Comp(candidate.dt, boarding)) {
				continue
			}
			on, board, boarded = candidate, jpp, true
			vj = tt.VehicleJourney(on.vj)
		}
		if boarded {
			relaxExtensions(s, v, q, r, board, on)
		}
	}
}

// relaxExtensions continues a ride past the end of its pattern along the
// extension chain of the journey ridden.
func relaxExtensions[V Visitor](s *scanner, v V, q *query, r int, board timetable.JppIdx, on run) {
	tt := s.tt
	vj := tt.VehicleJourney(on.vj)
	day := on.day
	for {
		bound := v.LastJpp(tt, vj)
		ext := v.ExtensionVJ(tt, vj)
		if ext == nil {
			return
		}
		day = v.ExtensionServiceDay(tt, vj, day)
		if !q.filter.journeyAllowed(ext, day) {
			return
		}
		for st := range v.StopTimeList(ext) {
			relax(s, v, q, r, board, on, st, day)
			if st.Jpp == bound {
				break
			}
		}
		vj = ext
	}
}

// relax tries to improve the arrival label at st's point with the ride
// boarded at board.
func relax[V Visitor](s *scanner, v V, q *query, r int, board timetable.JppIdx, on run, st *timetable.StopTime, day int) {
	jpp := st.Jpp
	if !st.ValidEnd(v.Clockwise()) || !q.filter.stopAllowed(jpp) {
		return
	}
	if v.BetterOrEqual(s.bestArr[jpp], timetable.Set(day, 0), st) {
		return
	}
	dt := st.SectionEndDate(day, v.Clockwise())
	if !v.Comp(dt, s.bestDest) {
		return
	}
	l := &s.labels[r][jpp]
	if l.arrRound != r {
		s.improved = append(s.improved, jpp)
	}
	l.arrival = dt
	l.arrRound = r
	l.ride = ride{
		board:    board,
		boardVj:  on.vj,
		boardDay: on.day,
		vj:       st.VehicleJourney,
		day:      day,
	}
	s.bestArr[jpp] = dt
}

// relaxAccessTransfers walks the connections out of the entry points before
// the first round, so a journey may start with a connection in either scan
// direction. A point reached this way is ready in round 0 and a vehicle must
// still be boarded from it.
func relaxAccessTransfers[V Visitor](s *scanner, v V, q *query) {
	initial := s.labels[0]
	for _, a := range q.origins {
		if l := &initial[a.jpp]; l.kind == accessReady {
			walkFrom(s, v, 0, a.jpp, l.ready)
		}
	}
}

// relaxTransfers walks the connections out of every point a vehicle reached
// this round.
func relaxTransfers[V Visitor](s *scanner, v V, r int) {
	current := s.labels[r]
	for _, from := range s.improved {
		walkFrom(s, v, r, from, current[from].arrival)
	}
}

// walkFrom relaxes the connections out of from, left at dt in round r, and
// queues the patterns of the points it improves.
func walkFrom[V Visitor](s *scanner, v V, r int, from timetable.JppIdx, dt timetable.DateTime) {
	current := s.labels[r]
	for _, tr := range v.Transfers(s.tt, from) {
		ready := v.Combine(dt, tr.Duration)
		if !v.Comp(ready, s.bestReady[tr.Jpp]) || !v.Comp(ready, s.bestDest) {
			continue
		}
		l := &current[tr.Jpp]
		if r == 0 && l.kind == accessReady {
			continue
		}
		l.ready = ready
		l.readyRound = r
		l.kind = transferReady
		l.from = from
		l.duration = tr.Duration
		s.bestReady[tr.Jpp] = ready
		mark(s, v, tr.Jpp)
	}
}

// updateDestination tightens the bound used to prune labels that cannot
// lead to a better journey.
func updateDestination[V Visitor](s *scanner, v V, q *query, r int) {
	current := s.labels[r]
	for _, t := range q.targets {
		dt, _ := destinationTime(v, &current[t.jpp], t.duration)
		if v.Comp(dt, s.bestDest) {
			s.bestDest = dt
		}
	}
}

// destinationTime is the best date-time l yields at the end of a journey,
// egress included. viaReady is set when it comes from a connection rather
// than a vehicle; vehicles win ties. A connection walked before any boarding
// does not end a journey.
func destinationTime[V Visitor](v V, l *label, egress int32) (dt timetable.DateTime, viaReady bool) {
	dt = v.WorstDateTime()
	if l.arrival != dt {
		dt = v.Combine(l.arrival, egress)
	}
	if l.kind == transferReady && l.readyRound > 0 {
		if ready := v.Combine(l.ready, egress); v.Comp(ready, dt) {
			return ready, true
		}
	}
	return dt, false
}
