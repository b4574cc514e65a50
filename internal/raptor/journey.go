package raptor

import (
	"slices"

	"planner.onebusaway.org/internal/timetable"
)

// LegKind tells rides from connections.
type LegKind uint8

const (
	RideLeg LegKind = iota
	TransferLeg
)

func (k LegKind) String() string {
	if k == TransferLeg {
		return "transfer"
	}
	return "public_transport"
}

// StopDateTime is one call of a ride, boarding and alighting calls included.
type StopDateTime struct {
	Jpp       timetable.JppIdx
	Arrival   timetable.DateTime
	Departure timetable.DateTime
}

// Leg is one step of a journey. Ride legs carry the vehicle journey and its
// service day; transfer legs only carry a duration. StayIn marks a ride
// continuing the previous one in the same vehicle.
type Leg struct {
	Kind           LegKind
	From           timetable.JppIdx
	To             timetable.JppIdx
	VehicleJourney timetable.VjIdx
	ServiceDay     int
	Departure      timetable.DateTime
	Arrival        timetable.DateTime
	Duration       int32
	StayIn         bool
	StopDateTimes  []StopDateTime
}

// Journey is one itinerary found for a start instant. Departure and Arrival
// include the access and egress durations.
type Journey struct {
	RequestedInstant timetable.DateTime
	Departure        timetable.DateTime
	Arrival          timetable.DateTime
	Transfers        int
	AccessDuration   int32
	EgressDuration   int32
	Legs             []Leg
}

// Rides returns the ride legs of the journey.
func (j *Journey) Rides() []Leg {
	rides := make([]Leg, 0, len(j.Legs))
	for _, leg := range j.Legs {
		if leg.Kind == RideLeg {
			rides = append(rides, leg)
		}
	}
	return rides
}

// extract builds the journeys of a finished scan: one per round whose best
// destination date-time strictly beats every earlier round.
func extract[V Visitor](s *scanner, v V, q *query, start timetable.DateTime) []Journey {
	worst := v.WorstDateTime()
	best := worst
	var journeys []Journey
	for r := 1; r <= s.rounds; r++ {
		roundBest, target, egress, viaReady := worst, timetable.InvalidJpp, int32(0), false
		for _, t := range q.targets {
			dt, ready := destinationTime(v, &s.labels[r][t.jpp], t.duration)
			if v.Comp(dt, roundBest) {
				roundBest, target, egress, viaReady = dt, t.jpp, t.duration, ready
			}
		}
		if target == timetable.InvalidJpp || !v.Comp(roundBest, best) {
			continue
		}
		best = roundBest
		if j, ok := reconstruct(s, v, r, target, viaReady, egress); ok {
			j.RequestedInstant = start
			journeys = append(journeys, j)
		}
	}
	return paretoFront(v, journeys)
}

// reconstruct walks the labels back from target to the scan origin. Legs are
// gathered in scan order and returned in travel order.
func reconstruct[V Visitor](s *scanner, v V, r int, target timetable.JppIdx, viaReady bool, egress int32) (Journey, bool) {
	tt := s.tt
	var blocks [][]Leg
	jpp := target
	scanAccess := int32(-1)
	for steps := 0; scanAccess < 0; steps++ {
		if r < 0 || steps > 2*len(s.labels)+2 {
			return Journey{}, false
		}
		l := &s.labels[r][jpp]
		if viaReady {
			switch l.kind {
			case accessReady:
				scanAccess = l.duration
			case transferReady:
				blocks = append(blocks, []Leg{transferLeg(v, l.from, jpp, l.duration)})
				// A connection of round 0 leaves an entry point.
				r, jpp, viaReady = l.readyRound, l.from, l.readyRound == 0
			default:
				return Journey{}, false
			}
			continue
		}
		if l.ride.board == timetable.InvalidJpp {
			return Journey{}, false
		}
		blocks = append(blocks, rideLegs(tt, v, l.ride, jpp))
		r, jpp, viaReady = l.arrRound-1, l.ride.board, true
	}

	if v.Clockwise() {
		slices.Reverse(blocks)
	}
	j := Journey{}
	for _, block := range blocks {
		j.Legs = append(j.Legs, block...)
	}
	if v.Clockwise() {
		j.AccessDuration, j.EgressDuration = scanAccess, egress
	} else {
		j.AccessDuration, j.EgressDuration = egress, scanAccess
	}
	j.schedule()
	return j, true
}

// transferLeg builds the connection walked from scan point from to scan point
// to, oriented in travel order.
func transferLeg[V Visitor](v V, from, to timetable.JppIdx, duration int32) Leg {
	if !v.Clockwise() {
		from, to = to, from
	}
	return Leg{
		Kind:           TransferLeg,
		From:           from,
		To:             to,
		VehicleJourney: timetable.InvalidVj,
		Duration:       duration,
	}
}

// rideLegs materializes a ride ending, in scan order, at end. A ride following
// the extension chain yields one leg per vehicle journey, the later ones
// flagged StayIn.
func rideLegs[V Visitor](tt *timetable.Timetable, v V, rd ride, end timetable.JppIdx) []Leg {
	from, to := rd.board, end
	first, firstDay, last := rd.boardVj, rd.boardDay, rd.vj
	if !v.Clockwise() {
		from, to = end, rd.board
		first, firstDay, last = rd.vj, rd.day, rd.boardVj
	}

	vj := tt.VehicleJourney(first)
	day := firstDay
	fromOrder := tt.Jpp(from).Order
	var legs []Leg
	for {
		isLast := vj.Idx == last
		toOrder := len(vj.StopTimes) - 1
		if isLast {
			toOrder = tt.Jpp(to).Order
		}
		legs = append(legs, rideLeg(vj, day, fromOrder, toOrder, len(legs) > 0))
		next := tt.Successor(vj)
		if isLast || next == nil {
			break
		}
		day = tt.SuccessorServiceDay(vj, day)
		vj, fromOrder = next, 0
	}
	return legs
}

func rideLeg(vj *timetable.VehicleJourney, day, fromOrder, toOrder int, stayIn bool) Leg {
	calls := make([]StopDateTime, 0, toOrder-fromOrder+1)
	for st := range (Forward{}).StopTimesFrom(vj, fromOrder) {
		if st.Order > toOrder {
			break
		}
		calls = append(calls, StopDateTime{
			Jpp:       st.Jpp,
			Arrival:   timetable.Set(day, st.Arrival),
			Departure: timetable.Set(day, st.Departure),
		})
	}
	board, alight := &vj.StopTimes[fromOrder], &vj.StopTimes[toOrder]
	return Leg{
		Kind:           RideLeg,
		From:           board.Jpp,
		To:             alight.Jpp,
		VehicleJourney: vj.Idx,
		ServiceDay:     day,
		Departure:      timetable.Set(day, board.Departure),
		Arrival:        timetable.Set(day, alight.Arrival),
		StayIn:         stayIn,
		StopDateTimes:  calls,
	}
}

// schedule dates the connections as soon as the previous ride allows, or just
// in time for the next ride when the journey starts with one, then derives
// the journey bounds and its number of transfers.
func (j *Journey) schedule() {
	rides := 0
	for i := range j.Legs {
		leg := &j.Legs[i]
		if leg.Kind == RideLeg {
			if !leg.StayIn {
				rides++
			}
			continue
		}
		switch {
		case i > 0:
			leg.Departure = j.Legs[i-1].Arrival
		case i+1 < len(j.Legs):
			leg.Departure = j.Legs[i+1].Departure - timetable.DateTime(leg.Duration)
		}
		leg.Arrival = leg.Departure + timetable.DateTime(leg.Duration)
	}
	if len(j.Legs) == 0 {
		return
	}
	j.Departure = j.Legs[0].Departure - timetable.DateTime(j.AccessDuration)
	j.Arrival = j.Legs[len(j.Legs)-1].Arrival + timetable.DateTime(j.EgressDuration)
	j.Transfers = max(rides-1, 0)
}

// paretoFront drops the journeys another journey matches or beats on both
// the optimized date-time and the number of transfers. Of two equal
// journeys the first one is kept.
func paretoFront[V Visitor](v V, journeys []Journey) []Journey {
	endpoint := func(j *Journey) timetable.DateTime {
		if v.Clockwise() {
			return j.Arrival
		}
		return j.Departure
	}
	front := make([]Journey, 0, len(journeys))
	for i := range journeys {
		candidate := &journeys[i]
		dominated := false
		for k := range journeys {
			if k == i {
				continue
			}
			other := &journeys[k]
			if !v.Be(endpoint(other), endpoint(candidate)) || other.Transfers > candidate.Transfers {
				continue
			}
			strict := v.Comp(endpoint(other), endpoint(candidate)) || other.Transfers < candidate.Transfers
			if strict || k < i {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, *candidate)
		}
	}
	return front
}
