package timetable

// Link makes next the successor extension of prev and prev the predecessor
// extension of next.
func (d *Data) Link(prev, next VjIdx) {
	d.VehicleJourneys.At(uint32(prev)).Next = next
	d.VehicleJourneys.At(uint32(next)).Prev = prev
}

// Successor returns the successor extension of vj, nil when there is none.
func (tt *Timetable) Successor(vj *VehicleJourney) *VehicleJourney {
	if vj.Next == InvalidVj {
		return nil
	}
	return tt.VehicleJourney(vj.Next)
}

// Predecessor returns the predecessor extension of vj, nil when there is none.
func (tt *Timetable) Predecessor(vj *VehicleJourney) *VehicleJourney {
	if vj.Prev == InvalidVj {
		return nil
	}
	return tt.VehicleJourney(vj.Prev)
}

// SuccessorServiceDay returns the service day on which the successor of vj
// runs when vj runs on day. A successor starting before vj ends belongs to
// the next service day.
func (tt *Timetable) SuccessorServiceDay(vj *VehicleJourney, day int) int {
	next := tt.Successor(vj)
	if next == nil || len(next.StopTimes) == 0 || len(vj.StopTimes) == 0 {
		return day
	}
	if next.First().Arrival < vj.Last().Departure {
		return day + 1
	}
	return day
}

// PredecessorServiceDay is the inverse of SuccessorServiceDay.
func (tt *Timetable) PredecessorServiceDay(vj *VehicleJourney, day int) int {
	prev := tt.Predecessor(vj)
	if prev == nil || len(prev.StopTimes) == 0 || len(vj.StopTimes) == 0 {
		return day
	}
	if prev.Last().Departure > vj.First().Arrival {
		return day - 1
	}
	return day
}

// ChainHead walks predecessor extensions back to the first journey of the run.
func (tt *Timetable) ChainHead(vj *VehicleJourney) *VehicleJourney {
	for prev := tt.Predecessor(vj); prev != nil; prev = tt.Predecessor(vj) {
		vj = prev
	}
	return vj
}
