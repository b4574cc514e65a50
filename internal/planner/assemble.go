package planner

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"planner.onebusaway.org/internal/models"
	"planner.onebusaway.org/internal/raptor"
	"planner.onebusaway.org/internal/timetable"
)

// assembler converts search results into response models and collects the
// lines and stops they reference.
type assembler struct {
	tt     *timetable.Timetable
	period timetable.Period
	stops  map[timetable.StopIdx]bool
	lines  map[timetable.LineIdx]bool
}

func assemble(tt *timetable.Timetable, journeys []raptor.Journey) *Result {
	a := &assembler{
		tt:     tt,
		period: tt.Period(),
		stops:  make(map[timetable.StopIdx]bool),
		lines:  make(map[timetable.LineIdx]bool),
	}
	result := &Result{Journeys: make([]models.Journey, 0, len(journeys))}
	for i := range journeys {
		result.Journeys = append(result.Journeys, a.journey(&journeys[i]))
	}
	result.References = a.references()
	return result
}

func (a *assembler) format(dt timetable.DateTime) string {
	return a.period.Format(dt)
}

func (a *assembler) stop(jpp timetable.JppIdx) string {
	s := a.tt.StopOf(jpp)
	a.stops[s.Idx] = true
	return s.URI
}

func (a *assembler) journey(j *raptor.Journey) models.Journey {
	m := models.Journey{
		ID:                uuid.NewString(),
		RequestedDateTime: a.format(j.RequestedInstant),
		DepartureDateTime: a.format(j.Departure),
		ArrivalDateTime:   a.format(j.Arrival),
		Duration:          int64(j.Arrival - j.Departure),
		NbTransfers:       j.Transfers,
		AccessDuration:    j.AccessDuration,
		EgressDuration:    j.EgressDuration,
		Sections:          make([]models.Section, 0, len(j.Legs)),
	}
	for i := range j.Legs {
		m.Sections = append(m.Sections, a.section(&j.Legs[i]))
	}
	return m
}

func (a *assembler) section(leg *raptor.Leg) models.Section {
	s := models.Section{
		ID:                uuid.NewString(),
		Type:              leg.Kind.String(),
		FromStopID:        a.stop(leg.From),
		ToStopID:          a.stop(leg.To),
		DepartureDateTime: a.format(leg.Departure),
		ArrivalDateTime:   a.format(leg.Arrival),
		Duration:          int64(leg.Arrival - leg.Departure),
	}
	if leg.Kind != raptor.RideLeg {
		return s
	}

	vj := a.tt.VehicleJourney(leg.VehicleJourney)
	line := a.tt.LineOf(vj)
	a.lines[line.Idx] = true
	s.VehicleJourneyID = vj.URI
	s.LineID = line.URI
	s.Headsign = vj.Headsign
	s.StayIn = leg.StayIn
	s.StopDateTimes = make([]models.StopDateTime, 0, len(leg.StopDateTimes))
	for _, call := range leg.StopDateTimes {
		s.StopDateTimes = append(s.StopDateTimes, models.StopDateTime{
			StopID:            a.stop(call.Jpp),
			ArrivalDateTime:   a.format(call.Arrival),
			DepartureDateTime: a.format(call.Departure),
		})
	}
	return s
}

func (a *assembler) references() models.ReferencesModel {
	refs := models.NewEmptyReferences()
	for idx := range a.lines {
		refs.Lines = append(refs.Lines, LineModel(a.tt.Line(idx)))
	}
	for idx := range a.stops {
		refs.Stops = append(refs.Stops, StopModel(a.tt, a.tt.Stop(idx)))
	}
	slices.SortFunc(refs.Lines, func(x, y models.Line) int { return strings.Compare(x.ID, y.ID) })
	slices.SortFunc(refs.Stops, func(x, y models.Stop) int { return strings.Compare(x.ID, y.ID) })
	return refs
}

// LineModel converts a timetable line.
func LineModel(l *timetable.Line) models.Line {
	return models.NewLine(l.URI, l.Code, l.Name)
}

// StopModel converts a timetable stop, listing the lines serving it.
func StopModel(tt *timetable.Timetable, s *timetable.Stop) models.Stop {
	var lineIDs []string
	for _, jpp := range tt.JppsAtStop(s.Idx) {
		jp := tt.JourneyPattern(tt.Jpp(jpp).JourneyPattern)
		id := tt.Line(jp.Line).URI
		if !slices.Contains(lineIDs, id) {
			lineIDs = append(lineIDs, id)
		}
	}
	slices.Sort(lineIDs)
	return models.NewStop(s.URI, s.Name, s.Lat, s.Lon, s.Wheelchair, lineIDs)
}
