package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner.onebusaway.org/internal/models"
	"planner.onebusaway.org/internal/raptor"
	"planner.onebusaway.org/internal/timetable"
)

type staticSource struct {
	engine *raptor.Engine
}

func (s staticSource) Engine() *raptor.Engine { return s.engine }

func hm(h, m int) int32 { return int32(h*3600 + m*60) }

func newPlanner(t *testing.T, build func(b *timetable.Builder)) *Planner {
	t.Helper()
	b := timetable.NewBuilder(timetable.MustParsePeriod("20120614", 7))
	build(b)
	tt, err := b.Build()
	require.NoError(t, err)
	return New(staticSource{engine: raptor.NewEngine(tt)}, nil)
}

func TestPlanSimpleJourney(t *testing.T) {
	p := newPlanner(t, func(b *timetable.Builder) {
		b.Stop("stop1").Name = "Gare"
		b.Line("A").Code = "1"
		b.VJ("A").URI("vj:A:1").Headsign("Centre").
			At("stop1", hm(8, 10), hm(8, 11)).
			At("stop2", hm(8, 20), hm(8, 21))
	})

	result, err := p.PlanJourneys(context.Background(), Query{
		From:         "stop1",
		To:           "stop2",
		DateTimes:    []string{"20120614T080000"},
		Clockwise:    true,
		MaxTransfers: 3,
	})
	require.NoError(t, err)
	require.Len(t, result.Journeys, 1)

	j := result.Journeys[0]
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, "20120614T080000", j.RequestedDateTime)
	assert.Equal(t, "20120614T081100", j.DepartureDateTime)
	assert.Equal(t, "20120614T082000", j.ArrivalDateTime)
	assert.Equal(t, int64(540), j.Duration)
	assert.Equal(t, 0, j.NbTransfers)

	require.Len(t, j.Sections, 1)
	s := j.Sections[0]
	assert.Equal(t, models.SectionPublicTransport, s.Type)
	assert.Equal(t, "stop1", s.FromStopID)
	assert.Equal(t, "stop2", s.ToStopID)
	assert.Equal(t, "vj:A:1", s.VehicleJourneyID)
	assert.Equal(t, "A", s.LineID)
	assert.Equal(t, "Centre", s.Headsign)
	assert.Len(t, s.StopDateTimes, 2)

	require.Len(t, result.References.Lines, 1)
	assert.Equal(t, models.Line{ID: "A", Code: "1", Name: "A"}, result.References.Lines[0])
	require.Len(t, result.References.Stops, 2)
	assert.Equal(t, "stop1", result.References.Stops[0].ID)
	assert.Equal(t, "Gare", result.References.Stops[0].Name)
	assert.Equal(t, []string{"A"}, result.References.Stops[0].LineIDs)
}

func TestPlanSortsByInstantThenEndpoint(t *testing.T) {
	p := newPlanner(t, func(b *timetable.Builder) {
		b.VJ("A").URI("vj:A:1").At("stop1", hm(8, 10), hm(8, 10)).At("stop2", hm(8, 20), hm(8, 20))
		b.VJ("A").URI("vj:A:2").At("stop1", hm(9, 10), hm(9, 10)).At("stop2", hm(9, 20), hm(9, 20))
	})

	result, err := p.PlanJourneys(context.Background(), Query{
		From:         "stop1",
		To:           "stop2",
		DateTimes:    []string{"20120614T090000", "20120614T080000"},
		Clockwise:    true,
		MaxTransfers: 3,
	})
	require.NoError(t, err)
	require.Len(t, result.Journeys, 2)
	assert.Equal(t, "20120614T080000", result.Journeys[0].RequestedDateTime)
	assert.Equal(t, "20120614T082000", result.Journeys[0].ArrivalDateTime)
	assert.Equal(t, "20120614T090000", result.Journeys[1].RequestedDateTime)
	assert.Equal(t, "20120614T092000", result.Journeys[1].ArrivalDateTime)
}

func TestPlanArrivalBefore(t *testing.T) {
	p := newPlanner(t, func(b *timetable.Builder) {
		b.VJ("A").URI("vj:A:1").At("stop1", hm(8, 10), hm(8, 10)).At("stop2", hm(8, 20), hm(8, 20))
		b.VJ("A").URI("vj:A:2").At("stop1", hm(9, 10), hm(9, 10)).At("stop2", hm(9, 20), hm(9, 20))
	})

	result, err := p.PlanJourneys(context.Background(), Query{
		From:         "stop1",
		To:           "stop2",
		DateTimes:    []string{"20120614T091500"},
		MaxTransfers: 3,
	})
	require.NoError(t, err)
	require.Len(t, result.Journeys, 1)
	assert.Equal(t, "20120614T081000", result.Journeys[0].DepartureDateTime)
	assert.Equal(t, "vj:A:1", result.Journeys[0].Sections[0].VehicleJourneyID)
}

func TestPlanTransferSection(t *testing.T) {
	p := newPlanner(t, func(b *timetable.Builder) {
		b.VJ("A").URI("vj:A:1").At("stop1", hm(8, 0), hm(8, 0)).At("stop2", hm(8, 10), hm(8, 10))
		b.VJ("B").URI("vj:B:1").At("stop3", hm(8, 20), hm(8, 20)).At("stop4", hm(8, 30), hm(8, 30))
		b.Connection("stop2", "stop3", 120)
	})

	result, err := p.PlanJourneys(context.Background(), Query{
		From:         "stop1",
		To:           "stop4",
		DateTimes:    []string{"20120614T075500"},
		Clockwise:    true,
		MaxTransfers: 3,
	})
	require.NoError(t, err)
	require.Len(t, result.Journeys, 1)

	sections := result.Journeys[0].Sections
	require.Len(t, sections, 3)
	assert.Equal(t, models.SectionTransfer, sections[1].Type)
	assert.Equal(t, "stop2", sections[1].FromStopID)
	assert.Equal(t, "stop3", sections[1].ToStopID)
	assert.Equal(t, "20120614T081000", sections[1].DepartureDateTime)
	assert.Equal(t, "20120614T081200", sections[1].ArrivalDateTime)
	assert.Empty(t, sections[1].VehicleJourneyID)
	assert.Equal(t, 1, result.Journeys[0].NbTransfers)
	assert.Len(t, result.References.Lines, 2)
	assert.Len(t, result.References.Stops, 4)
}

func TestPlanQueryErrors(t *testing.T) {
	p := newPlanner(t, func(b *timetable.Builder) {
		b.VJ("A").At("stop1", hm(8, 10), hm(8, 10)).At("stop2", hm(8, 20), hm(8, 20))
	})

	tests := []struct {
		name   string
		query  Query
		field  string
		target error
	}{
		{
			name:   "no datetimes",
			query:  Query{From: "stop1", To: "stop2", MaxTransfers: 3},
			field:  "datetimes",
			target: raptor.ErrNoStartInstants,
		},
		{
			name:   "outside the production period",
			query:  Query{From: "stop1", To: "stop2", DateTimes: []string{"20130101T080000"}, MaxTransfers: 3},
			field:  "datetimes",
			target: timetable.ErrOutsidePeriod,
		},
		{
			name:   "unknown origin",
			query:  Query{From: "nowhere", To: "stop2", DateTimes: []string{"20120614T080000"}, MaxTransfers: 3},
			field:  "origin",
			target: raptor.ErrUnknownEntryPoint,
		},
		{
			name:   "non-positive max transfers",
			query:  Query{From: "stop1", To: "stop2", DateTimes: []string{"20120614T080000"}},
			field:  "maxTransfers",
			target: raptor.ErrInvalidMaxTransfers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.PlanJourneys(context.Background(), tt.query)
			var queryErr *raptor.QueryError
			require.True(t, errors.As(err, &queryErr))
			assert.Equal(t, tt.field, queryErr.Field)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err := p.PlanJourneys(context.Background(), Query{
		From: "stop1", To: "stop2", DateTimes: []string{"14/06/2012"}, MaxTransfers: 3,
	})
	var queryErr *raptor.QueryError
	assert.True(t, errors.As(err, &queryErr))
}

func TestPlanWithoutTimetable(t *testing.T) {
	p := New(staticSource{}, nil)
	_, err := p.PlanJourneys(context.Background(), Query{DateTimes: []string{"20120614T080000"}})
	assert.ErrorIs(t, err, ErrNoTimetable)
}
