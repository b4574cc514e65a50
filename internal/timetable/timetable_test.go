package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hm(h, m int) int32 { return int32(h*3600 + m*60) }

func buildNetwork(t *testing.T) *Timetable {
	t.Helper()
	b := NewBuilder(MustParsePeriod("20120614", 7)).MinChangeDuration(120)
	b.VJ("B").URI("vj:b1").At("stop_area:stop3", hm(9, 0), hm(9, 1)).At("stop_area:stop2", hm(9, 10), hm(9, 11))
	b.VJ("A").URI("vj:a2").At("stop_area:stop1", hm(9, 10), hm(9, 11)).At("stop_area:stop2", hm(9, 20), hm(9, 21))
	b.VJ("A").URI("vj:a1").At("stop_area:stop1", hm(8, 10), hm(8, 11)).At("stop_area:stop2", hm(8, 20), hm(8, 21))
	b.Connection("stop_area:stop2", "stop_area:stop4", 300)
	b.Stop("stop_area:stop4")
	tt, err := b.Build()
	require.NoError(t, err)
	return tt
}

func TestSortAssignsDenseIndicesInSortedOrder(t *testing.T) {
	tt := buildNetwork(t)

	stops := tt.Stops()
	require.Len(t, stops, 4)
	for i, s := range stops {
		assert.Equal(t, StopIdx(i), s.Idx)
		if i > 0 {
			assert.Less(t, stops[i-1].URI, s.URI)
		}
		idx, ok := tt.Data().Stops.Lookup(s.URI)
		require.True(t, ok)
		assert.Equal(t, uint32(i), idx)
	}

	for i, vj := range tt.VehicleJourneys() {
		assert.Equal(t, VjIdx(i), vj.Idx)
		if i > 0 {
			assert.False(t, vj.less(tt.VehicleJourneys()[i-1]), "vehicle journeys out of order")
		}
	}

	a1, ok := tt.VehicleJourneyByURI("vj:a1")
	require.True(t, ok)
	a2, ok := tt.VehicleJourneyByURI("vj:a2")
	require.True(t, ok)
	assert.Equal(t, a1.JourneyPattern, a2.JourneyPattern)
	assert.Less(t, a1.Idx, a2.Idx, "earlier departure sorts first within a pattern")
}

func TestSortIsIdempotent(t *testing.T) {
	tt := buildNetwork(t)
	d := tt.Data()

	before := make(map[string]uint32)
	for _, vj := range d.VehicleJourneys.Items() {
		before[vj.URI] = uint32(vj.Idx)
	}
	for _, jpp := range d.JourneyPatternPoints.Items() {
		before[jpp.URI] = uint32(jpp.Idx)
	}
	connections := append([]Connection(nil), d.Connections...)

	d.Sort()
	d.Index()
	d.BuildURI()

	for _, vj := range d.VehicleJourneys.Items() {
		assert.Equal(t, before[vj.URI], uint32(vj.Idx), vj.URI)
	}
	for _, jpp := range d.JourneyPatternPoints.Items() {
		assert.Equal(t, before[jpp.URI], uint32(jpp.Idx), jpp.URI)
	}
	assert.Equal(t, connections, d.Connections)
}

func TestStopTimesMatchPatterns(t *testing.T) {
	tt := buildNetwork(t)

	for _, vj := range tt.VehicleJourneys() {
		jp := tt.JourneyPattern(vj.JourneyPattern)
		require.Len(t, vj.StopTimes, len(jp.Points), vj.URI)
		for i, st := range vj.StopTimes {
			assert.Equal(t, jp.Points[i], st.Jpp)
			assert.Equal(t, i, tt.Jpp(st.Jpp).Order)
			assert.Equal(t, vj.Idx, st.VehicleJourney)
			assert.LessOrEqual(t, st.Arrival, st.Departure)
			if i > 0 {
				assert.LessOrEqual(t, vj.StopTimes[i-1].Departure, st.Arrival)
			}
		}
	}
}

func TestAssignCopiesCollectionsWithTheirMaps(t *testing.T) {
	tt := buildNetwork(t)

	var d Data
	d.Assign(tt.Data())

	for _, s := range d.Stops.Items() {
		idx, ok := d.Stops.Lookup(s.URI)
		require.True(t, ok)
		assert.Equal(t, s, d.Stops.At(idx))
	}
	assert.Equal(t, tt.Data().Period, d.Period)
	assert.Len(t, d.Connections, len(tt.Connections()))
}

func TestBuildConnections(t *testing.T) {
	tt := buildNetwork(t)

	stop2, ok := tt.StopByURI("stop_area:stop2")
	require.True(t, ok)
	jpps := tt.JppsAtStop(stop2.Idx)
	require.Len(t, jpps, 2, "line A and line B both call at stop2")

	for _, jpp := range jpps {
		transfers := tt.TransfersFrom(jpp)
		require.Len(t, transfers, 1)
		assert.Equal(t, int32(120), transfers[0].Duration)
		assert.NotEqual(t, jpp, transfers[0].Jpp)
		back := tt.TransfersTo(transfers[0].Jpp)
		assert.Contains(t, back, Transfer{Jpp: jpp, Duration: 120})
	}

	// stop4 has no pattern point, its stop connection yields nothing.
	stop4, ok := tt.StopByURI("stop_area:stop4")
	require.True(t, ok)
	assert.Empty(t, tt.JppsAtStop(stop4.Idx))
	assert.Len(t, tt.Connections(), 2)
}

func TestDeparturesAreSortedWithLowestJourneyFirstOnTies(t *testing.T) {
	b := NewBuilder(MustParsePeriod("20120614", 1))
	b.VJ("A").URI("vj:z").At("s1", hm(8, 0), hm(8, 0)).At("s2", hm(8, 10), hm(8, 10))
	b.VJ("A").URI("vj:y").At("s1", hm(8, 0), hm(8, 0)).At("s2", hm(8, 10), hm(8, 10))
	b.VJ("A").URI("vj:x").At("s1", hm(7, 0), hm(7, 0)).At("s2", hm(7, 10), hm(7, 10))
	tt, err := b.Build()
	require.NoError(t, err)

	s1, _ := tt.StopByURI("s1")
	s2, _ := tt.StopByURI("s2")
	deps := tt.Departures(tt.JppsAtStop(s1.Idx)[0])
	require.Len(t, deps, 3)
	assert.Equal(t, hm(7, 0), deps[0].Offset)
	assert.Equal(t, deps[1].Offset, deps[2].Offset)
	assert.Less(t, deps[1].VJ, deps[2].VJ)

	arrs := tt.Arrivals(tt.JppsAtStop(s2.Idx)[0])
	require.Len(t, arrs, 3)
	assert.Equal(t, arrs[1].Offset, arrs[2].Offset)
	assert.Greater(t, arrs[1].VJ, arrs[2].VJ, "backward scans take the last entry, the lowest journey")
}

func TestExtensionChains(t *testing.T) {
	newBuilder := func() *Builder {
		b := NewBuilder(MustParsePeriod("20120614", 3))
		b.VJ("N").URI("vj:night1").At("s1", hm(23, 0), hm(23, 0)).At("s2", hm(23, 50), hm(23, 55))
		b.VJ("N").URI("vj:night2").At("s2", hm(0, 0), hm(0, 1)).At("s3", hm(0, 30), hm(0, 30))
		return b
	}

	t.Run("symmetric chain", func(t *testing.T) {
		tt, err := newBuilder().Extend("vj:night1", "vj:night2").Build()
		require.NoError(t, err)

		for _, vj := range tt.VehicleJourneys() {
			next := tt.Successor(vj)
			if next == nil {
				continue
			}
			assert.Equal(t, vj, tt.Predecessor(next))
			assert.Equal(t, tt.Jpp(vj.Last().Jpp).Stop, tt.Jpp(next.First().Jpp).Stop)
		}

		first, _ := tt.VehicleJourneyByURI("vj:night1")
		second, _ := tt.VehicleJourneyByURI("vj:night2")
		assert.Equal(t, second, tt.Successor(first))
		assert.Equal(t, 1, tt.SuccessorServiceDay(first, 0))
		assert.Equal(t, 0, tt.PredecessorServiceDay(second, 1))
		assert.Equal(t, first, tt.ChainHead(second))
		assert.Equal(t, 1, tt.Statistics().Extensions)
	})

	t.Run("unknown journey", func(t *testing.T) {
		_, err := newBuilder().Extend("vj:night1", "vj:missing").Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("stop mismatch", func(t *testing.T) {
		_, err := newBuilder().Extend("vj:night2", "vj:night1").Build()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Error(), "does not start at its last stop")
	})

	t.Run("dangling reference", func(t *testing.T) {
		d, err := newBuilder().Data()
		require.NoError(t, err)
		d.VehicleJourneys.At(0).Next = 42
		_, err = New(d)
		require.ErrorIs(t, err, ErrInvalidData)
		assert.Contains(t, err.Error(), "dangling successor")
	})

	t.Run("cycle", func(t *testing.T) {
		b := NewBuilder(MustParsePeriod("20120614", 1))
		b.VJ("L").URI("vj:l1").At("s1", hm(8, 0), hm(8, 0)).At("s1", hm(8, 30), hm(8, 30))
		b.VJ("L").URI("vj:l2").At("s1", hm(9, 0), hm(9, 0)).At("s1", hm(9, 30), hm(9, 30))
		b.Extend("vj:l1", "vj:l2").Extend("vj:l2", "vj:l1")
		_, err := b.Build()
		require.ErrorIs(t, err, ErrInvalidData)
		assert.Contains(t, err.Error(), "cyclic")
	})
}

func TestValidateRejectsInconsistentData(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(d *Data)
		issue  string
	}{
		{
			name: "stop time count",
			mutate: func(d *Data) {
				vj := d.VehicleJourneys.At(0)
				vj.StopTimes = vj.StopTimes[:1]
			},
			issue: "stop times, pattern",
		},
		{
			name: "decreasing offsets",
			mutate: func(d *Data) {
				vj := d.VehicleJourneys.At(0)
				vj.StopTimes[1].Arrival = vj.StopTimes[0].Departure - 60
			},
			issue: "arrives before the previous departure",
		},
		{
			name: "non contiguous order",
			mutate: func(d *Data) {
				d.JourneyPatternPoints.At(1).Order = 5
			},
			issue: "has order",
		},
		{
			name: "negative connection",
			mutate: func(d *Data) {
				d.Connections = append(d.Connections, Connection{From: 0, To: 1, Duration: -1})
			},
			issue: "negative duration",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder(MustParsePeriod("20120614", 1))
			b.VJ("A").At("s1", hm(8, 0), hm(8, 1)).At("s2", hm(8, 10), hm(8, 11))
			d, err := b.Data()
			require.NoError(t, err)
			d.Sort()
			d.BuildURI()
			tc.mutate(d)

			err = d.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tc.issue)
		})
	}
}

func TestEmptyJourneysAreKept(t *testing.T) {
	b := NewBuilder(MustParsePeriod("20120614", 1))
	b.VJ("E").URI("vj:empty")
	tt, err := b.Build()
	require.NoError(t, err)

	vj, ok := tt.VehicleJourneyByURI("vj:empty")
	require.True(t, ok)
	assert.Empty(t, vj.StopTimes)
	assert.Empty(t, tt.JourneyPattern(vj.JourneyPattern).Points)
	assert.Nil(t, vj.First())
}

func TestBuilderCopiesEntities(t *testing.T) {
	b := NewBuilder(MustParsePeriod("20120614", 1))
	b.VJ("A").At("s2", hm(8, 0), hm(8, 1)).At("s1", hm(8, 10), hm(8, 11))
	first, err := b.Build()
	require.NoError(t, err)
	s1, _ := first.StopByURI("s1")
	assert.Equal(t, StopIdx(0), s1.Idx)

	b.Stop("s0")
	second, err := b.Build()
	require.NoError(t, err)

	s1, _ = first.StopByURI("s1")
	assert.Equal(t, StopIdx(0), s1.Idx, "publishing a new dataset must not touch the previous one")
	s1, _ = second.StopByURI("s1")
	assert.Equal(t, StopIdx(1), s1.Idx)
}
