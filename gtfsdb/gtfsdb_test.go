package gtfsdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner.onebusaway.org/internal/appconf"
	"planner.onebusaway.org/internal/timetable"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func hm(h, m int) int32 { return int32(h*3600 + m*60) }

func buildTimetable(t *testing.T) *timetable.Timetable {
	t.Helper()
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	period, err := timetable.ParsePeriod("20120614", 3, paris)
	require.NoError(t, err)

	b := timetable.NewBuilder(period).MinChangeDuration(90)
	s := b.Stop("stop1")
	s.Name, s.Lat, s.Lon, s.Wheelchair = "Gare", 48.8, 2.3, true
	b.Line("A").Code = "1"
	b.VJ("A").URI("vj:A:1").Headsign("Nord").Wheelchair(true).
		At("stop1", hm(8, 0), hm(8, 1)).
		At("stop2", hm(8, 10), hm(8, 11))
	b.VJ("A").URI("vj:A:late").Validity(timetable.NewValidityPattern(0, 2)).
		At("stop1", hm(23, 30), hm(23, 30)).
		At("stop2", hm(23, 50), hm(23, 50))
	b.VJ("A").URI("vj:A:night").Validity(timetable.NewValidityPattern(1)).
		StopTime(timetable.StopTimeSpec{Stop: "stop2", Arrival: hm(0, 5), Departure: hm(0, 5)}).
		StopTime(timetable.StopTimeSpec{Stop: "stop3", Arrival: hm(0, 20), Departure: hm(0, 20), NoPickUp: true})
	b.Extend("vj:A:late", "vj:A:night")
	b.Connection("stop2", "stop4", 240)
	tt, err := b.Build()
	require.NoError(t, err)
	return tt
}

func TestNewClientRequiresMemoryInTests(t *testing.T) {
	client, err := NewClient(NewConfig("/tmp/planner_test.db", appconf.Test, false))
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "test database must use in-memory storage")
}

func TestMemoryDatabaseUsesOneConnection(t *testing.T) {
	client := newTestClient(t)
	assert.Equal(t, 1, client.DB.Stats().MaxOpenConnections)
}

func TestEmptyDatabase(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetImportMetadata(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, _, err = client.LoadTimetable(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	ok, err := client.HasSnapshot(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreAndLoadTimetable(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	original := buildTimetable(t)

	require.NoError(t, client.StoreTimetable(ctx, original, "hash-1", "feed.zip"))

	meta, err := client.GetImportMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", meta.FeedHash)
	assert.Equal(t, "feed.zip", meta.Source)
	assert.Equal(t, "20120614", meta.PeriodStart)
	assert.Equal(t, 3, meta.PeriodDays)
	assert.Equal(t, "Europe/Paris", meta.Timezone)
	assert.Equal(t, int32(90), meta.MinChange)
	assert.WithinDuration(t, time.Now(), meta.ImportedAt, time.Minute)

	counts, err := client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts["stops"])
	assert.Equal(t, 3, counts["vehicle_journeys"])
	assert.Equal(t, 6, counts["stop_times"])
	assert.Equal(t, 1, counts["stop_connections"])

	loaded, _, err := client.LoadTimetable(ctx)
	require.NoError(t, err)
	assert.Equal(t, original.Statistics(), loaded.Statistics())
	assert.Equal(t, original.Period().Format(0), loaded.Period().Format(0))
	assert.Len(t, loaded.Connections(), len(original.Connections()))

	stop, ok := loaded.StopByURI("stop1")
	require.True(t, ok)
	assert.Equal(t, "Gare", stop.Name)
	assert.InDelta(t, 48.8, stop.Lat, 1e-9)
	assert.True(t, stop.Wheelchair)

	line, ok := loaded.LineByURI("A")
	require.True(t, ok)
	assert.Equal(t, "1", line.Code)

	vj, ok := loaded.VehicleJourneyByURI("vj:A:1")
	require.True(t, ok)
	assert.Equal(t, "Nord", vj.Headsign)
	assert.True(t, vj.Wheelchair)
	assert.Equal(t, hm(8, 1), vj.StopTimes[0].Departure)

	late, ok := loaded.VehicleJourneyByURI("vj:A:late")
	require.True(t, ok)
	assert.Equal(t, "101", late.Validity.Format(3))
	next := loaded.Successor(late)
	require.NotNil(t, next)
	assert.Equal(t, "vj:A:night", next.URI)
	assert.False(t, next.StopTimes[1].PickUp)
	assert.True(t, next.StopTimes[1].DropOff)
}

func TestStoreReplacesSnapshot(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.StoreTimetable(ctx, buildTimetable(t), "hash-1", "feed.zip"))

	b := timetable.NewBuilder(timetable.MustParsePeriod("20120701", 1))
	b.VJ("B").At("x", hm(9, 0), hm(9, 0)).At("y", hm(9, 5), hm(9, 5))
	small, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, client.StoreTimetable(ctx, small, "hash-2", "other.zip"))

	ok, err := client.HasSnapshot(ctx, "hash-1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = client.HasSnapshot(ctx, "hash-2")
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, meta, err := client.LoadTimetable(ctx)
	require.NoError(t, err)
	assert.Equal(t, "UTC", meta.Timezone)
	assert.Len(t, loaded.Stops(), 2)
	assert.Len(t, loaded.VehicleJourneys(), 1)
}
