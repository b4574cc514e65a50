package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"planner.onebusaway.org/internal/logging"
	"planner.onebusaway.org/internal/timetable"
)

// LoadTimetable rebuilds the stored snapshot. It returns ErrNoSnapshot when
// nothing has been stored yet.
func (c *Client) LoadTimetable(ctx context.Context) (tt *timetable.Timetable, meta *ImportMetadata, err error) {
	start := time.Now()
	meta, err = c.GetImportMetadata(ctx)
	if err != nil {
		return nil, nil, err
	}

	loc, err := time.LoadLocation(meta.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot timezone %q: %w", meta.Timezone, err)
	}
	period, err := timetable.ParsePeriod(meta.PeriodStart, meta.PeriodDays, loc)
	if err != nil {
		return nil, nil, err
	}
	b := timetable.NewBuilder(period).MinChangeDuration(meta.MinChange)

	if err := c.loadStops(ctx, b); err != nil {
		return nil, nil, err
	}
	if err := c.loadLines(ctx, b); err != nil {
		return nil, nil, err
	}
	vjs, err := c.loadVehicleJourneys(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	if err := c.loadStopTimes(ctx, vjs); err != nil {
		return nil, nil, err
	}
	if err := c.loadConnections(ctx, b); err != nil {
		return nil, nil, err
	}

	tt, err = b.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("rebuilding snapshot: %w", err)
	}

	logging.LogOperation(c.logger, "timetable_snapshot_loaded",
		slog.String("feed_hash", meta.FeedHash),
		slog.Duration("duration", time.Since(start)))
	return tt, meta, nil
}

// query runs q and calls scan for every row.
func (c *Client) query(ctx context.Context, operation, q string, scan func(*sql.Rows) error) (err error) {
	rows, err := c.DB.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("error querying %s: %w", operation, err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, operation)

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("error scanning %s: %w", operation, err)
		}
	}
	return rows.Err()
}

func (c *Client) loadStops(ctx context.Context, b *timetable.Builder) error {
	return c.query(ctx, "stops", `SELECT uri, name, lat, lon, wheelchair FROM stops ORDER BY uri`,
		func(rows *sql.Rows) error {
			var (
				uri, name  string
				lat, lon   float64
				wheelchair int
			)
			if err := rows.Scan(&uri, &name, &lat, &lon, &wheelchair); err != nil {
				return err
			}
			s := b.Stop(uri)
			s.Name, s.Lat, s.Lon, s.Wheelchair = name, lat, lon, wheelchair == 1
			return nil
		})
}

func (c *Client) loadLines(ctx context.Context, b *timetable.Builder) error {
	return c.query(ctx, "lines", `SELECT uri, code, name FROM lines ORDER BY uri`,
		func(rows *sql.Rows) error {
			var uri, code, name string
			if err := rows.Scan(&uri, &code, &name); err != nil {
				return err
			}
			l := b.Line(uri)
			l.Code, l.Name = code, name
			return nil
		})
}

func (c *Client) loadVehicleJourneys(ctx context.Context, b *timetable.Builder) (map[string]*timetable.VJBuilder, error) {
	vjs := make(map[string]*timetable.VJBuilder)
	var extensions [][2]string
	err := c.query(ctx, "vehicle_journeys",
		`SELECT uri, line_uri, headsign, validity, wheelchair, next_uri FROM vehicle_journeys ORDER BY uri`,
		func(rows *sql.Rows) error {
			var (
				uri, line, headsign, validity string
				wheelchair                    int
				next                          sql.NullString
			)
			if err := rows.Scan(&uri, &line, &headsign, &validity, &wheelchair, &next); err != nil {
				return err
			}
			vp, err := timetable.ParseValidityPattern(validity)
			if err != nil {
				return err
			}
			vjs[uri] = b.VJ(line).URI(uri).Headsign(headsign).Validity(vp).Wheelchair(wheelchair == 1)
			if next.Valid {
				extensions = append(extensions, [2]string{uri, next.String})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	for _, ext := range extensions {
		b.Extend(ext[0], ext[1])
	}
	return vjs, nil
}

func (c *Client) loadStopTimes(ctx context.Context, vjs map[string]*timetable.VJBuilder) error {
	return c.query(ctx, "stop_times",
		`SELECT vj_uri, stop_uri, arrival, departure, pick_up, drop_off FROM stop_times ORDER BY vj_uri, position`,
		func(rows *sql.Rows) error {
			var (
				vjURI, stopURI     string
				arrival, departure int32
				pickUp, dropOff    int
			)
			if err := rows.Scan(&vjURI, &stopURI, &arrival, &departure, &pickUp, &dropOff); err != nil {
				return err
			}
			vb, ok := vjs[vjURI]
			if !ok {
				return fmt.Errorf("stop time of unknown vehicle journey %q", vjURI)
			}
			vb.StopTime(timetable.StopTimeSpec{
				Stop:      stopURI,
				Arrival:   arrival,
				Departure: departure,
				NoPickUp:  pickUp == 0,
				NoDropOff: dropOff == 0,
			})
			return nil
		})
}

func (c *Client) loadConnections(ctx context.Context, b *timetable.Builder) error {
	return c.query(ctx, "stop_connections", `SELECT from_stop, to_stop, duration FROM stop_connections`,
		func(rows *sql.Rows) error {
			var (
				from, to string
				duration int32
			)
			if err := rows.Scan(&from, &to, &duration); err != nil {
				return err
			}
			b.Connection(from, to, duration)
			return nil
		})
}
