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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// insertBatch runs one prepared insert per row within tx.
func insertBatch(ctx context.Context, tx *sql.Tx, logger *slog.Logger, table, query string, n int, row func(i int) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("error preparing %s insert: %w", table, err)
	}
	defer logging.SafeCloseWithLogging(stmt, logger, "insert_"+table)

	for i := range n {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("error inserting into %s: %w", table, err)
		}
	}
	return nil
}

// StoreTimetable replaces the stored snapshot with tt, built from the feed
// identified by feedHash and source.
func (c *Client) StoreTimetable(ctx context.Context, tt *timetable.Timetable, feedHash, source string) (err error) {
	start := time.Now()
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "store_timetable")

	for _, table := range snapshotTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	stops := tt.Stops()
	err = insertBatch(ctx, tx, c.logger, "stops",
		`INSERT INTO stops (uri, name, lat, lon, wheelchair) VALUES (?, ?, ?, ?, ?)`,
		len(stops), func(i int) []any {
			s := stops[i]
			return []any{s.URI, s.Name, s.Lat, s.Lon, boolToInt(s.Wheelchair)}
		})
	if err != nil {
		return err
	}

	lines := tt.Lines()
	err = insertBatch(ctx, tx, c.logger, "lines",
		`INSERT INTO lines (uri, code, name) VALUES (?, ?, ?)`,
		len(lines), func(i int) []any {
			l := lines[i]
			return []any{l.URI, l.Code, l.Name}
		})
	if err != nil {
		return err
	}

	days := tt.Period().Days
	vjs := tt.VehicleJourneys()
	err = insertBatch(ctx, tx, c.logger, "vehicle_journeys",
		`INSERT INTO vehicle_journeys (uri, line_uri, headsign, validity, wheelchair, next_uri) VALUES (?, ?, ?, ?, ?, ?)`,
		len(vjs), func(i int) []any {
			vj := vjs[i]
			var next sql.NullString
			if succ := tt.Successor(vj); succ != nil {
				next = sql.NullString{String: succ.URI, Valid: true}
			}
			return []any{vj.URI, tt.LineOf(vj).URI, vj.Headsign, vj.Validity.Format(days), boolToInt(vj.Wheelchair), next}
		})
	if err != nil {
		return err
	}

	type call struct {
		vj *timetable.VehicleJourney
		st *timetable.StopTime
	}
	var calls []call
	for _, vj := range vjs {
		for i := range vj.StopTimes {
			calls = append(calls, call{vj: vj, st: &vj.StopTimes[i]})
		}
	}
	err = insertBatch(ctx, tx, c.logger, "stop_times",
		`INSERT INTO stop_times (vj_uri, position, stop_uri, arrival, departure, pick_up, drop_off) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(calls), func(i int) []any {
			st := calls[i].st
			return []any{calls[i].vj.URI, st.Order, tt.StopOf(st.Jpp).URI, st.Arrival, st.Departure, boolToInt(st.PickUp), boolToInt(st.DropOff)}
		})
	if err != nil {
		return err
	}

	connections := tt.Data().StopConnections
	err = insertBatch(ctx, tx, c.logger, "stop_connections",
		`INSERT INTO stop_connections (from_stop, to_stop, duration) VALUES (?, ?, ?)`,
		len(connections), func(i int) []any {
			sc := connections[i]
			return []any{tt.Stop(sc.From).URI, tt.Stop(sc.To).URI, sc.Duration}
		})
	if err != nil {
		return err
	}

	period := tt.Period()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_metadata (id, feed_hash, source, imported_at, period_start, period_days, timezone, min_change)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)`,
		feedHash, source, time.Now().UnixMilli(), period.Start.Format("20060102"), period.Days,
		period.Location().String(), tt.Data().MinChangeDuration)
	if err != nil {
		return fmt.Errorf("error inserting import metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	logging.LogOperation(c.logger, "timetable_snapshot_stored",
		slog.String("source", source),
		slog.Int("vehicle_journeys", len(vjs)),
		slog.Int("stop_times", len(calls)),
		slog.Duration("duration", time.Since(start)))
	return nil
}
