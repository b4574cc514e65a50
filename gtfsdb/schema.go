package gtfsdb

import (
	"database/sql"
	"errors"
	"fmt"

	"planner.onebusaway.org/internal/appconf"
)

const memoryPath = ":memory:"

var schema = []struct {
	name string
	stmt string
}{
	{"import_metadata", `
		CREATE TABLE IF NOT EXISTS import_metadata (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			feed_hash TEXT NOT NULL,
			source TEXT NOT NULL,
			imported_at INTEGER NOT NULL,
			period_start TEXT NOT NULL,
			period_days INTEGER NOT NULL,
			timezone TEXT NOT NULL,
			min_change INTEGER NOT NULL
		);`},
	{"stops", `
		CREATE TABLE IF NOT EXISTS stops (
			uri TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			wheelchair INTEGER NOT NULL
		);`},
	{"lines", `
		CREATE TABLE IF NOT EXISTS lines (
			uri TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL
		);`},
	{"vehicle_journeys", `
		CREATE TABLE IF NOT EXISTS vehicle_journeys (
			uri TEXT PRIMARY KEY,
			line_uri TEXT NOT NULL REFERENCES lines (uri),
			headsign TEXT NOT NULL,
			validity TEXT NOT NULL,
			wheelchair INTEGER NOT NULL,
			next_uri TEXT
		);`},
	{"stop_times", `
		CREATE TABLE IF NOT EXISTS stop_times (
			vj_uri TEXT NOT NULL REFERENCES vehicle_journeys (uri),
			position INTEGER NOT NULL,
			stop_uri TEXT NOT NULL REFERENCES stops (uri),
			arrival INTEGER NOT NULL,
			departure INTEGER NOT NULL,
			pick_up INTEGER NOT NULL,
			drop_off INTEGER NOT NULL,
			PRIMARY KEY (vj_uri, position)
		);`},
	{"stop_connections", `
		CREATE TABLE IF NOT EXISTS stop_connections (
			from_stop TEXT NOT NULL REFERENCES stops (uri),
			to_stop TEXT NOT NULL REFERENCES stops (uri),
			duration INTEGER NOT NULL
		);`},
}

// snapshotTables lists the tables cleared before a snapshot is written,
// children first.
var snapshotTables = []string{"stop_connections", "stop_times", "vehicle_journeys", "lines", "stops", "import_metadata"}

// createDB opens the database and creates the tables within a transaction.
func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != memoryPath {
		return nil, errors.New("test database must use in-memory storage")
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Every connection to ":memory:" opens a distinct database.
	if config.DBPath == memoryPath {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}
	if config.DBPath != memoryPath {
		if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("error enabling WAL: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	for _, table := range schema {
		if err := createTable(tx, table.name, table.stmt); err != nil {
			_ = tx.Rollback()
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_stop_times_vj ON stop_times (vj_uri);`); err != nil {
		_ = tx.Rollback()
		_ = db.Close()
		return nil, fmt.Errorf("error creating indexes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}
	return db, nil
}

func createTable(tx *sql.Tx, tableName string, createStmt string) error {
	if _, err := tx.Exec(createStmt); err != nil {
		return fmt.Errorf("error creating table %s: %w", tableName, err)
	}
	return nil
}
