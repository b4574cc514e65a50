// Package gtfsdb keeps a snapshot of the last timetable built from a feed in
// SQLite, so that an unchanged feed is reloaded without being parsed again.
package gtfsdb

import (
	"database/sql"
	"errors"
	"log/slog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNoSnapshot is returned when the database holds no timetable yet.
var ErrNoSnapshot = errors.New("no timetable snapshot stored")

// Client is the main entry point for the library
type Client struct {
	config Config
	DB     *sql.DB
	logger *slog.Logger
}

// NewClient opens the database and creates its schema.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With(slog.String("component", "gtfsdb"))
	if config.verbose {
		logger.Info("database ready", slog.String("path", config.DBPath))
	}

	return &Client{
		config: config,
		DB:     db,
		logger: logger,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}
