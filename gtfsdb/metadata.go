package gtfsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImportMetadata describes the stored snapshot: the feed it was built from
// and the production period of its timetable.
type ImportMetadata struct {
	FeedHash    string
	Source      string
	ImportedAt  time.Time
	PeriodStart string
	PeriodDays  int
	Timezone    string
	MinChange   int32
}

// GetImportMetadata returns the metadata of the stored snapshot, or
// ErrNoSnapshot.
func (c *Client) GetImportMetadata(ctx context.Context) (*ImportMetadata, error) {
	var (
		m          ImportMetadata
		importedAt int64
	)
	err := c.DB.QueryRowContext(ctx, `
		SELECT feed_hash, source, imported_at, period_start, period_days, timezone, min_change
		FROM import_metadata WHERE id = 1`,
	).Scan(&m.FeedHash, &m.Source, &importedAt, &m.PeriodStart, &m.PeriodDays, &m.Timezone, &m.MinChange)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("error reading import metadata: %w", err)
	}
	m.ImportedAt = time.UnixMilli(importedAt)
	return &m, nil
}

// HasSnapshot reports whether the stored snapshot was built from the feed
// whose hash is feedHash.
func (c *Client) HasSnapshot(ctx context.Context, feedHash string) (bool, error) {
	m, err := c.GetImportMetadata(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.FeedHash == feedHash, nil
}
