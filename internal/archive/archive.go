// Package archive accumulates events from successive fetches in SQLite so
// playback can cover more than one feed window.
package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/san-kum/quakeplay/internal/quake"
	_ "modernc.org/sqlite"
)

type Archive struct {
	db *sql.DB
}

// Open creates or opens the archive at path. ":memory:" is accepted.
func Open(path string) (*Archive, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS events(
	  id        TEXT    PRIMARY KEY,
	  time_ms   INTEGER NOT NULL,
	  latitude  REAL    NOT NULL,
	  longitude REAL    NOT NULL,
	  mag       REAL,
	  place     TEXT    NOT NULL DEFAULT '',
	  seen_at   INTEGER NOT NULL DEFAULT (unixepoch())
	);
	CREATE INDEX IF NOT EXISTS idx_events_time ON events(time_ms);
	`)
	if err != nil {
		return fmt.Errorf("failed to create archive tables: %w", err)
	}
	return nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Key is the primary key for e: the feed id, or a synthetic key for
// features that arrived without one.
func Key(e quake.Event) string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("@%d:%.4f:%.4f", e.OccurredAtMs, e.Latitude, e.Longitude)
}

// Upsert inserts new events and refreshes known ones (the feed revises
// magnitudes and places). It returns the number of rows written.
func (a *Archive) Upsert(ctx context.Context, events []quake.Event) (int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO events(id, time_ms, latitude, longitude, mag, place) VALUES(?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET
	  time_ms = excluded.time_ms,
	  latitude = excluded.latitude,
	  longitude = excluded.longitude,
	  mag = excluded.mag,
	  place = excluded.place`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		var mag sql.NullFloat64
		if e.MagnitudeKnown {
			mag = sql.NullFloat64{Float64: e.Magnitude, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, Key(e), e.OccurredAtMs, e.Latitude, e.Longitude, mag, e.Place); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to upsert %s: %w", Key(e), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(events), nil
}

// Range returns events with fromMs <= time <= toMs, oldest first.
func (a *Archive) Range(ctx context.Context, fromMs, toMs int64) (*quake.Collection, error) {
	rows, err := a.db.QueryContext(ctx, `
	SELECT id, time_ms, latitude, longitude, mag, place
	FROM events WHERE time_ms BETWEEN ? AND ? ORDER BY time_ms`, fromMs, toMs)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	events := make([]quake.Event, 0)
	for rows.Next() {
		var (
			e   quake.Event
			mag sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.OccurredAtMs, &e.Latitude, &e.Longitude, &mag, &e.Place); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.ID != "" && e.ID[0] == '@' {
			e.ID = ""
		}
		e.Magnitude, e.MagnitudeKnown = mag.Float64, mag.Valid
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quake.NewCollection(events), nil
}

// Count returns the number of archived events.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}
