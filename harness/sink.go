// sink.go
//
// Result persistence. Runs accumulate in a local SQLite database for
// cross-run comparison, and the latest result can additionally be written
// as JSON — atomically, so a crashed run never leaves a torn file behind.

package harness

import (
	"bytes"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/natefinch/atomic"
	"github.com/sugawarayuuta/sonnet"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at     TEXT    NOT NULL,
	variant        TEXT    NOT NULL,
	ops            INTEGER NOT NULL,
	reads          INTEGER NOT NULL,
	writes         INTEGER NOT NULL,
	hits           INTEGER NOT NULL,
	misses         INTEGER NOT NULL,
	corrupt        INTEGER NOT NULL,
	wrong_key      INTEGER NOT NULL,
	duration_sec   REAL    NOT NULL,
	reads_per_sec  REAL    NOT NULL,
	writes_per_sec REAL    NOT NULL,
	arena_bump     INTEGER NOT NULL,
	arena_reused   INTEGER NOT NULL,
	arena_missed   INTEGER NOT NULL
);`

// WriteSQLite appends one run to the results database, creating the schema
// on first use.
func WriteSQLite(path string, r Result) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening results db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	_, err = db.Exec(`INSERT INTO runs (
		started_at, variant, ops, reads, writes, hits, misses, corrupt,
		wrong_key, duration_sec, reads_per_sec, writes_per_sec,
		arena_bump, arena_reused, arena_missed
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt, r.Variant, r.Ops, r.Reads, r.Writes, r.Hits, r.Misses,
		r.Corrupt, r.WrongKey, r.DurationSec, r.ReadsPerSec, r.WritesPerSec,
		r.ArenaBump, r.ArenaReused, r.ArenaMissed)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// WriteJSON atomically replaces path with the encoded result.
func WriteJSON(path string, r Result) error {
	js, err := sonnet.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(js)); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
