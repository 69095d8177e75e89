package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// ReplayRow is a replay listing entry without its input blob
type ReplayRow struct {
	ID        string    `json:"id"`
	Players   int       `json:"players"`
	Frames    uint32    `json:"frames"`
	CreatedAt time.Time `json:"created_at"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS replays (
		id TEXT PRIMARY KEY,
		players INTEGER NOT NULL,
		dt_ns INTEGER NOT NULL,
		tuning BLOB NOT NULL,
		frames INTEGER NOT NULL,
		inputs BLOB NOT NULL,
		checksum INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_replays_created ON replays(created_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// GetSetting returns a stored setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// SaveReplay stores a finished match's journal
func (db *DB) SaveReplay(r *Replay) error {
	tuning, err := msgpack.Marshal(r.Tuning)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(
		`INSERT INTO replays (id, players, dt_ns, tuning, frames, inputs, checksum, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Players, int64(r.Dt), tuning, r.Frames, r.Inputs, int64(r.Checksum), r.CreatedAt.UTC(),
	)
	return err
}

// GetReplay returns a replay by ID, or nil if it doesn't exist
func (db *DB) GetReplay(id string) (*Replay, error) {
	row := db.conn.QueryRow(
		"SELECT id, players, dt_ns, tuning, frames, inputs, checksum, created_at FROM replays WHERE id = ?",
		id,
	)
	r := &Replay{}
	var dt, sum int64
	var tuning []byte
	err := row.Scan(&r.ID, &r.Players, &dt, &tuning, &r.Frames, &r.Inputs, &sum, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := msgpack.Unmarshal(tuning, &r.Tuning); err != nil {
		return nil, err
	}
	r.Dt = time.Duration(dt)
	r.Checksum = uint64(sum)
	return r, nil
}

// ListReplays returns the most recent replays
func (db *DB) ListReplays(limit int) ([]ReplayRow, error) {
	rows, err := db.conn.Query(
		"SELECT id, players, frames, created_at FROM replays ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReplayRow
	for rows.Next() {
		var r ReplayRow
		if err := rows.Scan(&r.ID, &r.Players, &r.Frames, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
