package internal

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	log_name TEXT NOT NULL,
	plugin TEXT NOT NULL,
	options TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dispatches_log ON dispatches(log_name, id);
`

// JournalEntry is one recorded dispatch outcome.
type JournalEntry struct {
	ID        int64
	LogName   string
	Plugin    string
	Options   string
	Status    string
	Detail    string
	CreatedAt string
}

// Journal is an append-only record of dispatches and their outcomes,
// kept in a SQLite file next to the logs. It is write-behind only: the
// session never reads it, the history command does.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal database.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal ping failed: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one dispatch outcome. A nil journal is a no-op so the
// session can run without one.
func (j *Journal) Record(logName, plugin, options, status, detail string) error {
	if j == nil || j.db == nil {
		return nil
	}
	_, err := j.db.Exec(
		"INSERT INTO dispatches (log_name, plugin, options, status, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		logName, plugin, options, status, detail, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record dispatch: %w", err)
	}
	return nil
}

// Recent returns the newest entries for a log name, most recent first.
// An empty name matches all logs.
func (j *Journal) Recent(logName string, limit int) ([]JournalEntry, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT id, log_name, plugin, options, status, detail, created_at FROM dispatches"
	args := []interface{}{}
	if logName != "" {
		query += " WHERE log_name = ?"
		args = append(args, logName)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal query failed: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.LogName, &e.Plugin, &e.Options, &e.Status, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal scan failed: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal rows iteration error: %w", err)
	}

	return entries, nil
}
