package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		sessionId TEXT NOT NULL,
		analyzer TEXT NOT NULL,
		fileName TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL,
		createdAt REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS analyses_session ON analyses(sessionId, createdAt);
	CREATE INDEX IF NOT EXISTS analyses_created ON analyses(createdAt);
`

// Store is the analysis history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database with WAL and applies the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; tea.Cmds may record from several goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e. Empty ID and zero CreatedAt are filled in.
func (s *Store) Record(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO analyses (id, sessionId, analyzer, fileName, summary, createdAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.SessionID, e.Analyzer, e.FileName, e.Summary, unixFromTime(e.CreatedAt))
	if err != nil {
		return Entry{}, fmt.Errorf("insert analysis: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, sessionId, analyzer, fileName, summary, createdAt
		FROM analyses
		ORDER BY createdAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	return scanEntries(rows)
}

// ForSession returns all entries of a session, oldest first.
func (s *Store) ForSession(sessionID string) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, sessionId, analyzer, fileName, summary, createdAt
		FROM analyses
		WHERE sessionId = ?
		ORDER BY createdAt ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt float64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Analyzer, &e.FileName,
			&e.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		e.CreatedAt = timeFromUnix(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
