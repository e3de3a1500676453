package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/satriahrh/voxrelay/domain/entities"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT,
	capture_ts REAL,
	transcribe_ts REAL,
	forward_ts REAL,
	audio_bytes INTEGER,
	text_bytes INTEGER,
	text TEXT,
	sentiment REAL,
	priority INTEGER
);
CREATE TABLE IF NOT EXISTS overrides(
	session_id TEXT PRIMARY KEY,
	priority INTEGER,
	ts REAL
);`

// Store persists segment logs and priority overrides in a single SQLite
// database. It implements both LogRepository and OverrideRepository.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY between the pipeline and the override API.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts one log record and fills in its assigned ID.
func (s *Store) Append(ctx context.Context, record *entities.LogRecord) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO logs(session_id, capture_ts, transcribe_ts, forward_ts,
			audio_bytes, text_bytes, text, sentiment, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID, record.CaptureTs, record.TranscribeTs, record.ForwardTs,
		record.AudioBytes, record.TextBytes, record.Text, record.Polarity, record.Priority)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("log insert id: %w", err)
	}
	record.ID = id
	return nil
}

// GetPriority returns the override priority for a session, if one is set.
func (s *Store) GetPriority(ctx context.Context, sessionID string) (int, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT priority FROM overrides WHERE session_id = ?`, sessionID)

	var priority int
	if err := row.Scan(&priority); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("query override: %w", err)
	}
	return priority, true, nil
}

// SetPriority upserts an override for a session. Last write wins.
func (s *Store) SetPriority(ctx context.Context, sessionID string, priority int, ts float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO overrides(session_id, priority, ts) VALUES (?, ?, ?)`,
		sessionID, priority, ts)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// List returns all overrides ordered by session.
func (s *Store) List(ctx context.Context) ([]entities.PriorityOverride, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, priority, ts FROM overrides ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []entities.PriorityOverride
	for rows.Next() {
		var o entities.PriorityOverride
		if err := rows.Scan(&o.SessionID, &o.Priority, &o.Ts); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}
