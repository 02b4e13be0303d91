package recording

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
	recording_id TEXT PRIMARY KEY,
	device_id    TEXT NOT NULL,
	label        TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	stopped_at   TEXT,
	status       TEXT NOT NULL
);
`

// Recording statuses.
const (
	StatusActive  = "active"
	StatusStopped = "stopped"
)

// Recording is one entry in the local recording index.
type Recording struct {
	ID        string
	DeviceID  string
	Label     string
	StartedAt time.Time
	StoppedAt time.Time // zero while active
	Status    string
}

// Store is a SQLite-backed index of recording sessions.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the index database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recording: open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("recording: pragma: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("recording: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Start registers a new active recording and returns it with a fresh ID.
func (s *Store) Start(deviceID, label string) (Recording, error) {
	rec := Recording{
		ID:        uuid.New().String(),
		DeviceID:  deviceID,
		Label:     label,
		StartedAt: time.Now().UTC(),
		Status:    StatusActive,
	}

	_, err := s.db.Exec(
		`INSERT INTO recordings (recording_id, device_id, label, started_at, status)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.DeviceID, rec.Label, rec.StartedAt.Format(time.RFC3339Nano), rec.Status,
	)
	if err != nil {
		return Recording{}, fmt.Errorf("recording: insert: %w", err)
	}

	return rec, nil
}

// Stop marks a recording stopped. Stopping an already stopped recording is
// a no-op and keeps the original stop timestamp.
func (s *Store) Stop(id string) error {
	res, err := s.db.Exec(
		`UPDATE recordings SET status = ?, stopped_at = ?
		 WHERE recording_id = ? AND status = ?`,
		StatusStopped, time.Now().UTC().Format(time.RFC3339Nano), id, StatusActive,
	)
	if err != nil {
		return fmt.Errorf("recording: stop: %w", err)
	}

	if _, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("recording: stop: %w", err)
	}

	// Zero rows means either already stopped (fine) or unknown.
	var exists int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM recordings WHERE recording_id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("recording: stop lookup: %w", err)
	}

	if exists == 0 {
		return fmt.Errorf("recording: unknown recording %q", id)
	}

	return nil
}

// Get fetches one recording by ID.
func (s *Store) Get(id string) (Recording, error) {
	row := s.db.QueryRow(
		`SELECT recording_id, device_id, label, started_at, stopped_at, status
		 FROM recordings WHERE recording_id = ?`, id,
	)

	rec, err := scanRecording(row)
	if err == sql.ErrNoRows {
		return Recording{}, fmt.Errorf("recording: unknown recording %q", id)
	}

	if err != nil {
		return Recording{}, fmt.Errorf("recording: get: %w", err)
	}

	return rec, nil
}

// List returns all recordings ordered by start time, oldest first.
func (s *Store) List() ([]Recording, error) {
	rows, err := s.db.Query(
		`SELECT recording_id, device_id, label, started_at, stopped_at, status
		 FROM recordings ORDER BY started_at ASC, recording_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("recording: list: %w", err)
	}
	defer rows.Close()

	var out []Recording

	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("recording: list scan: %w", err)
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recording: list rows: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (Recording, error) {
	var (
		rec       Recording
		startedAt string
		stoppedAt sql.NullString
	)

	if err := row.Scan(&rec.ID, &rec.DeviceID, &rec.Label, &startedAt, &stoppedAt, &rec.Status); err != nil {
		return Recording{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Recording{}, fmt.Errorf("parse started_at: %w", err)
	}

	rec.StartedAt = t

	if stoppedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, stoppedAt.String)
		if err != nil {
			return Recording{}, fmt.Errorf("parse stopped_at: %w", err)
		}

		rec.StoppedAt = t
	}

	return rec, nil
}
