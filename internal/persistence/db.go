// Package persistence provides SQLite storage for the dream journal and
// finished session snapshots.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/journal"
)

// DB wraps a SQLite connection. It implements journal.Store.
type DB struct {
	conn *sqlx.DB
}

var _ journal.Store = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS journal_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		dream_type TEXT NOT NULL,
		theme TEXT NOT NULL,
		duration REAL NOT NULL,
		pattern TEXT NOT NULL,
		summary TEXT NOT NULL,
		narrative TEXT NOT NULL,
		symbolism_json TEXT NOT NULL,
		insights_json TEXT NOT NULL,
		emotions_json TEXT NOT NULL,
		motifs_json TEXT NOT NULL,
		characters_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_name TEXT NOT NULL,
		dream_type TEXT NOT NULL,
		theme TEXT NOT NULL,
		state TEXT NOT NULL,
		ended_early INTEGER NOT NULL,
		elapsed REAL NOT NULL,
		duration REAL NOT NULL,
		session_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		time REAL NOT NULL,
		stage TEXT NOT NULL,
		description TEXT NOT NULL,
		impact REAL NOT NULL,
		emotional_tone TEXT NOT NULL,
		PRIMARY KEY (session_id, seq)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_session ON journal_entries(session_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type entryRow struct {
	ID         string  `db:"id"`
	SessionID  string  `db:"session_id"`
	UserName   string  `db:"user_name"`
	CreatedAt  string  `db:"created_at"`
	DreamType  string  `db:"dream_type"`
	Theme      string  `db:"theme"`
	Duration   float64 `db:"duration"`
	Pattern    string  `db:"pattern"`
	Summary    string  `db:"summary"`
	Narrative  string  `db:"narrative"`
	Symbolism  string  `db:"symbolism_json"`
	Insights   string  `db:"insights_json"`
	Emotions   string  `db:"emotions_json"`
	Motifs     string  `db:"motifs_json"`
	Characters string  `db:"characters_json"`
}

const entryColumns = `id, session_id, user_name, created_at, dream_type, theme, duration,
	pattern, summary, narrative, symbolism_json, insights_json, emotions_json,
	motifs_json, characters_json`

// Save appends a journal entry.
func (db *DB) Save(ctx context.Context, e dream.JournalEntry) error {
	row := entryRow{
		ID:        e.ID,
		SessionID: e.SessionID,
		UserName:  e.UserName,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
		DreamType: e.DreamType,
		Theme:     e.Theme,
		Duration:  e.Duration,
		Pattern:   e.Pattern,
		Summary:   e.Summary,
		Narrative: e.Narrative,
	}
	var err error
	if row.Symbolism, err = encode(e.Symbolism); err != nil {
		return err
	}
	if row.Insights, err = encode(e.Insights); err != nil {
		return err
	}
	if row.Emotions, err = encode(e.Emotions); err != nil {
		return err
	}
	if row.Motifs, err = encode(e.Motifs); err != nil {
		return err
	}
	if row.Characters, err = encode(e.Characters); err != nil {
		return err
	}

	_, err = db.conn.NamedExecContext(ctx, `INSERT INTO journal_entries (`+entryColumns+`)
		VALUES (:id, :session_id, :user_name, :created_at, :dream_type, :theme, :duration,
		 :pattern, :summary, :narrative, :symbolism_json, :insights_json, :emotions_json,
		 :motifs_json, :characters_json)`, row)
	if err != nil {
		return fmt.Errorf("insert journal entry %s: %w", e.ID, err)
	}
	return nil
}

// List returns the most recent limit entries, oldest first.
func (db *DB) List(ctx context.Context, limit int) ([]dream.JournalEntry, error) {
	if limit <= 0 {
		limit = journal.DefaultLimit
	}
	var rows []entryRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT `+entryColumns+` FROM (
			SELECT seq, `+entryColumns+` FROM journal_entries ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return decodeEntries(rows)
}

// All returns every entry, oldest first.
func (db *DB) All(ctx context.Context) ([]dream.JournalEntry, error) {
	var rows []entryRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT `+entryColumns+` FROM journal_entries ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	return decodeEntries(rows)
}

func decodeEntries(rows []entryRow) ([]dream.JournalEntry, error) {
	out := make([]dream.JournalEntry, 0, len(rows))
	for _, r := range rows {
		created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("entry %s created_at: %w", r.ID, err)
		}
		e := dream.JournalEntry{
			ID:        r.ID,
			SessionID: r.SessionID,
			UserName:  r.UserName,
			CreatedAt: created,
			DreamType: r.DreamType,
			Theme:     r.Theme,
			Duration:  r.Duration,
			Pattern:   r.Pattern,
			Summary:   r.Summary,
			Narrative: r.Narrative,
		}
		for _, f := range []struct {
			raw string
			dst any
		}{
			{r.Symbolism, &e.Symbolism},
			{r.Insights, &e.Insights},
			{r.Emotions, &e.Emotions},
			{r.Motifs, &e.Motifs},
			{r.Characters, &e.Characters},
		} {
			if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
				return nil, fmt.Errorf("entry %s: %w", r.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// SaveSession writes a session snapshot and its events (full replace).
func (db *DB) SaveSession(ctx context.Context, s *dream.Session) error {
	raw, err := encode(s)
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	endedEarly := 0
	if s.EndedEarly {
		endedEarly = 1
	}
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO sessions
		(id, user_name, dream_type, theme, state, ended_early, elapsed, duration, session_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserName, s.Type, s.Theme, string(s.State), endedEarly, s.Elapsed, s.Duration, raw,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE session_id = ?", s.ID); err != nil {
		return err
	}
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO events
		(session_id, seq, type, time, stage, description, impact, emotional_tone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	events := s.Events()
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, s.ID, e.Seq, string(e.Type), e.Time, e.Stage, e.Description, e.Impact, e.Tone); err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("session saved", "session", s.ID, "state", s.State, "events", len(events))
	return nil
}

// LoadSession reads a saved session snapshot.
func (db *DB) LoadSession(ctx context.Context, id string) (*dream.Session, error) {
	var raw string
	if err := db.conn.GetContext(ctx, &raw, "SELECT session_json FROM sessions WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var s dream.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	s.Narrative.LinkResolutions()
	return &s, nil
}

// SessionEvents returns the stored events of one session in emission order.
func (db *DB) SessionEvents(ctx context.Context, id string) ([]dream.Event, error) {
	var events []dream.Event
	err := db.conn.SelectContext(ctx, &events,
		`SELECT seq, type, time, stage, description, impact, emotional_tone AS tone
		 FROM events WHERE session_id = ? ORDER BY seq ASC`,
		id,
	)
	return events, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return string(b), nil
}
