package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed session log. A single connection is
// enough: the REPL is the only writer and SQLite serializes anyway.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the session database at dbPath and
// initializes the schema.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	// WAL mode allows the exporter to read while a turn is writing
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers well
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the tables if they don't exist. Timestamps are
// unix nanoseconds so record order survives sub-second bursts.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		mode       TEXT NOT NULL,
		model      TEXT NOT NULL,
		provider   TEXT NOT NULL,
		root_path  TEXT NOT NULL,
		research   INTEGER NOT NULL DEFAULT 0,
		title      TEXT NOT NULL DEFAULT '',
		recap      TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(session_id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id);
	CREATE INDEX IF NOT EXISTS idx_records_kind ON records(session_id, kind);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Create inserts a new session row. A missing ID is filled in; the
// timestamps are always set here so callers can't forget them.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	query := `
		INSERT INTO sessions (session_id, mode, model, provider, root_path, research, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.Mode, sess.Model, sess.Provider, sess.RootPath,
		boolToInt(sess.Research), now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Append adds one record to a session's log and bumps the session's
// updated_at. payload may be any JSON-marshalable value.
func (s *Store) Append(ctx context.Context, sessionID string, kind Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	now := time.Now().UnixNano()
	query := `INSERT INTO records (session_id, kind, payload, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, sessionID, string(kind), string(data), now); err != nil {
		return fmt.Errorf("failed to append %s record: %w", kind, err)
	}

	touch := `UPDATE sessions SET updated_at = ? WHERE session_id = ?`
	if _, err := s.db.ExecContext(ctx, touch, now, sessionID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Get loads one session header.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT session_id, mode, model, provider, root_path, research, title, recap, created_at, updated_at
		FROM sessions WHERE session_id = ?
	`
	var sess Session
	var research int
	var created, updated int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &sess.Mode, &sess.Model, &sess.Provider, &sess.RootPath,
		&research, &sess.Title, &sess.Recap, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	sess.Research = research != 0
	sess.CreatedAt = time.Unix(0, created)
	sess.UpdatedAt = time.Unix(0, updated)
	return &sess, nil
}

// SetTitle stores the generated lesson title.
func (s *Store) SetTitle(ctx context.Context, id, title string) error {
	query := `UPDATE sessions SET title = ? WHERE session_id = ?`
	if _, err := s.db.ExecContext(ctx, query, title, id); err != nil {
		return fmt.Errorf("failed to set session title: %w", err)
	}
	return nil
}

// SetRecap stores the lesson recap shown when the session is resumed.
func (s *Store) SetRecap(ctx context.Context, id, recap string) error {
	query := `UPDATE sessions SET recap = ? WHERE session_id = ?`
	if _, err := s.db.ExecContext(ctx, query, recap, id); err != nil {
		return fmt.Errorf("failed to set session recap: %w", err)
	}
	return nil
}

// List returns all sessions, newest activity first, with record and
// turn counts so the picker can show how far each one got.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	query := `
		SELECT s.session_id, s.mode, s.model, s.title, s.created_at, s.updated_at,
			COUNT(r.seq),
			COALESCE(SUM(CASE WHEN r.kind = ? THEN 1 ELSE 0 END), 0)
		FROM sessions s
		LEFT JOIN records r ON r.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(KindUserInput))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var m Meta
		var created, updated int64
		if err := rows.Scan(&m.ID, &m.Mode, &m.Model, &m.Title, &created, &updated, &m.Records, &m.Turns); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		m.CreatedAt = time.Unix(0, created)
		m.UpdatedAt = time.Unix(0, updated)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// LastSessionID returns the most recently active session, or "" when
// the store is empty.
func (s *Store) LastSessionID(ctx context.Context) (string, error) {
	var id string
	query := `SELECT session_id FROM sessions ORDER BY updated_at DESC LIMIT 1`
	err := s.db.QueryRowContext(ctx, query).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find last session: %w", err)
	}
	return id, nil
}

// Records returns a session's full log in append order.
func (s *Store) Records(ctx context.Context, sessionID string) ([]Record, error) {
	query := `
		SELECT seq, session_id, kind, payload, created_at
		FROM records WHERE session_id = ? ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		var kind, payload string
		var created int64
		if err := rows.Scan(&r.Seq, &r.SessionID, &kind, &payload, &created); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Kind = Kind(kind)
		r.Payload = json.RawMessage(payload)
		r.CreatedAt = time.Unix(0, created)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Transcript rebuilds the visible conversation from the log: the user
// inputs and the assistant replies, nothing that was rejected or
// internal. Used to reseed the agent when resuming.
func (s *Store) Transcript(ctx context.Context, sessionID string) ([]engine.ChatMessage, error) {
	query := `
		SELECT kind, payload FROM records
		WHERE session_id = ? AND kind IN (?, ?)
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID, string(KindUserInput), string(KindAssistant))
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer rows.Close()

	var msgs []engine.ChatMessage
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan transcript row: %w", err)
		}
		switch Kind(kind) {
		case KindUserInput:
			var p UserInputPayload
			if err := json.Unmarshal([]byte(payload), &p); err != nil {
				continue // skip records written by a newer schema
			}
			msgs = append(msgs, engine.ChatMessage{Role: engine.RoleUser, Content: p.Input})
		case KindAssistant:
			var p AssistantPayload
			if err := json.Unmarshal([]byte(payload), &p); err != nil {
				continue
			}
			msgs = append(msgs, engine.ChatMessage{Role: engine.RoleAssistant, Content: p.Reply})
		}
	}
	return msgs, rows.Err()
}

// ExportJSONL streams a session's log as one JSON object per line.
func (s *Store) ExportJSONL(ctx context.Context, sessionID string, w io.Writer) error {
	recs, err := s.Records(ctx, sessionID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, r := range recs {
		line := struct {
			Seq       int64           `json:"seq"`
			Kind      Kind            `json:"kind"`
			CreatedAt time.Time       `json:"created_at"`
			Payload   json.RawMessage `json:"payload"`
		}{r.Seq, r.Kind, r.CreatedAt, r.Payload}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", r.Seq, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
