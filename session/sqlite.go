package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"google.golang.org/genai"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var _ Service = (*SQLiteService)(nil)

// SQLiteService stores sessions in a SQLite database. Events are stored as
// JSON-encoded genai contents.
type SQLiteService struct {
	appName string
	conn    *sql.DB
}

// NewSQLiteService opens dsn, a file path or ":memory:", and migrates it.
func NewSQLiteService(appName, dsn string) (*SQLiteService, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// shared across queries.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	s := &SQLiteService{appName: appName, conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteService) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			app_name   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(app_name, user_id);

		CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id, id);
	`)
	if err != nil {
		return fmt.Errorf("creating session tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteService) Close() error {
	return s.conn.Close()
}

func (s *SQLiteService) Create(ctx context.Context, userID string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        xid.New().String(),
		AppName:   s.appName,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, app_name, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.AppName, sess.UserID, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteService) Get(ctx context.Context, userID, id string) (*Session, error) {
	sess, err := s.header(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT content FROM events WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading events of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("sqlite: scanning event: %w", err)
		}
		var content genai.Content
		if err := json.Unmarshal([]byte(raw), &content); err != nil {
			return nil, fmt.Errorf("sqlite: decoding event of %s: %w", id, err)
		}
		sess.Events = append(sess.Events, &content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}
	return sess, nil
}

func (s *SQLiteService) Append(ctx context.Context, userID, id string, events ...*genai.Content) error {
	if _, err := s.header(ctx, userID, id); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC()
	for _, event := range events {
		raw, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("sqlite: encoding event: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (session_id, content, created_at) VALUES (?, ?, ?)`,
			id, string(raw), now,
		); err != nil {
			return fmt.Errorf("sqlite: appending event to %s: %w", id, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, now, id,
	); err != nil {
		return fmt.Errorf("sqlite: touching session %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing events: %w", err)
	}
	return nil
}

func (s *SQLiteService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ? AND app_name = ? AND user_id = ?`,
		id, s.appName, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteService) List(ctx context.Context, userID string) ([]*Session, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, app_name, user_id, created_at, updated_at
		 FROM sessions
		 WHERE app_name = ? AND user_id = ?
		 ORDER BY updated_at DESC`,
		s.appName, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.AppName, &sess.UserID, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning session: %w", err)
		}
		out = append(out, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sessions: %w", err)
	}
	return out, nil
}

func (s *SQLiteService) header(ctx context.Context, userID, id string) (*Session, error) {
	var sess Session
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, app_name, user_id, created_at, updated_at
		 FROM sessions
		 WHERE id = ? AND app_name = ? AND user_id = ?`,
		id, s.appName, userID,
	).Scan(&sess.ID, &sess.AppName, &sess.UserID, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}
	return &sess, nil
}
