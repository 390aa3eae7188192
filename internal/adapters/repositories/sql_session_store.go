package repositories

import (
	"context"
	"database/sql"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQL-backed SessionStore. Sessions are stored as JSON documents keyed by id.
type SQLSessionStore struct {
	DB     *sql.DB
	Driver string
}

func NewSQLSessionStore(conn *sql.DB, driver string) *SQLSessionStore {
	return &SQLSessionStore{DB: conn, Driver: driver}
}

// SaveSession inserts a new session (Version 0) or updates one whose stored
// version still matches, bumping the version in the same statement.
func (s *SQLSessionStore) SaveSession(ctx context.Context, session *domain.RouteSession) (err error) {
	defer obs.Time(ctx, "sessions.Save")(&err)

	if s.DB == nil {
		return errors.New("sql session store: DB is nil")
	}
	if session == nil || session.SessionID == "" {
		return errors.New("save session: session id must not be empty")
	}

	next := *session
	next.Version = session.Version + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("save session %s: encode: %w", session.SessionID, err)
	}
	updated := session.UpdatedAt.UTC().Format(time.RFC3339Nano)

	var res sql.Result
	if session.Version == 0 {
		query := db.Rebind(s.Driver, `
		INSERT INTO route_sessions (session_id, payload, version, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING;
		`)
		res, err = s.DB.ExecContext(ctx, query, session.SessionID, string(payload), next.Version, updated)
	} else {
		query := db.Rebind(s.Driver, `
		UPDATE route_sessions
		SET payload = ?, version = ?, updated_at = ?
		WHERE session_id = ? AND version = ?;
		`)
		res, err = s.DB.ExecContext(ctx, query, string(payload), next.Version, updated, session.SessionID, session.Version)
	}
	if err != nil {
		return fmt.Errorf("save session %s: write: %w", session.SessionID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save session %s: rows affected: %w", session.SessionID, err)
	}
	if n == 0 {
		return fmt.Errorf("save session %s at version %d: %w", session.SessionID, session.Version, ports.ErrSessionConflict)
	}

	session.Version = next.Version
	return nil
}

func (s *SQLSessionStore) LoadSession(ctx context.Context, id string) (_ *domain.RouteSession, err error) {
	defer obs.Time(ctx, "sessions.Load")(&err)

	if s.DB == nil {
		return nil, errors.New("sql session store: DB is nil")
	}

	query := db.Rebind(s.Driver, `SELECT payload, version FROM route_sessions WHERE session_id = ?;`)

	var (
		payload string
		version int64
	)
	err = s.DB.QueryRowContext(ctx, query, id).Scan(&payload, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load session %s: %w", id, ports.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: query: %w", id, err)
	}

	var session domain.RouteSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("load session %s: decode: %w", id, err)
	}
	session.Version = version

	return &session, nil
}

func (s *SQLSessionStore) DeleteSession(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "sessions.Delete")(&err)

	if s.DB == nil {
		return errors.New("sql session store: DB is nil")
	}

	query := db.Rebind(s.Driver, `DELETE FROM route_sessions WHERE session_id = ?;`)
	if _, err := s.DB.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	return nil
}
