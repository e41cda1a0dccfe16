package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// ReplaceSessions deletes every session of s.UserID and inserts s, atomically.
func (r *SQLiteRepository) ReplaceSessions(ctx context.Context, s core.Session) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, s.UserID); err != nil {
			return fmt.Errorf("delete previous sessions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, user_id, expires, created_at) VALUES (?, ?, ?, ?)`,
			s.ID, s.UserID, s.Expires.UTC().Unix(), s.CreatedAt.UTC().Unix()); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	return core.StoreFailure("issue session", err)
}

// GetActiveSession returns the session only while expires > now.
func (r *SQLiteRepository) GetActiveSession(ctx context.Context, id string, now time.Time) (core.Session, error) {
	var (
		s                core.Session
		expires, created int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires, created_at FROM sessions WHERE id = ? AND expires > ?`,
		id, now.UTC().Unix()).Scan(&s.ID, &s.UserID, &expires, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, core.NotFound("session")
	}
	if err != nil {
		return core.Session{}, core.StoreFailure("get session", err)
	}
	s.Expires = fromUnix(expires)
	s.CreatedAt = fromUnix(created)
	return s, nil
}

// DeleteSession removes a session by id. Deleting an unknown id is not an error.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return core.StoreFailure("delete session", err)
	}
	return nil
}

// DeleteExpiredSessions reaps sessions whose expiry is at or before now.
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires <= ?`, now.UTC().Unix())
	if err != nil {
		return 0, core.StoreFailure("delete expired sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, core.StoreFailure("delete expired sessions", err)
	}
	return n, nil
}

// CountSessions returns the number of session rows stored for a user.
func (r *SQLiteRepository) CountSessions(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, core.StoreFailure("count sessions", err)
	}
	return n, nil
}
