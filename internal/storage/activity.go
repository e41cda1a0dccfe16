package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// RecordActivity stores one audit entry. Redelivered events with a known
// eventID are ignored and reported as not inserted.
func (r *SQLiteRepository) RecordActivity(ctx context.Context, eventID string, a core.Activity) (bool, error) {
	var amount any
	if a.Amount != nil {
		units, err := a.Amount.Units()
		if err != nil {
			return false, core.Invalid("amount", err)
		}
		amount = units
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (event_id, user_id, entity, action, record_id, amount, description, occurred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_id) DO NOTHING`,
		eventID, a.UserID, a.Entity, a.Action, a.RecordID, amount, a.Description,
		a.OccurredAt.UTC().UnixMilli(), r.timestamp())
	if err != nil {
		if isForeignKeyViolation(err) {
			// The user was deleted after the event was published.
			return false, nil
		}
		return false, core.StoreFailure("record activity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, core.StoreFailure("record activity", err)
	}
	return n > 0, nil
}

// ListActivity returns the user's newest activity entries.
func (r *SQLiteRepository) ListActivity(ctx context.Context, userID int64, limit int) ([]core.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, entity, action, record_id, amount, description, occurred_at
		 FROM activity_log WHERE user_id = ?
		 ORDER BY occurred_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, core.StoreFailure("list activity", err)
	}
	defer rows.Close()

	out := []core.Activity{}
	for rows.Next() {
		var (
			a        core.Activity
			amount   sql.NullInt64
			occurred int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Entity, &a.Action, &a.RecordID, &amount, &a.Description, &occurred); err != nil {
			return nil, core.StoreFailure("scan activity", fmt.Errorf("activity row: %w", err))
		}
		if amount.Valid {
			m := core.MoneyFromUnits(amount.Int64)
			a.Amount = &m
		}
		a.OccurredAt = time.UnixMilli(occurred).UTC()
		out = append(out, a)
	}
	return out, core.StoreFailure("list activity", rows.Err())
}
