package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"fintrack/internal/core"
)

// GoalFilter narrows ListGoals by completion state.
type GoalFilter struct {
	Completed *bool
}

const goalSelect = `SELECT g.id, g.user_id, g.title, g.description, g.target_amount, g.current_amount,
	g.start_date, g.target_date, g.category_id, c.name, g.is_completed, g.completed_at, g.created_at, g.updated_at
FROM financial_goals g
LEFT JOIN categories c ON g.category_id = c.id`

func (r *SQLiteRepository) scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g                     core.Goal
		description, catName  sql.NullString
		categoryID, completed sql.NullInt64
		isCompleted           int
		created, updated      int64
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &description, &g.TargetAmount, &g.CurrentAmount,
		&g.StartDate, &g.TargetDate, &categoryID, &catName, &isCompleted, &completed, &created, &updated); err != nil {
		return core.Goal{}, err
	}
	g.Description = stringPtr(description)
	g.CategoryID = intPtr(categoryID)
	g.CategoryName = stringPtr(catName)
	g.IsCompleted = isCompleted != 0
	if completed.Valid {
		at := fromUnix(completed.Int64)
		g.CompletedAt = &at
	}
	g.CreatedAt = fromUnix(created)
	g.UpdatedAt = fromUnix(updated)
	core.ApplyGoalMetrics(&g, core.DateOf(r.now()))
	return g, nil
}

// ListGoals returns the user's goals ordered by target date.
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64, f GoalFilter) ([]core.Goal, error) {
	where := []string{"g.user_id = ?"}
	args := []any{userID}
	if f.Completed != nil {
		where = append(where, "g.is_completed = ?")
		args = append(args, boolToInt(*f.Completed))
	}

	rows, err := r.db.QueryContext(ctx,
		goalSelect+" WHERE "+strings.Join(where, " AND ")+" ORDER BY g.target_date ASC, g.id", args...)
	if err != nil {
		return nil, core.StoreFailure("list goals", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := r.scanGoal(rows)
		if err != nil {
			return nil, core.StoreFailure("scan goal", err)
		}
		out = append(out, g)
	}
	return out, core.StoreFailure("list goals", rows.Err())
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	g, err := r.scanGoal(r.db.QueryRowContext(ctx, goalSelect+` WHERE g.id = ? AND g.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.NotFound("goal")
	}
	if err != nil {
		return core.Goal{}, core.StoreFailure("get goal", err)
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, userID int64, in core.GoalInput) (core.Goal, error) {
	ts := r.timestamp()
	var completedAt any
	if in.IsCompleted {
		completedAt = ts
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO financial_goals (user_id, title, description, target_amount, current_amount, start_date,
		 target_date, category_id, is_completed, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, in.Title, nullableString(in.Description), in.TargetAmount, in.CurrentAmount, in.StartDate,
		in.TargetDate, nullableInt(in.CategoryID), boolToInt(in.IsCompleted), completedAt, ts, ts)
	if err != nil {
		return core.Goal{}, referenceFailure("create goal", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, core.StoreFailure("create goal", err)
	}
	return r.GetGoal(ctx, userID, id)
}

// UpdateGoal replaces the mutable fields. completed_at is stamped when the goal
// becomes complete and cleared when it is reopened.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, userID, id int64, in core.GoalInput) (core.Goal, error) {
	ts := r.timestamp()
	completed := boolToInt(in.IsCompleted)
	res, err := r.db.ExecContext(ctx,
		`UPDATE financial_goals SET title = ?, description = ?, target_amount = ?, current_amount = ?,
		 start_date = ?, target_date = ?, category_id = ?, is_completed = ?,
		 completed_at = CASE WHEN ? = 1 THEN COALESCE(completed_at, ?) ELSE NULL END,
		 updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		in.Title, nullableString(in.Description), in.TargetAmount, in.CurrentAmount, in.StartDate,
		in.TargetDate, nullableInt(in.CategoryID), completed, completed, ts, ts, id, userID)
	if err != nil {
		return core.Goal{}, referenceFailure("update goal", err)
	}
	if err := requireAffected(res, "goal"); err != nil {
		return core.Goal{}, err
	}
	return r.GetGoal(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM financial_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.StoreFailure("delete goal", err)
	}
	return requireAffected(res, "goal")
}
