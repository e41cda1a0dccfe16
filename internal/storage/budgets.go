package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// BudgetFilter narrows ListBudgets by period.
type BudgetFilter struct {
	Month *int
	Year  *int
}

// budgetSelect joins the category name and the matching month's spending for that category.
const budgetSelect = `SELECT b.id, b.user_id, b.category_id, c.name, b.amount, b.month, b.year, b.created_at, b.updated_at,
	COALESCE((
		SELECT SUM(e.amount) FROM expenses e
		WHERE e.user_id = b.user_id
		  AND e.category_id = b.category_id
		  AND e.date >= printf('%04d-%02d-01', b.year, b.month)
		  AND e.date < date(printf('%04d-%02d-01', b.year, b.month), '+1 month')
	), 0)
FROM budgets b
LEFT JOIN categories c ON b.category_id = c.id`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                core.Budget
		catName          sql.NullString
		spent            core.Money
		created, updated int64
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &catName, &b.Amount, &b.Month, &b.Year,
		&created, &updated, &spent); err != nil {
		return core.Budget{}, err
	}
	b.CategoryName = stringPtr(catName)
	b.CreatedAt = fromUnix(created)
	b.UpdatedAt = fromUnix(updated)
	core.ApplyBudgetProgress(&b, spent)
	return b, nil
}

// ListBudgets returns the user's budgets ordered by category name.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64, f BudgetFilter) ([]core.Budget, error) {
	where := []string{"b.user_id = ?"}
	args := []any{userID}
	if f.Month != nil {
		where = append(where, "b.month = ?")
		args = append(args, *f.Month)
	}
	if f.Year != nil {
		where = append(where, "b.year = ?")
		args = append(args, *f.Year)
	}

	rows, err := r.db.QueryContext(ctx,
		budgetSelect+" WHERE "+strings.Join(where, " AND ")+" ORDER BY c.name, b.year, b.month, b.id", args...)
	if err != nil {
		return nil, core.StoreFailure("list budgets", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, core.StoreFailure("scan budget", err)
		}
		out = append(out, b)
	}
	return out, core.StoreFailure("list budgets", rows.Err())
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, budgetSelect+` WHERE b.id = ? AND b.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.NotFound("budget")
	}
	if err != nil {
		return core.Budget{}, core.StoreFailure("get budget", err)
	}
	return b, nil
}

// UpsertBudget inserts the budget or, when (user, category, month, year) already
// exists, updates that row's amount. created reports which path was taken.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, userID int64, in core.BudgetInput) (b core.Budget, created bool, err error) {
	ts := r.timestamp()
	var id int64

	err = r.withTx(ctx, func(tx *sql.Tx) error {
		var existing int64
		switch err := tx.QueryRowContext(ctx,
			`SELECT id FROM budgets WHERE user_id = ? AND category_id = ? AND month = ? AND year = ?`,
			userID, in.CategoryID, in.Month, in.Year).Scan(&existing); {
		case errors.Is(err, sql.ErrNoRows):
			created = true
		case err != nil:
			return fmt.Errorf("lookup budget: %w", err)
		}

		if err := tx.QueryRowContext(ctx,
			`INSERT INTO budgets (user_id, category_id, amount, month, year, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (user_id, category_id, month, year)
			 DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at
			 RETURNING id`,
			userID, in.CategoryID, in.Amount, in.Month, in.Year, ts, ts).Scan(&id); err != nil {
			return referenceFailure("upsert budget", err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, false, core.StoreFailure("upsert budget", err)
	}

	b, err = r.GetBudget(ctx, userID, id)
	return b, created, err
}

// UpdateBudget changes the category and amount of an existing budget.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, userID, id int64, in core.BudgetUpdate) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, amount = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		in.CategoryID, in.Amount, r.timestamp(), id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, core.Conflict("a budget for this category and period already exists")
		}
		return core.Budget{}, referenceFailure("update budget", err)
	}
	if err := requireAffected(res, "budget"); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.StoreFailure("delete budget", err)
	}
	return requireAffected(res, "budget")
}
