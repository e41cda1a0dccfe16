package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"fintrack/internal/core"
)

// ExpenseFilter narrows ListExpenses. Nil fields are ignored; set fields are ANDed.
type ExpenseFilter struct {
	From            *core.Date
	To              *core.Date
	CategoryID      *int64
	PaymentMethodID *int64
}

const expenseSelect = `SELECT e.id, e.user_id, e.description, e.amount, e.date, e.category_id,
	e.payment_method_id, e.notes, c.name, pm.name, e.created_at, e.updated_at
FROM expenses e
LEFT JOIN categories c ON e.category_id = c.id
LEFT JOIN payment_methods pm ON e.payment_method_id = pm.id`

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                      core.Expense
		categoryID, methodID   sql.NullInt64
		notes, catName, pmName sql.NullString
		created, updated       int64
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &e.Date, &categoryID,
		&methodID, &notes, &catName, &pmName, &created, &updated); err != nil {
		return core.Expense{}, err
	}
	e.CategoryID = intPtr(categoryID)
	e.PaymentMethodID = intPtr(methodID)
	e.Notes = stringPtr(notes)
	e.CategoryName = stringPtr(catName)
	e.PaymentMethodName = stringPtr(pmName)
	e.CreatedAt = fromUnix(created)
	e.UpdatedAt = fromUnix(updated)
	return e, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.StoreFailure("list expenses", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, core.StoreFailure("scan expense", err)
		}
		out = append(out, e)
	}
	return out, core.StoreFailure("list expenses", rows.Err())
}

// ListExpenses returns the user's expenses, newest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64, f ExpenseFilter) ([]core.Expense, error) {
	where := []string{"e.user_id = ?"}
	args := []any{userID}
	if f.From != nil {
		where = append(where, "e.date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		where = append(where, "e.date <= ?")
		args = append(args, f.To.String())
	}
	if f.CategoryID != nil {
		where = append(where, "e.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.PaymentMethodID != nil {
		where = append(where, "e.payment_method_id = ?")
		args = append(args, *f.PaymentMethodID)
	}

	query := expenseSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY e.date DESC, e.id DESC"
	return r.queryExpenses(ctx, query, args...)
}

// RecentExpenses returns the user's latest expenses by date.
func (r *SQLiteRepository) RecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	return r.queryExpenses(ctx, expenseSelect+` WHERE e.user_id = ? ORDER BY e.date DESC, e.id DESC LIMIT ?`, userID, limit)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, expenseSelect+` WHERE e.id = ? AND e.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.NotFound("expense")
	}
	if err != nil {
		return core.Expense{}, core.StoreFailure("get expense", err)
	}
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID int64, in core.ExpenseInput) (core.Expense, error) {
	ts := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, description, amount, date, category_id, payment_method_id, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, in.Description, in.Amount, in.Date, nullableInt(in.CategoryID), nullableInt(in.PaymentMethodID),
		nullableString(in.Notes), ts, ts)
	if err != nil {
		return core.Expense{}, referenceFailure("create expense", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, core.StoreFailure("create expense", err)
	}
	return r.GetExpense(ctx, userID, id)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID, id int64, in core.ExpenseInput) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, date = ?, category_id = ?, payment_method_id = ?,
		 notes = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		in.Description, in.Amount, in.Date, nullableInt(in.CategoryID), nullableInt(in.PaymentMethodID),
		nullableString(in.Notes), r.timestamp(), id, userID)
	if err != nil {
		return core.Expense{}, referenceFailure("update expense", err)
	}
	if err := requireAffected(res, "expense"); err != nil {
		return core.Expense{}, err
	}
	return r.GetExpense(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.StoreFailure("delete expense", err)
	}
	return requireAffected(res, "expense")
}

// referenceFailure reports a dangling category or payment method as invalid input.
func referenceFailure(op string, err error) error {
	if isForeignKeyViolation(err) {
		return core.Invalid("reference", errors.New("referenced category or payment method does not exist"))
	}
	return core.StoreFailure(op, err)
}
