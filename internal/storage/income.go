package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"fintrack/internal/core"
)

// IncomeFilter narrows ListIncome. Nil fields are ignored.
type IncomeFilter struct {
	From       *core.Date
	To         *core.Date
	CategoryID *int64
}

const incomeSelect = `SELECT i.id, i.user_id, i.description, i.amount, i.date, i.category_id, i.notes,
	c.name, i.created_at, i.updated_at
FROM income i
LEFT JOIN categories c ON i.category_id = c.id`

func scanIncome(row rowScanner) (core.Income, error) {
	var (
		in               core.Income
		categoryID       sql.NullInt64
		notes, catName   sql.NullString
		created, updated int64
	)
	if err := row.Scan(&in.ID, &in.UserID, &in.Description, &in.Amount, &in.Date, &categoryID,
		&notes, &catName, &created, &updated); err != nil {
		return core.Income{}, err
	}
	in.CategoryID = intPtr(categoryID)
	in.Notes = stringPtr(notes)
	in.CategoryName = stringPtr(catName)
	in.CreatedAt = fromUnix(created)
	in.UpdatedAt = fromUnix(updated)
	return in, nil
}

// ListIncome returns the user's income entries, newest first.
func (r *SQLiteRepository) ListIncome(ctx context.Context, userID int64, f IncomeFilter) ([]core.Income, error) {
	where := []string{"i.user_id = ?"}
	args := []any{userID}
	if f.From != nil {
		where = append(where, "i.date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		where = append(where, "i.date <= ?")
		args = append(args, f.To.String())
	}
	if f.CategoryID != nil {
		where = append(where, "i.category_id = ?")
		args = append(args, *f.CategoryID)
	}

	rows, err := r.db.QueryContext(ctx,
		incomeSelect+" WHERE "+strings.Join(where, " AND ")+" ORDER BY i.date DESC, i.id DESC", args...)
	if err != nil {
		return nil, core.StoreFailure("list income", err)
	}
	defer rows.Close()

	out := []core.Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, core.StoreFailure("scan income", err)
		}
		out = append(out, in)
	}
	return out, core.StoreFailure("list income", rows.Err())
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, userID, id int64) (core.Income, error) {
	in, err := scanIncome(r.db.QueryRowContext(ctx, incomeSelect+` WHERE i.id = ? AND i.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, core.NotFound("income")
	}
	if err != nil {
		return core.Income{}, core.StoreFailure("get income", err)
	}
	return in, nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, userID int64, in core.IncomeInput) (core.Income, error) {
	ts := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO income (user_id, description, amount, date, category_id, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, in.Description, in.Amount, in.Date, nullableInt(in.CategoryID), nullableString(in.Notes), ts, ts)
	if err != nil {
		return core.Income{}, referenceFailure("create income", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Income{}, core.StoreFailure("create income", err)
	}
	return r.GetIncome(ctx, userID, id)
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, userID, id int64, in core.IncomeInput) (core.Income, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE income SET description = ?, amount = ?, date = ?, category_id = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		in.Description, in.Amount, in.Date, nullableInt(in.CategoryID), nullableString(in.Notes),
		r.timestamp(), id, userID)
	if err != nil {
		return core.Income{}, referenceFailure("update income", err)
	}
	if err := requireAffected(res, "income"); err != nil {
		return core.Income{}, err
	}
	return r.GetIncome(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM income WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.StoreFailure("delete income", err)
	}
	return requireAffected(res, "income")
}
