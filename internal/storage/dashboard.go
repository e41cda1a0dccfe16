package storage

import (
	"context"
	"fmt"
	"sort"

	"fintrack/internal/core"
)

// Period is a half-open date range [From, Until).
type Period struct {
	From  core.Date
	Until core.Date
}

// MonthPeriod covers one calendar month.
func MonthPeriod(year, month int) Period {
	from := core.NewDate(year, month, 1)
	return Period{From: from, Until: core.AddMonthsClamped(from, 1)}
}

// LedgerTable names the two amount-bearing tables the aggregates run over.
type LedgerTable string

const (
	ExpensesTable LedgerTable = "expenses"
	IncomeTable   LedgerTable = "income"
)

// SumAmounts totals a ledger table for the user, optionally within a period. Empty sums are zero.
func (r *SQLiteRepository) SumAmounts(ctx context.Context, table LedgerTable, userID int64, p *Period) (core.Money, error) {
	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM %s WHERE user_id = ?`, table)
	args := []any{userID}
	if p != nil {
		query += ` AND date >= ? AND date < ?`
		args = append(args, p.From.String(), p.Until.String())
	}

	var total core.Money
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return core.Money{}, core.StoreFailure("sum "+string(table), err)
	}
	return total, nil
}

// CountCategories counts the user's categories of one type.
func (r *SQLiteRepository) CountCategories(ctx context.Context, userID int64, typ core.CategoryType) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ? AND type = ?`, userID, string(typ)).Scan(&n); err != nil {
		return 0, core.StoreFailure("count categories", err)
	}
	return n, nil
}

// CountPaymentMethods counts the user's payment methods.
func (r *SQLiteRepository) CountPaymentMethods(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment_methods WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, core.StoreFailure("count payment methods", err)
	}
	return n, nil
}

// ExpensesByCategory sums the period's categorized expenses per category name, largest first.
func (r *SQLiteRepository) ExpensesByCategory(ctx context.Context, userID int64, p Period) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.name, SUM(e.amount) AS value
		 FROM expenses e
		 JOIN categories c ON e.category_id = c.id
		 WHERE e.user_id = ? AND e.date >= ? AND e.date < ?
		 GROUP BY c.name
		 ORDER BY value DESC, c.name`,
		userID, p.From.String(), p.Until.String())
	if err != nil {
		return nil, core.StoreFailure("expenses by category", err)
	}
	defer rows.Close()

	out := []core.CategoryAmount{}
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Value); err != nil {
			return nil, core.StoreFailure("scan category amount", err)
		}
		out = append(out, ca)
	}
	return out, core.StoreFailure("expenses by category", rows.Err())
}

// MonthlyTotals sums a ledger table per calendar month from since onwards.
// Months without rows are absent.
func (r *SQLiteRepository) MonthlyTotals(ctx context.Context, table LedgerTable, userID int64, since core.Date) ([]core.MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT CAST(strftime('%%Y', date) AS INTEGER) AS y,
		        CAST(strftime('%%m', date) AS INTEGER) AS m,
		        SUM(amount)
		 FROM %s
		 WHERE user_id = ? AND date >= ?
		 GROUP BY y, m
		 ORDER BY y, m`, table),
		userID, since.String())
	if err != nil {
		return nil, core.StoreFailure("monthly "+string(table), err)
	}
	defer rows.Close()

	var out []core.MonthTotal
	for rows.Next() {
		var mt core.MonthTotal
		if err := rows.Scan(&mt.Year, &mt.Month, &mt.Total); err != nil {
			return nil, core.StoreFailure("scan monthly total", err)
		}
		out = append(out, mt)
	}
	return out, core.StoreFailure("monthly "+string(table), rows.Err())
}

// ExpensePredictions averages categorized expenses per category name since the
// given date and returns the highest averages first.
func (r *SQLiteRepository) ExpensePredictions(ctx context.Context, userID int64, since core.Date, limit int) ([]core.Prediction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.name, SUM(e.amount), COUNT(*)
		 FROM expenses e
		 JOIN categories c ON e.category_id = c.id
		 WHERE e.user_id = ? AND e.date >= ?
		 GROUP BY c.name`,
		userID, since.String())
	if err != nil {
		return nil, core.StoreFailure("expense predictions", err)
	}
	defer rows.Close()

	out := []core.Prediction{}
	for rows.Next() {
		var (
			p   core.Prediction
			sum core.Money
		)
		if err := rows.Scan(&p.Name, &sum, &p.Frequency); err != nil {
			return nil, core.StoreFailure("scan prediction", err)
		}
		p.AverageAmount = sum.DivInt(int64(p.Frequency))
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreFailure("expense predictions", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].AverageAmount.Cmp(out[j].AverageAmount.Decimal); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
