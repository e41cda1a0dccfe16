package storage

import (
	"context"
	"database/sql"
	"errors"

	"fintrack/internal/core"
)

const paymentMethodColumns = `id, user_id, name, created_at, updated_at`

func scanPaymentMethod(row rowScanner) (core.PaymentMethod, error) {
	var (
		pm               core.PaymentMethod
		created, updated int64
	)
	if err := row.Scan(&pm.ID, &pm.UserID, &pm.Name, &created, &updated); err != nil {
		return core.PaymentMethod{}, err
	}
	pm.CreatedAt = fromUnix(created)
	pm.UpdatedAt = fromUnix(updated)
	return pm, nil
}

func (r *SQLiteRepository) ListPaymentMethods(ctx context.Context, userID int64) ([]core.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentMethodColumns+` FROM payment_methods WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, core.StoreFailure("list payment methods", err)
	}
	defer rows.Close()

	out := []core.PaymentMethod{}
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, core.StoreFailure("scan payment method", err)
		}
		out = append(out, pm)
	}
	return out, core.StoreFailure("list payment methods", rows.Err())
}

func (r *SQLiteRepository) GetPaymentMethod(ctx context.Context, userID, id int64) (core.PaymentMethod, error) {
	pm, err := scanPaymentMethod(r.db.QueryRowContext(ctx,
		`SELECT `+paymentMethodColumns+` FROM payment_methods WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentMethod{}, core.NotFound("payment method")
	}
	if err != nil {
		return core.PaymentMethod{}, core.StoreFailure("get payment method", err)
	}
	return pm, nil
}

func (r *SQLiteRepository) CreatePaymentMethod(ctx context.Context, userID int64, in core.PaymentMethodInput) (core.PaymentMethod, error) {
	ts := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_methods (user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, in.Name, ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return core.PaymentMethod{}, core.Conflict("payment method %q already exists", in.Name)
		}
		return core.PaymentMethod{}, core.StoreFailure("create payment method", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.PaymentMethod{}, core.StoreFailure("create payment method", err)
	}
	return r.GetPaymentMethod(ctx, userID, id)
}

func (r *SQLiteRepository) UpdatePaymentMethod(ctx context.Context, userID, id int64, in core.PaymentMethodInput) (core.PaymentMethod, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_methods SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		in.Name, r.timestamp(), id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.PaymentMethod{}, core.Conflict("payment method %q already exists", in.Name)
		}
		return core.PaymentMethod{}, core.StoreFailure("update payment method", err)
	}
	if err := requireAffected(res, "payment method"); err != nil {
		return core.PaymentMethod{}, err
	}
	return r.GetPaymentMethod(ctx, userID, id)
}

// DeletePaymentMethod removes the method; expenses keep their rows with a NULL reference.
func (r *SQLiteRepository) DeletePaymentMethod(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_methods WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.StoreFailure("delete payment method", err)
	}
	return requireAffected(res, "payment method")
}
