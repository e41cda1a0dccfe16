package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

var (
	// DefaultExpenseCategories are seeded for every new user.
	DefaultExpenseCategories = []string{
		"Food", "Transportation", "Housing", "Entertainment",
		"Utilities", "Healthcare", "Shopping", "Other",
	}
	// DefaultIncomeCategories are seeded for every new user.
	DefaultIncomeCategories = []string{"Salary", "Freelance", "Investments", "Gifts", "Other"}
	// DefaultPaymentMethods are seeded for every new user.
	DefaultPaymentMethods = []string{"Cash", "Credit Card", "Debit Card", "Bank Transfer", "Mobile Payment"}
)

// ErrEmailTaken is wrapped in a ValidationError when registering an existing email.
var ErrEmailTaken = errors.New("email already registered")

// CreateUser inserts the user and seeds default categories and payment methods
// in one transaction.
func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error) {
	ts := r.timestamp()
	var user core.User

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			name, email, passwordHash, ts, ts)
		if err != nil {
			if isUniqueViolation(err) {
				return core.Invalid("email", ErrEmailTaken)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}

		if err := seedCategories(ctx, tx, id, core.CategoryExpense, DefaultExpenseCategories, ts); err != nil {
			return err
		}
		if err := seedCategories(ctx, tx, id, core.CategoryIncome, DefaultIncomeCategories, ts); err != nil {
			return err
		}
		for _, pm := range DefaultPaymentMethods {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO payment_methods (user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
				id, pm, ts, ts); err != nil {
				return fmt.Errorf("seed payment method %q: %w", pm, err)
			}
		}

		user = core.User{ID: id, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: fromUnix(ts)}
		return nil
	})
	if err != nil {
		return core.User{}, core.StoreFailure("create user", err)
	}

	return user, nil
}

func seedCategories(ctx context.Context, tx *sql.Tx, userID int64, typ core.CategoryType, names []string, ts int64) error {
	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (user_id, name, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			userID, name, string(typ), ts, ts); err != nil {
			return fmt.Errorf("seed %s category %q: %w", typ, name, err)
		}
	}
	return nil
}

const userColumns = `id, name, email, password_hash, created_at`

func scanUser(row rowScanner) (core.User, error) {
	var (
		u       core.User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = fromUnix(created)
	return u, nil
}

// GetUserByEmail looks up a user by normalized email.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFound("user")
	}
	if err != nil {
		return core.User{}, core.StoreFailure("get user by email", err)
	}
	return u, nil
}

// GetUserByID looks up a user by id.
func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFound("user")
	}
	if err != nil {
		return core.User{}, core.StoreFailure("get user by id", err)
	}
	return u, nil
}
