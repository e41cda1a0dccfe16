package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const categoryColumns = `id, user_id, name, type, created_at, updated_at`

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c                core.Category
		typ              string
		created, updated int64
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &typ, &created, &updated); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(typ)
	c.CreatedAt = fromUnix(created)
	c.UpdatedAt = fromUnix(updated)
	return c, nil
}

// ListCategories returns the user's categories of one type ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64, typ core.CategoryType) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND type = ? ORDER BY name, id`,
		userID, string(typ))
	if err != nil {
		return nil, core.StoreFailure("list categories", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, core.StoreFailure("scan category", err)
		}
		out = append(out, c)
	}
	return out, core.StoreFailure("list categories", rows.Err())
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category")
	}
	if err != nil {
		return core.Category{}, core.StoreFailure("get category", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID int64, in core.CategoryInput) (core.Category, error) {
	ts := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID, in.Name, string(in.Type), ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.Conflict("category %q already exists", in.Name)
		}
		return core.Category{}, core.StoreFailure("create category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, core.StoreFailure("create category", err)
	}
	return r.GetCategory(ctx, userID, id)
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, userID, id int64, in core.CategoryInput) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		in.Name, string(in.Type), r.timestamp(), id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.Conflict("category %q already exists", in.Name)
		}
		return core.Category{}, core.StoreFailure("update category", err)
	}
	if err := requireAffected(res, "category"); err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, userID, id)
}

// DeleteCategory removes the category. Budgets referencing it are deleted by
// cascade; expenses, income and goals keep their rows with category_id set to NULL.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.StoreFailure("delete category", err)
	}
	return requireAffected(res, "category")
}

// requireAffected turns a zero-row update or delete into a NotFoundError.
func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return core.StoreFailure(fmt.Sprintf("%s rows affected", entity), err)
	}
	if n == 0 {
		return core.NotFound(entity)
	}
	return nil
}
