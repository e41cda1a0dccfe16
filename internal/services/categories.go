package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *RecordService) ListCategories(ctx context.Context, userID int64, typ core.CategoryType) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID, typ)
}

func (s *RecordService) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, userID, id)
}

func (s *RecordService) CreateCategory(ctx context.Context, userID int64, in core.CategoryInput) (core.Category, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	cat, err := s.store.CreateCategory(ctx, userID, in)
	if err != nil {
		return core.Category{}, err
	}
	s.changed(ctx, applog.OpCreate, amqp.NewRecordEvent(userID, amqp.EntityCategory, amqp.ActionCreated, cat.ID))
	return cat, nil
}

func (s *RecordService) UpdateCategory(ctx context.Context, userID, id int64, in core.CategoryInput) (core.Category, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	cat, err := s.store.UpdateCategory(ctx, userID, id, in)
	if err != nil {
		return core.Category{}, err
	}
	s.changed(ctx, applog.OpUpdate, amqp.NewRecordEvent(userID, amqp.EntityCategory, amqp.ActionUpdated, cat.ID))
	return cat, nil
}

// DeleteCategory removes the category. Its budgets go with it; expenses,
// income and goals keep their rows with the reference cleared.
func (s *RecordService) DeleteCategory(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, applog.OpDelete, amqp.NewRecordEvent(userID, amqp.EntityCategory, amqp.ActionDeleted, id))
	return nil
}
