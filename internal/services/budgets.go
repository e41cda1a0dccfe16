package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *RecordService) ListBudgets(ctx context.Context, userID int64, f storage.BudgetFilter) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID, f)
}

func (s *RecordService) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, userID, id)
}

// SaveBudget creates the budget for (category, month, year) or, if one
// exists, replaces its amount. created reports which happened.
func (s *RecordService) SaveBudget(ctx context.Context, userID int64, in core.BudgetInput) (core.Budget, bool, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, false, err
	}
	if err := s.checkCategory(ctx, userID, &in.CategoryID, core.CategoryExpense); err != nil {
		return core.Budget{}, false, err
	}
	b, created, err := s.store.UpsertBudget(ctx, userID, in)
	if err != nil {
		return core.Budget{}, false, err
	}

	action := amqp.ActionUpdated
	if created {
		action = amqp.ActionCreated
	}
	s.changed(ctx, applog.OpUpsert, budgetEvent(b, action))
	return b, created, nil
}

func (s *RecordService) UpdateBudget(ctx context.Context, userID, id int64, in core.BudgetUpdate) (core.Budget, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkCategory(ctx, userID, &in.CategoryID, core.CategoryExpense); err != nil {
		return core.Budget{}, err
	}
	b, err := s.store.UpdateBudget(ctx, userID, id, in)
	if err != nil {
		return core.Budget{}, err
	}
	s.changed(ctx, applog.OpUpdate, budgetEvent(b, amqp.ActionUpdated))
	return b, nil
}

func (s *RecordService) DeleteBudget(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, applog.OpDelete, amqp.NewRecordEvent(userID, amqp.EntityBudget, amqp.ActionDeleted, id))
	return nil
}

func budgetEvent(b core.Budget, action string) amqp.RecordEvent {
	evt := amqp.NewRecordEvent(b.UserID, amqp.EntityBudget, action, b.ID)
	amount := b.Amount
	evt.Amount = &amount
	return evt
}
