package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *RecordService) ListExpenses(ctx context.Context, userID int64, f storage.ExpenseFilter) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, userID, f)
}

func (s *RecordService) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, userID, id)
}

func (s *RecordService) CreateExpense(ctx context.Context, userID int64, in core.ExpenseInput) (core.Expense, error) {
	if err := s.prepareExpense(ctx, userID, &in); err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.CreateExpense(ctx, userID, in)
	if err != nil {
		return core.Expense{}, err
	}
	s.changed(ctx, applog.OpCreate, expenseEvent(e, amqp.ActionCreated))
	return e, nil
}

func (s *RecordService) UpdateExpense(ctx context.Context, userID, id int64, in core.ExpenseInput) (core.Expense, error) {
	if err := s.prepareExpense(ctx, userID, &in); err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.UpdateExpense(ctx, userID, id, in)
	if err != nil {
		return core.Expense{}, err
	}
	s.changed(ctx, applog.OpUpdate, expenseEvent(e, amqp.ActionUpdated))
	return e, nil
}

func (s *RecordService) DeleteExpense(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, applog.OpDelete, amqp.NewRecordEvent(userID, amqp.EntityExpense, amqp.ActionDeleted, id))
	return nil
}

func (s *RecordService) prepareExpense(ctx context.Context, userID int64, in *core.ExpenseInput) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, userID, in.CategoryID, core.CategoryExpense); err != nil {
		return err
	}
	return s.checkPaymentMethod(ctx, userID, in.PaymentMethodID)
}

func expenseEvent(e core.Expense, action string) amqp.RecordEvent {
	return amqp.NewRecordEvent(e.UserID, amqp.EntityExpense, action, e.ID).
		WithEntry(e.Amount, e.Date, e.Description)
}
