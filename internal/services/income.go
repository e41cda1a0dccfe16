package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *RecordService) ListIncome(ctx context.Context, userID int64, f storage.IncomeFilter) ([]core.Income, error) {
	return s.store.ListIncome(ctx, userID, f)
}

func (s *RecordService) GetIncome(ctx context.Context, userID, id int64) (core.Income, error) {
	return s.store.GetIncome(ctx, userID, id)
}

func (s *RecordService) CreateIncome(ctx context.Context, userID int64, in core.IncomeInput) (core.Income, error) {
	if err := s.prepareIncome(ctx, userID, &in); err != nil {
		return core.Income{}, err
	}
	inc, err := s.store.CreateIncome(ctx, userID, in)
	if err != nil {
		return core.Income{}, err
	}
	s.changed(ctx, applog.OpCreate, incomeEvent(inc, amqp.ActionCreated))
	return inc, nil
}

func (s *RecordService) UpdateIncome(ctx context.Context, userID, id int64, in core.IncomeInput) (core.Income, error) {
	if err := s.prepareIncome(ctx, userID, &in); err != nil {
		return core.Income{}, err
	}
	inc, err := s.store.UpdateIncome(ctx, userID, id, in)
	if err != nil {
		return core.Income{}, err
	}
	s.changed(ctx, applog.OpUpdate, incomeEvent(inc, amqp.ActionUpdated))
	return inc, nil
}

func (s *RecordService) DeleteIncome(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteIncome(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, applog.OpDelete, amqp.NewRecordEvent(userID, amqp.EntityIncome, amqp.ActionDeleted, id))
	return nil
}

func (s *RecordService) prepareIncome(ctx context.Context, userID int64, in *core.IncomeInput) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	return s.checkCategory(ctx, userID, in.CategoryID, core.CategoryIncome)
}

func incomeEvent(i core.Income, action string) amqp.RecordEvent {
	return amqp.NewRecordEvent(i.UserID, amqp.EntityIncome, action, i.ID).
		WithEntry(i.Amount, i.Date, i.Description)
}
