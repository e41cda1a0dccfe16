package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *RecordService) ListPaymentMethods(ctx context.Context, userID int64) ([]core.PaymentMethod, error) {
	return s.store.ListPaymentMethods(ctx, userID)
}

func (s *RecordService) GetPaymentMethod(ctx context.Context, userID, id int64) (core.PaymentMethod, error) {
	return s.store.GetPaymentMethod(ctx, userID, id)
}

func (s *RecordService) CreatePaymentMethod(ctx context.Context, userID int64, in core.PaymentMethodInput) (core.PaymentMethod, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	pm, err := s.store.CreatePaymentMethod(ctx, userID, in)
	if err != nil {
		return core.PaymentMethod{}, err
	}
	s.changed(ctx, applog.OpCreate, amqp.NewRecordEvent(userID, amqp.EntityPaymentMethod, amqp.ActionCreated, pm.ID))
	return pm, nil
}

func (s *RecordService) UpdatePaymentMethod(ctx context.Context, userID, id int64, in core.PaymentMethodInput) (core.PaymentMethod, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	pm, err := s.store.UpdatePaymentMethod(ctx, userID, id, in)
	if err != nil {
		return core.PaymentMethod{}, err
	}
	s.changed(ctx, applog.OpUpdate, amqp.NewRecordEvent(userID, amqp.EntityPaymentMethod, amqp.ActionUpdated, pm.ID))
	return pm, nil
}

func (s *RecordService) DeletePaymentMethod(ctx context.Context, userID, id int64) error {
	if err := s.store.DeletePaymentMethod(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, applog.OpDelete, amqp.NewRecordEvent(userID, amqp.EntityPaymentMethod, amqp.ActionDeleted, id))
	return nil
}
