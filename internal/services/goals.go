package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *RecordService) ListGoals(ctx context.Context, userID int64, f storage.GoalFilter) ([]core.Goal, error) {
	return s.store.ListGoals(ctx, userID, f)
}

func (s *RecordService) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	return s.store.GetGoal(ctx, userID, id)
}

func (s *RecordService) CreateGoal(ctx context.Context, userID int64, in core.GoalInput) (core.Goal, error) {
	if err := s.prepareGoal(ctx, userID, &in); err != nil {
		return core.Goal{}, err
	}
	g, err := s.store.CreateGoal(ctx, userID, in)
	if err != nil {
		return core.Goal{}, err
	}
	s.changed(ctx, applog.OpCreate, goalEvent(g, amqp.ActionCreated))
	return g, nil
}

func (s *RecordService) UpdateGoal(ctx context.Context, userID, id int64, in core.GoalInput) (core.Goal, error) {
	if err := s.prepareGoal(ctx, userID, &in); err != nil {
		return core.Goal{}, err
	}
	g, err := s.store.UpdateGoal(ctx, userID, id, in)
	if err != nil {
		return core.Goal{}, err
	}
	s.changed(ctx, applog.OpUpdate, goalEvent(g, amqp.ActionUpdated))
	return g, nil
}

func (s *RecordService) DeleteGoal(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, applog.OpDelete, amqp.NewRecordEvent(userID, amqp.EntityGoal, amqp.ActionDeleted, id))
	return nil
}

// Goals may point at a category of either type.
func (s *RecordService) prepareGoal(ctx context.Context, userID int64, in *core.GoalInput) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	return s.checkCategory(ctx, userID, in.CategoryID, "")
}

func goalEvent(g core.Goal, action string) amqp.RecordEvent {
	evt := amqp.NewRecordEvent(g.UserID, amqp.EntityGoal, action, g.ID)
	amount := g.CurrentAmount
	evt.Amount = &amount
	evt.Description = g.Title
	return evt
}
