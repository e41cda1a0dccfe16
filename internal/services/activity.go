package services

import (
	"context"

	"fintrack/internal/core"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// ActivityStore reads the worker-maintained audit trail.
type ActivityStore interface {
	ListActivity(ctx context.Context, userID int64, limit int) ([]core.Activity, error)
}

type ActivityService struct {
	store ActivityStore
}

func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{store: store}
}

// Recent returns the user's newest entries. A non-positive limit selects the
// default and larger limits are capped.
func (s *ActivityService) Recent(ctx context.Context, userID int64, limit int) ([]core.Activity, error) {
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}
	return s.store.ListActivity(ctx, userID, limit)
}
