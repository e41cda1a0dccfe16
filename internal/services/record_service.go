package services

import (
	"context"
	"errors"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

var (
	ErrUnknownCategory      = errors.New("category does not exist")
	ErrCategoryTypeMismatch = errors.New("category has the wrong type for this record")
	ErrUnknownPaymentMethod = errors.New("payment method does not exist")
)

// eventQueueSize bounds the events waiting for the broker. Events beyond it
// are dropped with a warning so that writes never block on publishing.
const eventQueueSize = 256

// RecordStore is the persistence used by RecordService.
type RecordStore interface {
	ListCategories(ctx context.Context, userID int64, typ core.CategoryType) ([]core.Category, error)
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
	CreateCategory(ctx context.Context, userID int64, in core.CategoryInput) (core.Category, error)
	UpdateCategory(ctx context.Context, userID, id int64, in core.CategoryInput) (core.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error

	ListPaymentMethods(ctx context.Context, userID int64) ([]core.PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, userID, id int64) (core.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, userID int64, in core.PaymentMethodInput) (core.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, userID, id int64, in core.PaymentMethodInput) (core.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, userID, id int64) error

	ListExpenses(ctx context.Context, userID int64, f storage.ExpenseFilter) ([]core.Expense, error)
	GetExpense(ctx context.Context, userID, id int64) (core.Expense, error)
	CreateExpense(ctx context.Context, userID int64, in core.ExpenseInput) (core.Expense, error)
	UpdateExpense(ctx context.Context, userID, id int64, in core.ExpenseInput) (core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id int64) error

	ListIncome(ctx context.Context, userID int64, f storage.IncomeFilter) ([]core.Income, error)
	GetIncome(ctx context.Context, userID, id int64) (core.Income, error)
	CreateIncome(ctx context.Context, userID int64, in core.IncomeInput) (core.Income, error)
	UpdateIncome(ctx context.Context, userID, id int64, in core.IncomeInput) (core.Income, error)
	DeleteIncome(ctx context.Context, userID, id int64) error

	ListBudgets(ctx context.Context, userID int64, f storage.BudgetFilter) ([]core.Budget, error)
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
	UpsertBudget(ctx context.Context, userID int64, in core.BudgetInput) (core.Budget, bool, error)
	UpdateBudget(ctx context.Context, userID, id int64, in core.BudgetUpdate) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id int64) error

	ListGoals(ctx context.Context, userID int64, f storage.GoalFilter) ([]core.Goal, error)
	GetGoal(ctx context.Context, userID, id int64) (core.Goal, error)
	CreateGoal(ctx context.Context, userID int64, in core.GoalInput) (core.Goal, error)
	UpdateGoal(ctx context.Context, userID, id int64, in core.GoalInput) (core.Goal, error)
	DeleteGoal(ctx context.Context, userID, id int64) error
}

// Publisher sends record events to the broker.
type Publisher interface {
	Publish(ctx context.Context, event amqp.RecordEvent) error
}

// Invalidator drops cached derived data for a user.
type Invalidator interface {
	InvalidateUser(userID int64)
}

type RecordOptions struct {
	// Publisher may be nil, in which case no events are sent.
	Publisher   Publisher
	Invalidator Invalidator
	Logger      *applog.Logger
}

// RecordService orchestrates CRUD on the user's domain records: it validates
// input, checks cross-record ownership, persists through the store and then
// announces the change.
type RecordService struct {
	store       RecordStore
	publisher   Publisher
	invalidator Invalidator
	logger      *applog.Logger
	structured  *applog.StructuredLogger

	// A single goroutine drains events so they reach the broker in commit order.
	events  chan queuedEvent
	drained chan struct{}
	pending sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

type queuedEvent struct {
	ctx   context.Context
	event amqp.RecordEvent
}

func NewRecordService(store RecordStore, opts RecordOptions) *RecordService {
	if opts.Logger == nil {
		opts.Logger = applog.Default(applog.ComponentRecords)
	}
	logger := opts.Logger.WithComponent(applog.ComponentRecords)
	s := &RecordService{
		store:       store,
		publisher:   opts.Publisher,
		invalidator: opts.Invalidator,
		logger:      logger,
		structured:  applog.NewStructuredLogger(logger),
	}
	if s.publisher != nil {
		s.events = make(chan queuedEvent, eventQueueSize)
		s.drained = make(chan struct{})
		go s.drain()
	}
	return s
}

// Wait blocks until every queued event has been handed to the publisher.
func (s *RecordService) Wait() {
	s.pending.Wait()
}

// Close stops accepting events and returns once the queue is drained.
// Writes after Close still succeed but publish nothing.
func (s *RecordService) Close() {
	if s.events == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
	<-s.drained
}

func (s *RecordService) drain() {
	defer close(s.drained)
	for q := range s.events {
		if err := s.publisher.Publish(q.ctx, q.event); err != nil {
			s.structured.LogError(q.ctx, "Failed to publish record event", err,
				applog.ComponentAMQP, applog.OpPublish,
				applog.NewFields().
					WithUser(q.event.UserID).
					WithRecord(q.event.Entity, q.event.RecordID).
					WithErrorType(applog.ErrorTypeNetwork))
		}
		s.pending.Done()
	}
}

// changed runs after every committed write.
func (s *RecordService) changed(ctx context.Context, op string, event amqp.RecordEvent) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(event.UserID)
	}
	s.structured.LogRecordChanged(ctx, op, event.UserID, event.Entity, event.RecordID)
	s.publish(ctx, event)
}

// publish queues event for the background publisher. It never blocks the
// caller: a full queue drops the event.
func (s *RecordService) publish(ctx context.Context, event amqp.RecordEvent) {
	if s.events == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.WarnContext(ctx, "Record event dropped after shutdown",
			applog.FieldUserID, event.UserID,
			applog.FieldEntity, event.Entity,
			applog.FieldRecordID, event.RecordID)
		return
	}

	s.pending.Add(1)
	select {
	case s.events <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		s.pending.Done()
		s.logger.WarnContext(ctx, "Record event queue full, event dropped",
			applog.FieldUserID, event.UserID,
			applog.FieldEntity, event.Entity,
			applog.FieldRecordID, event.RecordID)
	}
}

// checkCategory verifies that id, when set, names one of the user's categories of type want.
func (s *RecordService) checkCategory(ctx context.Context, userID int64, id *int64, want core.CategoryType) error {
	if id == nil {
		return nil
	}
	cat, err := s.store.GetCategory(ctx, userID, *id)
	var nf *core.NotFoundError
	switch {
	case errors.As(err, &nf):
		return core.Invalid("category_id", ErrUnknownCategory)
	case err != nil:
		return err
	}
	if want != "" && cat.Type != want {
		return core.Invalid("category_id", ErrCategoryTypeMismatch)
	}
	return nil
}

func (s *RecordService) checkPaymentMethod(ctx context.Context, userID int64, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.store.GetPaymentMethod(ctx, userID, *id)
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return core.Invalid("payment_method_id", ErrUnknownPaymentMethod)
	}
	return err
}
