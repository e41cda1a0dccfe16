package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
)

// ActivityStore persists audit entries keyed by event id.
type ActivityStore interface {
	RecordActivity(ctx context.Context, eventID string, a core.Activity) (bool, error)
}

// ActivityWorker turns record events into activity log entries and mirrors
// newly created expenses and income to an external ledger.
type ActivityWorker struct {
	store  ActivityStore
	ledger sheets.LedgerWriter
	logger *applog.Logger
}

// NewActivityWorker creates the worker. ledger may be nil.
func NewActivityWorker(store ActivityStore, ledger sheets.LedgerWriter, logger *applog.Logger) *ActivityWorker {
	if logger == nil {
		logger = applog.Default(applog.ComponentWorker)
	}
	return &ActivityWorker{
		store:  store,
		ledger: ledger,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleRecordEvent processes a single record event from AMQP. Storage errors
// are returned so the message is redelivered; ledger failures are only logged.
func (w *ActivityWorker) HandleRecordEvent(ctx context.Context, evt amqp.RecordEvent) error {
	inserted, err := w.store.RecordActivity(ctx, evt.ID, evt.Activity())
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	if !inserted {
		w.logger.DebugContext(ctx, "Skipping already processed event", applog.FieldEventID, evt.ID)
		return nil
	}

	w.logger.InfoContext(ctx, "Recorded activity",
		applog.FieldEventID, evt.ID,
		applog.FieldUserID, evt.UserID,
		applog.FieldEntity, evt.Entity,
		"action", evt.Action,
		applog.FieldRecordID, evt.RecordID)

	entry, ok := ledgerEntry(evt)
	if !ok || w.ledger == nil {
		return nil
	}
	ref, err := w.ledger.AppendEntry(ctx, entry)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror entry to ledger",
			applog.FieldEventID, evt.ID,
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeNetwork)
		return nil
	}
	w.logger.InfoContext(ctx, "Mirrored entry to ledger",
		applog.FieldEventID, evt.ID,
		"ledger_ref", ref)
	return nil
}

// ledgerEntry maps created expense and income events to ledger rows.
func ledgerEntry(evt amqp.RecordEvent) (sheets.Entry, bool) {
	if evt.Action != amqp.ActionCreated || evt.Amount == nil || evt.Date == nil {
		return sheets.Entry{}, false
	}
	var kind string
	switch evt.Entity {
	case amqp.EntityExpense:
		kind = sheets.KindExpense
	case amqp.EntityIncome:
		kind = sheets.KindIncome
	default:
		return sheets.Entry{}, false
	}
	return sheets.Entry{
		EventID:     evt.ID,
		UserID:      evt.UserID,
		RecordID:    evt.RecordID,
		Kind:        kind,
		Date:        *evt.Date,
		Description: evt.Description,
		Amount:      *evt.Amount,
		RecordedAt:  evt.OccurredAt,
	}, true
}
