package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Entities and actions carried by record events.
const (
	EntityCategory      = "category"
	EntityPaymentMethod = "payment_method"
	EntityExpense       = "expense"
	EntityIncome        = "income"
	EntityBudget        = "budget"
	EntityGoal          = "goal"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordEvent announces a committed write of one domain record.
type RecordEvent struct {
	ID          string      `json:"id"`
	UserID      int64       `json:"user_id"`
	Entity      string      `json:"entity"`
	Action      string      `json:"action"`
	RecordID    int64       `json:"record_id"`
	Amount      *core.Money `json:"amount,omitempty"`
	Date        *core.Date  `json:"date,omitempty"`
	Description string      `json:"description,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// NewRecordEvent stamps a fresh event id and time.
func NewRecordEvent(userID int64, entity, action string, recordID int64) RecordEvent {
	return RecordEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		Entity:     entity,
		Action:     action,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
}

// WithEntry attaches the amount, date and description of a ledger entry.
func (e RecordEvent) WithEntry(amount core.Money, date core.Date, description string) RecordEvent {
	e.Amount = &amount
	e.Date = &date
	e.Description = description
	return e
}

// Activity converts the event into an audit entry.
func (e RecordEvent) Activity() core.Activity {
	return core.Activity{
		UserID:      e.UserID,
		Entity:      e.Entity,
		Action:      e.Action,
		RecordID:    e.RecordID,
		Amount:      e.Amount,
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
	}
}

func (e RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and sanity-checks an event body.
func RecordEventFromJSON(data []byte) (RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RecordEvent{}, err
	}
	if e.ID == "" || e.UserID <= 0 || e.Entity == "" || e.Action == "" {
		return RecordEvent{}, fmt.Errorf("incomplete record event %q", e.ID)
	}
	return e, nil
}
