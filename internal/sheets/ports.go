package sheets

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

// Entry kinds mirrored to a ledger.
const (
	KindExpense = "expense"
	KindIncome  = "income"
)

var ErrInvalidEntry = errors.New("invalid ledger entry")

// Entry is one expense or income row exported to an external ledger.
type Entry struct {
	EventID     string
	UserID      int64
	RecordID    int64
	Kind        string
	Date        core.Date
	Description string
	Amount      core.Money
	RecordedAt  time.Time
}

func (e Entry) Validate() error {
	switch {
	case e.Kind != KindExpense && e.Kind != KindIncome:
		return ErrInvalidEntry
	case e.UserID <= 0, e.Date.IsZero():
		return ErrInvalidEntry
	case !e.Amount.IsPositive():
		return ErrInvalidEntry
	}
	return nil
}

// Ports for outbound adapters.
type (
	// LedgerWriter appends entries to an external spreadsheet-like ledger.
	LedgerWriter interface {
		AppendEntry(ctx context.Context, e Entry) (rowRef string, err error)
	}
)
