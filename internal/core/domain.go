package core

import (
	"database/sql/driver"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 255
	minPasswordLength    = 6
)

type (
	CategoryType string

	// Date is a calendar day in UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// Identity is the caller resolved from a session.
	Identity struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	Session struct {
		ID        string
		UserID    int64
		Expires   time.Time
		CreatedAt time.Time
	}

	Category struct {
		ID        int64        `json:"id"`
		UserID    int64        `json:"user_id"`
		Name      string       `json:"name"`
		Type      CategoryType `json:"type"`
		CreatedAt time.Time    `json:"created_at"`
		UpdatedAt time.Time    `json:"updated_at"`
	}

	PaymentMethod struct {
		ID        int64     `json:"id"`
		UserID    int64     `json:"user_id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Expense struct {
		ID                int64     `json:"id"`
		UserID            int64     `json:"user_id"`
		Description       string    `json:"description"`
		Amount            Money     `json:"amount"`
		Date              Date      `json:"date"`
		CategoryID        *int64    `json:"category_id"`
		PaymentMethodID   *int64    `json:"payment_method_id"`
		Notes             *string   `json:"notes"`
		CategoryName      *string   `json:"category_name"`
		PaymentMethodName *string   `json:"payment_method_name"`
		CreatedAt         time.Time `json:"created_at"`
		UpdatedAt         time.Time `json:"updated_at"`
	}

	Income struct {
		ID           int64     `json:"id"`
		UserID       int64     `json:"user_id"`
		Description  string    `json:"description"`
		Amount       Money     `json:"amount"`
		Date         Date      `json:"date"`
		CategoryID   *int64    `json:"category_id"`
		Notes        *string   `json:"notes"`
		CategoryName *string   `json:"category_name"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	// Budget carries the stored row plus progress against the month's spending.
	Budget struct {
		ID           int64     `json:"id"`
		UserID       int64     `json:"user_id"`
		CategoryID   int64     `json:"category_id"`
		CategoryName *string   `json:"category_name"`
		Amount       Money     `json:"amount"`
		Month        int       `json:"month"`
		Year         int       `json:"year"`
		Spent        Money     `json:"spent"`
		Remaining    Money     `json:"remaining"`
		Percentage   float64   `json:"percentage"`
		OverBudget   bool      `json:"over_budget"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	Goal struct {
		ID            int64      `json:"id"`
		UserID        int64      `json:"user_id"`
		Title         string     `json:"title"`
		Description   *string    `json:"description"`
		TargetAmount  Money      `json:"target_amount"`
		CurrentAmount Money      `json:"current_amount"`
		StartDate     Date       `json:"start_date"`
		TargetDate    Date       `json:"target_date"`
		CategoryID    *int64     `json:"category_id"`
		CategoryName  *string    `json:"category_name"`
		IsCompleted   bool       `json:"is_completed"`
		CompletedAt   *time.Time `json:"completed_at"`
		Progress      float64    `json:"progress"`
		DaysRemaining int        `json:"days_remaining"`
		IsOverdue     bool       `json:"is_overdue"`
		CreatedAt     time.Time  `json:"created_at"`
		UpdatedAt     time.Time  `json:"updated_at"`
	}

	// Activity is one audit entry written by the worker from a record event.
	Activity struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"user_id"`
		Entity      string    `json:"entity"`
		Action      string    `json:"action"`
		RecordID    int64     `json:"record_id"`
		Amount      *Money    `json:"amount,omitempty"`
		Description string    `json:"description,omitempty"`
		OccurredAt  time.Time `json:"occurred_at"`
	}
)

// Identity strips the credential fields.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ParseCategoryType accepts "expense" or "income"; empty defaults to expense.
func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(strings.ToLower(strings.TrimSpace(s))) {
	case "", CategoryExpense:
		return CategoryExpense, nil
	case CategoryIncome:
		return CategoryIncome, nil
	default:
		return "", ErrInvalidCategoryType
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD. Longer ISO timestamps are truncated to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

// DaysUntil counts whole calendar days from d to other. Negative when other is earlier.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// NormalizeEmail lowercases and validates an email address.
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}
