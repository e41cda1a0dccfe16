package core

import (
	"strings"
)

// Request payloads. Normalize trims strings in place; Validate reports the first problem.
type (
	RegisterInput struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	CategoryInput struct {
		Name string       `json:"name"`
		Type CategoryType `json:"type"`
	}

	PaymentMethodInput struct {
		Name string `json:"name"`
	}

	ExpenseInput struct {
		Description     string  `json:"description"`
		Amount          Money   `json:"amount"`
		Date            Date    `json:"date"`
		CategoryID      *int64  `json:"category_id"`
		PaymentMethodID *int64  `json:"payment_method_id"`
		Notes           *string `json:"notes"`
	}

	IncomeInput struct {
		Description string  `json:"description"`
		Amount      Money   `json:"amount"`
		Date        Date    `json:"date"`
		CategoryID  *int64  `json:"category_id"`
		Notes       *string `json:"notes"`
	}

	BudgetInput struct {
		CategoryID int64 `json:"category_id"`
		Amount     Money `json:"amount"`
		Month      int   `json:"month"`
		Year       int   `json:"year"`
	}

	// BudgetUpdate changes the category and amount; the month and year of a budget are fixed.
	BudgetUpdate struct {
		CategoryID int64 `json:"category_id"`
		Amount     Money `json:"amount"`
	}

	GoalInput struct {
		Title         string  `json:"title"`
		Description   *string `json:"description"`
		TargetAmount  Money   `json:"target_amount"`
		CurrentAmount Money   `json:"current_amount"`
		StartDate     Date    `json:"start_date"`
		TargetDate    Date    `json:"target_date"`
		CategoryID    *int64  `json:"category_id"`
		IsCompleted   bool    `json:"is_completed"`
	}
)

func (in *RegisterInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in RegisterInput) Validate() error {
	if in.Name == "" {
		return Invalid("name", ErrEmptyName)
	}
	if len(in.Name) > maxNameLength {
		return Invalid("name", ErrFieldTooLong)
	}
	if _, err := NormalizeEmail(in.Email); err != nil {
		return Invalid("email", err)
	}
	if len(in.Password) < minPasswordLength {
		return Invalid("password", ErrWeakPassword)
	}
	return nil
}

func (in *LoginInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in LoginInput) Validate() error {
	if in.Email == "" || in.Password == "" {
		return &ValidationError{Err: errMissingCredentials}
	}
	return nil
}

func (in *CategoryInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	if in.Type == "" {
		in.Type = CategoryExpense
	}
}

func (in CategoryInput) Validate() error {
	if in.Name == "" {
		return Invalid("name", ErrEmptyName)
	}
	if len(in.Name) > maxNameLength {
		return Invalid("name", ErrFieldTooLong)
	}
	if _, err := ParseCategoryType(string(in.Type)); err != nil {
		return Invalid("type", err)
	}
	return nil
}

func (in *PaymentMethodInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
}

func (in PaymentMethodInput) Validate() error {
	if in.Name == "" {
		return Invalid("name", ErrEmptyName)
	}
	if len(in.Name) > maxNameLength {
		return Invalid("name", ErrFieldTooLong)
	}
	return nil
}

func (in *ExpenseInput) Normalize() {
	in.Description = strings.TrimSpace(in.Description)
	in.Notes = trimOptional(in.Notes)
	in.CategoryID = zeroIDToNil(in.CategoryID)
	in.PaymentMethodID = zeroIDToNil(in.PaymentMethodID)
}

func (in ExpenseInput) Validate() error {
	return validateEntry(in.Description, in.Amount, in.Date)
}

func (in *IncomeInput) Normalize() {
	in.Description = strings.TrimSpace(in.Description)
	in.Notes = trimOptional(in.Notes)
	in.CategoryID = zeroIDToNil(in.CategoryID)
}

func (in IncomeInput) Validate() error {
	return validateEntry(in.Description, in.Amount, in.Date)
}

func (in BudgetInput) Validate() error {
	if in.CategoryID <= 0 {
		return Invalid("category_id", ErrMissingCategory)
	}
	if !in.Amount.IsPositive() || !in.Amount.WithinLimit() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if in.Month < 1 || in.Month > 12 {
		return Invalid("month", ErrInvalidMonth)
	}
	if in.Year < 1900 || in.Year > 9999 {
		return Invalid("year", ErrInvalidYear)
	}
	return nil
}

func (in BudgetUpdate) Validate() error {
	if in.CategoryID <= 0 {
		return Invalid("category_id", ErrMissingCategory)
	}
	if !in.Amount.IsPositive() || !in.Amount.WithinLimit() {
		return Invalid("amount", ErrInvalidAmount)
	}
	return nil
}

func (in *GoalInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimOptional(in.Description)
	in.CategoryID = zeroIDToNil(in.CategoryID)
}

func (in GoalInput) Validate() error {
	if in.Title == "" {
		return Invalid("title", ErrEmptyTitle)
	}
	if len(in.Title) > maxNameLength {
		return Invalid("title", ErrFieldTooLong)
	}
	if !in.TargetAmount.IsPositive() || !in.TargetAmount.WithinLimit() {
		return Invalid("target_amount", ErrInvalidAmount)
	}
	if in.CurrentAmount.IsNegative() {
		return Invalid("current_amount", ErrNegativeAmount)
	}
	if !in.CurrentAmount.WithinLimit() {
		return Invalid("current_amount", ErrInvalidAmount)
	}
	if in.StartDate.IsZero() {
		return Invalid("start_date", ErrInvalidDate)
	}
	if in.TargetDate.IsZero() {
		return Invalid("target_date", ErrInvalidDate)
	}
	if !in.TargetDate.After(in.StartDate.Time) {
		return Invalid("target_date", ErrTargetBeforeStart)
	}
	return nil
}

func validateEntry(description string, amount Money, date Date) error {
	if description == "" {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(description) > maxDescriptionLength {
		return Invalid("description", ErrFieldTooLong)
	}
	if !amount.IsPositive() || !amount.WithinLimit() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if date.IsZero() {
		return Invalid("date", ErrInvalidDate)
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func zeroIDToNil(id *int64) *int64 {
	if id == nil || *id <= 0 {
		return nil
	}
	return id
}
