// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// strict JSON bodies, path ids and the typed list filters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var (
	errMalformedBody = errors.New("request body must be a single JSON object")
	errInvalidID     = errors.New("must be a positive integer")
	errInvalidBool   = errors.New("must be true or false")
)

// DecodeJSON reads exactly one JSON object into dst. Unknown fields,
// trailing data and oversized bodies are validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return core.Invalid("body", describeDecodeError(err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.Invalid("body", errMalformedBody)
	}
	return nil
}

func describeDecodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return errMalformedBody
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Errorf("field %q has the wrong type", typeErr.Field)
		}
		return errMalformedBody
	case errors.As(err, &maxErr):
		return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return errors.New(strings.TrimPrefix(err.Error(), "json: "))
	default:
		// Money and Date report their own validation failures.
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return ve.Err
		}
		return err
	}
}

// PathID parses the {id} path segment.
func PathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid("id", errInvalidID)
	}
	return id, nil
}

func optionalInt64(query url.Values, name string) (*int64, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return nil, core.Invalid(name, errInvalidID)
	}
	return &n, nil
}

func optionalInt(query url.Values, name string, invalid error) (*int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, core.Invalid(name, invalid)
	}
	return &n, nil
}

func optionalDate(query url.Values, name string) (*core.Date, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, core.Invalid(name, core.ErrInvalidDate)
	}
	return &d, nil
}

func optionalBool(query url.Values, name string) (*bool, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, core.Invalid(name, errInvalidBool)
	}
	return &b, nil
}

// ParseCategoryType reads ?type=, defaulting to expense.
func ParseCategoryType(query url.Values) (core.CategoryType, error) {
	typ, err := core.ParseCategoryType(query.Get("type"))
	if err != nil {
		return "", core.Invalid("type", err)
	}
	return typ, nil
}

// ParseExpenseFilter reads fromDate, toDate, categoryId and paymentMethodId.
func ParseExpenseFilter(query url.Values) (storage.ExpenseFilter, error) {
	var (
		f   storage.ExpenseFilter
		err error
	)
	if f.From, err = optionalDate(query, "fromDate"); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(query, "toDate"); err != nil {
		return f, err
	}
	if f.CategoryID, err = optionalInt64(query, "categoryId"); err != nil {
		return f, err
	}
	if f.PaymentMethodID, err = optionalInt64(query, "paymentMethodId"); err != nil {
		return f, err
	}
	return f, nil
}

// ParseIncomeFilter reads fromDate, toDate and categoryId.
func ParseIncomeFilter(query url.Values) (storage.IncomeFilter, error) {
	var (
		f   storage.IncomeFilter
		err error
	)
	if f.From, err = optionalDate(query, "fromDate"); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(query, "toDate"); err != nil {
		return f, err
	}
	if f.CategoryID, err = optionalInt64(query, "categoryId"); err != nil {
		return f, err
	}
	return f, nil
}

// ParseBudgetFilter reads month and year.
func ParseBudgetFilter(query url.Values) (storage.BudgetFilter, error) {
	var (
		f   storage.BudgetFilter
		err error
	)
	if f.Month, err = optionalInt(query, "month", core.ErrInvalidMonth); err != nil {
		return f, err
	}
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		return f, core.Invalid("month", core.ErrInvalidMonth)
	}
	if f.Year, err = optionalInt(query, "year", core.ErrInvalidYear); err != nil {
		return f, err
	}
	return f, nil
}

// ParseGoalFilter reads isCompleted.
func ParseGoalFilter(query url.Values) (storage.GoalFilter, error) {
	completed, err := optionalBool(query, "isCompleted")
	return storage.GoalFilter{Completed: completed}, err
}

// ParseDashboardQuery reads month, year and timeRange. Absent values stay zero
// and are defaulted by the dashboard service.
func ParseDashboardQuery(query url.Values) (core.DashboardQuery, error) {
	var q core.DashboardQuery
	month, err := optionalInt(query, "month", core.ErrInvalidMonth)
	if err != nil {
		return q, err
	}
	year, err := optionalInt(query, "year", core.ErrInvalidYear)
	if err != nil {
		return q, err
	}
	timeRange, err := optionalInt(query, "timeRange", errors.New("must be a number of months"))
	if err != nil {
		return q, err
	}
	if month != nil {
		q.Month = *month
		if q.Month == 0 {
			return q, core.Invalid("month", core.ErrInvalidMonth)
		}
	}
	if year != nil {
		q.Year = *year
		if q.Year == 0 {
			return q, core.Invalid("year", core.ErrInvalidYear)
		}
	}
	if timeRange != nil {
		q.TimeRange = *timeRange
		if q.TimeRange <= 0 {
			return q, core.Invalid("timeRange", errors.New("must be a number of months"))
		}
	}
	return q, nil
}

// ParseLimit reads ?limit=. Zero means "use the default".
func ParseLimit(query url.Values) (int, error) {
	limit, err := optionalInt(query, "limit", errors.New("must be a number"))
	if err != nil || limit == nil {
		return 0, err
	}
	return *limit, nil
}
