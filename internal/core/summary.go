package core

import (
	"sort"
	"time"
)

const (
	DefaultTrendMonths     = 6
	PredictionWindowMonths = 3
	PredictionLimit        = 5
	RecentExpensesLimit    = 5
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name  string `json:"name"`
	Value Money  `json:"value"`
}

// MonthTotal is one per-type monthly sum as returned by storage.
type MonthTotal struct {
	Year  int
	Month int // 1-12
	Total Money
}

// TrendPoint merges expense and income totals for one month.
type TrendPoint struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"`
	Expenses Money `json:"expenses"`
	Income   Money `json:"income"`
}

// Prediction is the historical per-category average used as next month's estimate.
type Prediction struct {
	Name          string `json:"name"`
	AverageAmount Money  `json:"average_amount"`
	Frequency     int    `json:"frequency"`
}

type DashboardStats struct {
	TotalExpenses   Money `json:"totalExpenses"`
	MonthlyExpenses Money `json:"monthlyExpenses"`
	TotalIncome     Money `json:"totalIncome"`
	MonthlyIncome   Money `json:"monthlyIncome"`
	Categories      int   `json:"categories"`
	PaymentMethods  int   `json:"paymentMethods"`
	Savings         Money `json:"savings"`
	MonthlySavings  Money `json:"monthlySavings"`
}

type Dashboard struct {
	Stats              DashboardStats   `json:"stats"`
	ExpensesByCategory []CategoryAmount `json:"expensesByCategory"`
	RecentExpenses     []Expense        `json:"recentExpenses"`
	MonthlyTrend       []TrendPoint     `json:"monthlyTrend"`
	Predictions        []Prediction     `json:"predictions"`
}

// DashboardQuery selects the target month and the trend window length.
type DashboardQuery struct {
	Month     int
	Year      int
	TimeRange int
}

// WithDefaults fills zero fields from now.
func (q DashboardQuery) WithDefaults(now time.Time) DashboardQuery {
	if q.Month == 0 {
		q.Month = int(now.Month())
	}
	if q.Year == 0 {
		q.Year = now.Year()
	}
	if q.TimeRange <= 0 {
		q.TimeRange = DefaultTrendMonths
	}
	return q
}

func (q DashboardQuery) Validate() error {
	if q.Month < 1 || q.Month > 12 {
		return Invalid("month", ErrInvalidMonth)
	}
	if q.Year < 1900 || q.Year > 9999 {
		return Invalid("year", ErrInvalidYear)
	}
	if q.TimeRange < 1 || q.TimeRange > 120 {
		return Invalid("timeRange", ErrInvalidMonth)
	}
	return nil
}

// FinalizeStats derives the savings figures.
func (s *DashboardStats) FinalizeStats() {
	s.Savings = s.TotalIncome.Sub(s.TotalExpenses)
	s.MonthlySavings = s.MonthlyIncome.Sub(s.MonthlyExpenses)
}

// MergeTrend combines per-type monthly totals into one point per (year, month),
// sorted ascending. Months absent from both inputs do not appear.
func MergeTrend(expenses, income []MonthTotal) []TrendPoint {
	type key struct{ year, month int }
	points := make(map[key]*TrendPoint, len(expenses)+len(income))
	get := func(year, month int) *TrendPoint {
		k := key{year, month}
		p, ok := points[k]
		if !ok {
			p = &TrendPoint{Year: year, Month: month}
			points[k] = p
		}
		return p
	}
	for _, e := range expenses {
		get(e.Year, e.Month).Expenses = e.Total
	}
	for _, i := range income {
		get(i.Year, i.Month).Income = i.Total
	}

	out := make([]TrendPoint, 0, len(points))
	for _, p := range points {
		out = append(out, *p)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Year != out[b].Year {
			return out[a].Year < out[b].Year
		}
		return out[a].Month < out[b].Month
	})
	return out
}

// AddMonthsClamped moves d by n months, clamping the day to the target month's length
// (Mar 31 minus one month is Feb 28/29).
func AddMonthsClamped(d Date, n int) Date {
	y, m, day := d.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// LastDayOfMonth returns the final calendar day of d's month.
func LastDayOfMonth(d Date) Date {
	y, m, _ := d.Date()
	return Date{Time: time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)}
}

// TrendWindowStart is the earliest date included in a trend of the given length.
func TrendWindowStart(now time.Time, months int) Date {
	return AddMonthsClamped(LastDayOfMonth(DateOf(now)), -months)
}

// PredictionWindowStart is the earliest date included in predictions.
func PredictionWindowStart(now time.Time) Date {
	return AddMonthsClamped(DateOf(now), -PredictionWindowMonths)
}

// ApplyBudgetProgress fills the derived spending fields of b.
func ApplyBudgetProgress(b *Budget, spent Money) {
	b.Spent = spent
	b.Remaining = b.Amount.Sub(spent)
	b.Percentage = Percent(spent, b.Amount, 0)
	b.OverBudget = spent.GreaterThan(b.Amount.Decimal)
}

// ApplyGoalMetrics fills the derived progress fields of g relative to today.
func ApplyGoalMetrics(g *Goal, today Date) {
	g.Progress = Percent(g.CurrentAmount, g.TargetAmount, 1)
	g.DaysRemaining = today.DaysUntil(g.TargetDate)
	g.IsOverdue = !g.IsCompleted && g.DaysRemaining < 0
}
