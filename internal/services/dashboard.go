package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// DashboardStore provides the aggregate queries behind the dashboard.
type DashboardStore interface {
	SumAmounts(ctx context.Context, table storage.LedgerTable, userID int64, p *storage.Period) (core.Money, error)
	CountCategories(ctx context.Context, userID int64, typ core.CategoryType) (int, error)
	CountPaymentMethods(ctx context.Context, userID int64) (int, error)
	ExpensesByCategory(ctx context.Context, userID int64, p storage.Period) ([]core.CategoryAmount, error)
	RecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error)
	MonthlyTotals(ctx context.Context, table storage.LedgerTable, userID int64, since core.Date) ([]core.MonthTotal, error)
	ExpensePredictions(ctx context.Context, userID int64, since core.Date, limit int) ([]core.Prediction, error)
}

// DashboardService aggregates a user's figures, running the independent
// queries concurrently. Results are cached per user and query until the
// user writes a record.
type DashboardService struct {
	store  DashboardStore
	cache  cache.Cache[core.Dashboard]
	now    func() time.Time
	logger *applog.Logger

	// generations is bumped on every invalidation; a result computed under an
	// older generation is not cached.
	mu          sync.Mutex
	generations map[int64]uint64
}

// NewDashboardService creates the service. c may be nil to disable caching.
func NewDashboardService(store DashboardStore, c cache.Cache[core.Dashboard], logger *applog.Logger) *DashboardService {
	if logger == nil {
		logger = applog.Default(applog.ComponentDashboard)
	}
	return &DashboardService{
		store:       store,
		cache:       c,
		now:         time.Now,
		logger:      logger.WithComponent(applog.ComponentDashboard),
		generations: make(map[int64]uint64),
	}
}

func userPrefix(userID int64) string {
	return fmt.Sprintf("user:%d:", userID)
}

func dashboardKey(userID int64, q core.DashboardQuery) string {
	return fmt.Sprintf("%s%04d-%02d:%d", userPrefix(userID), q.Year, q.Month, q.TimeRange)
}

// InvalidateUser drops every cached dashboard of the user.
func (s *DashboardService) InvalidateUser(userID int64) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.generations[userID]++
	n := s.cache.DeletePrefix(userPrefix(userID))
	s.mu.Unlock()
	if n > 0 {
		s.logger.Debug("Dashboard cache invalidated", applog.FieldUserID, userID, "entries", n)
	}
}

func (s *DashboardService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// storeIfCurrent caches d unless the user has written since gen was read.
func (s *DashboardService) storeIfCurrent(userID int64, gen uint64, key string, d core.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.cache.Set(key, d)
}

// Dashboard computes the figures for the query's month. Zero query fields
// default to the current month and a six month trend. Any failing query
// fails the whole dashboard.
func (s *DashboardService) Dashboard(ctx context.Context, userID int64, q core.DashboardQuery) (core.Dashboard, error) {
	now := s.now().UTC()
	q = q.WithDefaults(now)
	if err := q.Validate(); err != nil {
		return core.Dashboard{}, err
	}

	key := dashboardKey(userID, q)
	var gen uint64
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
		gen = s.generation(userID)
	}

	var (
		d             core.Dashboard
		trendExpenses []core.MonthTotal
		trendIncome   []core.MonthTotal
		month         = storage.MonthPeriod(q.Year, q.Month)
		trendStart    = core.TrendWindowStart(now, q.TimeRange)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats.TotalExpenses, err = s.store.SumAmounts(gctx, storage.ExpensesTable, userID, nil)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.TotalIncome, err = s.store.SumAmounts(gctx, storage.IncomeTable, userID, nil)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.MonthlyExpenses, err = s.store.SumAmounts(gctx, storage.ExpensesTable, userID, &month)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.MonthlyIncome, err = s.store.SumAmounts(gctx, storage.IncomeTable, userID, &month)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.Categories, err = s.store.CountCategories(gctx, userID, core.CategoryExpense)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.PaymentMethods, err = s.store.CountPaymentMethods(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.ExpensesByCategory, err = s.store.ExpensesByCategory(gctx, userID, month)
		return err
	})
	g.Go(func() (err error) {
		d.RecentExpenses, err = s.store.RecentExpenses(gctx, userID, core.RecentExpensesLimit)
		return err
	})
	g.Go(func() (err error) {
		trendExpenses, err = s.store.MonthlyTotals(gctx, storage.ExpensesTable, userID, trendStart)
		return err
	})
	g.Go(func() (err error) {
		trendIncome, err = s.store.MonthlyTotals(gctx, storage.IncomeTable, userID, trendStart)
		return err
	})
	g.Go(func() (err error) {
		d.Predictions, err = s.store.ExpensePredictions(gctx, userID, core.PredictionWindowStart(now), core.PredictionLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Dashboard aggregation failed",
			applog.FieldUserID, userID,
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeDatabase)
		return core.Dashboard{}, err
	}

	d.Stats.FinalizeStats()
	d.MonthlyTrend = core.MergeTrend(trendExpenses, trendIncome)
	if d.ExpensesByCategory == nil {
		d.ExpensesByCategory = []core.CategoryAmount{}
	}
	if d.RecentExpenses == nil {
		d.RecentExpenses = []core.Expense{}
	}
	if d.Predictions == nil {
		d.Predictions = []core.Prediction{}
	}

	if s.cache != nil {
		s.storeIfCurrent(userID, gen, key, d)
	}
	return d, nil
}
