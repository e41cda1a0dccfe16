package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type APISuite struct {
	suite.Suite
	repo    *storage.SQLiteRepository
	records *services.RecordService
	srv     *Server
	ts      *httptest.Server
	client  *http.Client
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func newTestServer(t *testing.T, repo *storage.SQLiteRepository, opts Options) (*Server, *services.RecordService) {
	t.Helper()
	dashboard := services.NewDashboardService(repo, cache.NewLRUCache[core.Dashboard](16, time.Minute), nil)
	records := services.NewRecordService(repo, services.RecordOptions{Invalidator: dashboard})
	srv := NewServer(":0", Services{
		Auth:      auth.NewService(repo, auth.Options{BcryptCost: bcrypt.MinCost}),
		Records:   records,
		Dashboard: dashboard,
		Activity:  services.NewActivityService(repo),
		Database:  repo,
	}, opts)
	return srv, records
}

func (s *APISuite) SetupTest() {
	repo, err := storage.NewSQLiteRepository(filepath.Join(s.T().TempDir(), "api.db"))
	s.Require().NoError(err)
	s.repo = repo
	s.srv, s.records = newTestServer(s.T(), repo, Options{})
	s.ts = httptest.NewServer(s.srv.Handler)
	s.client = s.newClient()
}

func (s *APISuite) TearDownTest() {
	s.ts.Close()
	s.records.Close()
	s.Require().NoError(s.srv.Shutdown(context.Background()))
	s.Require().NoError(s.repo.Close())
}

// newClient returns a client with its own cookie jar that does not follow redirects.
func (s *APISuite) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *APISuite) call(c *http.Client, method, path string, body any) (*http.Response, []byte) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	s.Require().NoError(err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, raw
}

func (s *APISuite) decode(raw []byte, v any) {
	s.Require().NoError(json.Unmarshal(raw, v), string(raw))
}

func (s *APISuite) register(c *http.Client, email string) core.Identity {
	resp, raw := s.call(c, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": email, "password": "secret12",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var id core.Identity
	s.decode(raw, &id)
	return id
}

func (s *APISuite) expenseCategory(c *http.Client, name string) int64 {
	_, raw := s.call(c, http.MethodGet, "/api/categories?type=expense", nil)
	var cats []core.Category
	s.decode(raw, &cats)
	for _, cat := range cats {
		if cat.Name == name {
			return cat.ID
		}
	}
	s.FailNow("category not found", name)
	return 0
}

func (s *APISuite) errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	s.decode(raw, &body)
	return body.Error
}

func (s *APISuite) TestHealth() {
	resp, raw := s.call(s.client, http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", string(raw))

	resp, raw = s.call(s.client, http.MethodGet, "/readyz", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var ready readiness
	s.decode(raw, &ready)
	s.Equal("ready", ready.Status)
	s.Equal("ok", ready.Checks["database"])
}

func (s *APISuite) TestRegisterSeedsDefaults() {
	id := s.register(s.client, "A@x.com")
	s.Equal("A", id.Name)
	s.Equal("a@x.com", id.Email)

	resp, raw := s.call(s.client, http.MethodGet, "/api/categories?type=expense", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var cats []core.Category
	s.decode(raw, &cats)
	s.Len(cats, 8)
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	s.Contains(names, "Food")
	s.Contains(names, "Other")

	_, raw = s.call(s.client, http.MethodGet, "/api/categories?type=income", nil)
	s.decode(raw, &cats)
	s.Len(cats, 5)

	_, raw = s.call(s.client, http.MethodGet, "/api/payment-methods", nil)
	var methods []core.PaymentMethod
	s.decode(raw, &methods)
	s.Len(methods, 5)

	resp, raw = s.call(s.client, http.MethodGet, "/api/auth/me", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var me core.Identity
	s.decode(raw, &me)
	s.Equal(id, me)
}

func (s *APISuite) TestRegisterRejectsDuplicateEmail() {
	s.register(s.client, "a@x.com")

	resp, raw := s.call(s.newClient(), http.MethodPost, "/api/auth/register", map[string]string{
		"name": "B", "email": "A@X.com", "password": "secret12",
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.NotEmpty(s.errorMessage(raw))

	resp, _ = s.call(s.newClient(), http.MethodPost, "/api/auth/register", map[string]string{"name": "B"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestUnauthenticated() {
	for _, path := range []string{"/api/auth/me", "/api/expenses", "/api/dashboard", "/api/activity"} {
		resp, raw := s.call(s.client, http.MethodGet, path, nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode, path)
		s.NotEmpty(s.errorMessage(raw), path)
	}

	s.client.Jar.SetCookies(mustURL(s.T(), s.ts.URL), []*http.Cookie{{Name: auth.CookieName, Value: "forged"}})
	resp, _ := s.call(s.client, http.MethodGet, "/api/categories", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *APISuite) TestUnknownRoutesAnswerJSON() {
	resp, raw := s.call(s.client, http.MethodPatch, "/api/expenses", nil)
	s.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Type"), "application/json")
	s.Contains(resp.Header.Get("Allow"), "POST")
	s.Equal("Method not allowed", s.errorMessage(raw))

	resp, raw = s.call(s.client, http.MethodGet, "/api/unknown", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Type"), "application/json")
	s.Equal("Not found", s.errorMessage(raw))
}

func (s *APISuite) TestLoginAndLogout() {
	s.register(s.client, "a@x.com")

	resp, raw := s.call(s.client, http.MethodPost, "/api/auth/logout", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"success":true}`, string(raw))

	resp, _ = s.call(s.client, http.MethodGet, "/api/auth/me", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.call(s.client, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "nope-nope"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, raw = s.call(s.client, http.MethodPost, "/api/auth/login", map[string]string{"email": "A@X.COM", "password": "secret12"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var id core.Identity
	s.decode(raw, &id)
	s.Equal("a@x.com", id.Email)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	s.Require().NotNil(session)
	s.True(session.HttpOnly)
	s.Equal(http.SameSiteLaxMode, session.SameSite)

	resp, _ = s.call(s.client, http.MethodGet, "/api/auth/me", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestStrictDecoding() {
	s.register(s.client, "a@x.com")

	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"name":"Gym","type":"expense","color":"red"}`},
		{"two objects", `{"name":"Gym","type":"expense"}{"name":"Spa"}`},
		{"array", `[{"name":"Gym"}]`},
		{"empty", ``},
		{"wrong type", `{"name":42}`},
	}
	for _, tt := range tests {
		resp, raw := s.call(s.client, http.MethodPost, "/api/categories", tt.body)
		s.Equal(http.StatusBadRequest, resp.StatusCode, tt.name)
		s.NotEmpty(s.errorMessage(raw), tt.name)
	}
}

func (s *APISuite) TestCategoryConflict() {
	s.register(s.client, "a@x.com")

	resp, _ := s.call(s.client, http.MethodPost, "/api/categories", map[string]string{"name": "Gym", "type": "expense"})
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp, raw := s.call(s.client, http.MethodPost, "/api/categories", map[string]string{"name": "Gym", "type": "expense"})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.NotEmpty(s.errorMessage(raw))

	resp, _ = s.call(s.client, http.MethodPost, "/api/categories", map[string]string{"name": "Gym", "type": "income"})
	s.Equal(http.StatusCreated, resp.StatusCode)
}

func (s *APISuite) TestBudgetUpsert() {
	s.register(s.client, "a@x.com")
	food := s.expenseCategory(s.client, "Food")

	body := map[string]any{"category_id": food, "amount": 200, "month": 3, "year": 2024}
	resp, raw := s.call(s.client, http.MethodPost, "/api/budgets", body)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var first core.Budget
	s.decode(raw, &first)

	body["amount"] = 250
	resp, raw = s.call(s.client, http.MethodPost, "/api/budgets", body)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
	var second core.Budget
	s.decode(raw, &second)

	s.Equal(first.ID, second.ID)
	s.True(core.MustMoney("250").Equal(second.Amount), second.Amount.String())

	_, raw = s.call(s.client, http.MethodGet, "/api/budgets?month=3&year=2024", nil)
	var budgets []core.Budget
	s.decode(raw, &budgets)
	s.Len(budgets, 1)

	resp, _ = s.call(s.client, http.MethodGet, "/api/budgets?month=13", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestExpenseLifecycleAndOwnership() {
	s.register(s.client, "a@x.com")
	food := s.expenseCategory(s.client, "Food")

	resp, raw := s.call(s.client, http.MethodPost, "/api/expenses", map[string]any{
		"description": "Lunch", "amount": "12.50", "date": "2024-03-10", "category_id": food,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var exp core.Expense
	s.decode(raw, &exp)
	s.Require().NotNil(exp.CategoryName)
	s.Equal("Food", *exp.CategoryName)
	path := "/api/expenses/" + itoa(exp.ID)

	other := s.newClient()
	s.register(other, "b@x.com")
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp, _ = s.call(other, method, path, nil)
		s.Equal(http.StatusNotFound, resp.StatusCode, method)
	}
	_, raw = s.call(other, http.MethodGet, "/api/expenses", nil)
	s.JSONEq(`[]`, string(raw))

	resp, raw = s.call(s.client, http.MethodPut, path, map[string]any{
		"description": "Dinner", "amount": 20, "date": "2024-03-11",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
	s.decode(raw, &exp)
	s.Equal("Dinner", exp.Description)
	s.Nil(exp.CategoryID)

	_, raw = s.call(s.client, http.MethodGet, "/api/expenses?fromDate=2024-03-11&toDate=2024-03-31", nil)
	var items []core.Expense
	s.decode(raw, &items)
	s.Len(items, 1)

	resp, _ = s.call(s.client, http.MethodGet, "/api/expenses?fromDate=yesterday", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, raw = s.call(s.client, http.MethodDelete, path, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"success":true}`, string(raw))

	resp, _ = s.call(s.client, http.MethodGet, path, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = s.call(s.client, http.MethodGet, "/api/expenses/abc", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestDashboard() {
	s.register(s.client, "a@x.com")
	food := s.expenseCategory(s.client, "Food")

	for _, day := range []string{"2024-03-01", "2024-03-02"} {
		resp, raw := s.call(s.client, http.MethodPost, "/api/expenses", map[string]any{
			"description": "Snack", "amount": "10.005", "date": day, "category_id": food,
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	}

	resp, raw := s.call(s.client, http.MethodGet, "/api/dashboard?month=3&year=2024", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
	s.Contains(string(raw), `"value":20.01`)

	var dash core.Dashboard
	s.decode(raw, &dash)
	s.Require().Len(dash.ExpensesByCategory, 1)
	s.Equal("Food", dash.ExpensesByCategory[0].Name)
	s.Equal(8, dash.Stats.Categories)
	s.Equal(5, dash.Stats.PaymentMethods)
	s.Len(dash.RecentExpenses, 2)
	s.True(core.MustMoney("-20.01").Equal(dash.Stats.Savings), dash.Stats.Savings.String())

	resp, _ = s.call(s.client, http.MethodGet, "/api/dashboard?month=0", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestGoalsAndActivity() {
	s.register(s.client, "a@x.com")

	resp, raw := s.call(s.client, http.MethodPost, "/api/goals", map[string]any{
		"title": "Bike", "target_amount": 1000, "current_amount": 250,
		"start_date": "2024-01-01", "target_date": "2024-12-31",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var g core.Goal
	s.decode(raw, &g)
	s.InDelta(25.0, g.Progress, 0.001)

	_, raw = s.call(s.client, http.MethodGet, "/api/goals?isCompleted=false", nil)
	var goals []core.Goal
	s.decode(raw, &goals)
	s.Len(goals, 1)

	resp, _ = s.call(s.client, http.MethodGet, "/api/goals?isCompleted=maybe", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, raw = s.call(s.client, http.MethodGet, "/api/activity?limit=500", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`[]`, string(raw))
}

func (s *APISuite) TestRouteGuard() {
	resp, _ := s.call(s.client, http.MethodGet, "/dashboard", nil)
	s.Equal(http.StatusTemporaryRedirect, resp.StatusCode)
	s.Equal("/login", resp.Header.Get("Location"))

	resp, raw := s.call(s.client, http.MethodGet, "/login", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(raw), "Sign in")

	s.register(s.client, "a@x.com")
	resp, _ = s.call(s.client, http.MethodGet, "/register", nil)
	s.Equal(http.StatusTemporaryRedirect, resp.StatusCode)
	s.Equal("/dashboard", resp.Header.Get("Location"))

	resp, raw = s.call(s.client, http.MethodGet, "/goals", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(raw), "Goals")
}

func (s *APISuite) TestResponseHeaders() {
	resp, _ := s.call(s.client, http.MethodGet, "/api/auth/me", nil)
	s.Equal("nosniff", resp.Header.Get("X-Content-Type-Options"))
	s.Equal("DENY", resp.Header.Get("X-Frame-Options"))
	s.Equal("no-store", resp.Header.Get("Cache-Control"))
	s.NotEmpty(resp.Header.Get("X-Request-ID"))
	s.Contains(resp.Header.Get("Content-Type"), "application/json")
}

func TestRateLimit(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "limit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	srv, _ := newTestServer(t, repo, Options{RateLimitPerMinute: 2})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		srv.Handler.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), `"error"`)
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
