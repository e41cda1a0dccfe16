package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Services are the domain dependencies of the API.
type Services struct {
	Auth      *auth.Service
	Records   *services.RecordService
	Dashboard *services.DashboardService
	Activity  *services.ActivityService
	Database  HealthChecker
}

// Options tunes the server. Zero values select the defaults.
type Options struct {
	CookieSecure       bool
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	auth      *auth.Service
	records   *services.RecordService
	dashboard *services.DashboardService
	activity  *services.ActivityService
	database  HealthChecker

	templates    *template.Template
	limiter      *ratelimit.Limiter
	cookieSecure bool
	logger       *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Default(applog.ComponentHTTP)
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		auth:         deps.Auth,
		records:      deps.Records,
		dashboard:    deps.Dashboard,
		activity:     deps.Activity,
		database:     deps.Database,
		cookieSecure: opts.CookieSecure,
		logger:       logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err.Error())
	}
	s.templates = t

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, applog.FieldError, err.Error())
		}
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = RouteGuard(handler)
	handler = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(opts.Logger.WithComponent(applog.ComponentTrace), detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()

	api.HandleFunc("POST /api/auth/register", s.handleRegister)
	api.HandleFunc("POST /api/auth/login", s.handleLogin)
	api.HandleFunc("POST /api/auth/logout", s.handleLogout)
	api.Handle("GET /api/auth/me", s.protect(s.handleMe))

	api.Handle("GET /api/categories", s.protect(s.handleListCategories))
	api.Handle("POST /api/categories", s.protect(s.handleCreateCategory))
	api.Handle("GET /api/categories/{id}", s.protect(s.handleGetCategory))
	api.Handle("PUT /api/categories/{id}", s.protect(s.handleUpdateCategory))
	api.Handle("DELETE /api/categories/{id}", s.protect(s.handleDeleteCategory))

	api.Handle("GET /api/payment-methods", s.protect(s.handleListPaymentMethods))
	api.Handle("POST /api/payment-methods", s.protect(s.handleCreatePaymentMethod))
	api.Handle("GET /api/payment-methods/{id}", s.protect(s.handleGetPaymentMethod))
	api.Handle("PUT /api/payment-methods/{id}", s.protect(s.handleUpdatePaymentMethod))
	api.Handle("DELETE /api/payment-methods/{id}", s.protect(s.handleDeletePaymentMethod))

	api.Handle("GET /api/expenses", s.protect(s.handleListExpenses))
	api.Handle("POST /api/expenses", s.protect(s.handleCreateExpense))
	api.Handle("GET /api/expenses/{id}", s.protect(s.handleGetExpense))
	api.Handle("PUT /api/expenses/{id}", s.protect(s.handleUpdateExpense))
	api.Handle("DELETE /api/expenses/{id}", s.protect(s.handleDeleteExpense))

	api.Handle("GET /api/income", s.protect(s.handleListIncome))
	api.Handle("POST /api/income", s.protect(s.handleCreateIncome))
	api.Handle("GET /api/income/{id}", s.protect(s.handleGetIncome))
	api.Handle("PUT /api/income/{id}", s.protect(s.handleUpdateIncome))
	api.Handle("DELETE /api/income/{id}", s.protect(s.handleDeleteIncome))

	api.Handle("GET /api/budgets", s.protect(s.handleListBudgets))
	api.Handle("POST /api/budgets", s.protect(s.handleSaveBudget))
	api.Handle("GET /api/budgets/{id}", s.protect(s.handleGetBudget))
	api.Handle("PUT /api/budgets/{id}", s.protect(s.handleUpdateBudget))
	api.Handle("DELETE /api/budgets/{id}", s.protect(s.handleDeleteBudget))

	api.Handle("GET /api/goals", s.protect(s.handleListGoals))
	api.Handle("POST /api/goals", s.protect(s.handleCreateGoal))
	api.Handle("GET /api/goals/{id}", s.protect(s.handleGetGoal))
	api.Handle("PUT /api/goals/{id}", s.protect(s.handleUpdateGoal))
	api.Handle("DELETE /api/goals/{id}", s.protect(s.handleDeleteGoal))

	api.Handle("GET /api/dashboard", s.protect(s.handleDashboard))
	api.Handle("GET /api/activity", s.protect(s.handleActivity))

	mux.Handle("/api/", security.NoStore(JSONMuxErrors(api)))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err.Error())
	}

	for path, page := range shellPages {
		mux.HandleFunc("GET "+path, s.handlePage(page))
	}
}

// protect runs the authorization gate in front of h.
func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return s.auth.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, r, err)
	})(h)
}

// caller returns the identity stored by the gate.
func caller(r *http.Request) core.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	body := readiness{Status: "ready", Checks: map[string]string{"database": "ok"}}
	status := http.StatusOK

	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.database.Ping(ctx); err != nil {
			s.logger.ErrorContext(r.Context(), "Readiness check failed",
				applog.FieldError, err.Error(),
				applog.FieldErrorType, applog.ErrorTypeDatabase)
			body.Status = "unavailable"
			body.Checks["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	NewJSONResponse().Status(status).Body(body).Write(w)
}

type shellPage struct {
	Page  string
	Title string
	Nav   bool
}

var shellPages = map[string]shellPage{
	"/{$}":       {Page: "home", Title: "Personal finance"},
	"/login":     {Page: "login", Title: "Sign in"},
	"/register":  {Page: "register", Title: "Create account"},
	"/dashboard": {Page: "dashboard", Title: "Dashboard", Nav: true},
	"/expenses":  {Page: "expenses", Title: "Expenses", Nav: true},
	"/income":    {Page: "income", Title: "Income", Nav: true},
	"/budgets":   {Page: "budgets", Title: "Budgets", Nav: true},
	"/goals":     {Page: "goals", Title: "Goals", Nav: true},
}

func (s *Server) handlePage(page shellPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.templates == nil {
			s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
			http.Error(w, "templates not loaded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.templates.ExecuteTemplate(w, "shell.html", page); err != nil {
			s.logger.ErrorContext(r.Context(), "Page template execution failed",
				applog.FieldError, err.Error(),
				"page", page.Page)
		}
	}
}
