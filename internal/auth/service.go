package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// DefaultSessionTTL is the session lifetime when none is configured.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Store is the persistence the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	ReplaceSessions(ctx context.Context, s core.Session) error
	GetActiveSession(ctx context.Context, id string, now time.Time) (core.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	SessionTTL time.Duration
	BcryptCost int
	Now        func() time.Time
	Logger     *applog.Logger
}

// Service registers users, issues sessions and resolves callers from session ids.
type Service struct {
	store  Store
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *applog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(store Store, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = BcryptCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = applog.Default(applog.ComponentAuth)
	}
	return &Service{
		store:  store,
		ttl:    opts.SessionTTL,
		cost:   opts.BcryptCost,
		now:    opts.Now,
		logger: opts.Logger.WithComponent(applog.ComponentAuth),
	}
}

// SessionTTL is the lifetime given to new sessions.
func (s *Service) SessionTTL() time.Duration { return s.ttl }

// CreateUser validates in and stores a new user with the default categories
// and payment methods. It does not start a session.
func (s *Service) CreateUser(ctx context.Context, in core.RegisterInput) (core.Identity, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Identity{}, err
	}

	hash, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return core.Identity{}, err
	}

	user, err := s.store.CreateUser(ctx, in.Name, in.Email, hash)
	if err != nil {
		return core.Identity{}, err
	}
	return user.Identity(), nil
}

// Register creates the user and logs them in.
func (s *Service) Register(ctx context.Context, in core.RegisterInput) (core.Identity, core.Session, error) {
	id, err := s.CreateUser(ctx, in)
	if err != nil {
		return core.Identity{}, core.Session{}, err
	}

	session, err := s.issue(ctx, id.ID)
	if err != nil {
		return core.Identity{}, core.Session{}, err
	}

	s.logger.InfoContext(ctx, "User registered", applog.FieldUserID, id.ID)
	return id, session, nil
}

// Login verifies credentials and replaces the user's sessions with a new one.
func (s *Service) Login(ctx context.Context, in core.LoginInput) (core.Identity, core.Session, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Identity{}, core.Session{}, err
	}

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	var nf *core.NotFoundError
	switch {
	case errors.As(err, &nf):
		// Spend a comparable amount of time so unknown emails are not distinguishable.
		CheckPassword(s.unknownUserHash(), in.Password)
		return core.Identity{}, core.Session{}, core.Unauthenticated(errBadCredentials.Error())
	case err != nil:
		return core.Identity{}, core.Session{}, err
	}

	if !CheckPassword(user.PasswordHash, in.Password) {
		s.logger.WarnContext(ctx, "Login rejected", applog.FieldUserID, user.ID)
		return core.Identity{}, core.Session{}, core.Unauthenticated(errBadCredentials.Error())
	}

	session, err := s.issue(ctx, user.ID)
	if err != nil {
		return core.Identity{}, core.Session{}, err
	}

	s.logger.InfoContext(ctx, "User logged in", applog.FieldUserID, user.ID)
	return user.Identity(), session, nil
}

func (s *Service) issue(ctx context.Context, userID int64) (core.Session, error) {
	token, err := NewSessionToken()
	if err != nil {
		return core.Session{}, core.StoreFailure("issue session", err)
	}
	now := s.now().UTC()
	session := core.Session{
		ID:        token,
		UserID:    userID,
		Expires:   now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.ReplaceSessions(ctx, session); err != nil {
		return core.Session{}, err
	}
	return session, nil
}

// Logout deletes the session row. An empty id is a no-op.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, sessionID)
}

// Authenticate resolves the caller behind sessionID. Every failure, including
// storage errors, yields an AuthenticationError.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (core.Identity, error) {
	if sessionID == "" {
		return core.Identity{}, core.Unauthenticated("not authenticated")
	}

	session, err := s.store.GetActiveSession(ctx, sessionID, s.now())
	if err != nil {
		s.logUnexpected(ctx, "Session lookup failed", err)
		return core.Identity{}, core.Unauthenticated("not authenticated")
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		s.logUnexpected(ctx, "Session user lookup failed", err)
		return core.Identity{}, core.Unauthenticated("not authenticated")
	}
	return user.Identity(), nil
}

func (s *Service) logUnexpected(ctx context.Context, msg string, err error) {
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return
	}
	s.logger.ErrorContext(ctx, msg,
		applog.FieldError, err.Error(),
		applog.FieldErrorType, applog.ErrorTypeDatabase)
}

func (s *Service) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = hashPassword("fintrack-unknown-user", s.cost)
	})
	return s.dummyHash
}
