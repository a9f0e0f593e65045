package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/repository"
)

// failedLoginWriteTimeout bounds the counter update that outlives a cancelled request.
const failedLoginWriteTimeout = 5 * time.Second

// Login outcomes recorded in metrics.
const (
	loginSuccess            = "success"
	loginInvalidCredentials = "invalid_credentials"
	loginBlocked            = "blocked"
	loginInactive           = "inactive"
	loginError              = "error"
)

// SecurityDependencies encapsulates collaborators for the security service.
type SecurityDependencies struct {
	Users     repository.UserRepository
	Tx        repository.Transactor
	Tokens    *auth.TokenCodec
	Policy    *auth.AccountSecurityPolicy
	Validator *auth.SessionValidator
	Events    events.Dispatcher
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// SecurityService coordinates login, signup and token validation.
type SecurityService struct {
	users     repository.UserRepository
	tx        repository.Transactor
	tokens    *auth.TokenCodec
	policy    *auth.AccountSecurityPolicy
	validator *auth.SessionValidator
	events    events.Dispatcher
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewSecurityService builds the service.
func NewSecurityService(deps SecurityDependencies) *SecurityService {
	s := &SecurityService{
		users:     deps.Users,
		tx:        deps.Tx,
		tokens:    deps.Tokens,
		policy:    deps.Policy,
		validator: deps.Validator,
		events:    deps.Events,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if s.policy == nil {
		s.policy = auth.NewAccountSecurityPolicy(auth.DefaultMaxLoginAttempts, auth.DefaultAccountBlockDuration)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Login authenticates by email and password and returns a WEB session.
func (s *SecurityService) Login(ctx context.Context, req domain.RequestContext, email, password string) (*domain.Session, error) {
	var (
		session    *domain.Session
		failed     *domain.User
		userID     string
		firstLogin bool
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err := s.users.FindByEmail(ctx, tx, email)
		if errors.Is(err, domain.ErrUserNotFound) {
			return auth.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if user.PasswordHash == nil {
			return auth.ErrInvalidCredentials
		}
		if s.policy.IsBlocked(user, s.now()) {
			return auth.ErrAccountBlocked
		}

		if user.PasswordHash.Check(password) {
			allowed, err := s.policy.CanLogin(user)
			if err != nil {
				return err
			}
			if !allowed {
				failed = user
				return auth.ErrInvalidCredentials
			}
			role, err := auth.ParseRole(user.Role)
			if err != nil {
				return err
			}
			firstLogin = user.LastLogin == nil
			token, err := s.tokens.Issue(req, user.ID, domain.AudienceWeb, role.TypeID(), firstLogin)
			if err != nil {
				return err
			}
			if err := s.users.MarkLogin(ctx, tx, user.ID, req); err != nil {
				return err
			}
			session = &domain.Session{Token: token}
			userID = user.ID
			return nil
		}

		failed = user
		return auth.ErrInvalidCredentials
	})

	if failed != nil {
		s.recordFailedLogin(ctx, req, failed)
	}
	s.metrics.RecordLogin(loginOutcome(err))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventLoginSucceeded, userID, req, events.LoginSucceededPayload{
		FirstLogin: firstLogin,
		Audience:   string(domain.AudienceWeb),
	})
	return session, nil
}

// recordFailedLogin persists the attempt before the error reaches the caller.
// It detaches from request cancellation so a client disconnect cannot skip it.
func (s *SecurityService) recordFailedLogin(ctx context.Context, req domain.RequestContext, user *domain.User) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failedLoginWriteTimeout)
	defer cancel()

	count, err := s.users.IncrementWrongLoginCount(writeCtx, user.ID, s.policy.MaxAttempts())
	if err != nil {
		s.logger.Error("record failed login", zap.String("user_id", user.ID), zap.Error(err))
		return
	}

	s.publish(ctx, events.EventLoginFailed, user.ID, req, events.LoginFailedPayload{
		Reason:          "invalid_credentials",
		WrongLoginCount: count,
	})
	if count >= s.policy.MaxAttempts() {
		s.publish(ctx, events.EventAccountBlocked, user.ID, req, events.AccountBlockedPayload{
			WrongLoginCount: count,
			BlockedUntil:    s.now().Add(s.policy.BlockDuration()),
		})
	}
}

// SignUp registers a USER account and logs it in.
func (s *SecurityService) SignUp(ctx context.Context, req domain.RequestContext, profile domain.SignUpProfile) (*domain.Session, error) {
	var (
		session *domain.Session
		userID  string
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err := s.users.Create(ctx, tx, profile)
		if err != nil {
			return err
		}
		role, err := auth.ParseRole(user.Role)
		if err != nil {
			return err
		}
		token, err := s.tokens.Issue(req, user.ID, domain.AudienceWeb, role.TypeID(), user.LastLogin == nil)
		if err != nil {
			return err
		}
		if err := s.users.MarkLogin(ctx, tx, user.ID, req); err != nil {
			return err
		}
		session = &domain.Session{Token: token}
		userID = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserSignedUp, userID, req, nil)
	return session, nil
}

// DecodeToken verifies a raw bearer token.
func (s *SecurityService) DecodeToken(raw string) (*auth.SessionClaims, error) {
	return s.tokens.Decode(raw)
}

// ValidateToken classifies decoded claims. A nil claims value yields INVALID_TOKEN.
func (s *SecurityService) ValidateToken(ctx context.Context, req domain.RequestContext, claims *auth.SessionClaims) (auth.TokenValidationResult, error) {
	result, err := s.validator.Validate(ctx, req, claims, s.lookupUser)
	if err != nil {
		s.metrics.RecordValidation("ERROR")
		return result, err
	}
	s.metrics.RecordValidation(string(result.Status))
	return result, nil
}

func (s *SecurityService) lookupUser(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		found, err := s.users.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	return user, err
}

// Issue signs a token for an arbitrary user, e.g. for APP clients.
func (s *SecurityService) Issue(req domain.RequestContext, userID string, aud domain.Audience, typeID int, firstLogin bool) (string, error) {
	return s.tokens.Issue(req, userID, aud, typeID, firstLogin)
}

// Refresh mints a new token with the same audience for an authenticated principal.
func (s *SecurityService) Refresh(ctx context.Context, principal *auth.Principal) (*domain.Session, error) {
	token, err := s.tokens.Refresh(principal.RequestContext(), principal.User.ID, principal.Audience, principal.Role.TypeID())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTokenRefreshed, principal.User.ID, principal.RequestContext(), events.TokenRefreshedPayload{
		Audience: string(principal.Audience),
	})
	return &domain.Session{Token: token}, nil
}

func (s *SecurityService) publish(ctx context.Context, eventType events.EventType, userID string, req domain.RequestContext, payload any) {
	if s.events == nil {
		return
	}
	at := s.now()
	event := events.Event{
		ID:        events.NewID(at),
		Type:      eventType,
		UserID:    userID,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		Timestamp: at,
		Payload:   payload,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return loginSuccess
	case errors.Is(err, auth.ErrInvalidCredentials):
		return loginInvalidCredentials
	case errors.Is(err, auth.ErrAccountBlocked):
		return loginBlocked
	case errors.Is(err, auth.ErrInactiveUser):
		return loginInactive
	default:
		return loginError
	}
}
