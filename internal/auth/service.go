// Package auth implements signup, password login and Google login.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jimdaga/apod-auth/internal/models"
	"github.com/jimdaga/apod-auth/internal/password"
	"github.com/jimdaga/apod-auth/internal/streams"
	"github.com/jimdaga/apod-auth/internal/token"
	"github.com/jimdaga/apod-auth/internal/users"
	"github.com/jimdaga/apod-auth/internal/validation"
)

// UserStore persists users. Find methods return (nil, nil) when no row matches.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// LinkGoogle attaches a Google id to an unlinked account and returns nil
	// when the account is missing or already linked.
	LinkGoogle(ctx context.Context, id uint, googleID string, picture *string) (*models.User, error)
}

// PasswordHasher hashes and verifies passwords. Decoy returns a digest that
// never matches, verified in place of a missing one so every failed login
// costs the same.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	Decoy() string
}

// TokenIssuer mints identity tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// AssertionVerifier verifies a raw external credential.
type AssertionVerifier interface {
	Verify(ctx context.Context, credential string) (*Assertion, error)
}

// EventPublisher receives account events.
type EventPublisher interface {
	Publish(ctx context.Context, ev streams.AuthEvent) (string, error)
}

// SignupRequest is the signup payload.
type SignupRequest struct {
	FirstName string `json:"firstName" validate:"required" label:"First Name"`
	LastName  string `json:"lastName" validate:"required" label:"Last Name"`
	Email     string `json:"email" validate:"required,email" label:"Email"`
	Password  string `json:"password" validate:"required" label:"Password"`
}

// LoginRequest is the local login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// Deps are the collaborators of a Service. Google and Events are optional:
// without Google the Google flow reports a configuration error, without
// Events nothing is published.
type Deps struct {
	Users     UserStore
	Hasher    PasswordHasher
	Tokens    TokenIssuer
	Google    AssertionVerifier
	Events    EventPublisher
	Validator *validation.Validator
	Logger    *slog.Logger
}

// Service runs the signup, login and Google login flows.
type Service struct {
	users     UserStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	google    AssertionVerifier
	events    EventPublisher
	validator *validation.Validator
	resolver  *IdentityResolver
	logger    *slog.Logger
}

// NewService creates a Service from deps.
func NewService(deps Deps) *Service {
	v := deps.Validator
	if v == nil {
		v = validation.New(validation.DefaultPasswordPolicy())
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		users:     deps.Users,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		google:    deps.Google,
		events:    deps.Events,
		validator: v,
		resolver:  NewIdentityResolver(deps.Users),
		logger:    logger,
	}
}

// Signup registers a local account. No token is issued; the user logs in
// separately.
func (s *Service) Signup(ctx context.Context, req SignupRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return s.validationError("signup", err)
	}
	if err := s.validator.Password("password", "Password", req.Password); err != nil {
		return s.validationError("signup", err)
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return s.internal(ctx, "signup", msgInternal, err)
	}
	if existing != nil {
		return conflict()
	}

	digest, err := s.hasher.Hash(req.Password)
	switch {
	case errors.Is(err, password.ErrCostNotConfigured), errors.Is(err, password.ErrInvalidCost):
		return s.configuration(ctx, "signup", msgHashingNotConfigured, err)
	case errors.Is(err, password.ErrPasswordTooLong):
		return &Error{
			Kind:    KindValidation,
			Code:    KindValidation.String(),
			Field:   "password",
			Message: `"Password" should not be longer than 72 bytes`,
		}
	case err != nil:
		return s.internal(ctx, "signup", msgInternal, err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     &digest,
		AuthProvider: models.ProviderLocal,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrConflict) {
			// lost the race against a concurrent signup for the same email
			return conflict()
		}
		return s.internal(ctx, "signup", msgInternal, err)
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID, "provider", user.AuthProvider)
	s.publish(ctx, streams.EventUserRegistered, user)
	return nil
}

// Login authenticates a local account and returns a token. Unknown email,
// passwordless account and wrong password all fail the same way.
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", s.validationError("login", err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", s.internal(ctx, "login", msgInternal, err)
	}
	if user == nil || !user.HasPassword() {
		// spend the same bcrypt time as a wrong password
		s.hasher.Verify(req.Password, s.hasher.Decoy())
		return "", invalidCredentials()
	}
	if !s.hasher.Verify(req.Password, *user.Password) {
		return "", invalidCredentials()
	}

	tok, err := s.issue(ctx, "login", msgInternal, user)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID, "provider", models.ProviderLocal)
	s.publishLogin(ctx, user, models.ProviderLocal)
	return tok, nil
}

// LoginWithGoogle verifies a Google ID token, resolves it to an account and
// returns a token for that account.
func (s *Service) LoginWithGoogle(ctx context.Context, credential string) (string, error) {
	if s.google == nil {
		return "", s.configuration(ctx, "google_login", msgGoogleNotConfigured, nil)
	}
	if credential == "" {
		return "", newError(KindInvalidRequest, msgCredentialRequired, nil)
	}

	assertion, err := s.google.Verify(ctx, credential)
	if err != nil {
		s.logger.WarnContext(ctx, "Google token verification failed", "error", err)
		if errors.Is(err, ErrAssertionTooEarly) {
			e := newError(KindInvalidAssertion, msgTokenTooEarly, err)
			e.Code = CodeTokenUsedTooEarly
			return "", e
		}
		return "", newError(KindInvalidAssertion, msgInvalidGoogleToken, err)
	}

	user, outcome, err := s.resolver.Resolve(ctx, assertion)
	if err != nil {
		if KindOf(err) == KindIdentityResolution {
			s.logger.ErrorContext(ctx, "Google identity resolution failed", "error", err)
		}
		return "", err
	}

	tok, err := s.issue(ctx, "google_login", msgGoogleInternal, user)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "User logged in with Google", "user_id", user.ID, "outcome", outcome.String())
	switch outcome {
	case OutcomeCreated:
		s.publish(ctx, streams.EventUserRegistered, user)
	case OutcomeLinked:
		s.publish(ctx, streams.EventUserGoogleLinked, user)
	case OutcomeExisting:
	}
	s.publishLogin(ctx, user, models.ProviderGoogle)
	return tok, nil
}

func (s *Service) issue(ctx context.Context, flow, internalMsg string, user *models.User) (string, error) {
	tok, err := s.tokens.Issue(user)
	if errors.Is(err, token.ErrSigningKeyMissing) {
		return "", s.configuration(ctx, flow, msgSigningNotConfigured, err)
	}
	if err != nil {
		return "", s.internal(ctx, flow, internalMsg, err)
	}
	return tok, nil
}

func (s *Service) publish(ctx context.Context, eventType streams.EventType, user *models.User) {
	s.publishEvent(ctx, streams.NewAuthEvent(eventType, user.ID, user.AuthProvider.String()))
}

func (s *Service) publishLogin(ctx context.Context, user *models.User, provider models.AuthProvider) {
	s.publishEvent(ctx, streams.NewAuthEvent(streams.EventUserLoggedIn, user.ID, provider.String()))
}

// publishEvent is best effort: a stream outage never fails a flow.
func (s *Service) publishEvent(ctx context.Context, ev streams.AuthEvent) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish auth event", "type", ev.Type, "user_id", ev.UserID, "error", err)
	}
}

func (s *Service) validationError(flow string, err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return &Error{
			Kind:    KindValidation,
			Code:    KindValidation.String(),
			Field:   fe.Field,
			Message: fe.Message,
		}
	}
	return s.internal(context.Background(), flow, msgInternal, err)
}

func (s *Service) internal(ctx context.Context, flow, message string, err error) error {
	s.logger.ErrorContext(ctx, "Auth flow failed", "flow", flow, "error", err)
	return newError(KindInternal, message, err)
}

func (s *Service) configuration(ctx context.Context, flow, message string, err error) error {
	s.logger.WarnContext(ctx, "Auth flow not configured", "flow", flow, "reason", message)
	return newError(KindConfiguration, message, err)
}

func invalidCredentials() error {
	return newError(KindInvalidCredentials, msgInvalidCredentials, nil)
}

func conflict() error {
	e := newError(KindConflict, msgEmailTaken, nil)
	e.Field = "email"
	return e
}
