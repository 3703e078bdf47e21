package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/skylens/go-api-client/apiclient"
	"github.com/skylens/go-api-client/internal/apierrors"
	"github.com/skylens/go-api-client/sessions"
	"github.com/skylens/go-api-client/token"
	"github.com/skylens/go-api-client/users"
)

// Client is the slice of the API surface the auth use-cases need.
type Client interface {
	Login(ctx context.Context, credentials apiclient.Credentials) (*apiclient.AuthResponse, error)
	Signup(ctx context.Context, details apiclient.SignupDetails) (*apiclient.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*users.User, error)
}

// Deps holds all dependencies for the Service.
type Deps struct {
	Client   Client          // API endpoints
	Tokens   *token.Manager  // Token lifecycle authority
	Sessions *sessions.Store // Observed session state
}

// Result is what the login, signup, and initialize use-cases return.
type Result struct {
	User        *users.User
	AccessToken string
}

// Service translates user intents (login, signup, logout, initialize) into
// coordinated calls across the API client, token manager, and caches, and
// reflects outcomes into the session store.
type Service struct {
	deps      Deps
	validator *Validator
	log       zerolog.Logger
	language  string
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the logger used for auth flow events.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// WithLanguage sets the locale tag used to localize error messages.
func WithLanguage(lang string) ServiceOption {
	return func(s *Service) {
		s.language = lang
	}
}

// NewService initializes a new auth Service with required dependencies.
func NewService(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.Client == nil {
		return nil, errors.New("[NewService] Client is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[NewService] Tokens manager is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("[NewService] Sessions store is required")
	}

	s := &Service{
		deps:      deps,
		validator: NewValidator(),
		log:       zerolog.Nop(),
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Login authenticates with email and password, stores the returned token via
// the token manager, and caches the returned profile.
func (s *Service) Login(ctx context.Context, credentials apiclient.Credentials) (*Result, error) {
	if fieldErrors := s.validator.ValidateCredentials(credentials); len(fieldErrors) > 0 {
		return nil, apierrors.Validation(fieldErrors, s.language)
	}

	s.deps.Tokens.ResetLogoutState()

	resp, err := s.deps.Client.Login(ctx, credentials)
	if err != nil {
		return nil, err
	}

	s.deps.Tokens.SetAccessToken(resp.Token)
	if resp.Data != nil {
		s.deps.Tokens.SetCachedUserData(resp.Data)
	}
	s.log.Info().Msg("login succeeded")

	return &Result{User: resp.Data, AccessToken: resp.Token}, nil
}

// Signup creates an account and signs it in, following the same token and
// cache path as Login.
func (s *Service) Signup(ctx context.Context, details apiclient.SignupDetails) (*Result, error) {
	if fieldErrors := s.validator.ValidateSignup(details); len(fieldErrors) > 0 {
		return nil, apierrors.Validation(fieldErrors, s.language)
	}

	s.deps.Tokens.ResetLogoutState()

	resp, err := s.deps.Client.Signup(ctx, details)
	if err != nil {
		return nil, err
	}

	s.deps.Tokens.SetAccessToken(resp.Token)
	if resp.Data != nil {
		s.deps.Tokens.SetCachedUserData(resp.Data)
	}
	s.log.Info().Msg("signup succeeded")

	return &Result{User: resp.Data, AccessToken: resp.Token}, nil
}

// Logout calls the server logout endpoint and clears local state. Clearing is
// unconditional: it happens even when the server call fails, and the server
// error is then returned to the caller after local state is gone.
func (s *Service) Logout(ctx context.Context) error {
	err := s.deps.Client.Logout(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}

	s.deps.Tokens.ClearTokens()
	return err
}

// InitializeAuth silently restores a session at application start from the
// ambient refresh credential. Absence of a restorable session is a valid
// startup state, not an error: the result is nil and the caller proceeds
// unauthenticated.
func (s *Service) InitializeAuth(ctx context.Context) (*Result, error) {
	s.deps.Tokens.ResetLogoutState()

	accessToken, err := s.deps.Tokens.InitializeToken(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("no session to restore")
		return nil, nil
	}

	user := s.deps.Tokens.GetCachedUserData()
	if user == nil {
		user, err = s.deps.Client.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		s.deps.Tokens.SetCachedUserData(user)
	}

	s.log.Info().Msg("session restored")
	return &Result{User: user, AccessToken: accessToken}, nil
}

// CurrentSession returns the observed session state.
func (s *Service) CurrentSession() sessions.Session {
	return s.deps.Sessions.Read()
}

// CurrentUser returns the cached profile, or nil when absent or expired.
func (s *Service) CurrentUser() *users.User {
	return s.deps.Tokens.GetCachedUserData()
}
