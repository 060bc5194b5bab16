package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hookscontent/hooks/internal/apiclient"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/validation"
)

// AuthService binds the sign-up and sign-in endpoints. It does not persist
// anything; see Account for that.
type AuthService struct {
	api       API
	endpoints Endpoints
	validator *validation.Validator
}

// NewAuthService wires an AuthService. A nil validator gets the default one.
func NewAuthService(api API, endpoints Endpoints, v *validation.Validator) *AuthService {
	if v == nil {
		v = validation.NewValidator()
	}
	return &AuthService{api: api, endpoints: endpoints.withDefaults(), validator: v}
}

// SignUp registers a new user and returns the issued session.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (models.AuthData, error) {
	req := models.SignUpRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
		FullName: fullName,
	}
	if err := s.validator.Struct(req); err != nil {
		return models.AuthData{}, err
	}

	var resp models.AuthResponse
	if err := s.api.Post(ctx, s.endpoints.SignUp, req, &resp, apiclient.Options{}); err != nil {
		return models.AuthData{}, err
	}
	return resp.Data, nil
}

// SignIn authenticates an existing user.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (models.AuthData, error) {
	req := models.SignInRequest{Email: strings.TrimSpace(email), Password: password}
	if err := s.validator.Struct(req); err != nil {
		return models.AuthData{}, err
	}

	var resp models.AuthResponse
	if err := s.api.Post(ctx, s.endpoints.SignIn, req, &resp, apiclient.Options{}); err != nil {
		return models.AuthData{}, err
	}
	return resp.Data, nil
}

// SessionStore is what Account needs from the session package.
type SessionStore interface {
	Save(ctx context.Context, data models.AuthData)
	Get(ctx context.Context) *models.AuthData
	Clear(ctx context.Context)
	IsAuthenticated(ctx context.Context) bool
}

// Account couples AuthService with the session store so a successful sign-in
// is remembered for later authenticated calls.
type Account struct {
	auth     *AuthService
	sessions SessionStore
	logger   *slog.Logger
}

// NewAccount builds an Account.
func NewAccount(auth *AuthService, sessions SessionStore, logger *slog.Logger) *Account {
	if logger == nil {
		logger = slog.Default()
	}
	return &Account{auth: auth, sessions: sessions, logger: logger}
}

// SignUp registers and stores the resulting session.
func (a *Account) SignUp(ctx context.Context, email, password, fullName string) (models.User, error) {
	data, err := a.auth.SignUp(ctx, email, password, fullName)
	if err != nil {
		return models.User{}, err
	}
	a.sessions.Save(ctx, data)
	a.logger.Info("signed up", "user_id", data.User.ID)
	return data.User, nil
}

// SignIn authenticates and stores the resulting session.
func (a *Account) SignIn(ctx context.Context, email, password string) (models.User, error) {
	data, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	a.sessions.Save(ctx, data)
	a.logger.Info("signed in", "user_id", data.User.ID)
	return data.User, nil
}

// SignOut forgets the stored session. There is no server-side call.
func (a *Account) SignOut(ctx context.Context) {
	a.sessions.Clear(ctx)
}

// Current returns the stored user, if any.
func (a *Account) Current(ctx context.Context) (models.User, bool) {
	data := a.sessions.Get(ctx)
	if data == nil {
		return models.User{}, false
	}
	return data.User, a.sessions.IsAuthenticated(ctx)
}
