package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hookscontent/hooks/internal/auth"
	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/repositories"
	"github.com/hookscontent/hooks/internal/validation"
)

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Users     UserStore
	Sessions  SessionManager
	Validator *validation.Validator
	NowFunc   func() time.Time
}

// SignUp handles POST /auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondDetail(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req models.SignUpRequest
	if !decodeBody(w, r, h.Validator, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		logger.Warn("signup existing account", "email", req.Email)
		respondDetail(ctx, w, http.StatusBadRequest, "User already registered")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("signup user lookup failed", "error", err, "email", req.Email)
		respondDetail(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondDetail(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	account := models.Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Users.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondDetail(ctx, w, http.StatusBadRequest, "User already registered")
			return
		}
		logger.Error("signup failed to create user", "error", err, "email", req.Email)
		respondDetail(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, account.ID, account.Email)
	if err != nil {
		logger.Error("signup failed to issue session", "error", err, "userId", account.ID)
		respondDetail(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	logger.Info("account created", "userId", account.ID)
	respondJSON(ctx, w, http.StatusOK, authResponse(account, tokens, "User registered successfully"))
}

// SignIn handles POST /auth/signin requests.
func (h AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondDetail(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req models.SignInRequest
	if !decodeBody(w, r, h.Validator, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	account, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("signin user lookup failed", "email", req.Email, "error", err)
			respondDetail(ctx, w, http.StatusInternalServerError, "unable to verify credentials")
			return
		}
		logger.Warn("signin unknown account", "email", req.Email)
		respondDetail(ctx, w, http.StatusUnauthorized, "Invalid login credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("signin password mismatch", "userId", account.ID)
		respondDetail(ctx, w, http.StatusUnauthorized, "Invalid login credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, account.ID, account.Email)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", account.ID)
		respondDetail(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse(account, tokens, "Signed in successfully"))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,notblank"`
}

type refreshResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    models.Session `json:"data"`
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondDetail(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	var req refreshRequest
	if !decodeBody(w, r, h.Validator, &req) {
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			logger.Warn("refresh rejected", "error", err)
			respondDetail(ctx, w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		logger.Error("refresh failed", "error", err)
		respondDetail(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, refreshResponse{
		Status:  "success",
		Message: "Session refreshed",
		Data:    models.Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken},
	})
}

func authResponse(account models.Account, tokens models.SessionTokens, message string) models.AuthResponse {
	return models.AuthResponse{
		Status:  "success",
		Message: message,
		Data: models.AuthData{
			User:    models.User{ID: account.ID, Email: account.Email},
			Session: models.Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken},
		},
	}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
