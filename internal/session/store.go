package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hookscontent/hooks/internal/models"
)

const lockRetryDelay = 25 * time.Millisecond

// Store persists AuthData between runs. Storage failures never reach the
// caller: they are logged and the store behaves as if nobody is signed in.
type Store struct {
	storage Storage
	logger  *slog.Logger
}

// NewStore wraps storage. A nil logger uses slog.Default().
func NewStore(storage Storage, logger *slog.Logger) *Store {
	if storage == nil {
		panic("session: storage must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, logger: logger}
}

// Save replaces the stored session with data.
func (s *Store) Save(ctx context.Context, data models.AuthData) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("encode session", "error", err)
		return
	}
	if err := s.storage.Write(ctx, raw); err != nil {
		s.logger.Error("save session", "error", err)
	}
}

// Get returns the stored session, or nil when it is absent, unreadable, or
// corrupt.
func (s *Store) Get(ctx context.Context) *models.AuthData {
	raw, err := s.storage.Read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("read session", "error", err)
		}
		return nil
	}

	var data models.AuthData
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn("decode session", "error", err)
		return nil
	}
	return &data
}

// Clear removes the stored session. It is safe to call repeatedly.
func (s *Store) Clear(ctx context.Context) {
	if err := s.storage.Remove(ctx); err != nil {
		s.logger.Error("clear session", "error", err)
	}
}

// UserID returns the signed-in user's id, or "" when there is none.
func (s *Store) UserID(ctx context.Context) string {
	if data := s.Get(ctx); data != nil {
		return data.User.ID
	}
	return ""
}

// AccessToken returns the stored access token, or "" when there is none.
func (s *Store) AccessToken(ctx context.Context) string {
	if data := s.Get(ctx); data != nil {
		return data.Session.AccessToken
	}
	return ""
}

// IsAuthenticated reports whether a non-empty access token is stored.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.Get(ctx).Authenticated()
}

// TokenExpiry reads the exp claim of the stored access token without
// verifying its signature. It is informational only; the server decides
// whether a token is still valid.
func (s *Store) TokenExpiry(ctx context.Context) (time.Time, bool) {
	token := s.AccessToken(ctx)
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
