package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/hookscontent/hooks/internal/auth"
	"github.com/hookscontent/hooks/internal/logging"
)

type principalKey struct{}

// TokenVerifier resolves an access token to its claims.
type TokenVerifier interface {
	Verify(accessToken string) (auth.Claims, error)
}

// RequireUser rejects requests without a valid bearer token. A missing
// header answers 401 "Not authenticated"; a bad token answers 401 too.
func RequireUser(verifier TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if verifier == nil {
			logging.FromContext(ctx).Error("token verifier unavailable")
			respondDetail(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondDetail(ctx, w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logging.FromContext(ctx).Warn("access token rejected", "error", err)
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondDetail(ctx, w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx = context.WithValue(ctx, principalKey{}, claims)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", claims.Subject))
		next(w, r.WithContext(ctx))
	}
}

// ClaimsFromContext returns the claims of the authenticated caller.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(principalKey{}).(auth.Claims)
	return claims, ok
}

// requireOwner answers 403 unless the caller is userID.
func requireOwner(w http.ResponseWriter, r *http.Request, userID string) bool {
	claims, ok := ClaimsFromContext(r.Context())
	if ok && claims.Subject == userID {
		return true
	}
	respondDetail(r.Context(), w, http.StatusForbidden, "Not allowed to access another user's data")
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
