package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/validation"
)

const (
	maxBodyBytes = 1 << 20

	defaultPageSize = 50
	maxPageSize     = 100
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondDetail writes an error in the {"detail": "..."} shape clients parse.
func respondDetail(ctx context.Context, w http.ResponseWriter, status int, detail string) {
	respondJSON(ctx, w, status, map[string]string{"detail": detail})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) bool {
	if r.Method == allowed {
		return false
	}
	w.Header().Set("Allow", allowed)
	respondDetail(r.Context(), w, http.StatusMethodNotAllowed, "Method Not Allowed")
	return true
}

// decodeBody reads a JSON request body into dst and validates it. It writes
// the error response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validation.Validator, dst any) bool {
	ctx := r.Context()

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondDetail(ctx, w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			respondDetail(ctx, w, http.StatusBadRequest, "request body is required")
		default:
			respondDetail(ctx, w, http.StatusBadRequest, "invalid request body")
		}
		return false
	}

	if v != nil {
		if err := v.Struct(dst); err != nil {
			respondDetail(ctx, w, http.StatusBadRequest, err.Error())
			return false
		}
	}
	return true
}

type page struct {
	userID string
	limit  int
	offset int
}

// parsePage reads user_id, limit, and offset from the query string.
func parsePage(r *http.Request) (page, error) {
	q := r.URL.Query()
	p := page{userID: q.Get("user_id"), limit: defaultPageSize}

	if p.userID == "" {
		return page{}, errors.New("user_id is required")
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page{}, errors.New("limit must be a positive integer")
		}
		p.limit = min(n, maxPageSize)
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page{}, errors.New("offset must be zero or greater")
		}
		p.offset = n
	}
	return p, nil
}
