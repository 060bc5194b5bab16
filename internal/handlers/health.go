package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Checker reports whether one dependency is usable.
type Checker func(ctx context.Context) error

// HealthHandler responds with service health information.
type HealthHandler struct {
	Checks  map[string]Checker
	Timeout time.Duration
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handle implements GET /health. Any failing check turns the answer into 503.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(names))
		}
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := h.Checks[name](checkCtx)
		cancel()
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	respondJSON(ctx, w, status, resp)
}
