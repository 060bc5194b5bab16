package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hookscontent/hooks/internal/hookgen"
	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/repositories"
	"github.com/hookscontent/hooks/internal/validation"
)

// HookHandler generates viral hooks and stores the ones users keep.
type HookHandler struct {
	Generator HookGenerator
	Hooks     HookStore
	Validator *validation.Validator
	NowFunc   func() time.Time
}

// Generate handles POST /video/generate-hooks.
func (h HookHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Generator == nil {
		logger.Error("hook generator unavailable")
		respondDetail(ctx, w, http.StatusServiceUnavailable, "hook generation is unavailable")
		return
	}

	var req models.HookGenerationRequest
	if !decodeBody(w, r, h.Validator, &req) {
		return
	}
	req.Idea = strings.TrimSpace(req.Idea)

	hooks, err := h.Generator.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, hookgen.ErrEmptyIdea) {
			respondDetail(ctx, w, http.StatusBadRequest, "idea is required")
			return
		}
		logger.Error("hook generation failed", "error", err)
		respondDetail(ctx, w, http.StatusBadGateway, "Could not generate hooks")
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.HookGenerationResult{Status: "success", Hooks: hooks})
}

// Save handles POST /video/save-hook for the authenticated user.
func (h HookHandler) Save(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Hooks == nil {
		logger.Error("hook store unavailable")
		respondDetail(ctx, w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	var req models.ViralHookSaveRequest
	if !decodeBody(w, r, h.Validator, &req) {
		return
	}
	if !requireOwner(w, r, req.UserID) {
		return
	}

	now := h.now()
	record := repositories.HookRecord{
		ViralHook: models.ViralHook{
			ID:             uuid.NewString(),
			UserID:         req.UserID,
			IdeaInput:      strings.TrimSpace(req.IdeaInput),
			HookText:       strings.TrimSpace(req.HookText),
			HookType:       req.HookType,
			RetentionScore: req.RetentionScore,
			Niche:          req.Niche,
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		Metadata: req.Metadata,
	}

	if err := h.Hooks.Create(ctx, record); err != nil {
		logger.Error("save hook failed", "error", err)
		respondDetail(ctx, w, http.StatusInternalServerError, "Could not save the hook")
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.SaveResponse{
		Status:  "success",
		Message: "Hook saved",
		HookID:  record.ID,
	})
}

// List handles GET /video/hooks for the authenticated user.
func (h HookHandler) List(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()

	if h.Hooks == nil {
		logging.FromContext(ctx).Error("hook store unavailable")
		respondDetail(ctx, w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	p, err := parsePage(r)
	if err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if !requireOwner(w, r, p.userID) {
		return
	}

	items, total, err := h.Hooks.ListByUser(ctx, p.userID, p.limit, p.offset)
	if err != nil {
		logging.FromContext(ctx).Error("list hooks failed", "error", err)
		respondDetail(ctx, w, http.StatusInternalServerError, "Could not load hooks")
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.ViralHookList{Status: "success", Data: items, Total: total})
}

func (h HookHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
