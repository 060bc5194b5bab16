package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/repositories"
	"github.com/hookscontent/hooks/internal/validation"
	"github.com/hookscontent/hooks/internal/videos"
)

// VideoHandler analyses videos and stores the results per user.
type VideoHandler struct {
	Analyzer  VideoAnalyzer
	Analyses  AnalysisStore
	Validator *validation.Validator
	NowFunc   func() time.Time
}

// Analyze handles POST /video/analyze.
func (h VideoHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Analyzer == nil {
		logger.Error("video analyzer unavailable")
		respondDetail(ctx, w, http.StatusServiceUnavailable, "video analysis is unavailable")
		return
	}

	var req models.VideoRequest
	if !decodeBody(w, r, h.Validator, &req) {
		return
	}

	analysis, err := h.Analyzer.Analyze(ctx, strings.TrimSpace(req.URL))
	if err != nil {
		switch {
		case errors.Is(err, videos.ErrNoContent):
			respondDetail(ctx, w, http.StatusUnprocessableEntity, "The video has no captions or description to analyse")
		case errors.Is(err, videos.ErrProviderUnavailable):
			respondDetail(ctx, w, http.StatusServiceUnavailable, "video analysis is unavailable")
		default:
			logger.Error("video analysis failed", "url", req.URL, "error", err)
			respondDetail(ctx, w, http.StatusBadGateway, "Could not analyse the video")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, analysis.Result)
}

// Save handles POST /video/save for the authenticated user.
func (h VideoHandler) Save(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Analyses == nil {
		logger.Error("analysis store unavailable")
		respondDetail(ctx, w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	var req models.VideoAnalysisSaveRequest
	if !decodeBody(w, r, h.Validator, &req) {
		return
	}
	if !requireOwner(w, r, req.UserID) {
		return
	}

	platform := req.Platform
	if platform == "" {
		platform = validation.Platform(req.VideoURL)
	}

	now := h.now()
	record := repositories.AnalysisRecord{
		VideoAnalysis: models.VideoAnalysis{
			ID:         uuid.NewString(),
			UserID:     req.UserID,
			VideoURL:   req.VideoURL,
			VideoTitle: req.VideoTitle,
			Hook:       req.Hook,
			Transcript: req.Transcript,
			ScriptBase: req.ScriptBase,
			Platform:   platform,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		VideoDuration: req.VideoDuration,
		Metadata:      req.Metadata,
	}

	if err := h.Analyses.Create(ctx, record); err != nil {
		logger.Error("save analysis failed", "error", err)
		respondDetail(ctx, w, http.StatusInternalServerError, "Could not save the analysis")
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.SaveResponse{
		Status:     "success",
		Message:    "Analysis saved",
		AnalysisID: record.ID,
	})
}

// List handles GET /video/analyses for the authenticated user.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()

	if h.Analyses == nil {
		logging.FromContext(ctx).Error("analysis store unavailable")
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

	items, total, err := h.Analyses.ListByUser(ctx, p.userID, p.limit, p.offset)
	if err != nil {
		logging.FromContext(ctx).Error("list analyses failed", "error", err)
		respondDetail(ctx, w, http.StatusInternalServerError, "Could not load analyses")
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.VideoAnalysisList{Status: "success", Data: items, Total: total})
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
