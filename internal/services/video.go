package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hookscontent/hooks/internal/apiclient"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/validation"
)

var authenticated = apiclient.Options{RequireAuth: true}

// VideoService binds the video analysis and hook endpoints.
type VideoService struct {
	api       API
	endpoints Endpoints
	validator *validation.Validator
}

// NewVideoService wires a VideoService. A nil validator gets the default one.
func NewVideoService(api API, endpoints Endpoints, v *validation.Validator) *VideoService {
	if v == nil {
		v = validation.NewValidator()
	}
	return &VideoService{api: api, endpoints: endpoints.withDefaults(), validator: v}
}

// AnalyzeVideo asks the backend to transcribe and analyse a video. The URL
// must point at a supported platform; anything else is rejected locally.
// The backend may take a while, and no client-side timeout is imposed unless
// the caller's context carries one.
func (s *VideoService) AnalyzeVideo(ctx context.Context, videoURL string) (models.VideoAnalysisResult, error) {
	req := models.VideoRequest{URL: strings.TrimSpace(videoURL)}
	if err := s.validator.Struct(req); err != nil {
		return models.VideoAnalysisResult{}, err
	}

	var out models.VideoAnalysisResult
	if err := s.api.Post(ctx, s.endpoints.Analyze, req, &out, apiclient.Options{}); err != nil {
		return models.VideoAnalysisResult{}, err
	}
	return out, nil
}

// SaveVideoAnalysis stores an analysis for the signed-in user.
func (s *VideoService) SaveVideoAnalysis(ctx context.Context, req models.VideoAnalysisSaveRequest) (models.SaveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.SaveResponse{}, err
	}

	var out models.SaveResponse
	if err := s.api.Post(ctx, s.endpoints.SaveAnalysis, req, &out, authenticated); err != nil {
		return models.SaveResponse{}, err
	}
	return out, nil
}

// GetVideoAnalyses lists saved analyses. A non-positive limit means
// DefaultPageSize.
func (s *VideoService) GetVideoAnalyses(ctx context.Context, userID string, limit, offset int) (models.VideoAnalysisList, error) {
	endpoint, err := listEndpoint(s.endpoints.ListAnalyses, userID, limit, offset)
	if err != nil {
		return models.VideoAnalysisList{}, err
	}

	var out models.VideoAnalysisList
	if err := s.api.Get(ctx, endpoint, &out, authenticated); err != nil {
		return models.VideoAnalysisList{}, err
	}
	return out, nil
}

// GenerateHooks asks for hook candidates built around idea. niche and
// platform are optional.
func (s *VideoService) GenerateHooks(ctx context.Context, idea, niche, platform string) (models.HookGenerationResult, error) {
	req := models.HookGenerationRequest{
		Idea:     strings.TrimSpace(idea),
		Niche:    strings.TrimSpace(niche),
		Platform: strings.TrimSpace(platform),
	}
	if err := s.validator.Struct(req); err != nil {
		return models.HookGenerationResult{}, err
	}

	var out models.HookGenerationResult
	if err := s.api.Post(ctx, s.endpoints.GenerateHooks, req, &out, apiclient.Options{}); err != nil {
		return models.HookGenerationResult{}, err
	}
	return out, nil
}

// SaveViralHook stores a generated hook for the signed-in user.
func (s *VideoService) SaveViralHook(ctx context.Context, req models.ViralHookSaveRequest) (models.SaveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.SaveResponse{}, err
	}

	var out models.SaveResponse
	if err := s.api.Post(ctx, s.endpoints.SaveHook, req, &out, authenticated); err != nil {
		return models.SaveResponse{}, err
	}
	return out, nil
}

// GetViralHooks lists saved hooks.
func (s *VideoService) GetViralHooks(ctx context.Context, userID string, limit, offset int) (models.ViralHookList, error) {
	endpoint, err := listEndpoint(s.endpoints.ListHooks, userID, limit, offset)
	if err != nil {
		return models.ViralHookList{}, err
	}

	var out models.ViralHookList
	if err := s.api.Get(ctx, endpoint, &out, authenticated); err != nil {
		return models.ViralHookList{}, err
	}
	return out, nil
}

func listEndpoint(base, userID string, limit, offset int) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", validation.New("user_id", "user_id is required")
	}
	if offset < 0 {
		return "", validation.New("offset", "offset must be greater than or equal to 0")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return fmt.Sprintf("%s?user_id=%s&limit=%d&offset=%d", base, url.QueryEscape(userID), limit, offset), nil
}
