package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User is the minimal identity returned alongside a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds the bearer credentials issued at sign-in or sign-up. Empty
// strings mean the server sent null.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthData is what the client persists between runs.
type AuthData struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}

// Authenticated reports whether the data carries a usable access token.
func (a *AuthData) Authenticated() bool {
	return a != nil && a.Session.AccessToken != ""
}

// Validate checks the fields the client relies on after sign-in.
func (a AuthData) Validate() error {
	if strings.TrimSpace(a.User.ID) == "" {
		return errors.New("user.id is missing")
	}
	return nil
}

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,notblank"`
}

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse wraps AuthData in the backend's status envelope.
type AuthResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Data    AuthData `json:"data"`
}

// Validate implements schema checks for the envelope.
func (r AuthResponse) Validate() error {
	if err := r.Data.Validate(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	return nil
}

// Account is the server-side record behind a User.
type Account struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionTokens groups the credentials issued by the backend session manager.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Hook describes the opening line identified in an analysed video. The wire
// format is either an object or, for older list responses, a bare string
// which is read into General.
type Hook struct {
	General     string `json:"general,omitempty"`
	UsedInVideo string `json:"used_in_video,omitempty"`
	Type        string `json:"type,omitempty"`
}

// UnmarshalJSON accepts both the object and the string form.
func (h *Hook) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*h = Hook{}
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*h = Hook{General: text}
		return nil
	}
	type plain Hook
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("hook: %w", err)
	}
	*h = Hook(p)
	return nil
}

// Text returns the most specific hook line available.
func (h Hook) Text() string {
	if h.UsedInVideo != "" {
		return h.UsedInVideo
	}
	return h.General
}

// IsZero reports whether no hook information is present.
func (h Hook) IsZero() bool {
	return h.General == "" && h.UsedInVideo == "" && h.Type == ""
}

// VideoRequest is the body of POST /video/analyze.
type VideoRequest struct {
	URL string `json:"url" validate:"required,videourl"`
}

// VideoAnalysisResult is returned by the analyze endpoint.
type VideoAnalysisResult struct {
	Status     string `json:"status"`
	Transcript string `json:"transcript"`
	Hook       Hook   `json:"hook"`
	ScriptBase string `json:"script_base"`
}

// Validate implements schema checks for the analysis payload.
func (r VideoAnalysisResult) Validate() error {
	if r.Transcript == "" && r.Hook.IsZero() && r.ScriptBase == "" {
		return errors.New("analysis is empty")
	}
	return nil
}

// VideoAnalysisSaveRequest is the body of POST /video/save.
type VideoAnalysisSaveRequest struct {
	UserID        string         `json:"user_id" validate:"required"`
	VideoURL      string         `json:"video_url" validate:"required,url"`
	Transcript    string         `json:"transcript,omitempty"`
	Hook          *Hook          `json:"hook,omitempty"`
	ScriptBase    string         `json:"script_base,omitempty"`
	VideoTitle    string         `json:"video_title,omitempty"`
	VideoDuration int            `json:"video_duration,omitempty" validate:"gte=0"`
	Platform      string         `json:"platform,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// SaveResponse acknowledges a save call. ID carries analysis_id or hook_id.
type SaveResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	AnalysisID string `json:"analysis_id,omitempty"`
	HookID     string `json:"hook_id,omitempty"`
}

// ID returns whichever identifier the server assigned.
func (r SaveResponse) ID() string {
	if r.AnalysisID != "" {
		return r.AnalysisID
	}
	return r.HookID
}

// Validate implements schema checks for save acknowledgements.
func (r SaveResponse) Validate() error {
	if r.Status == "" {
		return errors.New("status is missing")
	}
	return nil
}

// VideoAnalysis is a saved analysis as listed by the backend.
type VideoAnalysis struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	VideoURL   string    `json:"video_url"`
	VideoTitle string    `json:"video_title,omitempty"`
	Hook       *Hook     `json:"hook,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	ScriptBase string    `json:"script_base,omitempty"`
	Platform   string    `json:"platform,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VideoAnalysisList is a page of saved analyses.
type VideoAnalysisList struct {
	Status string          `json:"status"`
	Data   []VideoAnalysis `json:"data"`
	Total  int             `json:"total"`
}

// Validate implements schema checks for the list payload.
func (l VideoAnalysisList) Validate() error {
	for i, item := range l.Data {
		if item.ID == "" || item.VideoURL == "" {
			return fmt.Errorf("data[%d]: id and video_url are required", i)
		}
	}
	if l.Total < len(l.Data) {
		return fmt.Errorf("total %d is smaller than page size %d", l.Total, len(l.Data))
	}
	return nil
}

// HookGenerationRequest is the body of POST /video/generate-hooks.
type HookGenerationRequest struct {
	Idea     string `json:"idea" validate:"required,notblank"`
	Niche    string `json:"nicho,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// GeneratedHook is one candidate produced by the generator.
type GeneratedHook struct {
	Text           string  `json:"text"`
	Type           string  `json:"type"`
	RetentionScore float64 `json:"retention_score"`
	Description    string  `json:"description,omitempty"`
}

// HookGenerationResult is returned by the generate endpoint.
type HookGenerationResult struct {
	Status string          `json:"status"`
	Hooks  []GeneratedHook `json:"hooks"`
}

// Validate implements schema checks for generated hooks.
func (r HookGenerationResult) Validate() error {
	for i, h := range r.Hooks {
		if strings.TrimSpace(h.Text) == "" {
			return fmt.Errorf("hooks[%d]: text is required", i)
		}
		if h.RetentionScore < 0 || h.RetentionScore > 100 {
			return fmt.Errorf("hooks[%d]: retention_score %v out of range", i, h.RetentionScore)
		}
	}
	return nil
}

// ViralHookSaveRequest is the body of POST /video/save-hook.
type ViralHookSaveRequest struct {
	UserID         string         `json:"user_id" validate:"required"`
	IdeaInput      string         `json:"idea_input" validate:"required,notblank"`
	HookText       string         `json:"hook_text" validate:"required,notblank"`
	HookType       string         `json:"hook_type,omitempty"`
	RetentionScore *float64       `json:"retention_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Niche          string         `json:"niche,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ViralHook is a saved hook as listed by the backend.
type ViralHook struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	IdeaInput      string    `json:"idea_input"`
	HookText       string    `json:"hook_text"`
	HookType       string    `json:"hook_type,omitempty"`
	RetentionScore *float64  `json:"retention_score,omitempty"`
	Niche          string    `json:"niche,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ViralHookList is a page of saved hooks.
type ViralHookList struct {
	Status string      `json:"status"`
	Data   []ViralHook `json:"data"`
	Total  int         `json:"total"`
}

// Validate implements schema checks for the list payload.
func (l ViralHookList) Validate() error {
	for i, item := range l.Data {
		if item.ID == "" || item.HookText == "" {
			return fmt.Errorf("data[%d]: id and hook_text are required", i)
		}
	}
	if l.Total < len(l.Data) {
		return fmt.Errorf("total %d is smaller than page size %d", l.Total, len(l.Data))
	}
	return nil
}
