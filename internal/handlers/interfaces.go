package handlers

import (
	"context"

	"github.com/hookscontent/hooks/internal/auth"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/repositories"
	"github.com/hookscontent/hooks/internal/videos"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
}

// SessionManager issues, refreshes, and verifies authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID, email string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Verify(accessToken string) (auth.Claims, error)
}

// AnalysisStore persists video analyses.
type AnalysisStore interface {
	Create(ctx context.Context, record repositories.AnalysisRecord) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.VideoAnalysis, int, error)
}

// HookStore persists viral hooks.
type HookStore interface {
	Create(ctx context.Context, record repositories.HookRecord) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ViralHook, int, error)
}

// VideoAnalyzer extracts the hook and script of a video.
type VideoAnalyzer interface {
	Analyze(ctx context.Context, url string) (videos.Analysis, error)
}

// HookGenerator writes hook candidates for an idea.
type HookGenerator interface {
	Generate(ctx context.Context, req models.HookGenerationRequest) ([]models.GeneratedHook, error)
}
