package app

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hookscontent/hooks/internal/auth"
	"github.com/hookscontent/hooks/internal/config"
	"github.com/hookscontent/hooks/internal/db"
	"github.com/hookscontent/hooks/internal/handlers"
	"github.com/hookscontent/hooks/internal/hookgen"
	"github.com/hookscontent/hooks/internal/middleware"
	"github.com/hookscontent/hooks/internal/repositories"
	"github.com/hookscontent/hooks/internal/videos"
)

const (
	authRequestsPerWindow = 10
	authWindow            = time.Minute
	authBurst             = 5
	authLimiterTTL        = 10 * time.Minute
)

// hookEngine both writes hooks for ideas and breaks down analysed videos.
type hookEngine interface {
	hookgen.Generator
	videos.HookExtractor
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. A nil pool keeps everything in memory.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	engine, err := newHookEngine(ctx, cfg.Bedrock)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	ytDlp := videos.NewYTDLPProvider(cfg.YTDLPPath, cfg.YTDLPTimeout)
	metadataProvider := videos.NewCachingProvider(ytDlp, cfg.MetadataCacheTTL)

	deps := handlers.Dependencies{
		Analyzer:    videos.NewAnalyzer(metadataProvider, engine),
		Generator:   engine,
		AuthLimiter: middleware.NewIPRateLimiter(authRequestsPerWindow, authWindow, authBurst, authLimiterTTL),
		Checks: map[string]handlers.Checker{
			"yt-dlp": binaryCheck(cfg.YTDLPPath),
		},
	}

	var sessionStore auth.SessionStore
	if pool == nil {
		deps.Users = repositories.NewMemoryUserRepository()
		deps.Analyses = repositories.NewMemoryAnalysisRepository()
		deps.Hooks = repositories.NewMemoryHookRepository()
		sessionStore = auth.NewMemorySessionStore()
	} else {
		deps.Users = repositories.NewPostgresUserRepository(pool)
		deps.Analyses = repositories.NewPostgresAnalysisRepository(pool)
		deps.Hooks = repositories.NewPostgresHookRepository(pool)
		sessionStore = repositories.NewPostgresSessionStore(pool)
		deps.Checks["database"] = pool.Ping
	}
	deps.Sessions = auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, sessionStore)

	return deps, nil
}

// newHookEngine returns the Bedrock-backed engine when a model is configured
// and the template engine otherwise.
func newHookEngine(ctx context.Context, cfg config.BedrockConfig) (hookEngine, error) {
	if strings.TrimSpace(cfg.ModelID) == "" {
		return hookgen.NewTemplateEngine(), nil
	}
	model, err := hookgen.NewBedrockModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("configure bedrock: %w", err)
	}
	return hookgen.NewLLMEngine(model), nil
}

func binaryCheck(binary string) handlers.Checker {
	return func(context.Context) error {
		if _, err := exec.LookPath(binary); err != nil {
			return fmt.Errorf("%s not found", binary)
		}
		return nil
	}
}
