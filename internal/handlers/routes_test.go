package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hookscontent/hooks/internal/apiclient"
	"github.com/hookscontent/hooks/internal/hookgen"
	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/middleware"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/repositories"
	"github.com/hookscontent/hooks/internal/services"
	"github.com/hookscontent/hooks/internal/session"
	"github.com/hookscontent/hooks/internal/validation"
	"github.com/hookscontent/hooks/internal/videos"
)

func newTestServer(t *testing.T, limiter middleware.RateLimiter) *httptest.Server {
	t.Helper()

	provider := videos.ProviderFunc(func(_ context.Context, url string) (videos.Metadata, error) {
		return videos.Metadata{
			Title:      "Ahorro",
			Platform:   validation.Platform(url),
			Duration:   42,
			Transcript: "Nadie te dice esto sobre el ahorro. Primero separa el diez por ciento. Luego automatiza la transferencia.",
		}, nil
	})

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Users:       repositories.NewMemoryUserRepository(),
		Sessions:    newTestManager(),
		Analyses:    repositories.NewMemoryAnalysisRepository(),
		Hooks:       repositories.NewMemoryHookRepository(),
		Analyzer:    videos.NewAnalyzer(provider, hookgen.NewTemplateEngine()),
		Generator:   hookgen.NewTemplateEngine(),
		AuthLimiter: limiter,
	})

	srv := httptest.NewServer(middleware.RequestLogger(logging.Discard())(mux))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoutesEndToEnd(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()

	store := session.NewStore(session.NewMemoryStorage(), logging.Discard())
	client := apiclient.New(srv.URL, store)
	v := validation.NewValidator()
	account := services.NewAccount(services.NewAuthService(client, services.Endpoints{}, v), store, logging.Discard())
	videoSvc := services.NewVideoService(client, services.Endpoints{}, v)

	user, err := account.SignUp(ctx, "creator@example.com", "supersafe", "Creator")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if current, ok := account.Current(ctx); !ok || current.ID != user.ID {
		t.Fatalf("expected stored session for %s, got %+v (%v)", user.ID, current, ok)
	}

	if _, err := account.SignUp(ctx, "creator@example.com", "supersafe", "Creator"); services.Message(err, "") != "User already registered" {
		t.Fatalf("expected duplicate sign up to fail, got %v", err)
	}

	result, err := videoSvc.AnalyzeVideo(ctx, "https://www.youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Hook.UsedInVideo != "Nadie te dice esto sobre el ahorro." {
		t.Fatalf("unexpected hook %+v", result.Hook)
	}

	saved, err := videoSvc.SaveVideoAnalysis(ctx, models.VideoAnalysisSaveRequest{
		UserID:     user.ID,
		VideoURL:   "https://www.youtube.com/watch?v=abc",
		Transcript: result.Transcript,
		Hook:       &result.Hook,
		ScriptBase: result.ScriptBase,
	})
	if err != nil {
		t.Fatalf("save analysis: %v", err)
	}

	analyses, err := videoSvc.GetVideoAnalyses(ctx, user.ID, 0, 0)
	if err != nil {
		t.Fatalf("list analyses: %v", err)
	}
	if analyses.Total != 1 || analyses.Data[0].ID != saved.ID() || analyses.Data[0].Platform != "youtube" {
		t.Fatalf("unexpected analyses %+v", analyses)
	}

	generated, err := videoSvc.GenerateHooks(ctx, "Ahorrar en pareja", "finanzas", "tiktok")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	first := generated.Hooks[0]
	score := first.RetentionScore
	if _, err := videoSvc.SaveViralHook(ctx, models.ViralHookSaveRequest{
		UserID:         user.ID,
		IdeaInput:      "Ahorrar en pareja",
		HookText:       first.Text,
		HookType:       first.Type,
		RetentionScore: &score,
	}); err != nil {
		t.Fatalf("save hook: %v", err)
	}

	hooks, err := videoSvc.GetViralHooks(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("list hooks: %v", err)
	}
	if hooks.Total != 1 || hooks.Data[0].HookText != first.Text {
		t.Fatalf("unexpected hooks %+v", hooks)
	}

	if _, err := videoSvc.GetViralHooks(ctx, "someone-else", 10, 0); services.Message(err, "") != "Not allowed to access another user's data" {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRoutesRejectAnonymousCalls(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/video/analyses?user_id=u1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set(logging.RequestIDHeader, "trace-123")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(logging.RequestIDHeader); got != "trace-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Detail != "Not authenticated" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}
}

func TestRoutesRateLimitAuth(t *testing.T) {
	srv := newTestServer(t, middleware.NewIPRateLimiter(1, time.Minute, 1, time.Minute))

	store := session.NewStore(session.NewMemoryStorage(), logging.Discard())
	authSvc := services.NewAuthService(apiclient.New(srv.URL, store), services.Endpoints{}, validation.NewValidator())

	if _, err := authSvc.SignIn(context.Background(), "nobody@example.com", "whatever"); err == nil {
		t.Fatal("expected unknown user to be rejected")
	}

	_, err := authSvc.SignIn(context.Background(), "nobody@example.com", "whatever")
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
}
