package handlers

import (
	"net/http"

	"github.com/hookscontent/hooks/internal/middleware"
	"github.com/hookscontent/hooks/internal/validation"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users       UserStore
	Sessions    SessionManager
	Analyses    AnalysisStore
	Hooks       HookStore
	Analyzer    VideoAnalyzer
	Generator   HookGenerator
	AuthLimiter middleware.RateLimiter
	Checks      map[string]Checker
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	v := validation.NewValidator()

	health := HealthHandler{Checks: deps.Checks}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Validator: v}
	videoH := VideoHandler{Analyzer: deps.Analyzer, Analyses: deps.Analyses, Validator: v}
	hookH := HookHandler{Generator: deps.Generator, Hooks: deps.Hooks, Validator: v}

	limited := middleware.RateLimit("auth", deps.AuthLimiter)
	var verifier TokenVerifier
	if deps.Sessions != nil {
		verifier = deps.Sessions
	}

	mux.HandleFunc("/health", health.Handle)

	mux.Handle("/auth/signup", limited(http.HandlerFunc(authH.SignUp)))
	mux.Handle("/auth/signin", limited(http.HandlerFunc(authH.SignIn)))
	mux.Handle("/auth/refresh", limited(http.HandlerFunc(authH.Refresh)))

	mux.HandleFunc("/video/analyze", videoH.Analyze)
	mux.HandleFunc("/video/save", RequireUser(verifier, videoH.Save))
	mux.HandleFunc("/video/analyses", RequireUser(verifier, videoH.List))

	mux.HandleFunc("/video/generate-hooks", hookH.Generate)
	mux.HandleFunc("/video/save-hook", RequireUser(verifier, hookH.Save))
	mux.HandleFunc("/video/hooks", RequireUser(verifier, hookH.List))
}
