package services

import (
	"context"

	"github.com/hookscontent/hooks/internal/apiclient"
)

// DefaultPageSize is used by the list calls when no positive limit is given.
const DefaultPageSize = 50

// Endpoints holds the API paths the services call. Paths are configuration,
// not protocol: a deployment behind a prefix only needs different values here.
type Endpoints struct {
	SignUp        string
	SignIn        string
	Analyze       string
	SaveAnalysis  string
	ListAnalyses  string
	GenerateHooks string
	SaveHook      string
	ListHooks     string
}

// DefaultEndpoints returns the paths served by the HooksContent backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		SignUp:        "/auth/signup",
		SignIn:        "/auth/signin",
		Analyze:       "/video/analyze",
		SaveAnalysis:  "/video/save",
		ListAnalyses:  "/video/analyses",
		GenerateHooks: "/video/generate-hooks",
		SaveHook:      "/video/save-hook",
		ListHooks:     "/video/hooks",
	}
}

// withDefaults fills empty paths from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	fill := func(v *string, fallback string) {
		if *v == "" {
			*v = fallback
		}
	}
	fill(&e.SignUp, d.SignUp)
	fill(&e.SignIn, d.SignIn)
	fill(&e.Analyze, d.Analyze)
	fill(&e.SaveAnalysis, d.SaveAnalysis)
	fill(&e.ListAnalyses, d.ListAnalyses)
	fill(&e.GenerateHooks, d.GenerateHooks)
	fill(&e.SaveHook, d.SaveHook)
	fill(&e.ListHooks, d.ListHooks)
	return e
}

// API is the subset of *apiclient.Client the services depend on.
type API interface {
	Get(ctx context.Context, endpoint string, out any, opts apiclient.Options) error
	Post(ctx context.Context, endpoint string, body, out any, opts apiclient.Options) error
}
