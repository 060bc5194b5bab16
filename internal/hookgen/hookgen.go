// Package hookgen writes hook candidates for an idea and extracts the hook
// and reusable script of an analysed video.
package hookgen

import (
	"context"
	"errors"
	"strings"

	"github.com/hookscontent/hooks/internal/models"
)

// Hook types understood across the product.
const (
	TypeEmotional     = "emocional"
	TypeRational      = "racional"
	TypeSurprise      = "sorpresa"
	TypeControversial = "controversial"
	TypeCuriosity     = "curiosidad"
)

// Types lists every hook type in the order candidates are produced.
var Types = []string{TypeEmotional, TypeRational, TypeSurprise, TypeControversial, TypeCuriosity}

// ErrEmptyIdea is returned when there is nothing to write hooks about.
var ErrEmptyIdea = errors.New("idea is required")

// Generator produces hook candidates for an idea.
type Generator interface {
	Generate(ctx context.Context, req models.HookGenerationRequest) ([]models.GeneratedHook, error)
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	for _, known := range Types {
		if t == known {
			return known
		}
	}
	return t
}
