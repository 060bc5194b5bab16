package hookgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/videos"
)

// ErrMalformedOutput is returned when the model answer holds no usable JSON.
var ErrMalformedOutput = errors.New("model returned malformed output")

// Model is a text completion backend.
type Model interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Name() string
}

// LLMEngine prompts a language model for hooks and video breakdowns.
type LLMEngine struct {
	model Model
}

// NewLLMEngine wraps model.
func NewLLMEngine(model Model) *LLMEngine {
	return &LLMEngine{model: model}
}

type generatedPayload struct {
	Hooks []models.GeneratedHook `json:"hooks"`
}

// Generate asks the model for one hook per requested type.
func (e *LLMEngine) Generate(ctx context.Context, req models.HookGenerationRequest) ([]models.GeneratedHook, error) {
	if strings.TrimSpace(req.Idea) == "" {
		return nil, ErrEmptyIdea
	}

	ctx, span := logging.StartSpan(ctx, "hookgen.generate")

	answer, err := e.model.GenerateText(ctx, generationPrompt(req))
	if err != nil {
		span.End(err, "model", e.model.Name())
		return nil, fmt.Errorf("generate hooks: %w", err)
	}

	var payload generatedPayload
	if err := decodeAnswer(answer, &payload); err != nil {
		span.End(err, "model", e.model.Name())
		return nil, err
	}

	hooks := make([]models.GeneratedHook, 0, len(payload.Hooks))
	for _, h := range payload.Hooks {
		h.Text = strings.TrimSpace(h.Text)
		if h.Text == "" {
			continue
		}
		h.Type = normalizeType(h.Type)
		h.RetentionScore = clampScore(h.RetentionScore)
		hooks = append(hooks, h)
	}
	if len(hooks) == 0 {
		span.End(ErrMalformedOutput, "model", e.model.Name())
		return nil, ErrMalformedOutput
	}

	span.End(nil, "model", e.model.Name(), "hooks", len(hooks))
	return hooks, nil
}

type breakdownPayload struct {
	Hook       models.Hook `json:"hook"`
	ScriptBase string      `json:"script_base"`
}

// ExtractHook asks the model for the video's hook and a fill-in script.
func (e *LLMEngine) ExtractHook(ctx context.Context, content videos.Content) (models.Hook, string, error) {
	if strings.TrimSpace(content.Transcript) == "" {
		return models.Hook{}, "", videos.ErrNoContent
	}

	ctx, span := logging.StartSpan(ctx, "hookgen.breakdown")

	answer, err := e.model.GenerateText(ctx, breakdownPrompt(content))
	if err != nil {
		span.End(err, "model", e.model.Name())
		return models.Hook{}, "", fmt.Errorf("analyse transcript: %w", err)
	}

	var payload breakdownPayload
	if err := decodeAnswer(answer, &payload); err != nil {
		span.End(err, "model", e.model.Name())
		return models.Hook{}, "", err
	}
	if payload.Hook.IsZero() {
		span.End(ErrMalformedOutput, "model", e.model.Name())
		return models.Hook{}, "", ErrMalformedOutput
	}
	payload.Hook.Type = normalizeType(payload.Hook.Type)

	span.End(nil, "model", e.model.Name())
	return payload.Hook, strings.TrimSpace(payload.ScriptBase), nil
}

// decodeAnswer reads the outermost JSON object in answer, ignoring code
// fences or prose around it.
func decodeAnswer(answer string, out any) error {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end <= start {
		return ErrMalformedOutput
	}
	if err := json.Unmarshal([]byte(answer[start:end+1]), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
