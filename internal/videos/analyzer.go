package videos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
)

// Content is the text extracted from a video.
type Content struct {
	Title      string
	Transcript string
	Platform   string
}

// HookExtractor finds the hook of a video and derives a reusable script
// from it.
type HookExtractor interface {
	ExtractHook(ctx context.Context, content Content) (models.Hook, string, error)
}

// Analysis is the outcome of analysing one video.
type Analysis struct {
	Result   models.VideoAnalysisResult
	Metadata Metadata
}

// Analyzer turns a video URL into a transcript, hook, and script base.
type Analyzer struct {
	provider  Provider
	extractor HookExtractor
}

// NewAnalyzer wires an Analyzer.
func NewAnalyzer(provider Provider, extractor HookExtractor) *Analyzer {
	return &Analyzer{provider: provider, extractor: extractor}
}

// Analyze fetches the video's metadata and captions and extracts its hook.
// The description stands in for the transcript when no captions exist.
func (a *Analyzer) Analyze(ctx context.Context, url string) (Analysis, error) {
	if a == nil || a.provider == nil || a.extractor == nil {
		return Analysis{}, ErrProviderUnavailable
	}

	ctx, span := logging.StartSpan(ctx, "videos.analyze")

	meta, err := a.provider.Lookup(ctx, url)
	if err != nil {
		span.End(err)
		return Analysis{}, fmt.Errorf("lookup video: %w", err)
	}

	transcript := strings.TrimSpace(meta.Transcript)
	source := "captions"
	if transcript == "" {
		transcript = strings.TrimSpace(meta.Description)
		source = "description"
	}
	if transcript == "" {
		span.End(ErrNoContent)
		return Analysis{}, ErrNoContent
	}

	hook, script, err := a.extractor.ExtractHook(ctx, Content{
		Title:      meta.Title,
		Transcript: transcript,
		Platform:   meta.Platform,
	})
	if err != nil {
		span.End(err)
		return Analysis{}, fmt.Errorf("extract hook: %w", err)
	}
	if hook.IsZero() {
		err := errors.New("extractor returned no hook")
		span.End(err)
		return Analysis{}, err
	}

	span.End(nil, "transcript_source", source, "duration", meta.Duration)
	return Analysis{
		Result: models.VideoAnalysisResult{
			Status:     "success",
			Transcript: transcript,
			Hook:       hook,
			ScriptBase: script,
		},
		Metadata: meta,
	}, nil
}
