package app

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/hookscontent/hooks/internal/dashboard"
	"github.com/hookscontent/hooks/internal/models"
)

var now = time.Now

// when renders t relative to now, or "-" for the zero time.
func when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// truncate shortens s to n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func score(v *float64) string {
	if v == nil {
		return "-"
	}
	return humanize.FtoaWithDigits(*v, 1)
}

func (e *env) renderAnalysis(result models.VideoAnalysisResult) {
	e.printf("Hook:         %s\n", result.Hook.General)
	if result.Hook.UsedInVideo != "" {
		e.printf("In the video: %s\n", result.Hook.UsedInVideo)
	}
	if result.Hook.Type != "" {
		e.printf("Type:         %s\n", result.Hook.Type)
	}
	e.printf("Script base:  %s\n", result.ScriptBase)
	e.printf("Transcript:   %s\n", truncate(result.Transcript, 280))
}

func (e *env) renderAnalyses(items []models.VideoAnalysis, total int, full bool) {
	if len(items) == 0 {
		e.printf("No saved analyses.\n")
		return
	}
	e.printf("Showing %d of %s analyses\n\n", len(items), humanize.Comma(int64(total)))
	for i, a := range items {
		if full {
			if i > 0 {
				e.printf("\n")
			}
			e.renderAnalysisDetail(i+1, a)
			continue
		}
		title := a.VideoTitle
		if title == "" {
			title = a.VideoURL
		}
		e.printf("[%d] %s\n", i+1, truncate(title, 80))
		if a.Hook != nil {
			e.printf("    Hook: %s\n", truncate(a.Hook.Text(), 100))
		}
		if a.Platform != "" {
			e.printf("    Platform: %s\n", a.Platform)
		}
		e.printf("    Saved: %s\n", when(a.CreatedAt))
	}
}

// renderAnalysisDetail prints one saved analysis without shortening anything.
func (e *env) renderAnalysisDetail(n int, a models.VideoAnalysis) {
	title := a.VideoTitle
	if title == "" {
		title = a.VideoURL
	}
	e.printf("[%d] %s\n", n, title)
	e.printf("    ID:          %s\n", a.ID)
	e.printf("    URL:         %s\n", a.VideoURL)
	if a.Platform != "" {
		e.printf("    Platform:    %s\n", a.Platform)
	}
	if a.Hook != nil {
		e.printf("    Hook:        %s\n", a.Hook.General)
		if a.Hook.UsedInVideo != "" {
			e.printf("    In video:    %s\n", a.Hook.UsedInVideo)
		}
		if a.Hook.Type != "" {
			e.printf("    Hook type:   %s\n", a.Hook.Type)
		}
	}
	if a.ScriptBase != "" {
		e.printf("    Script base: %s\n", a.ScriptBase)
	}
	if a.Transcript != "" {
		e.printf("    Transcript:  %s\n", a.Transcript)
	}
	e.printf("    Saved:       %s\n", when(a.CreatedAt))
	if a.UpdatedAt.After(a.CreatedAt) {
		e.printf("    Updated:     %s\n", when(a.UpdatedAt))
	}
}

func (e *env) renderHooks(items []models.ViralHook, total int, full bool) {
	if len(items) == 0 {
		e.printf("No saved hooks.\n")
		return
	}
	e.printf("Showing %d of %s hooks\n\n", len(items), humanize.Comma(int64(total)))
	for i, h := range items {
		if full {
			if i > 0 {
				e.printf("\n")
			}
			e.renderHookDetail(i+1, h)
			continue
		}
		e.printf("[%d] %s\n", i+1, h.HookText)
		e.printf("    Idea: %s\n", truncate(h.IdeaInput, 80))
		if h.HookType != "" {
			e.printf("    Type: %s  Retention: %s\n", h.HookType, score(h.RetentionScore))
		}
		e.printf("    Saved: %s\n", when(h.CreatedAt))
	}
}

func (e *env) renderHookDetail(n int, h models.ViralHook) {
	e.printf("[%d] %s\n", n, h.HookText)
	e.printf("    ID:        %s\n", h.ID)
	e.printf("    Idea:      %s\n", h.IdeaInput)
	if h.HookType != "" {
		e.printf("    Type:      %s\n", h.HookType)
	}
	e.printf("    Retention: %s\n", score(h.RetentionScore))
	if h.Niche != "" {
		e.printf("    Niche:     %s\n", h.Niche)
	}
	if h.Notes != "" {
		e.printf("    Notes:     %s\n", h.Notes)
	}
	e.printf("    Saved:     %s\n", when(h.CreatedAt))
}

func (e *env) renderGenerated(hooks []models.GeneratedHook) {
	for i, h := range hooks {
		e.printf("[%d] %s\n", i+1, h.Text)
		e.printf("    %s, retention %s", h.Type, humanize.FtoaWithDigits(h.RetentionScore, 1))
		if h.Description != "" {
			e.printf(": %s", h.Description)
		}
		e.printf("\n")
	}
}

func (e *env) renderOverview(s dashboard.Summary) {
	e.printf("Videos analysed: %s\n", humanize.Comma(int64(s.Stats.TotalVideos)))
	e.printf("Hooks saved:     %s\n", humanize.Comma(int64(s.Stats.TotalHooks)))
	e.printf("Avg retention:   %s\n", humanize.FtoaWithDigits(s.Stats.AvgRetention, 1))
	e.printf("Hooks this week: %d\n", s.Stats.ThisWeekHooks)
	if s.Stats.TotalHooks > 0 {
		t := s.Stats.Types
		e.printf("Hook types:      emocional %d (%s%%), racional %d (%s%%), otros %d (%s%%)\n",
			t.Emotional, humanize.FtoaWithDigits(dashboard.Share(t.Emotional, s.Stats.TotalHooks), 0),
			t.Rational, humanize.FtoaWithDigits(dashboard.Share(t.Rational, s.Stats.TotalHooks), 0),
			t.Other, humanize.FtoaWithDigits(dashboard.Share(t.Other, s.Stats.TotalHooks), 0))
	}

	if len(s.Analyses) > 0 {
		e.printf("\nRecent analyses\n")
		for _, a := range s.Analyses {
			label := a.VideoTitle
			if label == "" {
				label = a.VideoURL
			}
			e.printf("  %-60s %s\n", truncate(label, 60), when(a.CreatedAt))
		}
	}
	if len(s.Hooks) > 0 {
		e.printf("\nRecent hooks\n")
		for _, h := range s.Hooks {
			e.printf("  %-60s %s\n", truncate(h.HookText, 60), when(h.CreatedAt))
		}
	}
}
