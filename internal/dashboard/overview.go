package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
)

// RecentLimit is how many items of each kind the overview fetches.
const RecentLimit = 10

// Lister is the part of services.VideoService the overview reads from.
type Lister interface {
	GetVideoAnalyses(ctx context.Context, userID string, limit, offset int) (models.VideoAnalysisList, error)
	GetViralHooks(ctx context.Context, userID string, limit, offset int) (models.ViralHookList, error)
}

// Stats are the headline numbers shown on the overview.
type Stats struct {
	TotalVideos   int
	TotalHooks    int
	AvgRetention  float64
	ThisWeekHooks int
	Types         TypeBreakdown
}

// TypeBreakdown counts the fetched hooks by type. Anything that is neither
// emotional nor rational lands in Other.
type TypeBreakdown struct {
	Emotional int
	Rational  int
	Other     int
}

// Share is count as a percentage of total, zero when total is zero.
func Share(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}

// Summary is everything the overview renders.
type Summary struct {
	Analyses []models.VideoAnalysis
	Hooks    []models.ViralHook
	Stats    Stats
}

// Overview loads the dashboard summary for one user.
type Overview struct {
	lister Lister
	now    func() time.Time
}

// NewOverview returns an Overview reading from lister.
func NewOverview(lister Lister) *Overview {
	return &Overview{lister: lister, now: time.Now}
}

// Load fetches the latest analyses and hooks concurrently and waits for both.
// If either call fails the other is cancelled and the first error returned.
func (o *Overview) Load(ctx context.Context, userID string) (Summary, error) {
	ctx, span := logging.StartSpan(ctx, "dashboard.overview")

	var (
		analyses models.VideoAnalysisList
		hooks    models.ViralHookList
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := o.lister.GetVideoAnalyses(gctx, userID, RecentLimit, 0)
		if err != nil {
			return fmt.Errorf("load analyses: %w", err)
		}
		analyses = list
		return nil
	})
	g.Go(func() error {
		list, err := o.lister.GetViralHooks(gctx, userID, RecentLimit, 0)
		if err != nil {
			return fmt.Errorf("load hooks: %w", err)
		}
		hooks = list
		return nil
	})

	if err := g.Wait(); err != nil {
		span.End(err)
		return Summary{}, err
	}

	summary := Summary{
		Analyses: analyses.Data,
		Hooks:    hooks.Data,
		Stats:    ComputeStats(analyses, hooks, o.now()),
	}
	span.End(nil, "analyses", len(summary.Analyses), "hooks", len(summary.Hooks))
	return summary, nil
}

// ComputeStats derives the overview numbers. Totals come from the server;
// the averages only see the fetched page. Hooks without a retention score
// count as zero.
func ComputeStats(analyses models.VideoAnalysisList, hooks models.ViralHookList, now time.Time) Stats {
	stats := Stats{
		TotalVideos: analyses.Total,
		TotalHooks:  hooks.Total,
	}

	if len(hooks.Data) == 0 {
		return stats
	}

	weekAgo := now.AddDate(0, 0, -7)
	var sum float64
	for _, h := range hooks.Data {
		if h.RetentionScore != nil {
			sum += *h.RetentionScore
		}
		if h.CreatedAt.After(weekAgo) {
			stats.ThisWeekHooks++
		}
		switch strings.ToLower(strings.TrimSpace(h.HookType)) {
		case "emocional":
			stats.Types.Emotional++
		case "racional":
			stats.Types.Rational++
		default:
			stats.Types.Other++
		}
	}
	stats.AvgRetention = sum / float64(len(hooks.Data))
	return stats
}
