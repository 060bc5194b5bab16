package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/hookscontent/hooks/internal/dashboard"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/services"
	"github.com/hookscontent/hooks/internal/validation"
)

func newAnalyzeCommand(e *env) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Extract the hook and script base of a video",
		Long: `Analyse a YouTube, TikTok or Instagram video: transcript, hook, and a
reusable script base. The backend may take a while; no timeout applies unless
HOOKS_REQUEST_TIMEOUT is set.`,
		Example: `  hookscontent analyze https://www.tiktok.com/@creator/video/123 --save`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			url := strings.TrimSpace(args[0])

			var user models.User
			if save {
				u, err := e.currentUser(ctx)
				if err != nil {
					return err
				}
				user = u
			}

			result, err := e.videos.AnalyzeVideo(ctx, url)
			if err != nil {
				return err
			}
			e.renderAnalysis(result)

			if !save {
				return nil
			}
			hook := result.Hook
			resp, err := e.videos.SaveVideoAnalysis(ctx, models.VideoAnalysisSaveRequest{
				UserID:     user.ID,
				VideoURL:   url,
				Transcript: result.Transcript,
				Hook:       &hook,
				ScriptBase: result.ScriptBase,
				Platform:   validation.Platform(url),
			})
			if err != nil {
				return err
			}
			e.printf("\nSaved analysis %s\n", resp.ID())
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the analysis to your account")
	return cmd
}

func newAnalysesCommand(e *env) *cobra.Command {
	var (
		limit   int
		offset  int
		offline bool
		full    bool
	)

	cmd := &cobra.Command{
		Use:   "analyses",
		Short: "List your saved video analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := e.currentUser(ctx)
			if err != nil {
				return err
			}

			if offline {
				return e.withArchive(func(a archiveReader) error {
					items, err := a.ListAnalyses(ctx, user.ID, limit, offset)
					if err != nil {
						return err
					}
					counts, err := a.Counts(ctx, user.ID)
					if err != nil {
						return err
					}
					e.renderAnalyses(items, counts.Analyses, full)
					return nil
				})
			}

			list, err := e.videos.GetVideoAnalyses(ctx, user.ID, limit, offset)
			if err != nil {
				return err
			}
			e.renderAnalyses(list.Data, list.Total, full)
			return nil
		},
	}

	addPageFlags(cmd, &limit, &offset)
	cmd.Flags().BoolVar(&offline, "offline", false, "Read from the local archive instead of the API")
	cmd.Flags().BoolVar(&full, "full", false, "Show every field of each record")
	return cmd
}

func newGenerateCommand(e *env) *cobra.Command {
	var (
		niche    string
		platform string
		saveN    int
	)

	cmd := &cobra.Command{
		Use:     "generate <idea>",
		Short:   "Write viral hook candidates for an idea",
		Example: `  hookscontent generate "ahorrar en pareja" --niche finanzas --platform tiktok --save 2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idea := strings.Join(args, " ")

			var user models.User
			if saveN != 0 {
				u, err := e.currentUser(ctx)
				if err != nil {
					return err
				}
				user = u
			}

			result, err := e.videos.GenerateHooks(ctx, idea, niche, platform)
			if err != nil {
				return err
			}
			e.renderGenerated(result.Hooks)

			if saveN == 0 {
				return nil
			}
			if saveN < 1 || saveN > len(result.Hooks) {
				return fmt.Errorf("--save must be between 1 and %d", len(result.Hooks))
			}
			chosen := result.Hooks[saveN-1]
			retention := chosen.RetentionScore
			resp, err := e.videos.SaveViralHook(ctx, models.ViralHookSaveRequest{
				UserID:         user.ID,
				IdeaInput:      idea,
				HookText:       chosen.Text,
				HookType:       chosen.Type,
				RetentionScore: &retention,
				Niche:          strings.TrimSpace(niche),
			})
			if err != nil {
				return err
			}
			e.printf("\nSaved hook %s\n", resp.ID())
			return nil
		},
	}

	cmd.Flags().StringVar(&niche, "niche", "", "Content niche, e.g. finanzas")
	cmd.Flags().StringVar(&platform, "platform", "", "Target platform: tiktok, instagram or youtube")
	cmd.Flags().IntVar(&saveN, "save", 0, "Save candidate N (1-based) to your account")
	return cmd
}

func newHooksCommand(e *env) *cobra.Command {
	var (
		limit   int
		offset  int
		offline bool
		full    bool
	)

	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "List your saved hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := e.currentUser(ctx)
			if err != nil {
				return err
			}

			if offline {
				return e.withArchive(func(a archiveReader) error {
					items, err := a.ListHooks(ctx, user.ID, limit, offset)
					if err != nil {
						return err
					}
					counts, err := a.Counts(ctx, user.ID)
					if err != nil {
						return err
					}
					e.renderHooks(items, counts.Hooks, full)
					return nil
				})
			}

			list, err := e.videos.GetViralHooks(ctx, user.ID, limit, offset)
			if err != nil {
				return err
			}
			e.renderHooks(list.Data, list.Total, full)
			return nil
		},
	}

	addPageFlags(cmd, &limit, &offset)
	cmd.Flags().BoolVar(&offline, "offline", false, "Read from the local archive instead of the API")
	cmd.Flags().BoolVar(&full, "full", false, "Show every field of each record")
	return cmd
}

func newOverviewCommand(e *env) *cobra.Command {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show your dashboard: totals and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := e.currentUser(ctx)
			if err != nil {
				return err
			}

			overview := dashboard.NewOverview(e.videos)
			if watch <= 0 {
				summary, err := overview.Load(ctx, user.ID)
				if err != nil {
					return err
				}
				e.renderOverview(summary)
				return nil
			}
			return e.watchOverview(ctx, overview, user.ID, watch)
		},
	}

	cmd.Flags().DurationVar(&watch, "watch", 0, "Refresh at this interval until interrupted")
	return cmd
}

// watchOverview reloads the overview every interval. A slow reload is
// cancelled by the next tick so only the newest result is printed.
func (e *env) watchOverview(ctx context.Context, overview *dashboard.Overview, userID string, interval time.Duration) error {
	var (
		latest dashboard.Latest
		mu     sync.Mutex
		wg     sync.WaitGroup
	)

	refresh := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := dashboard.RunLatest(ctx, &latest, func(ctx context.Context) (dashboard.Summary, error) {
				return overview.Load(ctx, userID)
			})
			if errors.Is(err, dashboard.ErrSuperseded) || ctx.Err() != nil {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.printf("refresh failed: %s\n", services.Message(err, "could not load the overview"))
				return
			}
			e.printf("\n-- %s --\n", now().Format(time.Kitchen))
			e.renderOverview(summary)
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh()
	for {
		select {
		case <-ctx.Done():
			latest.Cancel()
			wg.Wait()
			return nil
		case <-ticker.C:
			refresh()
		}
	}
}

func addPageFlags(cmd *cobra.Command, limit, offset *int) {
	cmd.Flags().IntVar(limit, "limit", services.DefaultPageSize, "Maximum number of records")
	cmd.Flags().IntVar(offset, "offset", 0, "Records to skip")
}
