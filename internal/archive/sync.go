package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
)

// PageSize is how many records Sync asks for per request.
const PageSize = 50

// Source is the part of services.VideoService Sync pages through.
type Source interface {
	GetVideoAnalyses(ctx context.Context, userID string, limit, offset int) (models.VideoAnalysisList, error)
	GetViralHooks(ctx context.Context, userID string, limit, offset int) (models.ViralHookList, error)
}

// SyncResult reports how many records were written.
type SyncResult struct {
	Analyses int
	Hooks    int
	SyncedAt time.Time
}

// Sync mirrors every saved analysis and hook of userID into the archive.
// Records are upserted by id, so repeated syncs are safe.
func (a *Archive) Sync(ctx context.Context, src Source, userID string) (SyncResult, error) {
	ctx, span := logging.StartSpan(ctx, "archive.sync")
	syncedAt := a.now()
	result := SyncResult{SyncedAt: syncedAt}

	for offset := 0; ; {
		page, err := src.GetVideoAnalyses(ctx, userID, PageSize, offset)
		if err != nil {
			span.End(err)
			return result, fmt.Errorf("fetch analyses at offset %d: %w", offset, err)
		}
		if err := a.upsertAnalyses(ctx, userID, page.Data, syncedAt); err != nil {
			span.End(err)
			return result, err
		}
		result.Analyses += len(page.Data)
		offset += len(page.Data)
		if len(page.Data) == 0 || offset >= page.Total {
			break
		}
	}

	for offset := 0; ; {
		page, err := src.GetViralHooks(ctx, userID, PageSize, offset)
		if err != nil {
			span.End(err)
			return result, fmt.Errorf("fetch hooks at offset %d: %w", offset, err)
		}
		if err := a.upsertHooks(ctx, userID, page.Data, syncedAt); err != nil {
			span.End(err)
			return result, err
		}
		result.Hooks += len(page.Data)
		offset += len(page.Data)
		if len(page.Data) == 0 || offset >= page.Total {
			break
		}
	}

	_, err := a.conn.ExecContext(ctx, `
		INSERT INTO sync_log (user_id, analyses, hooks, synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			analyses = excluded.analyses,
			hooks = excluded.hooks,
			synced_at = excluded.synced_at
	`, userID, result.Analyses, result.Hooks, formatTime(syncedAt))
	if err != nil {
		err = fmt.Errorf("record sync: %w", err)
	}

	span.End(err, "analyses", result.Analyses, "hooks", result.Hooks)
	return result, err
}

func (a *Archive) upsertAnalyses(ctx context.Context, userID string, items []models.VideoAnalysis, syncedAt time.Time) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO video_analyses (id, user_id, video_url, video_title, hook, transcript, script_base, platform, created_at, updated_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			video_url = excluded.video_url,
			video_title = excluded.video_title,
			hook = excluded.hook,
			transcript = excluded.transcript,
			script_base = excluded.script_base,
			platform = excluded.platform,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at
	`)
	if err != nil {
		return fmt.Errorf("prepare analysis upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		var hook sql.NullString
		if item.Hook != nil && !item.Hook.IsZero() {
			raw, err := json.Marshal(item.Hook)
			if err != nil {
				return fmt.Errorf("encode hook for %s: %w", item.ID, err)
			}
			hook = sql.NullString{String: string(raw), Valid: true}
		}

		owner := item.UserID
		if owner == "" {
			owner = userID
		}

		if _, err := stmt.ExecContext(ctx,
			item.ID, owner, item.VideoURL, nullString(item.VideoTitle), hook,
			nullString(item.Transcript), nullString(item.ScriptBase), nullString(item.Platform),
			formatTime(item.CreatedAt), formatTime(item.UpdatedAt), formatTime(syncedAt),
		); err != nil {
			return fmt.Errorf("upsert analysis %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit analyses: %w", err)
	}
	return nil
}

func (a *Archive) upsertHooks(ctx context.Context, userID string, items []models.ViralHook, syncedAt time.Time) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO viral_hooks (id, user_id, idea_input, hook_text, hook_type, retention_score, niche, notes, created_at, updated_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			idea_input = excluded.idea_input,
			hook_text = excluded.hook_text,
			hook_type = excluded.hook_type,
			retention_score = excluded.retention_score,
			niche = excluded.niche,
			notes = excluded.notes,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at
	`)
	if err != nil {
		return fmt.Errorf("prepare hook upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		var score sql.NullFloat64
		if item.RetentionScore != nil {
			score = sql.NullFloat64{Float64: *item.RetentionScore, Valid: true}
		}

		owner := item.UserID
		if owner == "" {
			owner = userID
		}

		if _, err := stmt.ExecContext(ctx,
			item.ID, owner, item.IdeaInput, item.HookText, nullString(item.HookType), score,
			nullString(item.Niche), nullString(item.Notes),
			formatTime(item.CreatedAt), formatTime(item.UpdatedAt), formatTime(syncedAt),
		); err != nil {
			return fmt.Errorf("upsert hook %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit hooks: %w", err)
	}
	return nil
}
