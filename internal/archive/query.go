package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hookscontent/hooks/internal/models"
)

// Counts summarises what is archived for one user.
type Counts struct {
	Analyses   int
	Hooks      int
	LastSynced time.Time
}

// Snapshot is the full archive of one user, as exported.
type Snapshot struct {
	UserID     string                 `json:"user_id"`
	ExportedAt time.Time              `json:"exported_at"`
	Analyses   []models.VideoAnalysis `json:"analyses"`
	Hooks      []models.ViralHook     `json:"hooks"`
}

// ListAnalyses returns archived analyses, newest first. A non-positive limit
// returns everything.
func (a *Archive) ListAnalyses(ctx context.Context, userID string, limit, offset int) ([]models.VideoAnalysis, error) {
	rows, err := a.conn.QueryContext(ctx, `
		SELECT id, user_id, video_url, video_title, hook, transcript, script_base, platform, created_at, updated_at
		FROM video_analyses
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, userID, sqlLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []models.VideoAnalysis
	for rows.Next() {
		var (
			item                                          models.VideoAnalysis
			title, hook, transcript, scriptBase, platform sql.NullString
			createdAt, updatedAt                          string
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.VideoURL, &title, &hook, &transcript, &scriptBase, &platform, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		item.VideoTitle = title.String
		item.Transcript = transcript.String
		item.ScriptBase = scriptBase.String
		item.Platform = platform.String
		item.CreatedAt = parseTime(createdAt)
		item.UpdatedAt = parseTime(updatedAt)
		if hook.Valid {
			var h models.Hook
			if err := json.Unmarshal([]byte(hook.String), &h); err != nil {
				return nil, fmt.Errorf("decode hook for %s: %w", item.ID, err)
			}
			item.Hook = &h
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}

// ListHooks returns archived hooks, newest first. A non-positive limit
// returns everything.
func (a *Archive) ListHooks(ctx context.Context, userID string, limit, offset int) ([]models.ViralHook, error) {
	rows, err := a.conn.QueryContext(ctx, `
		SELECT id, user_id, idea_input, hook_text, hook_type, retention_score, niche, notes, created_at, updated_at
		FROM viral_hooks
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, userID, sqlLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("query hooks: %w", err)
	}
	defer rows.Close()

	var out []models.ViralHook
	for rows.Next() {
		var (
			item                   models.ViralHook
			hookType, niche, notes sql.NullString
			score                  sql.NullFloat64
			createdAt, updatedAt   string
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.IdeaInput, &item.HookText, &hookType, &score, &niche, &notes, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan hook: %w", err)
		}
		item.HookType = hookType.String
		item.Niche = niche.String
		item.Notes = notes.String
		if score.Valid {
			v := score.Float64
			item.RetentionScore = &v
		}
		item.CreatedAt = parseTime(createdAt)
		item.UpdatedAt = parseTime(updatedAt)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hooks: %w", err)
	}
	return out, nil
}

// Counts returns record counts and the last sync time for userID.
func (a *Archive) Counts(ctx context.Context, userID string) (Counts, error) {
	var c Counts
	if err := a.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM video_analyses WHERE user_id = ?", userID).Scan(&c.Analyses); err != nil {
		return Counts{}, fmt.Errorf("count analyses: %w", err)
	}
	if err := a.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM viral_hooks WHERE user_id = ?", userID).Scan(&c.Hooks); err != nil {
		return Counts{}, fmt.Errorf("count hooks: %w", err)
	}

	var synced string
	err := a.conn.QueryRowContext(ctx, "SELECT synced_at FROM sync_log WHERE user_id = ?", userID).Scan(&synced)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Counts{}, fmt.Errorf("read sync log: %w", err)
	default:
		c.LastSynced = parseTime(synced)
	}
	return c, nil
}

// Snapshot returns every archived record of userID.
func (a *Archive) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	analyses, err := a.ListAnalyses(ctx, userID, 0, 0)
	if err != nil {
		return Snapshot{}, err
	}
	hooks, err := a.ListHooks(ctx, userID, 0, 0)
	if err != nil {
		return Snapshot{}, err
	}
	if analyses == nil {
		analyses = []models.VideoAnalysis{}
	}
	if hooks == nil {
		hooks = []models.ViralHook{}
	}
	return Snapshot{
		UserID:     userID,
		ExportedAt: a.now().UTC(),
		Analyses:   analyses,
		Hooks:      hooks,
	}, nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
