package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hookscontent/hooks/internal/db"
	"github.com/hookscontent/hooks/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for accounts.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new account.
func (r *PostgresUserRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, full_name, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, account.ID, strings.ToLower(account.Email), account.FullName, account.PasswordHash, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches an account by email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	return r.findOne(ctx, "email", strings.ToLower(email))
}

// FindByID fetches an account by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, full_name, password_hash, created_at, updated_at
        FROM users
        WHERE `+column+` = $1
    `, value)

	var account models.Account
	if err := row.Scan(&account.ID, &account.Email, &account.FullName, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	return account, nil
}

// PostgresAnalysisRepository provides PostgreSQL-backed persistence for
// video analyses.
type PostgresAnalysisRepository struct {
	pool db.Pool
}

// NewPostgresAnalysisRepository constructs an analysis repository backed by PostgreSQL.
func NewPostgresAnalysisRepository(pool db.Pool) *PostgresAnalysisRepository {
	return &PostgresAnalysisRepository{pool: pool}
}

// Create stores a new analysis.
func (r *PostgresAnalysisRepository) Create(ctx context.Context, record AnalysisRecord) error {
	hook, err := jsonColumn(record.Hook)
	if err != nil {
		return fmt.Errorf("encode hook: %w", err)
	}
	metadata, err := jsonColumn(record.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO video_analyses (id, user_id, video_url, video_title, video_duration, platform, transcript, hook, script_base, metadata, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, record.ID, record.UserID, record.VideoURL, record.VideoTitle, record.VideoDuration, record.Platform,
		record.Transcript, hook, record.ScriptBase, metadata, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video analysis: %w", err)
	}

	return nil
}

// ListByUser returns one page of the user's analyses, newest first.
func (r *PostgresAnalysisRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.VideoAnalysis, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM video_analyses WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count video analyses: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, video_url, video_title, platform, transcript, hook, script_base, created_at, updated_at
        FROM video_analyses
        WHERE user_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3
    `, userID, pageLimit(limit), offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query video analyses: %w", err)
	}
	defer rows.Close()

	analyses := []models.VideoAnalysis{}
	for rows.Next() {
		var (
			a    models.VideoAnalysis
			hook []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.VideoURL, &a.VideoTitle, &a.Platform, &a.Transcript, &hook, &a.ScriptBase, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan video analysis: %w", err)
		}
		if len(hook) > 0 {
			var h models.Hook
			if err := json.Unmarshal(hook, &h); err != nil {
				return nil, 0, fmt.Errorf("decode hook of %s: %w", a.ID, err)
			}
			if !h.IsZero() {
				a.Hook = &h
			}
		}
		a.CreatedAt = a.CreatedAt.UTC()
		a.UpdatedAt = a.UpdatedAt.UTC()
		analyses = append(analyses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate video analyses: %w", err)
	}

	return analyses, total, nil
}

// PostgresHookRepository provides PostgreSQL-backed persistence for viral hooks.
type PostgresHookRepository struct {
	pool db.Pool
}

// NewPostgresHookRepository constructs a hook repository backed by PostgreSQL.
func NewPostgresHookRepository(pool db.Pool) *PostgresHookRepository {
	return &PostgresHookRepository{pool: pool}
}

// Create stores a new viral hook.
func (r *PostgresHookRepository) Create(ctx context.Context, record HookRecord) error {
	metadata, err := jsonColumn(record.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO viral_hooks (id, user_id, idea_input, hook_text, hook_type, retention_score, niche, notes, metadata, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, record.ID, record.UserID, record.IdeaInput, record.HookText, record.HookType, record.RetentionScore,
		record.Niche, record.Notes, metadata, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert viral hook: %w", err)
	}

	return nil
}

// ListByUser returns one page of the user's hooks, newest first.
func (r *PostgresHookRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ViralHook, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM viral_hooks WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count viral hooks: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, idea_input, hook_text, hook_type, retention_score, niche, notes, created_at, updated_at
        FROM viral_hooks
        WHERE user_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3
    `, userID, pageLimit(limit), offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query viral hooks: %w", err)
	}
	defer rows.Close()

	hooks := []models.ViralHook{}
	for rows.Next() {
		var h models.ViralHook
		if err := rows.Scan(&h.ID, &h.UserID, &h.IdeaInput, &h.HookText, &h.HookType, &h.RetentionScore, &h.Niche, &h.Notes, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan viral hook: %w", err)
		}
		h.CreatedAt = h.CreatedAt.UTC()
		h.UpdatedAt = h.UpdatedAt.UTC()
		hooks = append(hooks, h)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate viral hooks: %w", err)
	}

	return hooks, total, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// jsonColumn encodes v for a JSONB column; empty values are stored as NULL.
func jsonColumn(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *models.Hook:
		if t == nil || t.IsZero() {
			return nil, nil
		}
	case map[string]any:
		if len(t) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// pageLimit maps a non-positive limit to no limit.
func pageLimit(limit int) int64 {
	if limit <= 0 {
		return math.MaxInt64
	}
	return int64(limit)
}

var (
	_ UserRepository     = (*PostgresUserRepository)(nil)
	_ AnalysisRepository = (*PostgresAnalysisRepository)(nil)
	_ HookRepository     = (*PostgresHookRepository)(nil)
)
