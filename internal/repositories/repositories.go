package repositories

import (
	"context"
	"errors"

	"github.com/hookscontent/hooks/internal/models"
)

var (
	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an email or id is already taken.
	ErrConflict = errors.New("record already exists")
)

// UserRepository defines the data access contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	FindByID(ctx context.Context, id string) (models.Account, error)
}

// AnalysisRecord is a saved video analysis with the fields that are stored
// but not listed.
type AnalysisRecord struct {
	models.VideoAnalysis
	VideoDuration int
	Metadata      map[string]any
}

// AnalysisRepository stores video analyses per user.
type AnalysisRepository interface {
	Create(ctx context.Context, record AnalysisRecord) error
	// ListByUser returns one page, newest first, and the user's total.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.VideoAnalysis, int, error)
}

// HookRecord is a saved viral hook with its stored-only fields.
type HookRecord struct {
	models.ViralHook
	Metadata map[string]any
}

// HookRepository stores viral hooks per user.
type HookRepository interface {
	Create(ctx context.Context, record HookRecord) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ViralHook, int, error)
}
