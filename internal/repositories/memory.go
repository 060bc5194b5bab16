package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hookscontent/hooks/internal/models"
)

// MemoryUserRepository keeps accounts in process memory.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.Account
	byEmail map[string]string
}

// NewMemoryUserRepository constructs an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]models.Account),
		byEmail: make(map[string]string),
	}
}

// Create stores account; emails are unique regardless of case.
func (r *MemoryUserRepository) Create(_ context.Context, account models.Account) error {
	email := strings.ToLower(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[account.ID]; ok {
		return ErrConflict
	}
	if _, ok := r.byEmail[email]; ok {
		return ErrConflict
	}
	r.byID[account.ID] = account
	r.byEmail[email] = account.ID
	return nil
}

// FindByEmail looks an account up by email.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

// FindByID looks an account up by id.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return account, nil
}

// userList holds items owned by users, kept newest first.
type userList[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) string
	owner func(T) string
	newer func(a, b T) bool
}

func (l *userList[T]) add(item T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.items {
		if l.id(existing) == l.id(item) {
			return ErrConflict
		}
	}
	l.items = append(l.items, item)
	sort.SliceStable(l.items, func(i, j int) bool { return l.newer(l.items[i], l.items[j]) })
	return nil
}

func (l *userList[T]) page(userID string, limit, offset int) ([]T, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var owned []T
	for _, item := range l.items {
		if l.owner(item) == userID {
			owned = append(owned, item)
		}
	}

	total := len(owned)
	if offset >= total {
		return []T{}, total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]T(nil), owned[offset:end]...), total
}

// MemoryAnalysisRepository keeps analyses in process memory.
type MemoryAnalysisRepository struct {
	list userList[AnalysisRecord]
}

// NewMemoryAnalysisRepository constructs an empty repository.
func NewMemoryAnalysisRepository() *MemoryAnalysisRepository {
	return &MemoryAnalysisRepository{list: userList[AnalysisRecord]{
		id:    func(r AnalysisRecord) string { return r.ID },
		owner: func(r AnalysisRecord) string { return r.UserID },
		newer: func(a, b AnalysisRecord) bool { return a.CreatedAt.After(b.CreatedAt) },
	}}
}

// Create stores record.
func (r *MemoryAnalysisRepository) Create(_ context.Context, record AnalysisRecord) error {
	return r.list.add(record)
}

// ListByUser returns one page of the user's analyses.
func (r *MemoryAnalysisRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.VideoAnalysis, int, error) {
	records, total := r.list.page(userID, limit, offset)
	out := make([]models.VideoAnalysis, 0, len(records))
	for _, record := range records {
		out = append(out, record.VideoAnalysis)
	}
	return out, total, nil
}

// MemoryHookRepository keeps viral hooks in process memory.
type MemoryHookRepository struct {
	list userList[HookRecord]
}

// NewMemoryHookRepository constructs an empty repository.
func NewMemoryHookRepository() *MemoryHookRepository {
	return &MemoryHookRepository{list: userList[HookRecord]{
		id:    func(r HookRecord) string { return r.ID },
		owner: func(r HookRecord) string { return r.UserID },
		newer: func(a, b HookRecord) bool { return a.CreatedAt.After(b.CreatedAt) },
	}}
}

// Create stores record.
func (r *MemoryHookRepository) Create(_ context.Context, record HookRecord) error {
	return r.list.add(record)
}

// ListByUser returns one page of the user's hooks.
func (r *MemoryHookRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.ViralHook, int, error) {
	records, total := r.list.page(userID, limit, offset)
	out := make([]models.ViralHook, 0, len(records))
	for _, record := range records {
		out = append(out, record.ViralHook)
	}
	return out, total, nil
}

var (
	_ UserRepository     = (*MemoryUserRepository)(nil)
	_ AnalysisRepository = (*MemoryAnalysisRepository)(nil)
	_ HookRepository     = (*MemoryHookRepository)(nil)
)
