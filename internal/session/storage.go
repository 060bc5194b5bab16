package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Key is the fixed name the session record is stored under.
const Key = "auth"

var (
	// ErrNotFound indicates no session record has been written.
	ErrNotFound = errors.New("session record not found")
	// ErrStorageUnavailable indicates the backing storage refused the operation.
	ErrStorageUnavailable = errors.New("session storage unavailable")
)

// Storage persists the raw session record under a single fixed key.
type Storage interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
}

// FileStorage keeps the record in <dir>/auth.json. Writes are atomic and
// guarded by an advisory lock so concurrent CLI invocations do not interleave.
type FileStorage struct {
	dir string

	mu       sync.Mutex
	initOnce sync.Once
	initErr  error
	lock     *flock.Flock
}

// NewFileStorage returns a FileStorage rooted at dir. Nothing touches the
// filesystem until the first operation.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

// Path returns the location of the session record.
func (s *FileStorage) Path() string {
	return filepath.Join(s.dir, Key+".json")
}

func (s *FileStorage) init() error {
	s.initOnce.Do(func() {
		if err := os.MkdirAll(s.dir, 0o700); err != nil {
			s.initErr = fmt.Errorf("create session dir: %w", err)
			return
		}
		s.lock = flock.New(filepath.Join(s.dir, Key+".lock"))
	})
	return s.initErr
}

// Read returns the stored record or ErrNotFound.
func (s *FileStorage) Read(ctx context.Context) ([]byte, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if !locked {
		return nil, ErrStorageUnavailable
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	return data, nil
}

// Write replaces the stored record.
func (s *FileStorage) Write(ctx context.Context, data []byte) error {
	if err := s.init(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	if !locked {
		return ErrStorageUnavailable
	}
	defer s.lock.Unlock()

	tmp, err := os.CreateTemp(s.dir, Key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session: %w", err)
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Remove deletes the stored record. Removing a missing record is not an error.
func (s *FileStorage) Remove(ctx context.Context) error {
	if err := s.init(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	if !locked {
		return ErrStorageUnavailable
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// MemoryStorage implements Storage in memory for tests and ephemeral runs.
type MemoryStorage struct {
	mu   sync.RWMutex
	data []byte

	// FailWrites makes Write and Remove return ErrStorageUnavailable.
	FailWrites bool
	// FailReads makes Read return ErrStorageUnavailable.
	FailReads bool
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Read returns a copy of the stored record.
func (m *MemoryStorage) Read(context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailReads {
		return nil, ErrStorageUnavailable
	}
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

// Write stores a copy of data.
func (m *MemoryStorage) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrStorageUnavailable
	}
	m.data = append([]byte(nil), data...)
	return nil
}

// Remove drops the stored record.
func (m *MemoryStorage) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrStorageUnavailable
	}
	m.data = nil
	return nil
}

// Raw exposes the stored bytes to tests.
func (m *MemoryStorage) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}
