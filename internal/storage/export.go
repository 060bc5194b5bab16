package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hookscontent/hooks/internal/archive"
	"github.com/hookscontent/hooks/internal/logging"
)

// ErrEmptyKey is returned when an object key is blank.
var ErrEmptyKey = errors.New("storage: empty key")

// ObjectStore persists an export and returns where it ended up.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// DirStore writes objects below a local directory.
type DirStore struct {
	Root string
}

// Put writes r to Root/key.
func (d DirStore) Put(_ context.Context, key, _ string, r io.Reader) (string, error) {
	key = strings.TrimLeft(filepath.ToSlash(key), "/")
	if key == "" {
		return "", ErrEmptyKey
	}

	path := filepath.Join(d.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

// ExportKey names the object a snapshot is stored under.
func ExportKey(snap archive.Snapshot) string {
	return fmt.Sprintf("exports/%s/%s.json", snap.UserID, snap.ExportedAt.UTC().Format("20060102T150405Z"))
}

// ExportSnapshot encodes snap as indented JSON and stores it.
func ExportSnapshot(ctx context.Context, store ObjectStore, snap archive.Snapshot) (string, error) {
	ctx, span := logging.StartSpan(ctx, "archive.export")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		err = fmt.Errorf("encode snapshot: %w", err)
		span.End(err)
		return "", err
	}

	location, err := store.Put(ctx, ExportKey(snap), "application/json", &buf)
	span.End(err, "analyses", len(snap.Analyses), "hooks", len(snap.Hooks))
	return location, err
}
