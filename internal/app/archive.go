package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hookscontent/hooks/internal/archive"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/storage"
)

// archiveReader is the read side of the local archive.
type archiveReader interface {
	ListAnalyses(ctx context.Context, userID string, limit, offset int) ([]models.VideoAnalysis, error)
	ListHooks(ctx context.Context, userID string, limit, offset int) ([]models.ViralHook, error)
	Counts(ctx context.Context, userID string) (archive.Counts, error)
}

// withArchive opens the archive for the duration of fn.
func (e *env) withArchive(fn func(a archiveReader) error) error {
	a, err := archive.Open(e.cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			e.logger.Warn("close archive", "error", err)
		}
	}()
	return fn(a)
}

func newSyncCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror your saved analyses and hooks into the local archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := e.currentUser(ctx)
			if err != nil {
				return err
			}

			a, err := archive.Open(e.cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Sync(ctx, e.videos, user.ID)
			if err != nil {
				return err
			}
			counts, err := a.Counts(ctx, user.ID)
			if err != nil {
				return err
			}

			e.printf("Synced %d analyses and %d hooks into %s\n", result.Analyses, result.Hooks, e.cfg.ArchivePath)
			e.printf("Archive holds %d analyses and %d hooks, last synced %s\n", counts.Analyses, counts.Hooks, when(counts.LastSynced))
			return nil
		},
	}
}

func newExportCommand(e *env) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the local archive as JSON",
		Long: `Export everything in the local archive for the signed-in user as one JSON
document. It is uploaded to HOOKS_EXPORT_BUCKET when set, otherwise written
below --dir (default: next to the archive).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := e.currentUser(ctx)
			if err != nil {
				return err
			}

			a, err := archive.Open(e.cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Snapshot(ctx, user.ID)
			if err != nil {
				return err
			}

			store, err := e.exportStore(ctx, dir)
			if err != nil {
				return err
			}
			location, err := storage.ExportSnapshot(ctx, store, snap)
			if err != nil {
				return fmt.Errorf("export archive: %w", err)
			}

			e.printf("Exported %d analyses and %d hooks to %s\n", len(snap.Analyses), len(snap.Hooks), location)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Write the export below this directory instead of uploading it")
	return cmd
}

// exportStore picks the bucket when configured and no directory was given.
func (e *env) exportStore(ctx context.Context, dir string) (storage.ObjectStore, error) {
	if dir == "" && strings.TrimSpace(e.cfg.Export.Bucket) != "" {
		return storage.NewS3Store(ctx, e.cfg.Export)
	}
	if dir == "" {
		dir = filepath.Dir(e.cfg.ArchivePath)
	}
	return storage.DirStore{Root: dir}, nil
}
