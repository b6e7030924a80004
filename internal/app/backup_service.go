package app

import (
	"context"
	"fmt"

	"github.com/eglogicsabhishek1/jbe-management/internal/domain/backup"
	"github.com/sirupsen/logrus"
)

// BackupService exposes restore and snapshot listing. Restore is destructive,
// so it takes the same per-table run lock as distribution runs: a restore can
// never interleave with an in-flight run.
type BackupService struct {
	backups backup.Store
	locker  RunLocker
	logger  *logrus.Logger
}

func NewBackupService(bs backup.Store, locker RunLocker, logger *logrus.Logger) *BackupService {
	return &BackupService{backups: bs, locker: locker, logger: logger}
}

// Restore replaces the live table's contents with the snapshot at versionTag.
// Returns backup.ErrSnapshotNotFound (wrapped) for unknown tags.
func (s *BackupService) Restore(ctx context.Context, tableName, versionTag string) error {
	release, err := s.locker.Acquire(ctx, tableName)
	if err != nil {
		return fmt.Errorf("failed to acquire run lock for %q: %w", tableName, err)
	}
	defer release()

	if err := s.backups.Restore(ctx, tableName, versionTag); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"table":    tableName,
		"snapshot": versionTag,
	}).Info("Table restored from snapshot")
	return nil
}

// List returns the known snapshots for the table, newest first.
func (s *BackupService) List(ctx context.Context, tableName string) ([]backup.Snapshot, error) {
	return s.backups.List(ctx, tableName)
}
