package app

import (
	"context"
	"fmt"
	"time"

	"github.com/eglogicsabhishek1/jbe-management/internal/domain/alerts"
	"github.com/eglogicsabhishek1/jbe-management/internal/domain/backup"
	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the distribution workflow.
var ErrBackupFailed = fmt.Errorf("pre-run backup failed")
var ErrMutationFailed = fmt.Errorf("bulk mutation failed")

// RunLocker provides per-table mutual exclusion: at most one distribution run
// or restore may be in flight per table.
type RunLocker interface {
	Acquire(ctx context.Context, tableName string) (release func(), err error)
}

// RunNotifier receives completed distribution runs, e.g. to alert operators
// over Telegram. Implementations must not block for long.
type RunNotifier interface {
	NotifyRunCompleted(ctx context.Context, run *alerts.Run)
}

// SnapshotArchiver ships a committed snapshot to offsite storage. Archiving
// is best-effort: failures are logged, never fatal to the operation that
// created the snapshot.
type SnapshotArchiver interface {
	Archive(ctx context.Context, tableName, versionTag string) error
}

// DistributionService coordinates distribution runs. It is the only writer of
// partition assignments and always snapshots the table before mutating it.
type DistributionService struct {
	alertRepo alerts.Repository
	backups   backup.Store
	locker    RunLocker
	notifier  RunNotifier      // optional
	archiver  SnapshotArchiver // optional
	tableName string
	logger    *logrus.Logger
}

func NewDistributionService(
	ar alerts.Repository,
	bs backup.Store,
	locker RunLocker,
	notifier RunNotifier,
	archiver SnapshotArchiver,
	tableName string,
	logger *logrus.Logger,
) *DistributionService {
	return &DistributionService{
		alertRepo: ar,
		backups:   bs,
		locker:    locker,
		notifier:  notifier,
		archiver:  archiver,
		tableName: tableName,
		logger:    logger,
	}
}

// RunDistribution executes one distribution run:
// lock -> list active users -> snapshot -> assign -> bulk update -> commit.
// A failed snapshot aborts the run before any mutation. A failed bulk update
// restores the table from the pre-run snapshot and reports the run as rolled
// back; the rolled-back run is returned with a nil error so the caller can
// inspect its cause. Nothing is retried automatically.
func (s *DistributionService) RunDistribution(ctx context.Context, partitionCount int, referenceDate time.Time) (*alerts.Run, error) {
	if partitionCount < 1 {
		return nil, fmt.Errorf("%w: got %d", alerts.ErrInvalidPartitionCount, partitionCount)
	}

	run := &alerts.Run{
		StartedAt:      time.Now(),
		PartitionCount: partitionCount,
		ReferenceDate:  referenceDate,
		State:          alerts.RunStatePending,
	}

	release, err := s.locker.Acquire(ctx, s.tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock for %q: %w", s.tableName, err)
	}
	defer release()

	users, err := s.alertRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"table":      s.tableName,
		"users":      len(users),
		"partitions": partitionCount,
	}).Info("Starting distribution run")

	run.State = alerts.RunStateSnapshotting
	tag, err := s.backups.Snapshot(ctx, s.tableName)
	if err != nil {
		// Table untouched: no mutation is attempted without a snapshot.
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	run.SnapshotTag = tag
	s.archiveSnapshot(ctx, tag)

	run.State = alerts.RunStateAssigning
	assignments, skipped, err := alerts.AssignPartitions(users, partitionCount, referenceDate)
	if err != nil {
		return nil, err
	}
	run.Skipped = skipped
	for _, sk := range skipped {
		s.logger.WithFields(logrus.Fields{
			"user_id":   sk.UserID,
			"frequency": string(sk.Frequency),
		}).Warn("User skipped: unrecognized frequency")
	}

	run.State = alerts.RunStateMutating
	affected, err := s.alertRepo.ApplyAssignments(ctx, assignments)
	if err != nil {
		s.logger.WithError(err).WithField("snapshot", tag).Error("Bulk update failed; restoring pre-run snapshot")
		if restoreErr := s.backups.Restore(ctx, s.tableName, tag); restoreErr != nil {
			return nil, fmt.Errorf("%w: %w (restore from snapshot %s also failed: %v)",
				ErrMutationFailed, err, tag, restoreErr)
		}
		run.State = alerts.RunStateRolledBack
		run.Cause = fmt.Errorf("%w: %w", ErrMutationFailed, err)
		run.FinishedAt = time.Now()
		s.notifyCompleted(ctx, run)
		return run, nil
	}

	run.RowsAffected = affected
	run.State = alerts.RunStateCommitted
	run.FinishedAt = time.Now()
	s.logger.WithFields(logrus.Fields{
		"table":         s.tableName,
		"snapshot":      tag,
		"rows_affected": affected,
		"skipped":       len(skipped),
		"duration":      run.FinishedAt.Sub(run.StartedAt).String(),
	}).Info("Distribution run committed")
	s.notifyCompleted(ctx, run)
	return run, nil
}

func (s *DistributionService) archiveSnapshot(ctx context.Context, tag string) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, s.tableName, tag); err != nil {
		s.logger.WithError(err).WithField("snapshot", tag).Warn("Offsite snapshot archive failed")
	}
}

func (s *DistributionService) notifyCompleted(ctx context.Context, run *alerts.Run) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyRunCompleted(ctx, run)
}
