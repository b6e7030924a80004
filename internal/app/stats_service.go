package app

import (
	"context"
	"fmt"

	"github.com/eglogicsabhishek1/jbe-management/internal/domain/alerts"
	"github.com/eglogicsabhishek1/jbe-management/internal/domain/backup"
	"github.com/sirupsen/logrus"
)

// CountReport is the result of one count operation, including the tag of the
// backup taken as a side effect of the request.
type CountReport struct {
	SnapshotTag string
	Groups      []alerts.FrequencyDateCount
	TotalUsers  int
}

// StatsService serves the read-only user-count aggregation. Every count takes
// an unconditional backup of the alerts table first; the snapshot is part of
// the endpoint's contract.
type StatsService struct {
	alertRepo alerts.Repository
	backups   backup.Store
	archiver  SnapshotArchiver // optional
	tableName string
	logger    *logrus.Logger
}

func NewStatsService(ar alerts.Repository, bs backup.Store, archiver SnapshotArchiver, tableName string, logger *logrus.Logger) *StatsService {
	return &StatsService{
		alertRepo: ar,
		backups:   bs,
		archiver:  archiver,
		tableName: tableName,
		logger:    logger,
	}
}

// CountActiveUsers snapshots the alerts table, then returns active-user
// counts grouped by (frequency, next_email_date). A failed backup fails the
// request: the endpoint's contract includes the snapshot.
func (s *StatsService) CountActiveUsers(ctx context.Context) (*CountReport, error) {
	tag, err := s.backups.Snapshot(ctx, s.tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	if s.archiver != nil {
		if archiveErr := s.archiver.Archive(ctx, s.tableName, tag); archiveErr != nil {
			s.logger.WithError(archiveErr).WithField("snapshot", tag).Warn("Offsite snapshot archive failed")
		}
	}

	groups, err := s.alertRepo.CountActiveByFrequencyAndDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	total := 0
	for _, g := range groups {
		total += g.Count
	}
	s.logger.WithFields(logrus.Fields{
		"table":       s.tableName,
		"snapshot":    tag,
		"groups":      len(groups),
		"total_users": total,
	}).Info("Active user count served")

	return &CountReport{SnapshotTag: tag, Groups: groups, TotalUsers: total}, nil
}
