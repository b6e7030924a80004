package scheduler

import (
	"context"
	"time"

	"github.com/eglogicsabhishek1/jbe-management/internal/app"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DistributionScheduler triggers periodic distribution runs. The run itself
// enforces mutual exclusion, so an overlapping trigger simply fails with
// a run-in-progress error instead of corrupting assignments.
type DistributionScheduler struct {
	cronEngine     *cron.Cron
	distributor    *app.DistributionService
	cronSpec       string
	partitionCount int
	logger         *logrus.Logger
}

func NewDistributionScheduler(
	distributor *app.DistributionService,
	cronSpec string, // e.g. "0 2 * * *" (02:00 daily)
	partitionCount int,
	logger *logrus.Logger,
) *DistributionScheduler {
	return &DistributionScheduler{
		cronEngine:     cron.New(cron.WithLocation(time.Local)),
		distributor:    distributor,
		cronSpec:       cronSpec,
		partitionCount: partitionCount,
		logger:         logger,
	}
}

func (s *DistributionScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for scheduled distribution run")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		now := time.Now().UTC()
		referenceDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		run, err := s.distributor.RunDistribution(ctx, s.partitionCount, referenceDate)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled distribution run failed")
			return
		}
		entry := s.logger.WithFields(logrus.Fields{
			"state":         string(run.State),
			"snapshot":      run.SnapshotTag,
			"rows_affected": run.RowsAffected,
			"skipped":       len(run.Skipped),
		})
		if run.Committed() {
			entry.Info("Scheduled distribution run committed")
		} else {
			entry.WithError(run.Cause).Error("Scheduled distribution run rolled back")
		}
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithField("cron", s.cronSpec).Info("Distribution scheduler started")
	return nil
}

func (s *DistributionScheduler) Stop() {
	s.logger.Info("Stopping distribution scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Distribution scheduler stopped")
}
