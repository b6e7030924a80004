package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eglogicsabhishek1/jbe-management/internal/app"
	"github.com/eglogicsabhishek1/jbe-management/internal/infra/api"
	"github.com/eglogicsabhishek1/jbe-management/internal/infra/config"
	idb "github.com/eglogicsabhishek1/jbe-management/internal/infra/database"
	"github.com/eglogicsabhishek1/jbe-management/internal/infra/logger"
	"github.com/eglogicsabhishek1/jbe-management/internal/infra/s3archive"
	"github.com/eglogicsabhishek1/jbe-management/internal/infra/scheduler"
	"github.com/eglogicsabhishek1/jbe-management/internal/infra/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	log := logger.Get()
	log.WithFields(map[string]interface{}{
		"environment": cfg.Environment,
		"table":       cfg.AlertsTable,
	}).Info("JBE management service starting")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	log.Info("Database connection established")

	ctx := context.Background()
	if err := idb.EnsureSchema(ctx, db, cfg.AlertsTable); err != nil {
		log.WithError(err).Fatal("Could not initialize database schema")
	}

	alertRepo, err := idb.NewPostgresAlertRepository(db, cfg.AlertsTable)
	if err != nil {
		log.WithError(err).Fatal("Invalid alerts table configuration")
	}
	backupStore := idb.NewPostgresBackupStore(db)
	runLocker := idb.NewAdvisoryRunLocker(db)

	// Optional offsite snapshot archive.
	var archiver app.SnapshotArchiver
	if cfg.SnapshotBucket != "" {
		s3Client, err := s3archive.NewClient(ctx, s3archive.Options{
			Region:      cfg.AWSRegion,
			EndpointURL: cfg.AWSEndpointURL,
			AccessKeyID: cfg.AWSAccessKeyID,
			SecretKey:   cfg.AWSSecretKey,
			Bucket:      cfg.SnapshotBucket,
		})
		if err != nil {
			log.WithError(err).Fatal("Could not create S3 client for snapshot archive")
		}
		archiver = s3archive.NewArchiver(db, backupStore, s3Client, cfg.SnapshotBucket)
		log.WithField("bucket", cfg.SnapshotBucket).Info("Offsite snapshot archive enabled")
	}

	// Optional Telegram run notifications.
	var notifier app.RunNotifier
	if cfg.TelegramToken != "" {
		n, err := telegram.NewNotifier(cfg.TelegramToken, cfg.AdminChatID, log)
		if err != nil {
			log.WithError(err).Fatal("Could not create Telegram notifier")
		}
		notifier = n
		log.Info("Telegram run notifications enabled")
	}

	distributionSvc := app.NewDistributionService(alertRepo, backupStore, runLocker, notifier, archiver, cfg.AlertsTable, log)
	statsSvc := app.NewStatsService(alertRepo, backupStore, archiver, cfg.AlertsTable, log)
	backupSvc := app.NewBackupService(backupStore, runLocker, log)

	var distScheduler *scheduler.DistributionScheduler
	if cfg.DistributionCron != "" {
		distScheduler = scheduler.NewDistributionScheduler(distributionSvc, cfg.DistributionCron, cfg.DistributionParts, log)
		if err := distScheduler.Start(); err != nil {
			log.WithError(err).Fatal("Could not start distribution scheduler")
		}
	}

	handler := api.NewHandler(statsSvc, distributionSvc, backupSvc, cfg.AlertsTable)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      api.NewRouter(handler, cfg.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	if distScheduler != nil {
		distScheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced HTTP shutdown")
	}
	log.Info("Application shut down gracefully")
}
