// Package main implements the entry point for the Warbler API server,
// which orchestrates asynchronous transcription jobs for observation
// recordings.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wrenhall/warbler-api/internal/api"
	"github.com/wrenhall/warbler-api/internal/config"
	"github.com/wrenhall/warbler-api/internal/lock"
	"github.com/wrenhall/warbler-api/internal/notify"
	"github.com/wrenhall/warbler-api/internal/platform/gemini"
	"github.com/wrenhall/warbler-api/internal/platform/logger"
	"github.com/wrenhall/warbler-api/internal/platform/memory"
	"github.com/wrenhall/warbler-api/internal/platform/postgres"
	redisplatform "github.com/wrenhall/warbler-api/internal/platform/redis"
	s3platform "github.com/wrenhall/warbler-api/internal/platform/s3"
	"github.com/wrenhall/warbler-api/internal/scheduler"
	"github.com/wrenhall/warbler-api/internal/service"
	"github.com/wrenhall/warbler-api/internal/store"
	"github.com/wrenhall/warbler-api/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg := logger.Setup(cfg.Server.LogLevel)
	logg.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"tick_interval_minutes", cfg.Queue.TickIntervalMinutes)

	jobs, transcripts, locker, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	mediaStore, err := s3platform.New(ctx, s3platform.Config{
		Bucket:          cfg.Media.Bucket,
		Region:          cfg.Media.Region,
		Endpoint:        cfg.Media.Endpoint,
		ForcePathStyle:  cfg.Media.ForcePathStyle,
		AccessKeyID:     cfg.Media.AccessKeyID,
		SecretAccessKey: cfg.Media.SecretAccessKey,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize media store: %w", err)
	}

	trans, err := gemini.NewTranscriber(ctx, logg, gemini.Config{
		APIKey:          cfg.LLM.GeminiAPIKey,
		ModelName:       cfg.LLM.ModelName,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize transcriber: %w", err)
	}

	notifier := buildNotifier(cfg, logg)

	completer, err := worker.NewCompleter(jobs, transcripts, locker, notifier, worker.CompleterConfig{
		LockTimeout: cfg.Queue.LockTimeout,
		LockTTL:     cfg.Queue.LockTTL,
	}, logg)
	if err != nil {
		return fmt.Errorf("failed to build completer: %w", err)
	}

	poller, err := worker.NewPoller(jobs, trans, completer, notifier, worker.PollerConfig{
		MaxProcessingAge: cfg.Queue.MaxProcessingAge,
	}, logg)
	if err != nil {
		return fmt.Errorf("failed to build poller: %w", err)
	}

	submitter, err := worker.NewSubmitter(jobs, mediaStore, trans, notifier, worker.SubmitterConfig{
		MaxResourceBytes: cfg.Queue.MaxResourceBytes,
		MaxAttempts:      cfg.Queue.MaxAttempts,
	}, logg)
	if err != nil {
		return fmt.Errorf("failed to build submitter: %w", err)
	}

	drainer, err := worker.NewDrainer(jobs, submitter, poller, worker.DrainerConfig{
		TimeBudget:      cfg.Queue.TimeBudget,
		SubmitBatchSize: cfg.Queue.SubmitBatchSize,
	}, logg)
	if err != nil {
		return fmt.Errorf("failed to build drainer: %w", err)
	}

	sweeper, err := worker.NewSweeper(jobs, worker.SweeperConfig{
		Retention: time.Duration(cfg.Queue.RetentionDays) * 24 * time.Hour,
	}, logg)
	if err != nil {
		return fmt.Errorf("failed to build sweeper: %w", err)
	}

	sched := scheduler.New(logg, cfg.Queue.TimeBudget+time.Minute)
	if err := sched.InstallDrain(drainer, cfg.Queue.TickIntervalMinutes); err != nil {
		return err
	}
	if err := sched.InstallSweep(sweeper, cfg.Queue.SweepSchedule); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	jobService, err := service.NewJobService(jobs, mediaStore, service.JobServiceConfig{
		MaxResourceBytes: cfg.Queue.MaxResourceBytes,
		TickInterval:     time.Duration(cfg.Queue.TickIntervalMinutes) * time.Minute,
		SubmitBatchSize:  cfg.Queue.SubmitBatchSize,
	}, logg)
	if err != nil {
		return fmt.Errorf("failed to build job service: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(api.NewJobHandler(jobService)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logg.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildNotifier selects the notification transport from config.
func buildNotifier(cfg *config.Config, logg *slog.Logger) worker.Notifier {
	if cfg.Notifier.Kind == "smtp" {
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.Notifier.SMTPHost,
			Port:     cfg.Notifier.SMTPPort,
			From:     cfg.Notifier.SMTPFrom,
			Username: cfg.Notifier.SMTPUsername,
			Password: cfg.Notifier.SMTPPassword,
		}, logg)
	}
	return notify.NewLogNotifier(logg)
}

// buildStores constructs the persistence backend selected in config and
// the matching distributed locker.
func buildStores(ctx context.Context, cfg *config.Config) (
	store.JobStore, store.TranscriptStore, lock.Locker, func(), error,
) {
	switch cfg.Store.Backend {
	case "postgres":
		db, err := openDatabase(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return postgres.NewJobStore(db),
			postgres.NewTranscriptStore(db),
			postgres.NewAdvisoryLocker(db),
			func() { _ = db.Close() },
			nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		st := redisplatform.NewStore(client)
		return st, st,
			redisplatform.NewLocker(client),
			func() { _ = client.Close() },
			nil

	case "memory":
		st := memory.NewStore()
		return st, st, lock.NewLocalLocker(), func() {}, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
