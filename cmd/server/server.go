package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/api"
	job "github.com/maheshrc27/mixpost-api/internal/jobs"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/queue"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServerCmd(log *logrus.Logger) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the API server and publish worker",
		Long: `Start the HTTP API, the asynq publish worker and the maintenance cron.

The built-in publisher only logs each publish attempt and marks it
successful; no social provider is contacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), log, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true,
		"Run database migrations before starting")

	return cmd
}

func runServer(ctx context.Context, log *logrus.Logger, migrate bool) error {
	cfg := loadConfig(log)

	db, err := openDB(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeDB(log, db)

	if migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(registry)
	m.SetBuildInfo(Version)

	disks, uploads, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	users := repository.NewUserRepository(db)
	tokens := repository.NewApiTokenRepository(db)
	accounts := repository.NewAccountRepository(db)
	posts := repository.NewPostRepository(db)
	postAccounts := repository.NewPostAccountRepository(db)
	postTags := repository.NewPostTagRepository(db)
	versions := repository.NewPostVersionRepository(db)
	tags := repository.NewTagRepository(db)
	media := repository.NewMediaRepository(db)

	tokenService := service.NewTokenService(log, cfg.Token, users, tokens, m)
	postService := service.NewPostService(log, cfg.Location(), repository.NewTransactor(db),
		posts, accounts, tags, postAccounts, postTags, versions, queue.NewEnqueuer(client, log), m)
	uploader := service.NewMediaUploader(log, uploads, media, cfg.Media.MaxFileSizeKB, cfg.Media.ThumbWidth)
	mediaService := service.NewMediaService(log, media, uploader,
		service.NewDownloader(cfg.Media.DownloadTimeout, cfg.Media.MaxFileSizeKB, cfg.Media.TempDir), disks, m)

	srv := api.NewServer(cfg, log, m, registry, api.Services{
		Tokens:   tokenService,
		Posts:    postService,
		Media:    mediaService,
		Accounts: service.NewAccountService(log, accounts),
		Tags:     service.NewTagService(log, tags),
	})
	app := srv.App()

	worker := queue.NewQueue(log, posts, accounts, versions, postAccounts, service.NewLogPublisher(log), m)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypeSchedulePost, worker.HandleSchedulePostTask)

	queueServer := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
		Logger:      log.WithField("component", "asynq"),
	})
	if err := queueServer.Start(mux); err != nil {
		return err
	}
	defer queueServer.Shutdown()

	maintenance := job.NewMaintenanceJob(log, tokenService, posts)

	c := cron.New()
	if err := c.AddFunc(job.Schedule, maintenance.Run); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.ListenAddr)
	}()

	log.WithField("addr", cfg.ListenAddr).Info("Server is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig).Info("Received shutdown signal")
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	log.Info("Shutting down...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.WithError(err).Error("Failed to shut down HTTP server")
	}

	return nil
}

// newStorage returns every disk media can live on and the one new
// uploads are written to.
func newStorage(ctx context.Context, cfg *config.Config) ([]service.Storage, service.Storage, error) {
	local := service.NewLocalStorage(cfg.Media.LocalRoot, cfg.Media.PublicURL)
	disks := []service.Storage{local}

	switch cfg.Media.Disk {
	case models.DiskLocal:
		return disks, local, nil
	case models.DiskS3:
		r2, err := service.NewR2Storage(ctx, cfg.R2)
		if err != nil {
			return nil, nil, err
		}
		return append(disks, r2), r2, nil
	default:
		return nil, nil, errors.New("unsupported MEDIA_DISK " + cfg.Media.Disk)
	}
}
