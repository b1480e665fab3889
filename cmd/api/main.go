package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ovoda/invoice-tracker/internal/api/handlers"
	"github.com/ovoda/invoice-tracker/internal/config"
	"github.com/ovoda/invoice-tracker/internal/gcsuploader"
	"github.com/ovoda/invoice-tracker/internal/infra"
	"github.com/ovoda/invoice-tracker/internal/jobs"
	"github.com/ovoda/invoice-tracker/internal/jobs/inmemory"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Parse command-line flags
	var (
		port   = flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
		bucket = flag.String("bucket", cfg.GCSBucket, "GCS bucket name for document uploads (or set GCS_BUCKET env)")
	)
	flag.Parse()

	log := logger.NewWithOptions(os.Stdout, logger.Format(cfg.LogFormat), cfg.LogLevel)

	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - document uploads will be disabled")
	}
	if !cfg.OCREnabled() {
		log.Warn().Msg("Azure OCR not configured - only text documents can be parsed")
	}

	ctx := context.Background()

	repo, err := infra.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open repository")
	}
	defer repo.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.Options{
		BufferSize:  cfg.QueueSize,
		WorkerCount: cfg.WorkerCount,
		MaxRetries:  cfg.MaxRetries,
		JobTimeout:  cfg.JobTimeout,
	}, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, logger.WithComponent(log, "worker")))
	defer cancelWorker()

	deps := pipeline.NewDepsFromConfig(cfg, repo)
	log.Info().Str("parser_type", deps.ParserType()).Msg("Starting job worker")
	if err := jobQueue.Start(workerCtx, pipeline.NewJobHandler(deps)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}
	go pruneJobs(workerCtx, jobStore, cfg.JobRetention)

	handler := handlers.NewRouter(handlers.Handlers{
		Documents:  handlers.NewDocumentsHandler(repo, jobQueue, gcsuploader.NewGCSStorageService(), *bucket, cfg.UserID, log),
		Invoices:   handlers.NewInvoicesHandler(repo, log),
		Extract:    handlers.NewExtractHandler(nil),
		Categories: handlers.NewCategoriesHandler(repo, log),
		Jobs:       handlers.NewJobsHandler(jobStore, log),
	}, cfg.APIToken, logger.WithComponent(log, "http"))

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Str("backend", cfg.StoreBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

// pruneJobs drops finished jobs older than retention once an hour until ctx
// is cancelled.
func pruneJobs(ctx context.Context, js jobs.JobStore, retention time.Duration) {
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := js.PruneJobs(ctx, now.Add(-retention))
			if err != nil {
				log.Error().Err(err).Msg("Failed to prune jobs")
				continue
			}
			if n > 0 {
				log.Info().Int("pruned", n).Msg("Pruned finished jobs")
			}
		}
	}
}
