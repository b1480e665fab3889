package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/config"
	"github.com/ovoda/invoice-tracker/internal/infra"
	"github.com/ovoda/invoice-tracker/internal/jobs"
	"github.com/ovoda/invoice-tracker/internal/jobs/inmemory"
	"github.com/ovoda/invoice-tracker/internal/logger"
	"github.com/ovoda/invoice-tracker/internal/pipeline"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// The worker polls the store for PENDING documents (uploaded but never
// parsed) and runs the ingestion pipeline on each of them.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	interval := flag.Duration("interval", 30*time.Second, "How often to look for pending documents")
	once := flag.Bool("once", false, "Process pending documents once and exit")
	flag.Parse()

	log := logger.NewWithOptions(os.Stdout, logger.Format(cfg.LogFormat), cfg.LogLevel)

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), logger.WithComponent(log, "worker")))
	defer cancel()

	repo, err := infra.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open repository")
	}
	defer repo.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.Options{
		BufferSize:  cfg.QueueSize,
		WorkerCount: cfg.WorkerCount,
		MaxRetries:  cfg.MaxRetries,
		JobTimeout:  cfg.JobTimeout,
	}, jobStore)

	deps := pipeline.NewDepsFromConfig(cfg, repo)
	if err := jobQueue.Start(ctx, pipeline.NewJobHandler(deps)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().
		Str("parser_type", deps.ParserType()).
		Int("workers", cfg.WorkerCount).
		Dur("interval", *interval).
		Msg("Worker service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	queued := make(map[string]bool)
	enqueuePending(ctx, log, repo, jobQueue, jobStore, queued)

	if !*once {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
	loop:
		for {
			select {
			case <-ticker.C:
				if n, err := jobStore.PruneJobs(ctx, time.Now().Add(-cfg.JobRetention)); err == nil && n > 0 {
					log.Debug().Int("pruned", n).Msg("Pruned finished jobs")
				}
				enqueuePending(ctx, log, repo, jobQueue, jobStore, queued)
			case <-quit:
				break loop
			}
		}
	} else {
		waitForJobs(ctx, jobStore, quit)
	}

	log.Info().Msg("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}

// enqueuePending publishes a reparse job for every PENDING document that
// has no job in flight.
func enqueuePending(ctx context.Context, log zerolog.Logger, repo store.DocumentRepository, pub jobs.Publisher, js jobs.JobStore, queued map[string]bool) {
	docs, err := repo.ListAllDocuments(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list documents")
		return
	}

	for id := range queued {
		job, err := js.ListJobs(ctx, jobs.JobFilter{DocumentID: id, Limit: 1})
		if err == nil && (len(job) == 0 || job[0].Status.Final()) {
			delete(queued, id)
		}
	}

	for _, doc := range docs {
		if doc.ParsingStatus != store.StatusPending || queued[doc.DocumentID] {
			continue
		}
		job := &jobs.ParseDocumentJob{
			DocumentID:   doc.DocumentID,
			GCSURI:       doc.GCSURI,
			Organization: doc.Organization,
			Filename:     doc.OriginalFilename,
		}
		if err := pub.PublishParseDocument(ctx, job); err != nil {
			log.Error().Err(err).Str("document_id", doc.DocumentID).Msg("Failed to enqueue document")
			continue
		}
		queued[doc.DocumentID] = true
		log.Info().Str("job_id", job.JobID).Str("document_id", doc.DocumentID).Msg("Enqueued pending document")
	}
}

func waitForJobs(ctx context.Context, js jobs.JobStore, quit <-chan os.Signal) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		list, err := js.ListJobs(ctx, jobs.JobFilter{})
		if err == nil {
			done := true
			for _, j := range list {
				if !j.Status.Final() {
					done = false
					break
				}
			}
			if done {
				return
			}
		}
		select {
		case <-ticker.C:
		case <-quit:
			return
		}
	}
}
