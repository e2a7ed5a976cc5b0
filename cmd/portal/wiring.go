package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feedback_portal/internal/app"
	"feedback_portal/internal/domain/llm"
	"feedback_portal/internal/infra/ai"
	"feedback_portal/internal/infra/config"
	idb "feedback_portal/internal/infra/database"
	"feedback_portal/internal/infra/logger"
	"feedback_portal/internal/infra/scheduler"
)

// services is the object graph shared by every subcommand.
type services struct {
	db        *sql.DB
	queue     *app.SummaryQueue
	processor *app.SummaryProcessor
	digest    *app.DigestService
	seed      *app.SeedService
	worker    *scheduler.SummaryWorker
	admin     *app.AdminService
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	return cfg, nil
}

// buildServices connects to the database and wires repositories, the AI
// backend and the application services. notifier may be nil.
func buildServices(ctx context.Context, cfg *config.AppConfig, notifier app.EscalationNotifier) (*services, error) {
	log := logger.Component("main")

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, cfg.DBPool)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	teacherRepo := idb.NewPostgresTeacherRepository(db)
	feedbackRepo := idb.NewPostgresFeedbackRepository(db)
	jobRepo := idb.NewPostgresJobRepository(db)
	summaryRepo := idb.NewPostgresSummaryRepository(db, cfg.SummaryLegacyHTML)
	digestRepo := idb.NewPostgresDigestRepository(db)
	txManager := idb.NewTxManager(db, logger.Component("database"))

	// backend stays a nil interface unless a provider is configured.
	var backend llm.Summarizer
	s, err := ai.NewSummarizer(ctx, cfg.AI)
	switch {
	case err == nil:
		backend = s
		log.WithField("provider", s.Name()).Info("Generative backend configured")
	case errors.Is(err, llm.ErrNotConfigured):
		log.WithError(err).Warn("No generative backend configured, summaries run in mock mode")
	default:
		db.Close()
		return nil, err
	}

	var summaryBackend llm.Summarizer
	if cfg.AI.DeepSummaries {
		summaryBackend = backend
	}
	var moderationBackend llm.Summarizer
	if cfg.AI.ModerationEnabled {
		moderationBackend = backend
	}

	queue := app.NewSummaryQueue(jobRepo, logger.Component("summary_queue"))
	generator := app.NewSummaryGenerator(feedbackRepo, summaryRepo, summaryBackend, logger.Component("summary_generator"))
	processor := app.NewSummaryProcessor(jobRepo, generator, txManager, logger.Component("summary_processor"))
	screener := ai.NewScreener(moderationBackend, logger.Component("moderation"))
	feedbackSvc := app.NewFeedbackService(feedbackRepo, teacherRepo, queue, screener, notifier, txManager, logger.Component("feedback_service"))
	digestSvc := app.NewDigestService(feedbackRepo, digestRepo, summaryBackend, nil, logger.Component("digest_service"))
	worker := scheduler.NewSummaryWorker(processor, cfg.Worker.PollInterval, cfg.Worker.FailureCooldown, cfg.Worker.StaleJobAfter, logger.Component("summary_worker"))
	adminSvc := app.NewAdminService(feedbackSvc, queue, digestSvc, jobRepo, summaryRepo, teacherRepo, worker, cfg.AdminTelegramID)

	log.WithField("mode", generator.Mode()).Info("Summary generator initialized")

	return &services{
		db:        db,
		queue:     queue,
		processor: processor,
		digest:    digestSvc,
		seed:      app.NewSeedService(teacherRepo, feedbackSvc, logger.Component("seed")),
		worker:    worker,
		admin:     adminSvc,
	}, nil
}
