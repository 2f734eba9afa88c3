package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pratamalabs/sahamflow/internal/clients/llm"
	"github.com/pratamalabs/sahamflow/internal/clients/marketdata"
	"github.com/pratamalabs/sahamflow/internal/config"
	"github.com/pratamalabs/sahamflow/internal/crawler"
	"github.com/pratamalabs/sahamflow/internal/database"
	"github.com/pratamalabs/sahamflow/internal/events"
	"github.com/pratamalabs/sahamflow/internal/modules/articles"
	"github.com/pratamalabs/sahamflow/internal/modules/backup"
	"github.com/pratamalabs/sahamflow/internal/modules/outlook"
	"github.com/pratamalabs/sahamflow/internal/modules/pipeline"
	"github.com/pratamalabs/sahamflow/internal/modules/ranking"
	"github.com/pratamalabs/sahamflow/internal/modules/recommendations"
	"github.com/pratamalabs/sahamflow/internal/modules/tracker"
	"github.com/pratamalabs/sahamflow/internal/scheduler"
	"github.com/pratamalabs/sahamflow/internal/server"
	"github.com/pratamalabs/sahamflow/pkg/logger"
)

// outlookSink adapts the outlook repository to the orchestrator's sink
type outlookSink struct {
	repo *outlook.Repository
}

func (s outlookSink) Save(key pipeline.RunKey, summary string) error {
	return s.repo.Save(key.Date, key.Schedule, summary)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger; the broadcaster feeds the websocket log stream
	stream := logger.NewBroadcaster(200)
	log := logger.NewWithWriter(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	}, stream)

	log.Info().Msg("Starting Sahamflow")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ev := events.NewManager(log)

	// Repositories
	articleRepo := articles.NewArticleRepository(db.Conn(), log)
	recRepo := recommendations.NewRepository(db.Conn(), log)
	outlookRepo := outlook.NewRepository(db.Conn(), log)
	jobRepo := pipeline.NewJobRepository(db.Conn(), log)

	// External clients
	analysisClient := llm.NewClient(cfg.AnalysisServiceURL, cfg.AnalysisAPIKey, log)
	marketClient := marketdata.NewClient(cfg.MarketDataBaseURL, log)

	// Domain services
	newsCrawler := crawler.New(cfg.NewsFeeds, cfg.CrawlTimeout, articleRepo, log)
	trackerService := tracker.NewService(recRepo, marketClient, tracker.New(tracker.DefaultPolicy(), log), ev, log)

	stepCache := pipeline.NewStepCache(
		pipeline.NewSQLiteCacheStore(db.Conn()),
		cfg.StepCacheTTL,
		nil,
		log,
	)

	orch := pipeline.New(pipeline.Config{
		Cache:                 stepCache,
		Jobs:                  jobRepo,
		Crawler:               newsCrawler,
		Articles:              articleRepo,
		Analysis:              analysisClient,
		Market:                marketClient,
		Ranker:                ranking.NewRanker(log),
		Recs:                  recRepo,
		Tracker:               trackerService,
		Outlooks:              outlookSink{repo: outlookRepo},
		Events:                ev,
		ArticleLookback:       cfg.ArticleLookback,
		TickerDelay:           cfg.TickerDelay,
		MaxNewRecommendations: cfg.MaxNewRecommendations,
		Log:                   log,
	})

	// Scheduler and jobs
	sched := scheduler.New(log)

	if err := sched.AddJob(cfg.MorningCron, pipeline.NewScheduledJob(orch, "morning", 0)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register morning pipeline job")
	}
	if err := sched.AddJob(cfg.EveningCron, pipeline.NewScheduledJob(orch, "evening", 0)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register evening pipeline job")
	}
	if err := sched.AddJob("@every 6h", scheduler.NewMaintenanceJob(db, 0, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	if cfg.BackupS3Bucket != "" {
		backupJob := backup.NewJob(db, cfg.BackupS3Bucket, cfg.BackupS3Region, ev, log)
		if err := sched.AddJob(cfg.BackupCron, backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	} else {
		log.Info().Msg("S3 backup disabled: no bucket configured")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		Log:             log,
		DB:              db,
		Articles:        articles.NewHandler(articleRepo, cfg.ArticleLookback, log),
		Recommendations: recommendations.NewHandler(recRepo, log),
		Tracker:         tracker.NewHandler(trackerService, log),
		Outlook:         outlook.NewHandler(outlookRepo, log),
		Pipeline:        pipeline.NewHandler(orch, jobRepo, 0, log),
		Events:          ev,
		LogStream:       stream,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
