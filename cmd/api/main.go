package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"lead-insights-go/internal/api"
	"lead-insights-go/internal/completion"
	"lead-insights-go/internal/config"
	"lead-insights-go/internal/engagement"
	"lead-insights-go/internal/insights"
	"lead-insights-go/internal/leadimport"
	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/pipeline"
	"lead-insights-go/internal/scoring"
	"lead-insights-go/internal/search"
	"lead-insights-go/internal/sentiment"
	"lead-insights-go/internal/store"
	"lead-insights-go/internal/transcription"
	"lead-insights-go/internal/types"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}

	ctx := context.Background()
	leads, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("store init failed")
	}
	defer leads.Close()

	scoringCfg, err := leads.GetScoringConfig(ctx)
	if err != nil {
		log.WithError(err).Warn("could not load scoring settings, using defaults")
		scoringCfg = types.DefaultScoringConfig()
	}
	settings := scoring.NewSettings(scoringCfg)

	if cfg.SeedLeadsPath != "" {
		if _, err := leadimport.Seed(ctx, cfg.SeedLeadsPath, leads, log); err != nil {
			log.WithError(err).Warn("lead seeding failed")
		}
	}

	completer := completion.New(cfg, log)
	pipe := pipeline.New(
		transcription.New(cfg, log),
		sentiment.New(cfg, log),
		engagement.New(completer, log),
		insights.New(completer, log),
		search.New(cfg, completer, log),
		settings,
		leads,
		log,
	)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.New(pipe, leads, settings, log).Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (store.LeadStore, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), nil
	}
	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		return nil, err
	}
	return store.Connect(ctx, cfg.DatabaseURL)
}
