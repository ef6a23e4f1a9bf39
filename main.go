package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/pulseops/pulsecheck/bot"
	configx "github.com/pulseops/pulsecheck/pkg/config"
	_ "github.com/pulseops/pulsecheck/pkg/logger/autoload"
	openrouterx "github.com/pulseops/pulsecheck/pkg/openrouter"
	qstashx "github.com/pulseops/pulsecheck/pkg/qstash"
	slackx "github.com/pulseops/pulsecheck/pkg/slack"
	"github.com/pulseops/pulsecheck/survey/extract"
	"github.com/pulseops/pulsecheck/survey/intake"
	statex "github.com/pulseops/pulsecheck/survey/state"
)

type AppConfig struct {
	ListenAddr     string   `envconfig:"LISTEN_ADDR" split_words:"true" default:":3002"`
	StorageBackend string   `envconfig:"STORAGE_BACKEND" split_words:"true" default:"file"`
	RecordFile     string   `envconfig:"RECORD_FILE" split_words:"true" default:"records.json"`
	Roster         []string `envconfig:"ROSTER" split_words:"true"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	slackCfg := configx.MustNew[slackx.Config]("SLACK")
	messenger := slackx.MustNew(*slackCfg)

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	openRouterClient := openrouterx.NewClient(*openRouterCfg)
	if openRouterClient == nil {
		log.Fatal().Msg("failed to initialize openrouter client")
	}

	extractor, err := extract.New(openRouterClient, extract.Config{
		Model:       openRouterCfg.Model,
		Temperature: openRouterCfg.Temperature,
		MaxTokens:   openRouterCfg.MaxTokens,
		Timeout:     openRouterCfg.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build extractor")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build record store")
	}
	defer cleanup()

	machine, err := intake.New(store, extractor)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build intake service")
	}

	driver, err := bot.New(machine, messenger, appCfg.Roster)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dialogue driver")
	}

	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
	qstashClient := qstashx.MustNew(*qstashCfg)
	schedulerCfg := configx.MustNew[bot.SchedulerConfig]("SCHEDULER")
	if err := bot.EnsureSchedule(ctx, qstashClient, *schedulerCfg); err != nil {
		log.Error().Err(err).Msg("pulse schedule registration failed, continuing without it")
	}

	mux := http.NewServeMux()
	mux.Handle("/slack/events", driver.EventsHandler())
	mux.Handle("/jobs/pulse", driver.ScheduleHandler(qstashClient.VerifySignature))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              appCfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("addr", appCfg.ListenAddr).Str("storage", appCfg.StorageBackend).Msg("pulsecheck bot listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func buildStore(ctx context.Context, cfg *AppConfig) (statex.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "", "file":
		store, err := statex.NewFileStore(cfg.RecordFile)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "postgres":
		pgCfg := configx.MustNew[statex.PostgresConfig]("PG")
		store, err := statex.NewPostgresStore(*pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Init(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, errors.New("unknown storage backend: " + cfg.StorageBackend)
	}
}
