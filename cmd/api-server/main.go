package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-assistant/internal/agent"
	"github.com/clinicdesk/clinic-assistant/internal/api"
	"github.com/clinicdesk/clinic-assistant/internal/auth"
	"github.com/clinicdesk/clinic-assistant/internal/chat"
	"github.com/clinicdesk/clinic-assistant/internal/config"
	"github.com/clinicdesk/clinic-assistant/internal/db"
	"github.com/clinicdesk/clinic-assistant/internal/directory"
	"github.com/clinicdesk/clinic-assistant/internal/redisclient"
	"github.com/clinicdesk/clinic-assistant/internal/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	apptRepo := scheduling.NewPgRepository(pool)
	locker := redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL)
	hours := scheduling.BusinessHours{OpenHour: cfg.BusinessOpenHour, CloseHour: cfg.BusinessCloseHour}
	schedSvc := scheduling.NewService(apptRepo, locker, hours, log)

	dirRepo := directory.NewPgRepository(pool)
	clinicStore := directory.NewClinicStore(rdb)

	agentClient := agent.NewHTTPClient(agent.HTTPClientConfig{
		BaseURL:   cfg.AgentBaseURL,
		APIKey:    cfg.AgentAPIKey,
		Model:     cfg.AgentModel,
		MaxTokens: cfg.AgentMaxTokens,
	})
	dispatcher := chat.NewDispatcher(schedSvc, dirRepo, clinicStore, log)
	chatSvc := chat.NewService(agentClient, dispatcher, chat.NewRedisStore(rdb), cfg.MaxToolRounds, log)

	router := api.NewRouter(api.RouterConfig{
		Scheduling: schedSvc,
		Directory:  dirRepo,
		Clinic:     clinicStore,
		Chat:       chatSvc,
		Verifier:   auth.NewVerifier(cfg.JWTSecret),
		Pool:       pool,
		Redis:      rdb,
		Logger:     log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("api server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func newLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
