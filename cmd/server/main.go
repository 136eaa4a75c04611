package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexciv/internal/advisor"
	"github.com/freeeve/hexciv/internal/bot"
	"github.com/freeeve/hexciv/internal/config"
	"github.com/freeeve/hexciv/internal/handler"
	"github.com/freeeve/hexciv/internal/logger"
	"github.com/freeeve/hexciv/internal/middleware"
	"github.com/freeeve/hexciv/internal/repository"
	"github.com/freeeve/hexciv/internal/repository/postgres"
	redisrepo "github.com/freeeve/hexciv/internal/repository/redis"
	"github.com/freeeve/hexciv/internal/service"
	"github.com/freeeve/hexciv/pkg/civ"
)

func main() {
	logger.Init()
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}

func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	bot.ModelPath = cfg.PolicyModelPath
	log.Info().Str("databaseURL", redact(cfg.DatabaseURL)).Str("aiDifficulty", cfg.AIDifficulty).Msg("Config loaded")

	cat := civ.DefaultCatalog()
	if cfg.CatalogPath != "" {
		loaded, err := civ.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
		}
		cat = loaded
	}

	// Database
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis is optional: without it worlds are read from Postgres and turn
	// resolution is serialized in-process only.
	var (
		cache    repository.WorldCache
		turnLock repository.TurnLock
	)
	if cfg.RedisURL != "" {
		redisClient, err := redisrepo.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Str("redisURL", redact(cfg.RedisURL)).Msg("Redis unavailable, running without world cache")
		} else {
			defer redisClient.Close()
			cache, turnLock = redisClient, redisClient
		}
	}

	// Repos
	sessionRepo := postgres.NewSessionRepo(db)
	worldRepo := postgres.NewWorldRepo(db)
	messageRepo := postgres.NewMessageRepo(db)
	turnLogRepo := postgres.NewTurnLogRepo(db)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	worlds := service.NewWorldStore(worldRepo, cache)
	sessionSvc := service.NewSessionService(sessionRepo, worldRepo, worlds, cat, cfg.AIDifficulty)
	turnSvc := service.NewTurnService(sessionRepo, worlds, turnLogRepo, cache, turnLock, wsHub, cat)
	turnSvc.SetLockTTL(cfg.TurnLockTTL)
	citySvc := service.NewCityService(worlds, wsHub, cat)
	unitSvc := service.NewUnitService(worlds, wsHub, cat)
	researchSvc := service.NewResearchService(worlds, cat)
	messageSvc := service.NewMessageService(messageRepo, sessionRepo, wsHub)

	index, err := advisor.New(cat, cfg.AdvisorModelPath)
	if err != nil {
		return fmt.Errorf("advisor index: %w", err)
	}

	// Router
	mux := handler.NewRouter(handler.Handlers{
		Session:  handler.NewSessionHandler(sessionSvc, turnSvc),
		City:     handler.NewCityHandler(citySvc),
		Unit:     handler.NewUnitHandler(unitSvc),
		Research: handler.NewResearchHandler(researchSvc),
		Message:  handler.NewMessageHandler(messageSvc),
		Advisor:  handler.NewAdvisorHandler(index),
		WS:       handler.NewWSHandler(wsHub, sessionSvc, cfg.AllowedOrigin),
	})

	origin := cfg.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	root := middleware.Chain(mux,
		middleware.Logger,
		middleware.CORS(origin),
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
