package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Karbon-fx/Fira-calculator/internal/calc"
	"github.com/Karbon-fx/Fira-calculator/internal/config"
	"github.com/Karbon-fx/Fira-calculator/internal/database"
	"github.com/Karbon-fx/Fira-calculator/internal/extract"
	"github.com/Karbon-fx/Fira-calculator/internal/fxrate"
	"github.com/Karbon-fx/Fira-calculator/internal/handler"
	"github.com/Karbon-fx/Fira-calculator/internal/middleware"
	"github.com/Karbon-fx/Fira-calculator/internal/repository"
	"github.com/Karbon-fx/Fira-calculator/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; document uploads will fail extraction")
	}
	gin.SetMode(cfg.GinMode)

	var pool *pgxpool.Pool
	if cfg.EventLogEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var err error
		pool, err = database.NewPool(ctx, cfg.DatabaseURL())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		if cfg.AutoMigrate {
			if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
				log.Fatal().Err(err).Msg("failed to run migrations")
			}
		}
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	healthHandler := handler.NewHealthHandler(pool)
	router.GET("/health", healthHandler.Health)

	handler.SetupSwagger(router, handler.DefaultSwaggerDoc)
	setupAPIRoutes(router, cfg, pool)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AnalysisTimeout*time.Duration(cfg.BatchMaxFiles) + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Bool("event_log", pool != nil).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupAPIRoutes(router *gin.Engine, cfg *config.Config, pool *pgxpool.Pool) {
	rates := fxrate.NewClient(cfg.FreeCurrencyBaseURL, cfg.FreeCurrencyAPIKey, cfg.LocalCurrency, cfg.HTTPClientTimeout)
	extractor := extract.NewOpenAIClient(extract.OpenAIConfig{
		APIKey:        cfg.OpenAIAPIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		Model:         cfg.OpenAIModel,
		LocalCurrency: cfg.LocalCurrency,
		Timeout:       cfg.HTTPClientTimeout,
	})
	engine := calc.NewEngine(rates)

	// A nil recorder and a nil stats service switch the event log off.
	var (
		recorder     service.EventRecorder
		statsService *service.StatsService
	)
	if pool != nil {
		eventRepo := repository.NewAnalysisEventRepository(pool)
		recorder = eventRepo
		statsService = service.NewStatsService(eventRepo)
	}

	analysisService := service.NewAnalysisService(extractor, engine, recorder, cfg.AnalysisTimeout, cfg.BatchConcurrency)

	analysisHandler := handler.NewAnalysisHandler(analysisService, cfg.MaxUploadBytes(), cfg.BatchMaxFiles)
	statsHandler := handler.NewStatsHandler(statsService)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	api := router.Group("/api/v1")
	api.Use(limiter.Middleware())
	{
		api.POST("/analyses", analysisHandler.Analyze)
		api.POST("/analyses/batch", analysisHandler.Batch)
		api.POST("/analyses/compute", analysisHandler.Compute)
		api.GET("/analyses/stats", statsHandler.Stats)
		api.GET("/analyses/events", statsHandler.Events)
	}
}
