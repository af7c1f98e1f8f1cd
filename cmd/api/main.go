package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"career-advisor/internal/config"
	"career-advisor/internal/db"
	"career-advisor/internal/event"
	apihttp "career-advisor/internal/http"
	"career-advisor/internal/llm"
	"career-advisor/internal/observability"
	"career-advisor/internal/repository"
	"career-advisor/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	shutdownTracing, err := observability.InitTracing(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("tracing init", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	userRepo := repository.NewPgUserRepository(pool)
	skillRepo := repository.NewPgUserSkillRepository(pool)
	catalogRepo := repository.NewPgCatalogRepository(pool)
	assessmentRepo := repository.NewPgAssessmentRepository(pool)
	recommendationRepo := repository.NewPgRecommendationRepository(pool)
	store := repository.NewPgStore(pool)

	var (
		genLimiter  service.GenerationLimiter
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			genLimiter = service.NewRedisGenerationLimiter(redisClient, cfg.GenerationRateWindow, cfg.GenerationRateLimit, logger)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	llmClient, err := newLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Warn("text generation disabled", zap.Error(err))
	}
	explainer := service.NewExplanationService(llmClient, cfg.LLMTimeout, logger)

	var publisher event.Publisher = event.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := event.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Warn("amqp publisher init failed", zap.Error(err))
		} else {
			publisher = amqpPub
		}
	}
	defer publisher.Close()

	userSvc := service.NewUserService(logger, userRepo, skillRepo)
	catalogSvc := service.NewCatalogService(catalogRepo)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, catalogRepo, store, explainer, publisher, logger)
	recommendationSvc := service.NewRecommendationService(
		assessmentRepo,
		catalogRepo,
		skillRepo,
		recommendationRepo,
		store,
		explainer,
		genLimiter,
		publisher,
		logger,
	)

	router := apihttp.NewRouter(
		logger,
		cfg.ServiceName,
		jwtSvc,
		apihttp.NewUserHandler(logger, userSvc, jwtSvc),
		apihttp.NewAssessmentHandler(logger, assessmentSvc),
		apihttp.NewCatalogHandler(logger, catalogSvc),
		apihttp.NewRecommendationHandler(logger, recommendationSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.Bool("text_generation", llmClient != nil),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newLLMClient devuelve nil (interfaz vacía) cuando no hay proveedor configurado.
func newLLMClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.LLMClient, error) {
	if !cfg.TextGenerationEnabled() {
		return nil, nil
	}
	switch cfg.LLMProvider {
	case config.LLMProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger), nil
	}
}
