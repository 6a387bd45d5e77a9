package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	contentapp "github.com/intellipost/backend/internal/application/content"
	marketapp "github.com/intellipost/backend/internal/application/marketplace"
	notifapp "github.com/intellipost/backend/internal/application/notification"
	productapp "github.com/intellipost/backend/internal/application/product"
	userapp "github.com/intellipost/backend/internal/application/user"
	"github.com/intellipost/backend/internal/infrastructure/ai"
	"github.com/intellipost/backend/internal/infrastructure/auth"
	"github.com/intellipost/backend/internal/infrastructure/cache"
	"github.com/intellipost/backend/internal/infrastructure/config"
	"github.com/intellipost/backend/internal/infrastructure/event"
	"github.com/intellipost/backend/internal/infrastructure/imaging"
	"github.com/intellipost/backend/internal/infrastructure/logger"
	"github.com/intellipost/backend/internal/infrastructure/mercadolibre"
	"github.com/intellipost/backend/internal/infrastructure/persistence"
	"github.com/intellipost/backend/internal/infrastructure/scheduler"
	"github.com/intellipost/backend/internal/infrastructure/storage"
	"github.com/intellipost/backend/internal/interfaces/http/handler"
	"github.com/intellipost/backend/internal/interfaces/http/router"
)

const tokenRefreshSpec = "*/10 * * * *"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		panic("initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting intellipost backend",
		zap.String("env", cfg.Environment),
		zap.String("addr", cfg.Server.Addr()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Backing services
	db, err := persistence.NewDatabase(cfg.Database, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer persistence.CloseDatabase(db, log)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	store, err := storage.NewS3ObjectStorage(ctx, cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
	)
	if err != nil {
		log.Fatal("connect object storage", zap.Error(err))
	}
	if !cfg.IsProduction() {
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatal("ensure bucket", zap.Error(err))
		}
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	contentRepo := persistence.NewGormContentRepository(db)
	marketplaceRepo := persistence.NewGormMarketplaceRepository(db)
	notificationRepo := persistence.NewGormNotificationRepository(db)

	// Event bus
	bus := event.NewMemoryEventBus(log)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("start event bus", zap.Error(err))
	}

	// External clients
	gemini := ai.NewGeminiClient(cfg.Gemini, log)
	photoroom := ai.NewPhotoRoomClient(cfg.PhotoRoom, log)
	processor := imaging.NewProcessor()
	mlOAuth := mercadolibre.NewOAuthClient(cfg.MercadoLibre)
	mlAPI := mercadolibre.NewAPIClient(cfg.MercadoLibre, log)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	blacklist := auth.NewRedisTokenBlacklist(redisClient)
	authService := userapp.NewAuthService(userRepo, jwtService, blacklist, bus)
	productService := productapp.NewProductService(productRepo, store, bus)
	generationService := contentapp.NewGenerationService(
		productRepo, contentRepo, userRepo, marketplaceRepo,
		store, gemini, photoroom, processor, mlAPI, bus, log,
	)
	stateStore := cache.NewRedisOAuthStateStore(redisClient)
	connectionService := marketapp.NewConnectionService(
		marketplaceRepo, mlOAuth, mlAPI, stateStore, bus, mercadolibre.GenerateVerifier,
	)
	publishService := marketapp.NewPublishService(
		productRepo, contentRepo, connectionService, mlAPI, store, bus,
	)
	notificationService := notifapp.NewNotificationService(notificationRepo, log)

	bus.Subscribe(generationService, generationService.EventTypes()...)
	bus.Subscribe(notificationService, notificationService.EventTypes()...)

	// Background token refresh
	sched := scheduler.New(log)
	if err := sched.Register(tokenRefreshSpec, marketapp.NewTokenRefreshJob(connectionService, 50)); err != nil {
		log.Fatal("register token refresh job", zap.Error(err))
	}
	sched.Start()

	// HTTP
	authHandler := handler.NewAuthHandler(authService)
	productHandler := handler.NewProductHandler(productService)
	contentHandler := handler.NewContentHandler(generationService)
	marketplaceHandler := handler.NewMarketplaceHandler(connectionService, publishService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	engine := router.New(cfg, log, jwtService, blacklist).
		RegisterPublic(healthHandler, authHandler, marketplaceHandler).
		Register(authHandler, productHandler, contentHandler, marketplaceHandler, notificationHandler).
		Setup()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("scheduler shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("event bus shutdown", zap.Error(err))
	}
	log.Info("shutdown complete")
}
