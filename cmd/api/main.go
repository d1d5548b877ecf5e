package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	_ "github.com/storykeeper/backend/docs"
	"github.com/storykeeper/backend/internal/auth"
	"github.com/storykeeper/backend/internal/config"
	"github.com/storykeeper/backend/internal/database"
	"github.com/storykeeper/backend/internal/handlers"
	"github.com/storykeeper/backend/internal/logger"
	"github.com/storykeeper/backend/internal/middleware"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/polish"
	"github.com/storykeeper/backend/internal/ratelimit"
	"github.com/storykeeper/backend/internal/repositories"
	"github.com/storykeeper/backend/internal/scheduler"
	"github.com/storykeeper/backend/internal/services"
	"github.com/storykeeper/backend/internal/session"
	"github.com/storykeeper/backend/internal/speech"
	"github.com/storykeeper/backend/internal/storage"
	"github.com/storykeeper/backend/internal/tasks"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// rateLimitGCSchedule drops idle keys of the in-memory limiter
const rateLimitGCSchedule = "*/10 * * * *"

// @title StoryKeeper API
// @version 1.0
// @description Story submission, moderation and engagement backend

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting StoryKeeper API")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis, used by the task queue and optionally by the rate limiter
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer taskClient.Close()
	enqueuer := tasks.NewEnqueuer(taskClient, logger.Logger)

	var limiter ratelimit.Limiter
	var memoryLimiter interface{ Cleanup() }
	switch cfg.RateLimit.Backend {
	case "redis":
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	default:
		ml := ratelimit.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
		limiter, memoryLimiter = ml, ml
	}

	// Initialize collaborators
	tokenGenerator := auth.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	mediaStorage := storage.NewLocalStorage(cfg.Media.BasePath, cfg.Media.BaseURL)

	var speechOpts []option.ClientOption
	if cfg.Speech.Endpoint != "" {
		speechOpts = append(speechOpts, option.WithEndpoint(cfg.Speech.Endpoint))
	}
	transcriber, err := speech.NewClient(context.Background(), cfg.Speech.APIKey, cfg.Speech.Model, logger.Logger, speechOpts...)
	if err != nil {
		logger.Logger.Fatal("Failed to create speech client", zap.Error(err))
	}
	polisher := polish.NewClient(cfg.Polish.Endpoint, cfg.Polish.APIKey, cfg.Polish.Model, logger.Logger)
	likeStore := session.NewLikeStore(cfg.Session.Secret, cfg.Session.Secure)

	// Initialize repositories
	storyRepo := repositories.NewStoryRepository(db, logger.Logger)
	tagRepo := repositories.NewTagRepository(db, logger.Logger)
	likeRepo := repositories.NewLikeRepository(db, logger.Logger)
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	passwordResetRepo := repositories.NewPasswordResetRepository(db)

	// Initialize services
	storyService := services.NewStoryService(storyRepo, tagRepo, likeRepo, mediaStorage, logger.Logger)
	notifier := services.NewDecisionNotifier(userRepo, enqueuer)
	moderationService := services.NewModerationService(storyRepo, tagRepo, mediaStorage, notifier, logger.Logger)
	engagementService := services.NewEngagementService(likeRepo, storyRepo, logger.Logger)
	transcriptionService := services.NewTranscriptionService(transcriber, polisher, logger.Logger)
	tagService := services.NewTagService(tagRepo, logger.Logger)
	authService := services.NewAuthService(userRepo, userTokenRepo, tokenGenerator, logger.Logger)
	passwordService := services.NewPasswordService(userRepo, userTokenRepo, passwordResetRepo, enqueuer, limiter, services.PasswordConfig{
		TokenTTL: cfg.PasswordReset.TTL,
		ResetURL: cfg.PasswordReset.LinkURL,
	}, logger.Logger)
	adminUserService := services.NewAdminUserService(userRepo, storyRepo, mediaStorage, tagRepo, logger.Logger)
	exportService := services.NewExportService(storyRepo, logger.Logger)

	// Initialize scheduler
	sched := scheduler.NewScheduler(logger.Logger)
	jobs := scheduler.Maintenance{
		ResetTokens:     passwordResetRepo,
		RefreshTokens:   userTokenRepo,
		RefreshTokenTTL: cfg.JWT.RefreshTokenExpiry,
		Tags:            tagService,
		Bin:             moderationService,
		BinRetention:    cfg.BinRetention,
	}.Jobs(logger.Logger)
	if memoryLimiter != nil {
		jobs = append(jobs, scheduler.Job{Name: "rate-limit-gc", Spec: rateLimitGCSchedule, Run: func(ctx context.Context) error {
			memoryLimiter.Cleanup()
			return nil
		}})
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			logger.Logger.Fatal("Failed to register scheduled job", zap.Error(err))
		}
	}

	// Initialize handlers
	storyHandler := handlers.NewStoryHandler(storyService, engagementService, likeStore, logger.Logger)
	moderationHandler := handlers.NewModerationHandler(moderationService, exportService, logger.Logger)
	transcriptionHandler := handlers.NewTranscriptionHandler(transcriptionService, logger.Logger)
	authHandler := handlers.NewAuthHandler(authService, passwordService, cfg.Session.Secure, logger.Logger)
	mediaHandler := handlers.NewMediaHandler(mediaStorage, logger.Logger)
	catalogHandler := handlers.NewCatalogHandler(tagService, logger.Logger)
	adminUserHandler := handlers.NewAdminUserHandler(adminUserService, logger.Logger)
	maintenanceHandler := handlers.NewMaintenanceHandler(sched, logger.Logger)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	optionalAuthMiddleware := middleware.OptionalAuthMiddleware(tokenGenerator)
	adminMiddleware := middleware.RoleMiddleware(tokenGenerator, int(models.RoleAdmin))
	apiKeyMiddleware := middleware.APIKeyMiddleware(cfg.APIKey)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Uploaded media is served from the storage root when the base URL is a local path
	if mediaPrefix := strings.TrimSuffix(cfg.Media.BaseURL, "/"); strings.HasPrefix(mediaPrefix, "/") {
		r.Handle(mediaPrefix+"/*", http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(mediaStorage.Root()))))
	}

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Uploads carry their own per-kind limits
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSizeLimitMiddleware(handlers.MaxUploadBytes + 1<<20))
			mediaHandler.RegisterRoutes(r, authMiddleware)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSizeLimitMiddleware(10 * 1024 * 1024)) // 10MB

			authHandler.RegisterRoutes(r, authMiddleware)
			storyHandler.RegisterRoutes(r, authMiddleware, optionalAuthMiddleware)
			transcriptionHandler.RegisterRoutes(r, authMiddleware)
			catalogHandler.RegisterRoutes(r)

			// Register maintenance routes with API key middleware
			r.Group(func(r chi.Router) {
				r.Use(apiKeyMiddleware)
				maintenanceHandler.RegisterRoutes(r)
			})

			// Register admin routes with role middleware
			r.Route("/admin", func(r chi.Router) {
				r.Use(adminMiddleware)
				moderationHandler.RegisterRoutes(r)
				adminUserHandler.RegisterRoutes(r)
				catalogHandler.RegisterAdminRoutes(r)
			})
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sched.Start()

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	sched.Stop(ctx)

	logger.Logger.Info("Server exited")
}
