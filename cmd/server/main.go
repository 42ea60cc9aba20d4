package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/idnofunny/backend/internal/auth"
	"github.com/idnofunny/backend/internal/cache"
	"github.com/idnofunny/backend/internal/database"
	"github.com/idnofunny/backend/internal/email"
	"github.com/idnofunny/backend/internal/feed"
	"github.com/idnofunny/backend/internal/handlers"
	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/media"
	"github.com/idnofunny/backend/internal/metrics"
	"github.com/idnofunny/backend/internal/middleware"
	"github.com/idnofunny/backend/internal/moderation"
	"github.com/idnofunny/backend/internal/seed"
	"github.com/idnofunny/backend/internal/social"
	"github.com/idnofunny/backend/internal/storage"
	"github.com/idnofunny/backend/internal/tasks"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	logLevel := envOrDefault("LOG_LEVEL", "info")
	if err := logger.Initialize(logLevel, os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("IDNOFunny backend starting")

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := seed.NewSeeder(database.DB).SeedCategories(); err != nil {
		logger.Log.Fatal("failed to seed categories", zap.Error(err))
	}

	redisClient, err := cache.NewRedisClient(
		os.Getenv("REDIS_HOST"),
		os.Getenv("REDIS_PORT"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.Log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	metrics.Initialize()
	metrics.InitializeApplicationMetrics()

	store, staticDir, err := buildStorage()
	if err != nil {
		logger.Log.Fatal("failed to initialize storage", zap.Error(err))
	}

	emailQueue := buildEmailQueue()
	if emailQueue != nil {
		emailQueue.Start()
		defer emailQueue.Stop()
	}

	h := handlers.NewHandlers(
		auth.NewService(jwtSecret, redisClient),
		media.NewValidator(store),
		moderation.NewGate(moderation.NewGormStore(database.DB)),
		feed.NewEngine(feed.NewGormStore(database.DB)),
		social.NewService(database.DB),
		emailQueue,
	)

	gin.SetMode(envOrDefault("GIN_MODE", gin.ReleaseMode))
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{envOrDefault("CORS_ORIGIN", "*")}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	if staticDir != "" {
		r.Static("/static", staticDir)
	}

	r.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "idnofunny-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(r, handlers.RouteOptions{
		AuthLimiter:    middleware.RedisRateLimitMiddleware(10, time.Minute),
		UploadLimiter:  middleware.UserActionRateLimit("upload", 1, time.Minute),
		CommentLimiter: middleware.UserActionRateLimit("comment", 1, time.Second),
	})

	port := envOrDefault("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Log.Info("server exited")
}

// buildStorage selects the object store from STORAGE_BACKEND. The local
// backend also returns the directory to mount under /static.
func buildStorage() (storage.Storage, string, error) {
	if os.Getenv("STORAGE_BACKEND") == "s3" {
		s3Store, err := storage.NewS3Storage(
			os.Getenv("AWS_REGION"),
			os.Getenv("AWS_BUCKET"),
			os.Getenv("CDN_BASE_URL"),
		)
		if err != nil {
			return nil, "", err
		}
		if err := s3Store.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access check failed, uploads may fail", zap.Error(err))
		}
		return s3Store, "", nil
	}

	dir := envOrDefault("MEDIA_DIR", "./data/media")
	baseURL := envOrDefault("MEDIA_BASE_URL", "http://localhost:8080/static")
	local, err := storage.NewLocalStorage(dir, baseURL)
	if err != nil {
		return nil, "", err
	}
	return local, dir, nil
}

// buildEmailQueue wires SES-backed delivery when configured. Without
// EMAIL_FROM the queue is skipped and verification codes only reach the
// logs and the code store.
func buildEmailQueue() *tasks.EmailQueue {
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		logger.Log.Warn("EMAIL_FROM not set, outbound email disabled")
		return nil
	}

	sender, err := email.NewEmailService(
		envOrDefault("AWS_REGION", "us-east-1"),
		from,
		envOrDefault("EMAIL_FROM_NAME", "IDNOFunny"),
		envOrDefault("APP_BASE_URL", "http://localhost:3000"),
	)
	if err != nil {
		logger.Log.Warn("email service unavailable, outbound email disabled", zap.Error(err))
		return nil
	}
	return tasks.NewEmailQueue(sender)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
