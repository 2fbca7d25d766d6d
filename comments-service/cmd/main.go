package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	h "github.com/stylehub/storefront/comments-service/internal/http"
	"github.com/stylehub/storefront/comments-service/internal/repository"
	"github.com/stylehub/storefront/pkg/config"
	"github.com/stylehub/storefront/pkg/httpapi"
	"github.com/stylehub/storefront/pkg/logger"
)

type Config struct {
	HTTPPort        string
	DBPath          string
	MigrationsPath  string
	WriteRPS        float64
	WriteBurst      int
	LimiterCleanup  time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Log             logger.Config
}

func loadConfig() *Config {
	config.LoadDotEnv()
	return &Config{
		HTTPPort:        config.GetEnv("COMMENTS_SERVICE_PORT", "8082"),
		DBPath:          config.GetEnv("DB_PATH", "./comments.db"),
		MigrationsPath:  config.GetEnv("MIGRATIONS_PATH", "./comments-service/internal/repository/migrations"),
		WriteRPS:        float64(config.GetEnvInt("COMMENTS_WRITES_PER_MINUTE", 6)) / 60,
		WriteBurst:      config.GetEnvInt("COMMENTS_WRITE_BURST", 3),
		LimiterCleanup:  config.GetEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", time.Minute),
		RequestTimeout:  config.GetEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout: config.GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Log: logger.Config{
			Level:    config.GetEnv("LOG_LEVEL", "info"),
			Encoding: config.GetEnv("LOG_ENCODING", "json"),
		},
	}
}

func main() {
	cfg := loadConfig()

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	repo, err := repository.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("migrations completed", zap.String("db_path", cfg.DBPath))

	otel.SetTextMapPropagator(propagation.TraceContext{})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	limiter := httpapi.NewRateLimiter(cfg.WriteRPS, cfg.WriteBurst, log)
	limiter.StartCleanup(bgCtx, cfg.LimiterCleanup)
	commentsHandler := h.NewCommentsHandler(repo, cfg.RequestTimeout, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpapi.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(httpapi.SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpapi.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/comments", commentsHandler.Routes(limiter.Handler))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "comments-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("comments service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down comments service")
	stopBackground()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("comments service stopped")
}
