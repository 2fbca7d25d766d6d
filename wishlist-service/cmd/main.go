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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/stylehub/storefront/pkg/config"
	"github.com/stylehub/storefront/pkg/httpapi"
	"github.com/stylehub/storefront/pkg/logger"
	c "github.com/stylehub/storefront/wishlist-service/internal/cache"
	h "github.com/stylehub/storefront/wishlist-service/internal/http"
	"github.com/stylehub/storefront/wishlist-service/internal/repository"
	s "github.com/stylehub/storefront/wishlist-service/internal/service"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	MongoPool       uint64
	MongoMinPool    uint64
	MongoConnect    time.Duration
	MongoSelect     time.Duration
	RedisAddr       string
	RedisPassword   string
	CacheTTL        time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Log             logger.Config
}

func loadConfig() *Config {
	config.LoadDotEnv()
	return &Config{
		HTTPPort:        config.GetEnv("WISHLIST_SERVICE_PORT", "8081"),
		MongoURI:        config.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     config.GetEnv("MONGO_DB_NAME", "wishlistdb"),
		MongoPool:       uint64(config.GetEnvInt("MONGO_MAX_POOL_SIZE", 50)),
		MongoMinPool:    uint64(config.GetEnvInt("MONGO_MIN_POOL_SIZE", 5)),
		MongoConnect:    config.GetEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		MongoSelect:     config.GetEnvDuration("MONGO_SERVER_SELECTION_TIMEOUT", 5*time.Second),
		RedisAddr:       config.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   config.GetEnv("REDIS_PASSWORD", ""),
		CacheTTL:        config.GetEnvDuration("WISHLIST_CACHE_TTL", 10*time.Minute),
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
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, repository.MongoConfig{
		URI:                    cfg.MongoURI,
		Database:               cfg.MongoDBName,
		AppName:                "wishlist-service",
		MaxPoolSize:            cfg.MongoPool,
		MinPoolSize:            cfg.MongoMinPool,
		ConnectTimeout:         cfg.MongoConnect,
		ServerSelectionTimeout: cfg.MongoSelect,
	})
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(context.Background())

	repo := repository.NewMongoRepository(mongoDB)
	if err := repo.CreateIndexes(ctx); err != nil {
		log.Fatal("failed to create indexes", zap.Error(err))
	}
	log.Info("connected to MongoDB", zap.String("uri", cfg.MongoURI))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}

	cache := c.NewRedisCache(redisClient, cfg.CacheTTL)
	service := s.NewWishlistService(repo, cache, log)
	wishlistHandler := h.NewWishlistHandler(service, cfg.RequestTimeout, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpapi.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpapi.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httpapi.SessionMiddleware)
		r.Route("/wishlist", wishlistHandler.Routes)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "wishlist-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("wishlist service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down wishlist service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("wishlist service stopped")
}
