package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	checkoutgrpc "github.com/stylehub/storefront/checkout-service/internal/grpc"
	h "github.com/stylehub/storefront/checkout-service/internal/http"
	"github.com/stylehub/storefront/checkout-service/internal/publisher"
	"github.com/stylehub/storefront/checkout-service/internal/repository"
	"github.com/stylehub/storefront/checkout-service/internal/service"
	"github.com/stylehub/storefront/pkg/config"
	"github.com/stylehub/storefront/pkg/httpapi"
	"github.com/stylehub/storefront/pkg/logger"
)

type Config struct {
	HTTPPort        string
	GRPCPort        string
	DB              repository.Credentials
	KafkaBrokers    []string
	Poller          publisher.Config
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Log             logger.Config
}

func loadConfig() *Config {
	config.LoadDotEnv()

	brokers := config.GetEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"})
	poller := publisher.DefaultConfig(brokers...)
	poller.Topic = config.GetEnv("KAFKA_TOPIC", publisher.DefaultTopic)
	poller.EventTick = config.GetEnvDuration("OUTBOX_POLL_INTERVAL", poller.EventTick)
	poller.RecoveryTick = config.GetEnvDuration("RECONCILE_INTERVAL", poller.RecoveryTick)
	poller.ReconcileGrace = config.GetEnvDuration("RECONCILE_GRACE", poller.ReconcileGrace)

	return &Config{
		HTTPPort: config.GetEnv("CHECKOUT_HTTP_PORT", "8083"),
		GRPCPort: config.GetEnv("GRPC_PORT", "50056"),
		DB: repository.Credentials{
			Host:              config.GetEnv("DB_HOST", "localhost"),
			Port:              config.GetEnvInt("DB_PORT", 5432),
			User:              config.GetEnv("DB_USER", "postgres"),
			Password:          config.GetEnv("DB_PASSWORD", "postgres"),
			DBName:            config.GetEnv("DB_NAME", "storefront"),
			MigrationsDirPath: config.GetEnv("MIGRATIONS_PATH", "./checkout-service/internal/repository/migrations"),
		},
		KafkaBrokers:    brokers,
		Poller:          poller,
		RequestTimeout:  config.GetEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
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

	log.Info("checkout-service starting")

	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	checkoutService := service.NewCheckoutService(repo, log)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := publisher.NewOutboxPoller(repo, checkoutService, cfg.Poller, log)
	defer poller.Close()
	go poller.Run(ctx)

	// gRPC health
	healthServer := checkoutgrpc.NewHealthServer(log)
	go healthServer.Watch(ctx, 5*time.Second, repo.Ping)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		log.Info("grpc health listening", zap.String("port", cfg.GRPCPort))
		if err := healthServer.Serve(lis); err != nil {
			log.Error("grpc serve error", zap.Error(err))
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpapi.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpapi.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	checkoutHandler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "checkout-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("checkout http listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down checkout service")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	healthServer.GracefulStop()

	log.Info("checkout service stopped")
}
