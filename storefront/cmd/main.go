package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stylehub/storefront/pkg/config"
	"github.com/stylehub/storefront/pkg/logger"
	"github.com/stylehub/storefront/storefront/internal/checkout"
	"github.com/stylehub/storefront/storefront/internal/cli"
	"github.com/stylehub/storefront/storefront/internal/comments"
	"github.com/stylehub/storefront/storefront/internal/remote"
	"github.com/stylehub/storefront/storefront/internal/session"
	"github.com/stylehub/storefront/storefront/internal/wishlist"
)

type Config struct {
	WishlistURL    string
	CommentsURL    string
	CheckoutURL    string
	StateFile      string
	RedisAddr      string
	RedisPassword  string
	CommandTimeout time.Duration
	Log            logger.Config
}

func loadConfig() *Config {
	config.LoadDotEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		WishlistURL:    config.GetEnv("WISHLIST_API_URL", "http://localhost:8081"),
		CommentsURL:    config.GetEnv("COMMENTS_API_URL", "http://localhost:8082"),
		CheckoutURL:    config.GetEnv("CHECKOUT_API_URL", "http://localhost:8083"),
		StateFile:      config.GetEnv("STOREFRONT_STATE_FILE", filepath.Join(home, ".stylehub", "state.json")),
		RedisAddr:      config.GetEnv("STOREFRONT_REDIS_ADDR", ""),
		RedisPassword:  config.GetEnv("STOREFRONT_REDIS_PASSWORD", ""),
		CommandTimeout: config.GetEnvDuration("STOREFRONT_TIMEOUT", 15*time.Second),
		Log: logger.Config{
			Level:             config.GetEnv("LOG_LEVEL", "warn"),
			Encoding:          config.GetEnv("LOG_ENCODING", "console"),
			DisableStacktrace: true,
		},
	}
}

func newStorage(cfg *Config) (session.Storage, func(), error) {
	if cfg.RedisAddr == "" {
		fs, err := session.NewFileStorage(cfg.StateFile)
		return fs, func() {}, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return session.NewRedisStorage(client, "storefront:"), func() { _ = client.Close() }, nil
}

func main() {
	cfg := loadConfig()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	storage, closeStorage, err := newStorage(cfg)
	if err != nil {
		log.Fatal("failed to open session storage", zap.Error(err))
	}
	defer closeStorage()

	sessions := session.NewManager(storage, log)
	opts := []remote.Option{remote.WithSession(sessions.GetOrCreateSessionID), remote.WithLogger(log)}

	checkoutClient := remote.NewCheckoutClient(cfg.CheckoutURL, opts...)
	app := &cli.App{
		Storage:  storage,
		Sessions: sessions,
		Wishlist: wishlist.NewModel(remote.NewWishlistClient(cfg.WishlistURL, opts...), log),
		Comments: comments.NewService(remote.NewCommentsClient(cfg.CommentsURL, opts...), log),
		Checkout: checkout.NewFlow(checkoutClient, sessions, log),
		Orders:   checkoutClient,
		Timeout:  cfg.CommandTimeout,
		Log:      log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = cli.NewRootCmd(app).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		log.Sync()
		os.Exit(1)
	}
}
