package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/Margiorno/todo-app-sub000/internal/config"
	"github.com/Margiorno/todo-app-sub000/internal/events"
	"github.com/Margiorno/todo-app-sub000/internal/fanout"
	"github.com/Margiorno/todo-app-sub000/internal/handler"
	"github.com/Margiorno/todo-app-sub000/internal/repository"
	"github.com/Margiorno/todo-app-sub000/internal/router"
	"github.com/Margiorno/todo-app-sub000/internal/service"
	"github.com/Margiorno/todo-app-sub000/pkg/jwt"
	"github.com/Margiorno/todo-app-sub000/pkg/snowflake"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	jwtService := jwt.NewService(cfg.JWT.SecretKey, cfg.JWT.AccessExpire)
	ids := snowflake.NewNode(cfg.App.NodeID)

	bus := events.NewBus(logger)
	store := repository.NewStore(db, bus, logger)

	userRepo := repository.NewUserRepository(store)
	conversationRepo := repository.NewConversationRepository(store)
	friendRepo := repository.NewFriendRepository(store)
	notificationRepo := repository.NewNotificationRepository(store)
	sessions := repository.NewSessionStore(redisClient)

	hub := fanout.NewHub(logger)

	// With NATS configured, pushes travel through the relay so every
	// instance's hub can deliver to its own sessions.
	var channel service.PushChannel = hub
	if cfg.NATS.URL != "" {
		nc, err := connectNATS(cfg.NATS)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()

		relay := fanout.NewRelay(nc, hub, logger)
		if err := relay.Start(); err != nil {
			logger.Error("Failed to start push relay", "error", err)
			os.Exit(1)
		}
		defer relay.Close()
		channel = relay
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}

	chatService := service.NewChatService(store, conversationRepo, userRepo, channel, ids, logger)
	notificationService := service.NewNotificationService(store, notificationRepo, userRepo, channel, logger)
	socialService := service.NewSocialService(store, friendRepo, userRepo, bus, logger)

	notificationService.RegisterHandlers(bus)

	chatHandler := handler.NewChatHandler(chatService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	socialHandler := handler.NewSocialHandler(socialService)
	wsHandler := handler.NewWSHandler(hub, chatService, logger)

	r := router.Setup(cfg, jwtService, sessions, chatHandler, notificationHandler, socialHandler, wsHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: r,
	}
	go func() {
		logger.Info("Server started", "addr", srv.Addr, "mode", cfg.App.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	cancel()
	// Let in-flight event handlers finish before the pool closes.
	bus.Wait()
	logger.Info("Server stopped")
}

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MinIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}

func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func connectNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	return nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
	)
}
