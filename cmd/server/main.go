package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artastic/internal/config"
	"artastic/internal/database"
	"artastic/internal/events"
	"artastic/internal/handlers"
	"artastic/internal/logger"
	"artastic/internal/migrations"
	"artastic/internal/notify"
	"artastic/internal/redis"
	"artastic/internal/repository"
	"artastic/internal/services"
	"artastic/internal/store"
	"artastic/internal/websocket"
	"artastic/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Initialize(cfg.DatabaseURL, cfg.DBLogLevel, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := migrations.RunMigrations(ctx, db, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient, err := redis.Initialize(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, log)
	if err != nil {
		log.Fatal("failed to create event publisher", zap.Error(err))
	}
	defer publisher.Close()

	gateway := repository.NewGateway(db)
	preferences := services.NewPreferenceService(redisClient)

	// The hub reads from the store, so it is attached to the notifier
	// chain through a forwarder set once the store exists.
	feed := notify.NewFeed(cfg.NotificationFeedSize)
	hubNotifier := &lateNotifier{}
	notifiers := notify.Multi{feed, hubNotifier}

	if cfg.WhatsAppAPIURL != "" && cfg.NotifyPhone != "" {
		client := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath)
		owner := notify.NewWhatsApp(client, preferences, cfg.NotifyPhone, log)
		defer owner.Close()
		notifiers = append(notifiers, owner)
	}

	shop := store.New(gateway, notifiers, publisher, log)
	defer shop.Close()

	hub := websocket.NewHub(shop, log)
	hubNotifier.target = hub
	go hub.Run(ctx)

	if err := shop.LoadAll(ctx); err != nil {
		log.Warn("initial load incomplete", zap.Error(err))
	}

	users := services.NewUserService(gateway.Users, log)
	auth := services.NewAuthService(users, redisClient, cfg.JWTSecret, time.Duration(cfg.SessionTimeout)*time.Second, log)

	router := handlers.Router{
		Auth:    auth,
		Logger:  log,
		AuthH:   handlers.NewAuthHandler(auth, log),
		Catalog: handlers.NewCatalogHandler(services.NewCatalogService(shop), log),
		Orders:  handlers.NewOrderHandler(services.NewOrderService(shop), log),
		Sales:   handlers.NewSalesHandler(services.NewSalesService(shop), log),
		State: handlers.NewStateHandler(shop, preferences, feed, map[string]handlers.Pinger{
			"database": handlers.PingFunc(sqlDB.PingContext),
			"redis":    redisClient,
		}, log),
		WebSocket: hub.HandleWebSocket,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	cancel()
	log.Info("server stopped")
}

// lateNotifier forwards to a notifier that is only known after wiring.
type lateNotifier struct {
	target notify.Notifier
}

func (l *lateNotifier) Notify(ctx context.Context, n notify.Notification) {
	if l.target != nil {
		l.target.Notify(ctx, n)
	}
}
