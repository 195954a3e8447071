package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"meostore/internal/config"
	"meostore/internal/database"
	"meostore/internal/handler"
	"meostore/internal/metrics"
	"meostore/internal/notify"
	"meostore/internal/repository"
	"meostore/internal/service"
	"meostore/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	m := metrics.New()

	qr, err := service.NewQRBuilder(service.BankAccount{
		Bin:         cfg.Bank.Bin,
		AccountNo:   cfg.Bank.AccountNo,
		AccountName: cfg.Bank.AccountName,
	}, cfg.Bank.QRBaseURL, cfg.Bank.QRTemplate)
	if err != nil {
		slog.Error("invalid bank configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notifications
	hub := notify.NewHub(m)
	var notifiers notify.Fanout

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		notifiers = append(notifiers, notify.NewRedisPublisher(rdb, cfg.Redis.Channel, m))
		go worker.NewRelayWorker(rdb, cfg.Redis.Channel, hub).Start(ctx)
	} else {
		notifiers = append(notifiers, hub)
	}

	var kafkaPub *notify.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, m)
		notifiers = append(notifiers, kafkaPub)
	}

	// Services
	storage := repository.NewGate()
	verifier := service.NewSignatureVerifier(cfg.Webhook.Secret,
		service.WithBypass(cfg.SignatureBypass()),
		service.WithTolerance(cfg.Webhook.Tolerance),
	)
	orderSvc := service.NewOrderService(storage, qr, m, service.WithMaxAttempts(cfg.Order.CreateMaxAttempts))
	webhookSvc := service.NewWebhookService(storage, verifier, notifiers, m)

	srv := &http.Server{
		Addr: cfg.ListenAddr(),
		Handler: handler.NewRouter(handler.RouterDeps{
			Orders:         orderSvc,
			Webhooks:       webhookSvc,
			Hub:            hub,
			Storage:        storage,
			Metrics:        m.Handler(),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Storage is attached once ready; requests fail fast until then.
	closeStorage := attachStorage(ctx, cfg.Storage, storage)
	defer closeStorage()

	<-quit
	slog.Info("shutting down...")

	cancel()
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			slog.Error("kafka writer close failed", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	slog.Info("server stopped")
}

func attachStorage(ctx context.Context, cfg config.Storage, gate *repository.Gate) func() {
	if cfg.Driver == config.StorageDriverMemory {
		slog.Warn("using in-memory order storage; orders are lost on restart")
		gate.Attach(repository.NewMemoryOrderRepository())
		return func() {}
	}

	db, err := database.NewDB(ctx, cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(db); err != nil {
		slog.Error("failed to migrate DB schema", "error", err)
		os.Exit(1)
	}

	gate.Attach(repository.NewPostgresOrderRepository(db))
	slog.Info("storage ready")
	return func() { database.CloseDB(db) }
}

func newLogger(cfg config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
