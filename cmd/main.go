package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/logging"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/notify"
	"github.com/ukydev/fleet-maintenance/internal/scheduler"
	"github.com/ukydev/fleet-maintenance/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid logging configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server exited")
	}
}

// run wires the service and blocks until ctx is cancelled or the listener fails.
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	log := logging.Component(logger, "main")
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET is not set; using the built-in development secret")
	}

	client, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	store := db.NewStore(client, cfg.MongoDB, cfg.MongoTransactions)
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Disconnect(dctx); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	tokens, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}

	m := metrics.New()
	dispatcher, closeDispatcher, err := buildDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	queue := notify.NewQueue(dispatcher, cfg.NotifyQueue, cfg.NotifyTimeout,
		logging.Component(logger, "notify"), notify.WithObserver(m.ObserveNotification))
	queue.Start()

	svc := service.New(service.NewRepository(store), tokens, queue, logging.Component(logger, "service"))

	var digest *scheduler.Scheduler
	if cfg.DigestSchedule != "" {
		digest, err = scheduler.New(cfg.DigestSchedule, svc, 0, logging.Component(logger, "scheduler"))
		if err != nil {
			return err
		}
		digest.Start()
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Services:               svc,
		Tokens:                 tokens,
		Users:                  store.Users,
		Health:                 store,
		Metrics:                m,
		Logger:                 logging.Component(logger, "http"),
		CORSOrigins:            cfg.CORSOrigins,
		StaticDir:              cfg.StaticDir,
		RateLimitRequests:      cfg.RateLimitRequests,
		RateLimitWindowSeconds: cfg.RateLimitWindowSeconds,
	})
	srv := newServer(cfg.Port, router)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case serveErr = <-errCh:
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	if digest != nil {
		digest.Stop(sctx)
	}
	if err := queue.Stop(sctx); err != nil {
		log.WithError(err).Warn("Notification queue not drained")
	}
	return serveErr
}

func newServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// buildDispatcher picks the notification backend. The returned func
// releases its connections.
func buildDispatcher(cfg *config.Config, logger *logrus.Logger) (notify.Dispatcher, func(), error) {
	log := logging.Component(logger, "notify")
	noop := func() {}

	switch cfg.Notifier {
	case config.NotifierLog, "":
		return &notify.LogDispatcher{Logger: log}, noop, nil
	case config.NotifierMQTT:
		client, err := notify.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.NotifyTimeout)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("broker", cfg.MQTTBroker).Info("Publishing notifications over MQTT")
		return &notify.MQTTDispatcher{Client: client, Topic: cfg.MQTTTopic, QoS: 1},
			func() { client.Disconnect(250) }, nil
	case config.NotifierAMQP:
		conn, ch, err := notify.DialAMQP(cfg.AMQPURL)
		if err != nil {
			return nil, nil, err
		}
		if err := ch.ExchangeDeclare(cfg.AMQPExchange, "topic", true, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("amqp exchange declare: %w", err)
		}
		log.WithField("exchange", cfg.AMQPExchange).Info("Publishing notifications over AMQP")
		return &notify.AMQPDispatcher{Channel: ch, Exchange: cfg.AMQPExchange, RoutingKey: cfg.AMQPRoutingKey},
			func() {
				_ = ch.Close()
				_ = conn.Close()
			}, nil
	case config.NotifierSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, nil, errors.New("SENDGRID_API_KEY is required")
		}
		log.Info("Sending notifications through SendGrid")
		return notify.NewSendGridDispatcher(cfg.SendGridAPIKey, cfg.SendGridFrom), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}
