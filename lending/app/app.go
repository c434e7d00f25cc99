package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/config"
	"github.com/Astemirdum/lending-service/lending/internal/cache"
	"github.com/Astemirdum/lending-service/lending/internal/events"
	"github.com/Astemirdum/lending-service/lending/internal/fine"
	"github.com/Astemirdum/lending-service/lending/internal/handler"
	"github.com/Astemirdum/lending-service/lending/internal/repository"
	"github.com/Astemirdum/lending-service/lending/internal/server"
	"github.com/Astemirdum/lending-service/lending/internal/service"
	"github.com/Astemirdum/lending-service/lending/migrations"
	"github.com/Astemirdum/lending-service/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-service/pkg/kafka"
	"github.com/Astemirdum/lending-service/pkg/logger"
	"github.com/Astemirdum/lending-service/pkg/postgres"
)

func Run(cfg config.Config) {
	log := logger.NewLogger(cfg.Log, "lending")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	calc, err := fine.NewCalculator(cfg.Fine.DailyRate, cfg.Fine.Currency)
	if err != nil {
		log.Fatal("fine calculator", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, calc, log,
		repository.WithRetry(cfg.Retry.MaxAttempts, cfg.Retry.InitialInterval))
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}
	historyCache := cache.NewHistoryCache(cfg.Cache.Size, cfg.Cache.TTL)

	pub := events.Nop()
	var closeProducer func() error
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		closeProducer = producer.Close
		pub = events.NewKafkaPublisher(producer, circuit_breaker.New(cfg.CircuitBreaker), log)
	} else {
		log.Warn("kafka disabled: events are dropped, history cache is invalidated locally only")
	}

	svc := service.NewService(repo, calc, historyCache, pub, log)

	if cfg.Kafka.Enabled() {
		group, err := kafka.NewConsumer(cfg.Kafka, kafka.CacheConsumerGroup())
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		go func() {
			if err := kafka.Consume(ctx, group, handler.NewConsumer(svc.InvalidateHistory, log), kafka.LendingTopic); err != nil {
				log.Error("kafka.Consume", zap.Error(err))
			}
		}()
	}

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	cancel()
	if closeProducer != nil {
		if err := closeProducer(); err != nil {
			log.Warn("producer.Close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	_ = log.Sync()
}
