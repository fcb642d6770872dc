package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/config"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/database"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/redis"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/tracing"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/events"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/kafka"
)

// runLockKey is shared by both runs: owner and housing merges touch
// overlapping tables and must never execute concurrently.
const runLockKey = "zlv-dedup-run"

// runtime holds everything a run needs: config, logger, database, and the
// optional Redis run lock and Kafka emitter.
type runtime struct {
	cfg             config.Config
	logger          ectologger.Logger
	db              database.DB
	cache           *redis.Client
	lock            *redis.Lock
	producer        *kafka.Producer
	emitter         *events.Emitter
	tracingShutdown func(context.Context) error
}

// newRuntime loads configuration and connects every enabled dependency. On
// error, anything already connected is closed before returning.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	sqlxDB, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		db:     database.NewInstance(sqlxDB, logger),
	}

	if cfg.TracingEnabled {
		rt.tracingShutdown = tracing.Setup(cfg.AppName, &tracing.ConsoleExporter{})
	}

	if cfg.RedisEnabled {
		cache, err := redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			rt.close(ctx)
			return nil, err
		}
		rt.cache = cache

		locker := redis.NewLocker(cache, "zlv:")
		lock, err := locker.TryAcquire(ctx, runLockKey, cfg.RunLockTTL, cfg.RunLockWaitTime)
		if err != nil {
			rt.close(ctx)
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		rt.lock = lock
	}

	if cfg.KafkaEnabled {
		rt.producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		rt.emitter = events.NewEmitter(rt.producer, logger)
	}

	return rt, nil
}

// close releases the run lock and closes every connection. Safe to call on a
// partially built runtime.
func (rt *runtime) close(ctx context.Context) {
	if rt.lock != nil {
		if err := rt.lock.Release(ctx); err != nil {
			rt.logger.WithContext(ctx).WithError(err).Error("Failed to release run lock")
		}
	}
	if rt.cache != nil {
		rt.cache.Close()
	}
	if rt.producer != nil {
		if err := rt.producer.Close(); err != nil {
			rt.logger.WithContext(ctx).WithError(err).Error("Failed to close Kafka producer")
		}
	}
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.tracingShutdown != nil {
		if err := rt.tracingShutdown(ctx); err != nil {
			rt.logger.WithContext(ctx).WithError(err).Error("Failed to shut down tracing")
		}
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return zapadapter.NewZapEctoLogger(zapLogger.Named(cfg.AppName), nil)
}
