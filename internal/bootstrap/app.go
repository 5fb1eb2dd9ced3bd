package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/briteai/briteai-backend/internal/config"
	"github.com/briteai/briteai-backend/internal/model"
	loggerPlatform "github.com/briteai/briteai-backend/internal/platform/logger"
	mysqlClient "github.com/briteai/briteai-backend/internal/platform/mysql"
	rabbitmqClient "github.com/briteai/briteai-backend/internal/platform/rabbitmq"
	redisClient "github.com/briteai/briteai-backend/internal/platform/redis"
	"github.com/briteai/briteai-backend/internal/repository"
	"github.com/briteai/briteai-backend/internal/worker"
)

type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	UsageWorker *worker.UsagePersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := loggerPlatform.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.Message{},
		&model.UsageRecord{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.UsageEventQueue)
	if err != nil {
		return nil, err
	}

	usageRepo := repository.NewUsageRepository(mysqlDB)
	usageWorker := worker.NewUsagePersistWorker(mqConn, usageRepo, cfg.RabbitMQ.UsageEventQueue, log)
	if err := usageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start usage worker failed: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      log,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		UsageWorker: usageWorker,
		StartedAt:   time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.UsageWorker != nil {
		a.UsageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
