// Package bootstrap wires the sync service from configuration. The HTTP
// server and the catalog-sync CLI share it.
package bootstrap

import (
	"context"
	"fmt"

	"catalog-sync-service/clients"
	"catalog-sync-service/config"
	"catalog-sync-service/database"
	"catalog-sync-service/kafka"
	"catalog-sync-service/logger"
	awspkg "catalog-sync-service/pkg/aws"
	"catalog-sync-service/repository"
	"catalog-sync-service/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the wired services and the connections they depend on.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *awspkg.MetricsClient

	Imports *services.ImportService
	Removal *services.RemovalService
	Jobs    *services.JobService

	db       *gorm.DB
	redis    *redis.Client
	producer *kafka.Producer
}

// New connects every backing store and assembles the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(ctx, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: log}

	app.db, err = database.Connect(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	app.redis, err = database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		app.Close()
		return nil, err
	}

	var products repository.ProductRepo
	switch cfg.ProductStore {
	case config.ProductStoreDynamo:
		products = repository.NewDynamoProductRepository(dynamodb.NewFromConfig(awsCfg), cfg.DDBTableProducts)
	default:
		products = repository.NewGormProductRepository(app.db)
	}
	attributes := repository.NewGormAttributeRepository(app.db)
	attachments := repository.NewGormAttachmentRepository(app.db)
	progress := repository.NewRedisProgressStore(app.redis)

	store := awspkg.NewObjectStore(awspkg.NewS3Client(awsCfg), cfg.S3Bucket, cfg.S3Prefix, cfg.S3Endpoint, cfg.CloudFrontDomain)
	images := clients.NewHTTPImageFetcher(store, attachments, cfg.ImageFetchTimeout, cfg.ImageRateLimit)
	catalog := clients.NewImpactClient(clients.ImpactOptions{
		BaseURL:    cfg.ImpactBaseURL,
		AccountSID: cfg.ImpactAccountSID,
		AuthToken:  cfg.ImpactAuthToken,
		Timeout:    cfg.CatalogFetchTimeout,
		RatePerSec: cfg.ImpactRateLimit,
	})

	events, err := app.newEventPublisher(awsCfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Metrics = awspkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)

	app.Removal = services.NewRemovalService(products, progress, events, app.Metrics)
	app.Imports = services.NewImportService(catalog, services.NewReconciler(products, attributes, images), progress, app.Removal, events, app.Metrics)
	app.Jobs = services.NewJobService(progress, app.Imports, app.Removal)

	log.Info("catalog sync wired",
		zap.String("product_store", cfg.ProductStore),
		zap.String("events", cfg.EventsTransport),
		zap.Bool("metrics", cfg.MetricsEnabled),
	)
	return app, nil
}

func newLogger(ctx context.Context, cfg *config.Config, awsCfg sdkaws.Config) (*zap.Logger, error) {
	opts := logger.Options{
		Env:        cfg.Env,
		Dir:        cfg.LogDir,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}
	if cfg.CloudWatchEnabled {
		cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, cfg.ServiceName)
		if err != nil {
			// Console and file logging still work without CloudWatch.
			zap.L().Warn("CloudWatch logging disabled", zap.Error(err))
		} else {
			opts.CloudWatch = cw
		}
	}
	return logger.Initialize(opts)
}

func (a *App) newEventPublisher(awsCfg sdkaws.Config) (services.EventPublisher, error) {
	switch a.Config.EventsTransport {
	case config.EventsSNS:
		return services.NewSNSEventPublisher(awspkg.NewSNSClient(awsCfg), a.Config.SNSTopicARN), nil
	case config.EventsKafka:
		producer, err := kafka.NewProducer(a.Config.KafkaBrokers, a.Config.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		a.producer = producer
		return services.NewKafkaEventPublisher(producer), nil
	default:
		return services.NoopEventPublisher{}, nil
	}
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.L().Error("Failed to close Redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			zap.L().Error("Failed to close database", zap.Error(err))
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
