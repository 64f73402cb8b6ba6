package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"catalog-sync-service/database"
	awspkg "catalog-sync-service/pkg/aws"

	"go.uber.org/zap"
)

const (
	ProductStorePostgres = "postgres"
	ProductStoreDynamo   = "dynamodb"

	EventsSNS   = "sns"
	EventsKafka = "kafka"
	EventsNone  = "none"

	dbSecretName     = "catalog-sync/DB_CREDENTIALS"
	impactSecretName = "catalog-sync/IMPACT_CREDENTIALS"
)

// Config holds all configuration for the catalog sync service.
type Config struct {
	Port        string
	Env         string
	ServiceName string

	ImpactAccountSID    string
	ImpactAuthToken     string
	ImpactBaseURL       string
	ImpactRateLimit     float64
	CatalogFetchTimeout time.Duration
	ImageFetchTimeout   time.Duration
	ImageRateLimit      float64

	Postgres         database.PostgresSettings
	ProductStore     string
	DDBTableProducts string
	RedisURL         string

	AWS              awspkg.Settings
	UseSecrets       bool
	S3Bucket         string
	S3Prefix         string
	S3Endpoint       string
	CloudFrontDomain string

	EventsTransport string
	SNSTopicARN     string
	KafkaBrokers    []string
	KafkaTopic      string

	LogDir             string
	LogMaxSizeMB       int
	LogMaxAgeDays      int
	CloudWatchEnabled  bool
	CloudWatchLogGroup string
	MetricsEnabled     bool
	MetricsNamespace   string

	RequestTimeout time.Duration
	WorkerEnabled  bool
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig(ctx context.Context) (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.UseSecrets {
		awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		applySecrets(ctx, cfg, awspkg.NewSecretsClient(awsCfg))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	var p envParser
	cfg := &Config{
		Port:        getEnv("PORT", "8093"),
		Env:         getEnv("APP_ENV", "development"),
		ServiceName: getEnv("SERVICE_NAME", "catalog-sync"),

		ImpactAccountSID:    os.Getenv("IMPACT_ACCOUNT_SID"),
		ImpactAuthToken:     os.Getenv("IMPACT_AUTH_TOKEN"),
		ImpactBaseURL:       getEnv("IMPACT_BASE_URL", "https://api.impact.com"),
		ImpactRateLimit:     p.getFloat("IMPACT_RATE_LIMIT", 2),
		CatalogFetchTimeout: p.getDuration("CATALOG_FETCH_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:   p.getDuration("IMAGE_FETCH_TIMEOUT", 30*time.Second),
		ImageRateLimit:      p.getFloat("IMAGE_RATE_LIMIT", 10),

		Postgres: database.PostgresSettings{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		ProductStore:     strings.ToLower(getEnv("PRODUCT_STORE", ProductStorePostgres)),
		DDBTableProducts: getEnv("DDB_TABLE_PRODUCTS", "CatalogProducts"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),

		AWS: awspkg.Settings{
			Region:    getEnv("AWS_REGION", "us-east-1"),
			Endpoint:  os.Getenv("AWS_ENDPOINT"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		UseSecrets:       p.getBool("AWS_USE_SECRETS", false),
		S3Bucket:         getEnv("AWS_S3_BUCKET", "catalog-sync"),
		S3Prefix:         getEnv("AWS_S3_PREFIX", "catalog-images/"),
		S3Endpoint:       getEnv("AWS_S3_ENDPOINT", os.Getenv("AWS_ENDPOINT")),
		CloudFrontDomain: os.Getenv("AWS_CLOUDFRONT_DOMAIN"),

		EventsTransport: strings.ToLower(getEnv("SYNC_EVENTS_TRANSPORT", EventsNone)),
		SNSTopicARN:     os.Getenv("SYNC_SNS_TOPIC_ARN"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnv("KAFKA_SYNC_TOPIC", "catalog-sync-events"),

		LogDir:             os.Getenv("LOG_DIR"),
		LogMaxSizeMB:       p.getInt("LOG_MAX_SIZE_MB", 5),
		LogMaxAgeDays:      p.getInt("LOG_MAX_AGE_DAYS", 30),
		CloudWatchEnabled:  p.getBool("CLOUDWATCH_ENABLED", false),
		CloudWatchLogGroup: getEnv("CLOUDWATCH_LOG_GROUP", "/catalog-sync/app"),
		MetricsEnabled:     p.getBool("METRICS_ENABLED", false),
		MetricsNamespace:   getEnv("METRICS_NAMESPACE", "CatalogSync"),

		RequestTimeout: p.getDuration("REQUEST_TIMEOUT", 5*time.Minute),
		WorkerEnabled:  p.getBool("SYNC_WORKER_ENABLED", true),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.ImpactAccountSID == "" || c.ImpactAuthToken == "" {
		return fmt.Errorf("IMPACT_ACCOUNT_SID and IMPACT_AUTH_TOKEN are required")
	}
	// Attributes and attachments live in Postgres whatever the product store.
	if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DBName == "" || c.Postgres.Host == "" {
		return fmt.Errorf("database config incomplete")
	}
	switch c.ProductStore {
	case ProductStorePostgres, ProductStoreDynamo:
	default:
		return fmt.Errorf("unknown PRODUCT_STORE %q", c.ProductStore)
	}
	switch c.EventsTransport {
	case EventsNone:
	case EventsSNS:
		if c.SNSTopicARN == "" {
			return fmt.Errorf("SYNC_SNS_TOPIC_ARN is required for sns events")
		}
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for kafka events")
		}
	default:
		return fmt.Errorf("unknown SYNC_EVENTS_TRANSPORT %q", c.EventsTransport)
	}
	return nil
}

// applySecrets overrides credentials with values from Secrets Manager.
// Missing secrets keep the environment values.
func applySecrets(ctx context.Context, cfg *Config, sm awspkg.SecretReader) {
	if m, err := awspkg.GetSecretMap(ctx, sm, dbSecretName); err == nil {
		override(&cfg.Postgres.User, m["POSTGRES_USER"])
		override(&cfg.Postgres.Password, m["POSTGRES_PASSWORD"])
		override(&cfg.Postgres.DBName, m["POSTGRES_DB"])
		override(&cfg.Postgres.Host, m["POSTGRES_HOST"])
		override(&cfg.Postgres.Port, m["POSTGRES_PORT"])
	} else {
		zap.L().Warn("db credentials secret not applied", zap.Error(err))
	}

	if m, err := awspkg.GetSecretMap(ctx, sm, impactSecretName); err == nil {
		override(&cfg.ImpactAccountSID, m["IMPACT_ACCOUNT_SID"])
		override(&cfg.ImpactAuthToken, m["IMPACT_AUTH_TOKEN"])
	} else {
		zap.L().Warn("impact credentials secret not applied", zap.Error(err))
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envParser keeps the first conversion error so fromEnv reads straight through.
type envParser struct {
	err error
}

func (p *envParser) fail(key, val string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
}

func (p *envParser) getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return n
}

func (p *envParser) getFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return f
}

func (p *envParser) getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return b
}

func (p *envParser) getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return d
}
