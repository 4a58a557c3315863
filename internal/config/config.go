package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendS3       = "s3"

	NotifierSimulated = "simulated"
	NotifierKafka     = "kafka"
)

type Config struct {
	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	GRPCPort           string        `envconfig:"GRPC_PORT" default:"50051"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"6291456"`
	CookieSecure       bool          `envconfig:"COOKIE_SECURE" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	VisitorIdleTimeout time.Duration `envconfig:"VISITOR_IDLE_TIMEOUT" default:"30m"`
	VisitorSweepEvery  time.Duration `envconfig:"VISITOR_SWEEP_EVERY" default:"1m"`
	SessionWait        time.Duration `envconfig:"SESSION_WAIT" default:"2s"`
	HealthEvery        time.Duration `envconfig:"HEALTH_EVERY" default:"15s"`

	KVBackend     string        `envconfig:"KV_BACKEND" default:"memory"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string        `envconfig:"REDIS_PREFIX" default:"storefront"`
	KVTTL         time.Duration `envconfig:"KV_TTL" default:"720h"`

	OrdersBackend       string        `envconfig:"ORDERS_BACKEND" default:"memory"`
	MongoURI            string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase       string        `envconfig:"MONGO_DATABASE" default:"storefront"`
	MongoConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
	MongoSelectTimeout  time.Duration `envconfig:"MONGO_SELECT_TIMEOUT" default:"5s"`
	MongoMaxPool        uint64        `envconfig:"MONGO_MAX_POOL" default:"100"`
	MongoMinPool        uint64        `envconfig:"MONGO_MIN_POOL" default:"0"`

	CatalogDSN string `envconfig:"CATALOG_DSN" default:":memory:"`

	UsersBackend     string `envconfig:"USERS_BACKEND" default:"memory"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"storefront"`

	JWTSecret  string        `envconfig:"JWT_SECRET" default:""`
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"0"`

	BlobBackend   string `envconfig:"BLOB_BACKEND" default:"memory"`
	S3Region      string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint    string `envconfig:"S3_ENDPOINT" default:""`
	S3Bucket      string `envconfig:"S3_BUCKET" default:"product-images"`
	BlobPublicURL string `envconfig:"BLOB_PUBLIC_URL" default:"/media"`

	NotifierMode        string        `envconfig:"NOTIFIER_MODE" default:"simulated"`
	KafkaBrokers        string        `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	NotificationTopic   string        `envconfig:"NOTIFICATION_TOPIC" default:"seller-notifications"`
	DispatcherEnabled   bool          `envconfig:"DISPATCHER_ENABLED" default:"false"`
	DispatcherGroupID   string        `envconfig:"DISPATCHER_GROUP_ID" default:"storefront-notifier"`
	BreakerFailures     uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerOpenFor      time.Duration `envconfig:"BREAKER_OPEN_FOR" default:"30s"`
	NotificationTimeout time.Duration `envconfig:"NOTIFICATION_TIMEOUT" default:"10s"`

	LoginRatePerSecond float64 `envconfig:"LOGIN_RATE_PER_SECOND" default:"1"`
	LoginRateBurst     int     `envconfig:"LOGIN_RATE_BURST" default:"5"`
}

// Load reads an optional .env file (or the given files) and then the process
// environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"KV_BACKEND", c.KVBackend, []string{BackendMemory, BackendRedis}},
		{"ORDERS_BACKEND", c.OrdersBackend, []string{BackendMemory, BackendMongo}},
		{"USERS_BACKEND", c.UsersBackend, []string{BackendMemory, BackendPostgres}},
		{"BLOB_BACKEND", c.BlobBackend, []string{BackendMemory, BackendS3}},
		{"NOTIFIER_MODE", c.NotifierMode, []string{NotifierSimulated, NotifierKafka}},
	}
	for _, check := range checks {
		if !contains(check.allowed, check.value) {
			return fmt.Errorf("%s must be one of %s, got %q", check.name, strings.Join(check.allowed, ", "), check.value)
		}
	}
	if c.UsersBackend != BackendMemory && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required outside the memory backend")
	}
	if c.MongoMaxPool > 0 && c.MongoMinPool > c.MongoMaxPool {
		return errors.New("MONGO_MIN_POOL must not exceed MONGO_MAX_POOL")
	}
	if c.LoginRatePerSecond <= 0 || c.LoginRateBurst < 1 {
		return errors.New("login rate limit must be positive")
	}
	return nil
}

// Brokers splits KAFKA_BROKERS on commas.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
