package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the immutable process configuration, read once at startup and
// passed by reference from there. The signing secrets have no defaults: a
// process without them must not come up.
type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,  required"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET, required"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL,     default=15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL,    default=240h"`

	// SecureCookies may only be relaxed for non-TLS local development.
	SecureCookies bool `env:"SECURE_COOKIES, default=true"`

	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Storage StorageConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=account_service"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type StorageConfig struct {
	Region       string `env:"S3_REGION,        default=us-east-1"`
	Bucket       string `env:"S3_BUCKET,        required"`
	AccessKey    string `env:"S3_ACCESS_KEY,    required"`
	SecretKey    string `env:"S3_SECRET_KEY,    required"`
	BaseEndpoint string `env:"S3_BASE_ENDPOINT"` // set for MinIO
	PublicURL    string `env:"S3_PUBLIC_URL,    required"`
}

// Load reads configuration from environment variables using go-envconfig.
// A missing required variable is a startup error, never a per-request one.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
