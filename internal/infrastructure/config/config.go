package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const minJWTSecretLen = 32

type Config struct {
	Port      string `env:"PORT,       default=3000"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth      AuthConfig
	DB        DBConfig
	HTTP      HTTPConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Mongo     MongoConfig
	AMQP      AMQPConfig
	SMTP      SMTPConfig
	Notify    NotifyConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET, required"`
	TokenTTL   time.Duration `env:"JWT_TTL,    default=24h"`
	AdminCode  string        `env:"ADMIN_CODE"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
	// Required gates /reservas behind session tokens. Disable only to serve
	// clients that predate login.
	Required bool `env:"AUTH_REQUIRED, default=true"`
}

type DBConfig struct {
	Path        string        `env:"DB_PATH,         default=reservas.db"`
	BusyTimeout time.Duration `env:"DB_BUSY_TIMEOUT, default=5s"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `env:"CORS_ORIGINS,     default=*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL,  default=24h"`
}

// RateLimitConfig defaults to 200 requests per client every 10 minutes.
type RateLimitConfig struct {
	Enabled  bool          `env:"RATE_LIMIT_ENABLED,  default=true"`
	Requests int           `env:"RATE_LIMIT_REQUESTS, default=200"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW,   default=10m"`
}

// RedisConfig is optional: an empty Addr disables idempotency keys and the
// shared rate limiter.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// MongoConfig is optional: an empty URI disables the audit log.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=reservas"`
}

// AMQPConfig is optional: an empty URL disables event publishing.
type AMQPConfig struct {
	URL   string `env:"AMQP_URL"`
	Queue string `env:"AMQP_QUEUE, default=reservation.confirmed"`
}

// SMTPConfig is optional: an empty Host disables confirmation emails.
// EMAIL_USER and EMAIL_PASS are accepted for older deployments.
type SMTPConfig struct {
	Host       string `env:"SMTP_HOST"`
	Port       int    `env:"SMTP_PORT, default=587"`
	User       string `env:"SMTP_USER"`
	Pass       string `env:"SMTP_PASS"`
	LegacyUser string `env:"EMAIL_USER"`
	LegacyPass string `env:"EMAIL_PASS"`
	From       string `env:"SMTP_FROM"`
}

type NotifyConfig struct {
	Workers int           `env:"NOTIFY_WORKERS, default=2"`
	Buffer  int           `env:"NOTIFY_BUFFER,  default=256"`
	Timeout time.Duration `env:"NOTIFY_TIMEOUT, default=15s"`
}

// Username returns SMTP_USER, falling back to EMAIL_USER.
func (s SMTPConfig) Username() string {
	if s.User != "" {
		return s.User
	}
	return s.LegacyUser
}

// Password returns SMTP_PASS, falling back to EMAIL_PASS.
func (s SMTPConfig) Password() string {
	if s.Pass != "" {
		return s.Pass
	}
	return s.LegacyPass
}

// Load reads configuration from environment variables using go-envconfig and
// validates it.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks rules envconfig tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 14"))
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.SMTP.Host != "" && c.SMTP.Username() == "" {
		errs = append(errs, errors.New("SMTP_USER (or EMAIL_USER) is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
