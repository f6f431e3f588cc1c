package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": testSecret,
	}))
	require.NoError(t, err)

	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "reservas.db", cfg.DB.Path)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, 10, cfg.Auth.BcryptCost)
	require.True(t, cfg.Auth.Required)
	require.Equal(t, 200, cfg.RateLimit.Requests)
	require.Equal(t, 10*time.Minute, cfg.RateLimit.Window)
	require.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	require.Equal(t, "reservation.confirmed", cfg.AMQP.Queue)
	require.Empty(t, cfg.Redis.Addr)
	require.False(t, cfg.IsProduction())
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestLoad_ShortSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "short",
	}))
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":    testSecret,
		"PORT":          "8081",
		"DB_PATH":       "/data/eventos.db",
		"ADMIN_CODE":    "letmein",
		"AUTH_REQUIRED": "false",
		"CORS_ORIGINS":  "https://a.test,https://b.test",
		"EMAIL_USER":    "bot@eventos.test",
		"EMAIL_PASS":    "app-password",
		"SMTP_HOST":     "smtp.gmail.com",
	}))
	require.NoError(t, err)

	require.Equal(t, "8081", cfg.Port)
	require.Equal(t, "/data/eventos.db", cfg.DB.Path)
	require.Equal(t, "letmein", cfg.Auth.AdminCode)
	require.False(t, cfg.Auth.Required)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.HTTP.CORSOrigins)
	require.Equal(t, "bot@eventos.test", cfg.SMTP.Username())
	require.Equal(t, "app-password", cfg.SMTP.Password())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Auth:      AuthConfig{JWTSecret: "x", BcryptCost: 99},
		RateLimit: RateLimitConfig{Enabled: true},
		SMTP:      SMTPConfig{Host: "smtp.test"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"JWT_SECRET", "BCRYPT_COST", "DB_PATH", "RATE_LIMIT", "SMTP_USER"} {
		require.True(t, strings.Contains(err.Error(), want), "missing %s in %q", want, err)
	}
}
