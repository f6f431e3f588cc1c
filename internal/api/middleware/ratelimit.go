package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/eventos/reservas-api/internal/core/metrics"
)

// RateLimitConfig allows Requests per client within Window. Tokens refill
// continuously at Requests/Window.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	Prefix   string
	Skipper  echomiddleware.Skipper
}

// tokenBucketScript refills the bucket for the elapsed whole intervals,
// takes one token if available and returns {allowed, remaining, retry_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

if interval_ms > 0 then
  local elapsed = math.max(0, now_ms - last_refill)
  local intervals = math.floor(elapsed / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals)
    last_refill = last_refill + (intervals * interval_ms)
  end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

type rateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

// RateLimit returns a per-client limiter. With a Redis client the bucket is
// shared by every instance; without one each process keeps its own.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}
	if rdb == nil {
		return memoryRateLimit(cfg)
	}
	return redisRateLimit(cfg, rdb, log)
}

func redisRateLimit(cfg RateLimitConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
	interval := cfg.Window / time.Duration(cfg.Requests)
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ttl := int64(math.Ceil(cfg.Window.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			key := cfg.Prefix + ":" + clientKey(c)
			vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Requests, interval.Milliseconds(), ttl,
			).Int64Slice()
			if err != nil || len(vals) != 3 {
				// Fail open: an unavailable limiter must not take the API down.
				log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
				return next(c)
			}

			allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				return tooManyRequests(c, int(math.Ceil(float64(retryMs)/1000.0)))
			}
			return next(c)
		}
	}
}

func memoryRateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		Burst:     cfg.Requests,
		ExpiresIn: cfg.Window,
	})
	retryAfter := int(math.Ceil(cfg.Window.Seconds() / float64(cfg.Requests)))

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Skipper: cfg.Skipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return clientKey(c), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return tooManyRequests(c, retryAfter)
		},
	})
}

func tooManyRequests(c echo.Context, retryAfter int) error {
	if retryAfter < 1 {
		retryAfter = 1
	}
	metrics.RateLimitedTotal.Inc()
	c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
	return c.JSON(http.StatusTooManyRequests, rateLimitResponse{
		Error:      "too many requests",
		RetryAfter: retryAfter,
	})
}

// clientKey identifies the caller: the user id when a session is known,
// otherwise the client IP.
func clientKey(c echo.Context) string {
	if claims, ok := ClaimsFrom(c); ok {
		return "user:" + strconv.FormatInt(claims.UserID, 10)
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
