package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventos/reservas-api/internal/api"
	"github.com/eventos/reservas-api/internal/api/middleware"
	"github.com/eventos/reservas-api/internal/core/ports"
	"github.com/eventos/reservas-api/internal/core/service"
	"github.com/eventos/reservas-api/internal/infrastructure/config"
	mongodb "github.com/eventos/reservas-api/internal/infrastructure/db/mongo"
	redisdb "github.com/eventos/reservas-api/internal/infrastructure/db/redis"
	"github.com/eventos/reservas-api/internal/infrastructure/db/sqlite"
	"github.com/eventos/reservas-api/internal/infrastructure/notify"
	"github.com/eventos/reservas-api/internal/infrastructure/queue"
	"github.com/eventos/reservas-api/pkg/logger"
)

const serviceName = "reservas-api"

var (
	loadConfig    = config.Load
	openDB        = sqlite.Open
	migrateDB     = sqlite.Migrate
	connectRedis  = redisdb.Connect
	connectMongo  = mongodb.Connect
	dialPublisher = notify.DialPublisher
	startServer   = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	registry      = func() (prometheus.Registerer, prometheus.Gatherer) {
		return prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	}
	exitFunc = os.Exit
)

func run(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
	})

	// --- Store ---
	db, err := openDB(ctx, sqlite.Config{Path: cfg.DB.Path, BusyTimeout: cfg.DB.BusyTimeout})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrateDB(ctx, db, logger.Component("migrate")); err != nil {
		return err
	}

	// --- Optional backends ---
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = connectRedis(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	var mdb *mongo.Database
	if cfg.Mongo.URI != "" {
		mdb, err = connectMongo(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mdb.Client().Disconnect(disconnectCtx)
		}()
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")
	}

	// --- Notifications ---
	channels := []ports.Notifier{notify.NewLogNotifier(logger.Component("notify"))}
	if cfg.SMTP.Host != "" {
		channels = append(channels, notify.NewMailer(notify.MailerConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username(),
			Password: cfg.SMTP.Password(),
			From:     cfg.SMTP.From,
			Timeout:  cfg.Notify.Timeout,
		}))
	}
	if cfg.AMQP.URL != "" {
		pub, err := dialPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return err
		}
		defer pub.Close()
		channels = append(channels, pub)
	}
	if mdb != nil {
		channels = append(channels, mongodb.NewAuditLog(mdb))
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(queue.Options{
		Workers: cfg.Notify.Workers,
		Buffer:  cfg.Notify.Buffer,
		Timeout: cfg.Notify.Timeout,
	}, notify.NewFanout(channels...), logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	authService := service.NewAuthService(sqlite.NewUserRepository(db, logger.Component("users")), service.AuthOptions{
		JWTSecret:  cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
		AdminCode:  cfg.Auth.AdminCode,
		BcryptCost: cfg.Auth.BcryptCost,
	}, logger.Component("auth"))

	var idem ports.IdempotencyStore
	if rdb != nil {
		idem = redisdb.NewIdempotencyStore(rdb, cfg.HTTP.IdempotencyTTL)
	}
	reservationService := service.NewReservationService(
		sqlite.NewReservationRepository(db), dispatcher, idem, logger.Component("reservations"),
	)

	reg, gatherer := registry()
	e := api.NewRouter(api.Deps{
		Log:                logger.Component("http"),
		DB:                 db,
		Redis:              rdb,
		Mongo:              mdb,
		AuthService:        authService,
		ReservationService: reservationService,
		AuthRequired:       cfg.Auth.Required,
		CORSOrigins:        cfg.HTTP.CORSOrigins,
		RateLimit: middleware.RateLimitConfig{
			Enabled:  cfg.RateLimit.Enabled,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
		Registerer: reg,
		Gatherer:   gatherer,
	})

	if !cfg.Auth.Required {
		log.Warn().Msg("AUTH_REQUIRED=false: reservation routes are open to anonymous clients")
	}

	return serve(ctx, e, ":"+cfg.Port, cfg.HTTP.ShutdownTimeout, log)
}

// serve runs the server until it fails or ctx is cancelled, then shuts it
// down gracefully.
func serve(ctx context.Context, e *echo.Echo, addr string, timeout time.Duration, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		errCh <- startServer(e, addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
