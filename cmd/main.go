package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/config"
	"github.com/campusconnect/campus-connect/internal/container"
	"github.com/campusconnect/campus-connect/internal/infrastructure/memory"
	pginfra "github.com/campusconnect/campus-connect/internal/infrastructure/postgres"
	"github.com/campusconnect/campus-connect/internal/router"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	"github.com/campusconnect/campus-connect/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	store := memory.NewStore()
	if cfg.SeedClubs {
		n, err := memory.Seed(store, memory.DefaultClubs)
		if err != nil {
			log.Fatalf("failed to seed clubs: %v", err)
		}
		logger.WithField("clubs", n).Info("seeded club catalog")
	}

	infra, closeInfra := openInfra(ctx, cfg, logger)
	defer closeInfra()

	c := container.New(cfg, logger, store, infra)
	if c.EventIndex != nil {
		if err := c.EventIndex.EnsureIndex(ctx); err != nil {
			helpers.LogError(logger, "event index setup failed", err, logrus.Fields{"index": cfg.ESEventsIndex})
		}
		n := c.EventIndex.Backfill(ctx, store.ListEventsWithCounts())
		logger.WithField("events", n).Info("event index backfilled")
	}

	r := router.NewEngine(c)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// openInfra connects the optional backends. A backend that is enabled but
// unreachable is logged and left nil; the features behind it degrade.
func openInfra(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (container.Infra, func()) {
	var infra container.Infra
	var closers []func()

	if cfg.RedisEnabled {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			helpers.LogError(logger, "redis unavailable, rate limiting disabled", err, logrus.Fields{"addr": cfg.RedisAddr})
			_ = rdb.Close()
		} else {
			infra.Redis = rdb
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}

	if cfg.RabbitMQEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			helpers.LogError(logger, "rabbitmq unavailable, verification links will be logged", err, nil)
		} else {
			infra.RabbitPub = pub
			closers = append(closers, pub.Close)
		}
	}

	if cfg.ElasticsearchEnabled {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err == nil {
			err = helpers.PingES(ctx, es)
		}
		if err != nil {
			helpers.LogError(logger, "elasticsearch unavailable, search falls back to in-memory", err, nil)
		} else {
			infra.ES = es
		}
	}

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			helpers.LogError(logger, "gcs unavailable, avatar upload disabled", err, logrus.Fields{"bucket": cfg.GCSBucket})
		} else {
			infra.GCS = gcs
			closers = append(closers, func() { _ = gcs.Close() })
		}
	}

	if cfg.AuditDBEnabled {
		dsn := cfg.PostgresDSN()
		if err := pginfra.RunMigrations(dsn, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
			DSN:         dsn,
			AppName:     cfg.AppName,
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		infra.PGPool = pool
		closers = append(closers, pool.Close)
	}

	return infra, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
