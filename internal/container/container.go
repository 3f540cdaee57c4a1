package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/config"
	"github.com/campusconnect/campus-connect/internal/application"
	"github.com/campusconnect/campus-connect/internal/infrastructure/memory"
	pginfra "github.com/campusconnect/campus-connect/internal/infrastructure/postgres"
	"github.com/campusconnect/campus-connect/internal/infrastructure/realtime"
	"github.com/campusconnect/campus-connect/internal/infrastructure/search"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	mailtpl "github.com/campusconnect/campus-connect/pkg/mailer/templates"
)

// Infra holds the optional external clients. Any of them may be nil; the
// features that depend on them degrade instead of failing.
type Infra struct {
	Redis     *redis.Client
	RabbitPub *helpers.RabbitPublisher
	ES        *elasticsearch.Client
	GCS       *storage.Client
	PGPool    *pgxpool.Pool
}

// Container is the explicitly constructed object graph for one process.
// Tests build a fresh one per case.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Infra  Infra

	Store    *memory.Store
	Creds    *helpers.CredentialManager
	Identity *application.IdentityResolver
	Registry *realtime.Registry
	Live     *realtime.Server

	Notifications *application.NotificationService
	Auth          *application.AuthService
	Events        *application.EventService
	Clubs         *application.ClubService
	EventIndex    *search.EventIndex
}

func New(cfg *config.Config, logger *logrus.Logger, store *memory.Store, infra Infra) *Container {
	c := &Container{Config: cfg, Logger: logger, Infra: infra, Store: store}

	c.Creds = helpers.NewCredentialManager(cfg.JWTSecret, cfg.SessionTTL, cfg.VerifyTTL, cfg.JWTIssuer)
	c.Identity = application.NewIdentityResolver(c.Creds, store)
	c.Registry = realtime.NewRegistry(logger)
	c.Live = realtime.NewServer(c.Registry, c.Identity, logger, realtime.Options{
		PingInterval:   cfg.WSPingInterval,
		PongTimeout:    cfg.WSPongTimeout,
		WriteTimeout:   cfg.WSWriteTimeout,
		AllowedOrigins: cfg.CORSOrigins(),
	})

	c.Notifications = application.NewNotificationService(store, c.Registry, logger)

	c.Auth = application.NewAuthService(store, c.Creds, c.Identity, c.Notifications, logger, application.AuthConfig{
		InstitutionDomain: cfg.InstitutionDomain,
		VerifyURL:         cfg.VerifyEmailURL,
		ResendCooldown:    cfg.ResendCooldown,
		GCSBucket:         cfg.GCSBucket,
		Brand: mailtpl.Brand{
			AppName:         cfg.AppName,
			InstitutionName: cfg.InstitutionName,
			SupportURL:      cfg.SupportURL,
		},
	})
	c.Auth.Redis = infra.Redis
	c.Auth.GCS = infra.GCS
	if infra.RabbitPub != nil {
		c.Auth.Queue = infra.RabbitPub
	}
	if infra.PGPool != nil {
		c.Auth.Audit = pginfra.NewAuditLog(infra.PGPool)
	}

	var index application.EventIndexer
	if infra.ES != nil {
		c.EventIndex = search.NewEventIndex(infra.ES, cfg.ESEventsIndex, logger)
		index = c.EventIndex
	}
	c.Events = application.NewEventService(store, c.Notifications, index, logger)
	c.Clubs = application.NewClubService(store, c.Notifications, logger)
	return c
}
