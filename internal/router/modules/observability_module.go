package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/campusconnect/campus-connect/internal/interface/http"
	"github.com/campusconnect/campus-connect/internal/interface/middleware"
	"github.com/campusconnect/campus-connect/pkg/metrics"
)

type ObservabilityModule struct {
	Health         *handlers.HealthHandler
	MetricsEnabled bool
	RDB            *redis.Client
}

func NewObservabilityModule(h *handlers.HealthHandler, metricsEnabled bool, rdb *redis.Client) *ObservabilityModule {
	return &ObservabilityModule{Health: h, MetricsEnabled: metricsEnabled, RDB: rdb}
}

func (m *ObservabilityModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.Health.Healthz)
	if m.MetricsEnabled {
		// in-cluster scrapers are exempt; public callers are limited per IP
		rl := middleware.RateLimit(m.RDB, middleware.Rule{
			Scope: "metrics", Max: 120, Window: time.Minute,
			Key: middleware.KeyByIP(), Allow: middleware.AllowPrivateIP(),
		})
		rg.GET("/metrics", rl, gin.WrapH(metrics.Handler()))
	}
}
