package router

import (
	"github.com/campusconnect/campus-connect/internal/container"
	handlers "github.com/campusconnect/campus-connect/internal/interface/http"
	"github.com/campusconnect/campus-connect/internal/interface/middleware"
	"github.com/campusconnect/campus-connect/internal/router/modules"
)

// InitModules builds the handlers from c and registers every feature module.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	rdb := c.Infra.Redis
	auth := middleware.Auth(c.Identity)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(c.Auth, c.Logger, c.Config.CookieDomain, c.Config.CookieSecure), auth, rdb))
	r.Add(modules.NewEventModule(handlers.NewEventHandler(c.Events, c.Logger), auth, rdb))
	r.Add(modules.NewClubModule(handlers.NewClubHandler(c.Clubs, c.Logger), auth, rdb))
	r.Add(modules.NewNotificationModule(handlers.NewNotificationHandler(c.Notifications, c.Logger), auth, rdb))
	r.Add(modules.NewRealtimeModule(c.Live, c.Config.WSUpgradeRPS, c.Config.WSUpgradeBurst))

	r.AddRoot(modules.NewObservabilityModule(handlers.NewHealthHandler(c.Registry), c.Config.MetricsEnabled, rdb))
}
