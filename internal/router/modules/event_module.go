package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	handlers "github.com/campusconnect/campus-connect/internal/interface/http"
	"github.com/campusconnect/campus-connect/internal/interface/middleware"
)

type EventModule struct {
	Handler *handlers.EventHandler
	Auth    gin.HandlerFunc
	RDB     *redis.Client
}

func NewEventModule(h *handlers.EventHandler, auth gin.HandlerFunc, rdb *redis.Client) *EventModule {
	return &EventModule{Handler: h, Auth: auth, RDB: rdb}
}

func (m *EventModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/events")
	g.Use(m.Auth, middleware.RateLimit(m.RDB, middleware.Rule{Scope: "events", Max: 300, Window: time.Minute, Key: middleware.KeyByUserID()}))
	{
		g.GET("", m.Handler.List)
		g.GET("/search", m.Handler.Search)
		g.GET("/:id", m.Handler.Get)
		g.POST("", middleware.RequireRole(entity.RoleFaculty, entity.RoleOrganizer), m.Handler.Create)
		g.POST("/:id/rsvp", m.Handler.RSVP)
		g.DELETE("/:id/rsvp", m.Handler.CancelRSVP)
	}
}
