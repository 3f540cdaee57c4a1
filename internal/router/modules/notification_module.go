package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/campusconnect/campus-connect/internal/interface/http"
	"github.com/campusconnect/campus-connect/internal/interface/middleware"
)

type NotificationModule struct {
	Handler *handlers.NotificationHandler
	Auth    gin.HandlerFunc
	RDB     *redis.Client
}

func NewNotificationModule(h *handlers.NotificationHandler, auth gin.HandlerFunc, rdb *redis.Client) *NotificationModule {
	return &NotificationModule{Handler: h, Auth: auth, RDB: rdb}
}

func (m *NotificationModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/notifications")
	g.Use(m.Auth, middleware.RateLimit(m.RDB, middleware.Rule{Scope: "notifications", Max: 300, Window: time.Minute, Key: middleware.KeyByUserID()}))
	{
		g.GET("", m.Handler.List)
		g.POST("/read-all", m.Handler.MarkAllRead)
		g.POST("/:id/read", m.Handler.MarkRead)
	}
}
