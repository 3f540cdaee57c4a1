package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	handlers "github.com/campusconnect/campus-connect/internal/interface/http"
	"github.com/campusconnect/campus-connect/internal/interface/middleware"
)

type ClubModule struct {
	Handler *handlers.ClubHandler
	Auth    gin.HandlerFunc
	RDB     *redis.Client
}

func NewClubModule(h *handlers.ClubHandler, auth gin.HandlerFunc, rdb *redis.Client) *ClubModule {
	return &ClubModule{Handler: h, Auth: auth, RDB: rdb}
}

func (m *ClubModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/clubs")
	g.Use(m.Auth, middleware.RateLimit(m.RDB, middleware.Rule{Scope: "clubs", Max: 300, Window: time.Minute, Key: middleware.KeyByUserID()}))
	{
		g.GET("", m.Handler.List)
		g.POST("", middleware.RequireRole(entity.RoleFaculty, entity.RoleOrganizer), m.Handler.Create)
		g.POST("/:name/join", m.Handler.Join)
		g.POST("/:name/leave", m.Handler.Leave)
	}
}
