package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/campusconnect/campus-connect/internal/interface/http"
	"github.com/campusconnect/campus-connect/internal/interface/middleware"
)

// AuthModule wires registration, verification, login and profile routes.
// Public: POST /auth/register, GET /auth/verify, POST /auth/resend-verification, POST /auth/login
// Protected: POST /auth/logout, GET /auth/me, PATCH /auth/profile, POST /auth/avatar
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    gin.HandlerFunc
	RDB     *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, auth gin.HandlerFunc, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth, RDB: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	limit := func(scope string, max int, key middleware.KeyFunc) gin.HandlerFunc {
		return middleware.RateLimit(m.RDB, middleware.Rule{Scope: scope, Max: max, Window: time.Minute, Key: key})
	}
	registerLimiter := limit("auth_register", 10, middleware.KeyByIP())
	loginLimiter := limit("auth_login", 10, middleware.KeyByIP())
	verifyLimiter := limit("auth_verify", 30, middleware.KeyByIPAndPath())
	resendLimiter := limit("auth_resend", 5, middleware.KeyByIPAndPath())

	g := rg.Group("/auth")
	g.POST("/register", registerLimiter, m.Handler.Register)
	g.GET("/verify", verifyLimiter, m.Handler.Verify)
	g.POST("/resend-verification", resendLimiter, m.Handler.ResendVerification)
	g.POST("/login", loginLimiter, m.Handler.Login)

	protected := g.Group("")
	protected.Use(m.Auth, limit("auth_account", 120, middleware.KeyByUserID()))
	{
		protected.POST("/logout", m.Handler.Logout)
		protected.GET("/me", m.Handler.Me)
		protected.PATCH("/profile", m.Handler.UpdateProfile)
		protected.POST("/avatar", limit("auth_avatar", 10, middleware.KeyByUserID()), m.Handler.UploadAvatar)
	}
}
