package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/campusconnect/campus-connect/internal/infrastructure/realtime"
	"github.com/campusconnect/campus-connect/internal/interface/middleware"
)

// RealtimeModule exposes GET /ws. Authentication happens inside the
// connection, so no Auth middleware here.
type RealtimeModule struct {
	Server *realtime.Server
	RPS    float64
	Burst  int
}

func NewRealtimeModule(s *realtime.Server, rps float64, burst int) *RealtimeModule {
	return &RealtimeModule{Server: s, RPS: rps, Burst: burst}
}

func (m *RealtimeModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ws", middleware.LocalRateLimit("ws_upgrade", m.RPS, m.Burst), m.Server.Handle)
}
