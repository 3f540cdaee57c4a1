package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusconnect/campus-connect/pkg/response"
)

// LiveCounter reports how many users hold a live connection.
type LiveCounter interface {
	Count() int
}

type HealthHandler struct {
	Live    LiveCounter
	started time.Time
}

func NewHealthHandler(live LiveCounter) *HealthHandler {
	return &HealthHandler{Live: live, started: time.Now()}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	data := map[string]any{
		"status":           "ok",
		"uptime_seconds":   int(time.Since(h.started).Seconds()),
		"live_connections": 0,
	}
	if h.Live != nil {
		data["live_connections"] = h.Live.Count()
	}
	response.Success[any](c, http.StatusOK, data, "healthy", nil)
}
