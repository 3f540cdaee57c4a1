package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/application"
	"github.com/campusconnect/campus-connect/pkg/response"
)

type NotificationHandler struct {
	Svc    *application.NotificationService
	Logger *logrus.Logger
}

func NewNotificationHandler(svc *application.NotificationService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{Svc: svc, Logger: logger}
}

func (h *NotificationHandler) List(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	items, unread := h.Svc.List(c.Request.Context(), u.ID)
	response.Success(c, http.StatusOK, items, "notifications", map[string]any{"count": len(items), "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	n, err := h.Svc.MarkRead(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, n, "notification marked read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	changed := h.Svc.MarkAllRead(c.Request.Context(), u.ID)
	response.Success[any](c, http.StatusOK, map[string]any{"updated": changed}, "all notifications marked read", nil)
}
