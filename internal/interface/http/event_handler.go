package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/application"
	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/pkg/response"
)

type EventHandler struct {
	Svc    *application.EventService
	Logger *logrus.Logger
}

func NewEventHandler(svc *application.EventService, logger *logrus.Logger) *EventHandler {
	return &EventHandler{Svc: svc, Logger: logger}
}

type createEventRequest struct {
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=5000"`
	Date        time.Time `json:"date" binding:"required"`
	Venue       string    `json:"venue" binding:"required,max=200"`
	Club        string    `json:"club"`
	Type        string    `json:"type" binding:"required,oneof=club college"`
	ImageURL    string    `json:"image_url" binding:"omitempty,url"`
}

type rsvpRequest struct {
	Type string `json:"type" binding:"required,oneof=attending interested"`
}

func (h *EventHandler) List(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	events := h.Svc.List(c.Request.Context(), u.ID)
	response.Success(c, http.StatusOK, events, "events", map[string]any{"count": len(events)})
}

func (h *EventHandler) Get(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	ev, err := h.Svc.Get(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, ev, "event", nil)
}

func (h *EventHandler) Search(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	events, err := h.Svc.Search(c.Request.Context(), u.ID, c.Query("q"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, events, "events", map[string]any{"count": len(events)})
}

func (h *EventHandler) Create(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}
	typ, _ := entity.ParseEventType(req.Type)
	ev, err := h.Svc.Create(c.Request.Context(), u, application.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Venue:       req.Venue,
		Club:        req.Club,
		Type:        typ,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, ev, "event created", nil)
}

func (h *EventHandler) RSVP(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	var req rsvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}
	kind, _ := entity.ParseRSVPKind(req.Type)
	ev, err := h.Svc.RSVP(c.Request.Context(), u, c.Param("id"), kind)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, ev, "rsvp saved", nil)
}

func (h *EventHandler) CancelRSVP(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	ev, err := h.Svc.CancelRSVP(c.Request.Context(), u, c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, ev, "rsvp removed", nil)
}
