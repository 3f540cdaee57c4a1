package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/application"
	"github.com/campusconnect/campus-connect/pkg/response"
)

type ClubHandler struct {
	Svc    *application.ClubService
	Logger *logrus.Logger
}

func NewClubHandler(svc *application.ClubService, logger *logrus.Logger) *ClubHandler {
	return &ClubHandler{Svc: svc, Logger: logger}
}

type createClubRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=80"`
	Description string `json:"description" binding:"max=2000"`
	Category    string `json:"category" binding:"required,max=40"`
}

func (h *ClubHandler) List(c *gin.Context) {
	clubs := h.Svc.List(c.Request.Context())
	response.Success(c, http.StatusOK, clubs, "clubs", map[string]any{"count": len(clubs)})
}

func (h *ClubHandler) Create(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	var req createClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}
	club, err := h.Svc.Create(c.Request.Context(), u, application.CreateClubInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, club, "club created", nil)
}

func (h *ClubHandler) Join(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	club, err := h.Svc.Join(c.Request.Context(), u, c.Param("name"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, club, "joined club", nil)
}

func (h *ClubHandler) Leave(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	club, err := h.Svc.Leave(c.Request.Context(), u, c.Param("name"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, club, "left club", nil)
}
