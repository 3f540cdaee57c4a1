package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/application"
	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/internal/interface/middleware"
	"github.com/campusconnect/campus-connect/pkg/apperror"
	"github.com/campusconnect/campus-connect/pkg/response"
	"github.com/campusconnect/campus-connect/pkg/validation"
)

// fail is the single error boundary for handlers. AppErrors keep their status
// and message; anything else becomes a generic 500. Causes are only logged.
func fail(c *gin.Context, logger *logrus.Logger, err error) {
	ae := apperror.From(err)
	if ae == nil {
		ae = apperror.Internal(err)
	}
	if ae.HTTPStatus >= http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
			"method":     c.Request.Method,
		}).Error("request failed")
	}
	resp := response.Error[any](c, ae.HTTPStatus, ae.Message, ae.Details)
	c.JSON(resp.Status, resp)
}

func failBinding(c *gin.Context, err error) {
	resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
	c.JSON(resp.Status, resp)
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context, logger *logrus.Logger) (*entity.User, bool) {
	u, err := middleware.CurrentUser(c)
	if err != nil {
		fail(c, logger, apperror.Unauthorized("missing session token"))
		return nil, false
	}
	return u, true
}

func clientMeta(c *gin.Context) application.ClientMeta {
	ip := c.GetString("real_ip")
	if ip == "" {
		ip = c.ClientIP()
	}
	return application.ClientMeta{IP: ip, UserAgent: c.Request.UserAgent()}
}
