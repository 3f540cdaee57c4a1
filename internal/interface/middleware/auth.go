package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	"github.com/campusconnect/campus-connect/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxUserKey   = "user"
)

// SessionResolver turns a session credential into the current user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*entity.User, error)
}

// sessionToken reads the credential from "Authorization: Bearer" and falls
// back to the session cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return helpers.ReadSession(c)
}

// Auth requires a valid session credential. It sets userID and user in the
// Gin context on success.
func Auth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing session token", nil)
			return
		}
		u, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid session token", nil)
			return
		}
		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserKey, u)
		c.Next()
	}
}

var ErrNoUser = errors.New("no authenticated user in context")

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *gin.Context) (*entity.User, error) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, ErrNoUser
	}
	u, ok := v.(*entity.User)
	if !ok || u == nil {
		return nil, ErrNoUser
	}
	return u, nil
}
