package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/pkg/response"
)

// RequireRole must run after Auth. Callers whose role is not listed get 403.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	allowed := make(map[entity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		u, err := CurrentUser(c)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "missing session token", nil)
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			response.Abort(c, http.StatusForbidden, "insufficient role", nil)
			return
		}
		c.Next()
	}
}
