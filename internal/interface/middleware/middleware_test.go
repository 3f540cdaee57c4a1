package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/pkg/helpers"
)

type fakeResolver map[string]*entity.User

func (f fakeResolver) ResolveSession(ctx context.Context, token string) (*entity.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), RealIP())
	r.GET("/t", append(mw, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})...)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	users := fakeResolver{
		"good": {ID: "u1", Role: entity.RoleStudent},
	}
	r := newRouter(Auth(users))

	t.Run("missing", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodGet, "/t", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "missing session token", body["message"])
		assert.Equal(t, false, body["success"])
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := do(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid session token")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		req.Header.Set("Authorization", "Basic good")
		assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		req.Header.Set("Authorization", "bearer good")
		w := do(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", w.Body.String())
	})

	t.Run("cookie fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		req.AddCookie(&http.Cookie{Name: helpers.SessionCookie, Value: "good"})
		w := do(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", w.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	users := fakeResolver{
		"student":   {ID: "s", Role: entity.RoleStudent},
		"organizer": {ID: "o", Role: entity.RoleOrganizer},
	}
	r := newRouter(Auth(users), RequireRole(entity.RoleFaculty, entity.RoleOrganizer))

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("Authorization", "Bearer student")
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("Authorization", "Bearer organizer")
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter()

	w := do(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(HeaderRequestID, "6f1c4a8e-0b7e-4d7e-9b0e-3c1f2a9d8e7f")
	w = do(r, req)
	assert.Equal(t, "6f1c4a8e-0b7e-4d7e-9b0e-3c1f2a9d8e7f", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(HeaderRequestID, "not a uuid")
	w = do(r, req)
	assert.NotEqual(t, "not a uuid", w.Header().Get(HeaderRequestID))
}

func TestRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", do(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "198.51.100.2", do(r, req).Body.String())
}

func TestLocalRateLimit(t *testing.T) {
	r := newRouter(LocalRateLimit("test", 1, 2))

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/t", nil)).Code)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/t", nil)).Code)
	w := do(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/t", nil)
	other.RemoteAddr = "192.0.2.99:1234"
	assert.Equal(t, http.StatusOK, do(r, other).Code)
}

func TestLocalRateLimit_Disabled(t *testing.T) {
	r := newRouter(LocalRateLimit("test", 0, 0))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/t", nil)).Code)
	}
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := newRouter(RateLimit(nil, Rule{Scope: "test", Max: 1, Window: time.Minute, Key: KeyByIP()}))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/t", nil)).Code)
	}
}

func TestAllowPrivateIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	allow := AllowPrivateIP()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("real_ip", "10.1.2.3")
	assert.True(t, allow(c))

	c.Set("real_ip", "203.0.113.7")
	assert.False(t, allow(c))
}

func TestKeyFuncs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var keys []string
	r := gin.New()
	r.Use(RealIP())
	r.GET("/events/:id", func(c *gin.Context) {
		keys = append(keys, KeyByIP()(c), KeyByIPAndPath()(c), KeyByUserID()(c))
		c.Set(CtxUserIDKey, "u1")
		keys = append(keys, KeyByUserID()(c))
	})
	req := httptest.NewRequest(http.MethodGet, "/events/42", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	do(r, req)

	assert.Equal(t, []string{
		"ip:203.0.113.9",
		"route:/events/:id:ip:203.0.113.9",
		"anon:ip:203.0.113.9",
		"user:u1",
	}, keys)
}
