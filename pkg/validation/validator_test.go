package validation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" binding:"required,personname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Role     string `json:"role" binding:"required,oneof=student faculty organizer"`
}

func bind(t *testing.T, body string) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req signup
	return c.ShouldBindJSON(&req)
}

func TestToDetails(t *testing.T) {
	Init()

	t.Run("field messages use json names", func(t *testing.T) {
		err := bind(t, `{"name":"A","email":"nope","password":"short","role":"admin"}`)
		require.Error(t, err)
		d := ToDetails(err)
		assert.Equal(t, "must be between 2 and 80 characters long", d["name"])
		assert.Equal(t, "must be a valid email", d["email"])
		assert.Equal(t, "must be between 8 and 72 characters long", d["password"])
		assert.Equal(t, "must be one of: student, faculty, organizer", d["role"])
	})

	t.Run("invalid json", func(t *testing.T) {
		err := bind(t, `{"name":`)
		require.Error(t, err)
		assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	})

	t.Run("wrong type", func(t *testing.T) {
		err := bind(t, `{"name": 5}`)
		require.Error(t, err)
		assert.Equal(t, "has the wrong type", ToDetails(err)["name"])
	})

	t.Run("unknown field", func(t *testing.T) {
		dec := json.NewDecoder(strings.NewReader(`{"name":"Asha","role":"faculty"}`))
		dec.DisallowUnknownFields()
		var v struct {
			Name string `json:"name"`
		}
		err := dec.Decode(&v)
		require.Error(t, err)
		assert.Equal(t, map[string]string{"role": "is not allowed"}, ToDetails(err))
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, bind(t, `{"name":"Asha","email":"a@srec.ac.in","password":"password123","role":"student"}`))
		assert.Nil(t, ToDetails(nil))
	})
}
