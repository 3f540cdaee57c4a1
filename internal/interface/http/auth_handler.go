package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/application"
	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/pkg/apperror"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	"github.com/campusconnect/campus-connect/pkg/response"
)

const maxAvatarBytes = 5 << 20

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,personname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Role     string `json:"role" binding:"required,oneof=student faculty organizer"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// profileRequest is closed: unknown keys are rejected, so role, email and
// verification state cannot be patched.
type profileRequest struct {
	Name      *string `json:"name" binding:"omitempty,personname"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=2048"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}
	role, _ := entity.ParseRole(req.Role)
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	}, clientMeta(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "registration successful, check your email to verify your account", nil)
}

func (h *AuthHandler) Verify(c *gin.Context) {
	u, err := h.Svc.Verify(c.Request.Context(), c.Query("token"), clientMeta(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "email verified", nil)
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}
	if err := h.Svc.ResendVerification(c.Request.Context(), req.Email, clientMeta(c)); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"sent": true}, "verification email sent", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), application.LoginInput{Email: req.Email, Password: req.Password}, clientMeta(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetSession(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusOK, res, "login successful", nil)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if u, ok := currentUser(c, h.Logger); ok {
		h.Svc.Logout(c.Request.Context(), u, clientMeta(c))
		h.Cookies.Clear(c)
		response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
	}
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	fresh, err := h.Svc.Me(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, fresh, "profile", nil)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	var req profileRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		failBinding(c, err)
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		failBinding(c, err)
		return
	}
	updated, err := h.Svc.UpdateProfile(c.Request.Context(), u.ID, application.ProfileInput{Name: req.Name, AvatarURL: req.AvatarURL})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, updated, "profile updated", nil)
}

// UploadAvatar accepts a multipart "avatar" image and stores it in GCS.
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	u, ok := currentUser(c, h.Logger)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarBytes)
	fh, err := c.FormFile("avatar")
	if err != nil {
		fail(c, h.Logger, apperror.Validation("avatar file is required (max 5MB)"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, h.Logger, apperror.Internal(err))
		return
	}
	defer func() { _ = f.Close() }()

	updated, err := h.Svc.UploadAvatar(c.Request.Context(), u.ID, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, updated, "avatar updated", nil)
}
