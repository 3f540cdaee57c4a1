package application

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	repo "github.com/campusconnect/campus-connect/internal/domain/repository"
	"github.com/campusconnect/campus-connect/pkg/apperror"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	"github.com/campusconnect/campus-connect/pkg/mailer"
	mailtpl "github.com/campusconnect/campus-connect/pkg/mailer/templates"
)

var ErrEmailNotVerified = errors.New("email not verified")

// EmailQueue accepts email jobs for the worker. *helpers.RabbitPublisher satisfies it.
type EmailQueue interface {
	PublishJSON(ctx context.Context, body any) error
}

// Audit actions recorded by AuthService.
const (
	AuditRegister     = "register"
	AuditVerify       = "verify_email"
	AuditLogin        = "login"
	AuditLoginFailed  = "login_failed"
	AuditLogout       = "logout"
	AuditResendVerify = "resend_verification"
)

type AuditEntry struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	At        time.Time
}

// AuditRecorder stores auth audit entries. Implemented by the Postgres audit log.
type AuditRecorder interface {
	Record(ctx context.Context, e AuditEntry) error
}

// ClientMeta describes the caller of an auth operation for auditing.
type ClientMeta struct {
	IP        string
	UserAgent string
}

type AuthConfig struct {
	InstitutionDomain string
	VerifyURL         string
	ResendCooldown    time.Duration
	GCSBucket         string
	Brand             mailtpl.Brand
}

type AuthService struct {
	Users    repo.UserRepository
	Creds    *helpers.CredentialManager
	Identity *IdentityResolver
	Notifier *NotificationService
	Queue    EmailQueue
	Redis    *redis.Client
	GCS      *storage.Client
	Audit    AuditRecorder
	Logger   *logrus.Logger
	Cfg      AuthConfig
}

func NewAuthService(users repo.UserRepository, creds *helpers.CredentialManager, identity *IdentityResolver, notifier *NotificationService, logger *logrus.Logger, cfg AuthConfig) *AuthService {
	return &AuthService{
		Users:    users,
		Creds:    creds,
		Identity: identity,
		Notifier: notifier,
		Logger:   logger,
		Cfg:      cfg,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     entity.Role
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	User      *entity.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type ProfileInput struct {
	Name      *string
	AvatarURL *string
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (s *AuthService) inInstitution(email string) bool {
	domain := strings.ToLower(s.Cfg.InstitutionDomain)
	if domain == "" {
		return true
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && email[at+1:] == domain
}

// Register creates an unverified account and sends the verification email.
// The caller is not logged in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta ClientMeta) (*entity.User, error) {
	email := normalizeEmail(in.Email)
	if !s.inInstitution(email) {
		return nil, apperror.Validation("email must be an @" + s.Cfg.InstitutionDomain + " address")
	}
	if n := len(in.Password); n < 8 || n > 72 {
		return nil, apperror.Validation("password must be 8 to 72 characters")
	}
	if _, ok := entity.ParseRole(string(in.Role)); !ok {
		return nil, apperror.Validation("role must be one of student, faculty, organizer")
	}
	if _, err := s.Users.GetUserByEmail(email); err == nil {
		return nil, apperror.Conflict("email already registered")
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	u, err := s.Users.CreateUser(&entity.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hash,
		Role:     in.Role,
	})
	if err != nil {
		return nil, storeErr(err, "user")
	}

	if err := s.sendVerification(ctx, u); err != nil {
		helpers.LogError(s.Logger, "verification email enqueue failed", err, logrus.Fields{"user_id": u.ID})
	}
	s.audit(ctx, AuditRegister, u.ID, u.Email, meta)
	return u, nil
}

func (s *AuthService) sendVerification(ctx context.Context, u *entity.User) error {
	token, exp, err := s.Creds.IssueVerification(u.Email)
	if err != nil {
		return err
	}
	link := verifyLink(s.Cfg.VerifyURL, token)
	job := &mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.VerifyEmail,
		Data:     mailtpl.NewVerifyEmailData(s.Cfg.Brand, u.Name, u.Email, link, exp),
	}
	return s.enqueue(ctx, job, logrus.Fields{"verify_url": link})
}

func (s *AuthService) enqueue(ctx context.Context, job *mailer.EmailJob, devFields logrus.Fields) error {
	if s.Queue == nil {
		fields := logrus.Fields{"to": job.To, "template": job.Template}
		for k, v := range devFields {
			fields[k] = v
		}
		helpers.LogInfo(s.Logger, "email queue disabled; job not sent", fields)
		return nil
	}
	return s.Queue.PublishJSON(ctx, job)
}

func verifyLink(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// Verify flips the verification flag for the email encoded in token. Verifying
// an already verified account succeeds without side effects.
func (s *AuthService) Verify(ctx context.Context, token string, meta ClientMeta) (*entity.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.Validation("token is required")
	}
	u, err := s.Identity.ResolveVerification(ctx, token)
	switch {
	case errors.Is(err, ErrUnknownSubject):
		return nil, apperror.NotFound("user")
	case err != nil:
		return nil, apperror.Unauthorized("invalid or expired verification token").WithCause(err)
	}
	if u.Verified {
		return u, nil
	}

	verified := true
	u, err = s.Users.UpdateUser(u.ID, entity.UserPatch{Verified: &verified})
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if s.Notifier != nil {
		if _, nErr := s.Notifier.Notify(ctx, u.ID, NotificationInput{
			Title:   "Welcome to " + brandName(s.Cfg.Brand),
			Message: "Your email is verified. Join a club or RSVP to an event to get started.",
			Type:    entity.NotificationGeneral,
		}); nErr != nil {
			helpers.LogError(s.Logger, "welcome notification failed", nErr, logrus.Fields{"user_id": u.ID})
		}
	}
	welcome := &mailer.EmailJob{To: u.Email, Template: mailtpl.Welcome, Data: mailtpl.NewWelcomeData(s.Cfg.Brand, u.Name, u.Email)}
	if qErr := s.enqueue(ctx, welcome, nil); qErr != nil {
		helpers.LogError(s.Logger, "welcome email enqueue failed", qErr, logrus.Fields{"user_id": u.ID})
	}
	s.audit(ctx, AuditVerify, u.ID, u.Email, meta)
	return u, nil
}

func brandName(b mailtpl.Brand) string {
	if b.AppName != "" {
		return b.AppName
	}
	return "Campus Connect"
}

// ResendVerification sends a fresh verification email unless the account is
// already verified. With Redis configured, repeated requests are throttled.
func (s *AuthService) ResendVerification(ctx context.Context, email string, meta ClientMeta) error {
	email = normalizeEmail(email)
	u, err := s.Users.GetUserByEmail(email)
	if err != nil {
		return storeErr(err, "user")
	}
	if u.Verified {
		return apperror.Validation("email already verified")
	}
	if s.Redis != nil && s.Cfg.ResendCooldown > 0 {
		ok, rErr := helpers.AcquireCooldown(ctx, s.Redis, helpers.KeyResendCooldown(email), s.Cfg.ResendCooldown)
		if rErr != nil {
			helpers.LogError(s.Logger, "resend cooldown check failed", rErr, logrus.Fields{"email": email})
		} else if !ok {
			return apperror.RateLimited("verification email recently sent, try again later")
		}
	}
	if err := s.sendVerification(ctx, u); err != nil {
		return apperror.Internal(err)
	}
	s.audit(ctx, AuditResendVerify, u.ID, u.Email, meta)
	return nil
}

// Login checks the password and issues a session credential. Unverified
// accounts are refused with 403 after the password check.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta ClientMeta) (*LoginResult, error) {
	email := normalizeEmail(in.Email)
	u, err := s.Users.GetUserByEmail(email)
	if err != nil || !helpers.CheckPassword(u.Password, in.Password) {
		s.audit(ctx, AuditLoginFailed, "", email, meta)
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if !u.Verified {
		return nil, apperror.Forbidden("email not verified").WithCause(ErrEmailNotVerified)
	}
	token, exp, err := s.Creds.IssueSession(u.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	s.audit(ctx, AuditLogin, u.ID, u.Email, meta)
	return &LoginResult{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) Logout(ctx context.Context, u *entity.User, meta ClientMeta) {
	s.audit(ctx, AuditLogout, u.ID, u.Email, meta)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetUser(userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

// UpdateProfile applies the closed profile patch: name and avatar only.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*entity.User, error) {
	patch := entity.UserPatch{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		patch.Name = &name
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if avatar != "" {
			if parsed, err := url.Parse(avatar); err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return nil, apperror.Validation("avatar_url must be an absolute URL")
			}
		}
		patch.AvatarURL = &avatar
	}
	u, err := s.Users.UpdateUser(userID, patch)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

// UploadAvatar stores an image in GCS and points the profile at it.
func (s *AuthService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.GCS == nil || s.Cfg.GCSBucket == "" {
		return nil, apperror.Unavailable("avatar storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.Validation("avatar must be an image")
	}
	prev, err := s.Users.GetUser(userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := path.Join("avatars", userID, uuid.NewString()+ext)

	c, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	link, err := helpers.UploadObject(c, s.GCS, s.Cfg.GCSBucket, objectPath, contentType, "public, max-age=86400", r)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	u, err := s.Users.UpdateUser(userID, entity.UserPatch{AvatarURL: &link})
	if err != nil {
		return nil, storeErr(err, "user")
	}
	// only objects we uploaded are removed; external avatar URLs are left alone
	if old, ok := helpers.ObjectPathFromURL(s.Cfg.GCSBucket, prev.AvatarURL); ok {
		if dErr := helpers.DeleteObject(c, s.GCS, s.Cfg.GCSBucket, old); dErr != nil {
			helpers.LogError(s.Logger, "old avatar cleanup failed", dErr, logrus.Fields{"user_id": userID, "object": old})
		}
	}
	return u, nil
}

func (s *AuthService) audit(ctx context.Context, action, userID, email string, meta ClientMeta) {
	if s.Audit == nil {
		return
	}
	e := AuditEntry{UserID: userID, Email: email, Action: action, IP: meta.IP, UserAgent: meta.UserAgent, At: time.Now().UTC()}
	if err := s.Audit.Record(ctx, e); err != nil {
		helpers.LogError(s.Logger, "audit record failed", err, logrus.Fields{"action": action, "user_id": userID})
	}
}
