package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	repo "github.com/campusconnect/campus-connect/internal/domain/repository"
	"github.com/campusconnect/campus-connect/pkg/apperror"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	"github.com/campusconnect/campus-connect/pkg/metrics"
)

var ErrPersistenceFailed = errors.New("notification persistence failed")

// Pusher delivers a payload to a user's live connection if one is registered.
type Pusher interface {
	SendTo(userID string, payload any) bool
}

// PushMessage is the frame written to live connections.
type PushMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const PushTypeNotification = "notification"

type NotificationInput struct {
	Title   string
	Message string
	Type    entity.NotificationType
	EventID string
}

// NotificationService is the dispatcher: every notification is persisted
// first and then pushed best-effort.
type NotificationService struct {
	Repo   repo.NotificationRepository
	Pusher Pusher
	Logger *logrus.Logger
}

func NewNotificationService(r repo.NotificationRepository, pusher Pusher, logger *logrus.Logger) *NotificationService {
	return &NotificationService{Repo: r, Pusher: pusher, Logger: logger}
}

// Notify persists a notification for recipientID and then attempts a live push.
// A failed push never undoes the persisted row.
func (s *NotificationService) Notify(ctx context.Context, recipientID string, in NotificationInput) (*entity.Notification, error) {
	n, err := s.Repo.CreateNotification(&entity.Notification{
		UserID:  recipientID,
		Title:   in.Title,
		Message: in.Message,
		Type:    in.Type,
		EventID: in.EventID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	metrics.NotificationsPersisted.WithLabelValues(string(n.Type)).Inc()

	if s.Pusher == nil || recipientID == "" {
		return n, nil
	}
	if s.Pusher.SendTo(recipientID, PushMessage{Type: PushTypeNotification, Data: n}) {
		metrics.NotificationsPushed.WithLabelValues(metrics.PushDelivered).Inc()
	} else {
		metrics.NotificationsPushed.WithLabelValues(metrics.PushOffline).Inc()
	}
	return n, nil
}

// NotifyMany calls Notify once per recipient, skipping exclude. Failures are
// logged and do not stop the remaining recipients; the delivered count is returned.
func (s *NotificationService) NotifyMany(ctx context.Context, recipients []string, exclude string, in NotificationInput) int {
	sent := 0
	for _, id := range recipients {
		if id == "" || id == exclude {
			continue
		}
		if _, err := s.Notify(ctx, id, in); err != nil {
			helpers.LogError(s.Logger, "notify recipient failed", err, logrus.Fields{"user_id": id})
			continue
		}
		sent++
	}
	return sent
}

// List returns the user's notifications newest first plus the unread count.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*entity.Notification, int) {
	return s.Repo.ListNotifications(userID), s.Repo.UnreadCount(userID)
}

// MarkRead flags one of userID's notifications read. Notifications owned by
// someone else are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*entity.Notification, error) {
	n, err := s.Repo.GetNotification(id)
	if err != nil || n.UserID != userID {
		return nil, apperror.NotFound("notification")
	}
	n, err = s.Repo.MarkRead(id)
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) int {
	return s.Repo.MarkAllRead(userID)
}

// storeErr maps repository sentinels onto client-facing errors.
func storeErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return apperror.NotFound(resource)
	case errors.Is(err, repo.ErrDuplicateEmail):
		return apperror.Conflict("email already registered")
	case errors.Is(err, repo.ErrDuplicateClub):
		return apperror.Conflict("club already exists")
	case errors.Is(err, ErrPersistenceFailed):
		return apperror.Internal(err)
	}
	if apperror.From(err) != nil {
		return err
	}
	return apperror.Internal(err)
}
