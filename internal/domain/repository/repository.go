package repository

import (
	"errors"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateClub  = errors.New("club name already taken")
)

// UserRepository defines user storage operations.
type UserRepository interface {
	CreateUser(u *entity.User) (*entity.User, error)
	GetUser(id string) (*entity.User, error)
	GetUserByEmail(email string) (*entity.User, error)
	UpdateUser(id string, patch entity.UserPatch) (*entity.User, error)
	ListUserIDs() []string
}

// ClubRepository owns clubs and the user<->club membership mirror.
type ClubRepository interface {
	CreateClub(c *entity.Club) (*entity.Club, error)
	GetClub(name string) (*entity.Club, error)
	ListClubs() []*entity.Club
	// JoinClub returns false when the user was already a member.
	JoinClub(userID, clubName string) (bool, error)
	// LeaveClub returns false when the user was not a member.
	LeaveClub(userID, clubName string) (bool, error)
}

// EventRepository owns events and their exclusive RSVP sets.
type EventRepository interface {
	CreateEvent(e *entity.Event) (*entity.Event, error)
	GetEvent(id string) (*entity.Event, error)
	UpdateEvent(id string, patch entity.EventPatch) (*entity.Event, error)
	DeleteEvent(id string) error
	RSVP(userID, eventID string, kind entity.RSVPKind) (*entity.Event, error)
	UnRSVP(userID, eventID string) (*entity.Event, error)
	ListEventsWithCounts() []*entity.EventWithCounts
}

// NotificationRepository stores notification rows.
type NotificationRepository interface {
	CreateNotification(n *entity.Notification) (*entity.Notification, error)
	GetNotification(id string) (*entity.Notification, error)
	ListNotifications(userID string) []*entity.Notification
	UnreadCount(userID string) int
	MarkRead(id string) (*entity.Notification, error)
	MarkAllRead(userID string) int
}

// Store is the full entity store used by the application layer.
type Store interface {
	UserRepository
	ClubRepository
	EventRepository
	NotificationRepository
}
