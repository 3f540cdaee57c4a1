package entity

import "time"

type NotificationType string

const (
	NotificationEvent   NotificationType = "event"
	NotificationClub    NotificationType = "club"
	NotificationGeneral NotificationType = "general"
)

// Notification is the durable record of something a user was told about.
// An empty UserID marks a broadcast placeholder, which never shows up in a
// per-user listing.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id,omitempty"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	EventID   string           `json:"event_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
