package entity

import (
	"strings"
	"time"
)

// EventType tells whether an event belongs to a club or to the whole college.
type EventType string

const (
	EventTypeClub    EventType = "club"
	EventTypeCollege EventType = "college"
)

func ParseEventType(s string) (EventType, bool) {
	switch EventType(strings.ToLower(strings.TrimSpace(s))) {
	case EventTypeClub:
		return EventTypeClub, true
	case EventTypeCollege:
		return EventTypeCollege, true
	}
	return "", false
}

// RSVPKind is the exclusive response a user gives to an event.
type RSVPKind string

const (
	RSVPAttending  RSVPKind = "attending"
	RSVPInterested RSVPKind = "interested"
)

func ParseRSVPKind(s string) (RSVPKind, bool) {
	switch RSVPKind(strings.ToLower(strings.TrimSpace(s))) {
	case RSVPAttending:
		return RSVPAttending, true
	case RSVPInterested:
		return RSVPInterested, true
	}
	return "", false
}

// Event is a scheduled happening. Club is empty for college-wide events.
// OrganizerName is captured when the event is created and not kept in sync.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Venue         string    `json:"venue"`
	Club          string    `json:"club,omitempty"`
	Type          EventType `json:"type"`
	OrganizerID   string    `json:"organizer_id"`
	OrganizerName string    `json:"organizer_name"`
	ImageURL      string    `json:"image_url,omitempty"`
	Attendees     []string  `json:"attendees"`
	Interested    []string  `json:"interested"`
	CreatedAt     time.Time `json:"created_at"`
}

// EventPatch holds the mutable descriptive fields of an event.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Venue       *string
	ImageURL    *string
}

// EventWithCounts is an event annotated with counts taken from its live sets.
type EventWithCounts struct {
	Event
	AttendeeCount   int `json:"attendee_count"`
	InterestedCount int `json:"interested_count"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (e *Event) IsAttending(userID string) bool  { return contains(e.Attendees, userID) }
func (e *Event) IsInterested(userID string) bool { return contains(e.Interested, userID) }
