package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	repo "github.com/campusconnect/campus-connect/internal/domain/repository"
	"github.com/campusconnect/campus-connect/pkg/apperror"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	"github.com/campusconnect/campus-connect/pkg/metrics"
)

// EventIndexer keeps a full-text index of events. Search returns event ids in
// relevance order.
type EventIndexer interface {
	IndexEvent(ctx context.Context, e *entity.Event) error
	SearchEvents(ctx context.Context, q string, size int) ([]string, error)
}

const searchSize = 20

// EventView is an event as seen by one caller.
type EventView struct {
	entity.EventWithCounts
	IsAttending  bool `json:"is_attending"`
	IsInterested bool `json:"is_interested"`
}

func viewOf(ec *entity.EventWithCounts, callerID string) *EventView {
	return &EventView{
		EventWithCounts: *ec,
		IsAttending:     ec.IsAttending(callerID),
		IsInterested:    ec.IsInterested(callerID),
	}
}

func viewOfEvent(e *entity.Event, callerID string) *EventView {
	return viewOf(&entity.EventWithCounts{
		Event:           *e,
		AttendeeCount:   len(e.Attendees),
		InterestedCount: len(e.Interested),
	}, callerID)
}

type CreateEventInput struct {
	Title       string
	Description string
	Date        time.Time
	Venue       string
	Club        string
	Type        entity.EventType
	ImageURL    string
}

type EventService struct {
	Events   repo.EventRepository
	Clubs    repo.ClubRepository
	Users    repo.UserRepository
	Notifier *NotificationService
	Index    EventIndexer
	Logger   *logrus.Logger
}

func NewEventService(store repo.Store, notifier *NotificationService, index EventIndexer, logger *logrus.Logger) *EventService {
	return &EventService{
		Events:   store,
		Clubs:    store,
		Users:    store,
		Notifier: notifier,
		Index:    index,
		Logger:   logger,
	}
}

// List returns every event with live counts and the caller's RSVP flags.
func (s *EventService) List(ctx context.Context, callerID string) []*EventView {
	all := s.Events.ListEventsWithCounts()
	out := make([]*EventView, 0, len(all))
	for _, ec := range all {
		out = append(out, viewOf(ec, callerID))
	}
	return out
}

func (s *EventService) Get(ctx context.Context, callerID, id string) (*EventView, error) {
	e, err := s.Events.GetEvent(id)
	if err != nil {
		return nil, storeErr(err, "event")
	}
	return viewOfEvent(e, callerID), nil
}

// Create is limited to faculty and organizers. The creator receives an
// acknowledgment; the event's audience (club members, or everyone for college
// events) receives an announcement.
func (s *EventService) Create(ctx context.Context, caller *entity.User, in CreateEventInput) (*entity.Event, error) {
	if !caller.Role.CanOrganize() {
		return nil, apperror.Forbidden("only faculty and organizers can create events")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Venue) == "" {
		return nil, apperror.Validation("title and venue are required")
	}
	if in.Date.IsZero() {
		return nil, apperror.Validation("date is required")
	}
	in.Club = strings.TrimSpace(in.Club)
	switch in.Type {
	case entity.EventTypeClub:
		if in.Club == "" {
			return nil, apperror.Validation("club events require a club")
		}
	case entity.EventTypeCollege:
		if in.Club != "" {
			return nil, apperror.Validation("college events must not name a club")
		}
	default:
		return nil, apperror.Validation("type must be club or college")
	}

	var club *entity.Club
	if in.Club != "" {
		c, err := s.Clubs.GetClub(in.Club)
		if err != nil {
			return nil, storeErr(err, "club")
		}
		club = c
	}

	e, err := s.Events.CreateEvent(&entity.Event{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Date:          in.Date.UTC(),
		Venue:         strings.TrimSpace(in.Venue),
		Club:          in.Club,
		Type:          in.Type,
		OrganizerID:   caller.ID,
		OrganizerName: caller.Name,
		ImageURL:      strings.TrimSpace(in.ImageURL),
	})
	if err != nil {
		return nil, storeErr(err, "event")
	}

	s.announce(ctx, caller, e, club)
	if s.Index != nil {
		if iErr := s.Index.IndexEvent(ctx, e); iErr != nil {
			helpers.LogError(s.Logger, "event index failed", iErr, logrus.Fields{"event_id": e.ID})
		}
	}
	return e, nil
}

func (s *EventService) announce(ctx context.Context, caller *entity.User, e *entity.Event, club *entity.Club) {
	if s.Notifier == nil {
		return
	}
	if _, err := s.Notifier.Notify(ctx, caller.ID, NotificationInput{
		Title:   "Event created",
		Message: fmt.Sprintf("Your event %q has been published.", e.Title),
		Type:    entity.NotificationEvent,
		EventID: e.ID,
	}); err != nil {
		helpers.LogError(s.Logger, "event acknowledgment failed", err, logrus.Fields{"event_id": e.ID, "user_id": caller.ID})
	}

	var audience []string
	if club != nil {
		audience = club.Members
	} else {
		audience = s.Users.ListUserIDs()
	}
	msg := fmt.Sprintf("%s on %s at %s", e.Title, e.Date.Format("Mon 02 Jan 2006 15:04"), e.Venue)
	if club != nil {
		msg = club.Name + ": " + msg
	}
	sent := s.Notifier.NotifyMany(ctx, audience, caller.ID, NotificationInput{
		Title:   "New event",
		Message: msg,
		Type:    entity.NotificationEvent,
		EventID: e.ID,
	})
	helpers.LogInfo(s.Logger, "event announced", logrus.Fields{"event_id": e.ID, "recipients": sent})
}

// RSVP records the caller's exclusive response and tells the organizer.
func (s *EventService) RSVP(ctx context.Context, caller *entity.User, eventID string, kind entity.RSVPKind) (*EventView, error) {
	if _, ok := entity.ParseRSVPKind(string(kind)); !ok {
		return nil, apperror.Validation("type must be attending or interested")
	}
	e, err := s.Events.RSVP(caller.ID, eventID, kind)
	if err != nil {
		return nil, storeErr(err, "event")
	}
	metrics.RSVPs.WithLabelValues(string(kind)).Inc()

	if s.Notifier != nil && e.OrganizerID != "" && e.OrganizerID != caller.ID {
		verb := "is attending"
		if kind == entity.RSVPInterested {
			verb = "is interested in"
		}
		if _, nErr := s.Notifier.Notify(ctx, e.OrganizerID, NotificationInput{
			Title:   "New RSVP",
			Message: fmt.Sprintf("%s %s %q.", caller.Name, verb, e.Title),
			Type:    entity.NotificationEvent,
			EventID: e.ID,
		}); nErr != nil {
			helpers.LogError(s.Logger, "rsvp notification failed", nErr, logrus.Fields{"event_id": e.ID})
		}
	}
	return viewOfEvent(e, caller.ID), nil
}

// CancelRSVP clears the caller's response; it succeeds when there was none.
func (s *EventService) CancelRSVP(ctx context.Context, caller *entity.User, eventID string) (*EventView, error) {
	e, err := s.Events.UnRSVP(caller.ID, eventID)
	if err != nil {
		return nil, storeErr(err, "event")
	}
	metrics.RSVPs.WithLabelValues("cancelled").Inc()
	return viewOfEvent(e, caller.ID), nil
}

// Search asks the index first and falls back to substring matching over the
// store when no index is configured or it fails.
func (s *EventService) Search(ctx context.Context, callerID, q string) ([]*EventView, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation("q is required")
	}
	if s.Index != nil {
		ids, err := s.Index.SearchEvents(ctx, q, searchSize)
		if err == nil {
			out := make([]*EventView, 0, len(ids))
			for _, id := range ids {
				e, gErr := s.Events.GetEvent(id)
				if gErr != nil {
					continue
				}
				out = append(out, viewOfEvent(e, callerID))
			}
			return out, nil
		}
		helpers.LogError(s.Logger, "event search failed, using in-memory match", err, logrus.Fields{"q": q})
	}

	needle := strings.ToLower(q)
	out := make([]*EventView, 0)
	for _, ec := range s.Events.ListEventsWithCounts() {
		hay := strings.ToLower(strings.Join([]string{ec.Title, ec.Description, ec.Venue, ec.Club, ec.OrganizerName}, " "))
		if strings.Contains(hay, needle) {
			out = append(out, viewOf(ec, callerID))
			if len(out) == searchSize {
				break
			}
		}
	}
	return out, nil
}
