package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/internal/domain/repository"
)

type set map[string]struct{}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type userRecord struct {
	user  entity.User
	clubs set
}

type clubRecord struct {
	club    entity.Club
	members set
}

type eventRecord struct {
	event      entity.Event
	attendees  set
	interested set
}

type notificationRecord struct {
	n   entity.Notification
	seq uint64
}

// Store keeps every entity in process memory. A single lock covers all maps so
// that operations spanning users and clubs, or both RSVP sets, are one critical
// section.
type Store struct {
	mu sync.RWMutex

	users         map[string]*userRecord
	emails        map[string]string // lower(email) -> user id
	clubs         map[string]*clubRecord
	events        map[string]*eventRecord
	notifications map[string]*notificationRecord
	seq           uint64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*userRecord),
		emails:        make(map[string]string),
		clubs:         make(map[string]*clubRecord),
		events:        make(map[string]*eventRecord),
		notifications: make(map[string]*notificationRecord),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source; used by tests that need ordered timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func normEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// ===== users =====

func (r *userRecord) snapshot() *entity.User {
	u := r.user
	u.Clubs = r.clubs.sorted()
	return &u
}

func (s *Store) CreateUser(in *entity.User) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normEmail(in.Email)
	if _, exists := s.emails[key]; exists {
		return nil, repository.ErrDuplicateEmail
	}
	u := *in
	u.ID = uuid.NewString()
	u.Email = strings.TrimSpace(in.Email)
	u.Clubs = nil
	u.AvatarURL = ""
	u.CreatedAt = s.now()

	rec := &userRecord{user: u, clubs: set{}}
	s.users[u.ID] = rec
	s.emails[key] = u.ID
	return rec.snapshot(), nil
}

func (s *Store) GetUser(id string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec.snapshot(), nil
}

func (s *Store) GetUserByEmail(email string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[normEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.users[id].snapshot(), nil
}

func (s *Store) UpdateUser(id string, patch entity.UserPatch) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		rec.user.Name = *patch.Name
	}
	if patch.AvatarURL != nil {
		rec.user.AvatarURL = *patch.AvatarURL
	}
	if patch.Verified != nil {
		rec.user.Verified = *patch.Verified
	}
	return rec.snapshot(), nil
}

func (s *Store) ListUserIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ===== clubs =====

func (r *clubRecord) snapshot() *entity.Club {
	c := r.club
	c.Members = r.members.sorted()
	return &c
}

func (s *Store) CreateClub(in *entity.Club) (*entity.Club, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clubs[in.Name]; exists {
		return nil, repository.ErrDuplicateClub
	}
	c := *in
	c.ID = uuid.NewString()
	c.Members = nil
	c.CreatedAt = s.now()

	rec := &clubRecord{club: c, members: set{}}
	s.clubs[c.Name] = rec
	return rec.snapshot(), nil
}

func (s *Store) GetClub(name string) (*entity.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.clubs[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec.snapshot(), nil
}

func (s *Store) ListClubs() []*entity.Club {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Club, 0, len(s.clubs))
	for _, rec := range s.clubs {
		out = append(out, rec.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) JoinClub(userID, clubName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return false, repository.ErrNotFound
	}
	c, ok := s.clubs[clubName]
	if !ok {
		return false, repository.ErrNotFound
	}
	_, already := c.members[userID]
	u.clubs[clubName] = struct{}{}
	c.members[userID] = struct{}{}
	return !already, nil
}

func (s *Store) LeaveClub(userID, clubName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return false, repository.ErrNotFound
	}
	c, ok := s.clubs[clubName]
	if !ok {
		return false, repository.ErrNotFound
	}
	_, was := c.members[userID]
	delete(u.clubs, clubName)
	delete(c.members, userID)
	return was, nil
}

// ===== events =====

func (r *eventRecord) snapshot() *entity.Event {
	e := r.event
	e.Attendees = r.attendees.sorted()
	e.Interested = r.interested.sorted()
	return &e
}

func (s *Store) CreateEvent(in *entity.Event) (*entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *in
	e.ID = uuid.NewString()
	e.Attendees = nil
	e.Interested = nil
	e.CreatedAt = s.now()

	rec := &eventRecord{event: e, attendees: set{}, interested: set{}}
	s.events[e.ID] = rec
	return rec.snapshot(), nil
}

func (s *Store) GetEvent(id string) (*entity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec.snapshot(), nil
}

func (s *Store) UpdateEvent(id string, patch entity.EventPatch) (*entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Title != nil {
		rec.event.Title = *patch.Title
	}
	if patch.Description != nil {
		rec.event.Description = *patch.Description
	}
	if patch.Date != nil {
		rec.event.Date = *patch.Date
	}
	if patch.Venue != nil {
		rec.event.Venue = *patch.Venue
	}
	if patch.ImageURL != nil {
		rec.event.ImageURL = *patch.ImageURL
	}
	return rec.snapshot(), nil
}

func (s *Store) DeleteEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Store) RSVP(userID, eventID string, kind entity.RSVPKind) (*entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(rec.attendees, userID)
	delete(rec.interested, userID)
	switch kind {
	case entity.RSVPAttending:
		rec.attendees[userID] = struct{}{}
	case entity.RSVPInterested:
		rec.interested[userID] = struct{}{}
	}
	return rec.snapshot(), nil
}

func (s *Store) UnRSVP(userID, eventID string) (*entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(rec.attendees, userID)
	delete(rec.interested, userID)
	return rec.snapshot(), nil
}

func (s *Store) ListEventsWithCounts() []*entity.EventWithCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.EventWithCounts, 0, len(s.events))
	for _, rec := range s.events {
		out = append(out, &entity.EventWithCounts{
			Event:           *rec.snapshot(),
			AttendeeCount:   len(rec.attendees),
			InterestedCount: len(rec.interested),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ===== notifications =====

func (s *Store) CreateNotification(in *entity.Notification) (*entity.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := *in
	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = s.now()
	s.seq++
	s.notifications[n.ID] = &notificationRecord{n: n, seq: s.seq}
	out := n
	return &out, nil
}

func (s *Store) GetNotification(id string) (*entity.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := rec.n
	return &out, nil
}

// ListNotifications returns the user's notifications newest first.
func (s *Store) ListNotifications(userID string) []*entity.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*notificationRecord, 0)
	for _, rec := range s.notifications {
		if userID != "" && rec.n.UserID == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.n.CreatedAt.Equal(b.n.CreatedAt) {
			return a.n.CreatedAt.After(b.n.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*entity.Notification, 0, len(recs))
	for _, rec := range recs {
		n := rec.n
		out = append(out, &n)
	}
	return out
}

func (s *Store) UnreadCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.notifications {
		if userID != "" && rec.n.UserID == userID && !rec.n.Read {
			count++
		}
	}
	return count
}

func (s *Store) MarkRead(id string) (*entity.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec.n.Read = true
	out := rec.n
	return &out, nil
}

// MarkAllRead flags every unread notification of userID and returns how many changed.
func (s *Store) MarkAllRead(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, rec := range s.notifications {
		if userID != "" && rec.n.UserID == userID && !rec.n.Read {
			rec.n.Read = true
			changed++
		}
	}
	return changed
}

var _ repository.Store = (*Store)(nil)
