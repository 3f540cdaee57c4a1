package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/pkg/apperror"
)

var eventDate = time.Date(2026, 11, 20, 17, 30, 0, 0, time.UTC)

func TestEventService_CreateRequiresOrganizerRole(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha", "asha@srec.ac.in", entity.RoleStudent)

	_, err := f.events.Create(context.Background(), student, CreateEventInput{
		Title: "Hack Night", Venue: "Lab 3", Date: eventDate, Type: entity.EventTypeCollege,
	})
	assert.Equal(t, 403, apperror.HTTPStatus(err))
	assert.Empty(t, f.store.ListEventsWithCounts())
}

func TestEventService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	org := f.user(t, "Org", "org@srec.ac.in", entity.RoleOrganizer)
	ctx := context.Background()

	cases := []struct {
		name   string
		in     CreateEventInput
		status int
	}{
		{"missing title", CreateEventInput{Venue: "Hall", Date: eventDate, Type: entity.EventTypeCollege}, 400},
		{"missing date", CreateEventInput{Title: "T", Venue: "Hall", Type: entity.EventTypeCollege}, 400},
		{"club event without club", CreateEventInput{Title: "T", Venue: "Hall", Date: eventDate, Type: entity.EventTypeClub}, 400},
		{"college event with club", CreateEventInput{Title: "T", Venue: "Hall", Date: eventDate, Type: entity.EventTypeCollege, Club: "Coding Club"}, 400},
		{"bad type", CreateEventInput{Title: "T", Venue: "Hall", Date: eventDate, Type: "party"}, 400},
		{"unknown club", CreateEventInput{Title: "T", Venue: "Hall", Date: eventDate, Type: entity.EventTypeClub, Club: "Chess Club"}, 404},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.events.Create(ctx, org, tc.in)
			assert.Equal(t, tc.status, apperror.HTTPStatus(err))
		})
	}
}

func TestEventService_CreateCollegeEventFansOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.user(t, "Org", "org@srec.ac.in", entity.RoleOrganizer)
	a := f.user(t, "Asha", "asha@srec.ac.in", entity.RoleStudent)
	b := f.user(t, "Bala", "bala@srec.ac.in", entity.RoleStudent)
	f.pusher.online[a.ID] = true

	e, err := f.events.Create(ctx, org, CreateEventInput{
		Title: "Convocation", Venue: "Main Hall", Date: eventDate, Type: entity.EventTypeCollege,
	})
	require.NoError(t, err)
	assert.Equal(t, org.ID, e.OrganizerID)
	assert.Equal(t, "Org", e.OrganizerName)

	orgList, _ := f.notify.List(ctx, org.ID)
	assert.Equal(t, []string{"Event created"}, titles(orgList))
	for _, u := range []*entity.User{a, b} {
		list, unread := f.notify.List(ctx, u.ID)
		assert.Equal(t, []string{"New event"}, titles(list))
		assert.Equal(t, 1, unread)
		assert.Equal(t, e.ID, list[0].EventID)
	}

	require.Len(t, f.pusher.sent, 1)
	assert.Equal(t, a.ID, f.pusher.sent[0].userID)
	msg := f.pusher.sent[0].payload.(PushMessage)
	assert.Equal(t, PushTypeNotification, msg.Type)
}

func TestEventService_CreateClubEventReachesMembersOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.user(t, "Org", "org@srec.ac.in", entity.RoleFaculty)
	member := f.user(t, "Asha", "asha@srec.ac.in", entity.RoleStudent)
	outsider := f.user(t, "Bala", "bala@srec.ac.in", entity.RoleStudent)
	_, err := f.clubs.Join(ctx, member, "Coding Club")
	require.NoError(t, err)

	_, err = f.events.Create(ctx, org, CreateEventInput{
		Title: "Hack Night", Venue: "Lab 3", Date: eventDate, Type: entity.EventTypeClub, Club: "Coding Club",
	})
	require.NoError(t, err)

	list, _ := f.notify.List(ctx, member.ID)
	assert.Contains(t, titles(list), "New event")
	list, _ = f.notify.List(ctx, outsider.ID)
	assert.Empty(t, list)
}

func TestEventService_RSVPIsExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.user(t, "Org", "org@srec.ac.in", entity.RoleOrganizer)
	a := f.user(t, "Asha", "asha@srec.ac.in", entity.RoleStudent)
	e, err := f.events.Create(ctx, org, CreateEventInput{Title: "Fest", Venue: "Ground", Date: eventDate, Type: entity.EventTypeCollege})
	require.NoError(t, err)

	v, err := f.events.RSVP(ctx, a, e.ID, entity.RSVPInterested)
	require.NoError(t, err)
	assert.True(t, v.IsInterested)
	assert.Equal(t, 1, v.InterestedCount)

	v, err = f.events.RSVP(ctx, a, e.ID, entity.RSVPAttending)
	require.NoError(t, err)
	assert.True(t, v.IsAttending)
	assert.False(t, v.IsInterested)
	assert.Equal(t, 1, v.AttendeeCount)
	assert.Equal(t, 0, v.InterestedCount)

	v, err = f.events.CancelRSVP(ctx, a, e.ID)
	require.NoError(t, err)
	assert.False(t, v.IsAttending)
	assert.Equal(t, 0, v.AttendeeCount)

	orgList, _ := f.notify.List(ctx, org.ID)
	assert.Equal(t, []string{"New RSVP", "New RSVP", "Event created"}, titles(orgList))

	_, err = f.events.RSVP(ctx, a, e.ID, "maybe")
	assert.Equal(t, 400, apperror.HTTPStatus(err))
	_, err = f.events.RSVP(ctx, a, "missing", entity.RSVPAttending)
	assert.Equal(t, 404, apperror.HTTPStatus(err))
}

func TestEventService_OrganizerRSVPDoesNotSelfNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.user(t, "Org", "org@srec.ac.in", entity.RoleOrganizer)
	e, err := f.events.Create(ctx, org, CreateEventInput{Title: "Fest", Venue: "Ground", Date: eventDate, Type: entity.EventTypeCollege})
	require.NoError(t, err)

	_, err = f.events.RSVP(ctx, org, e.ID, entity.RSVPAttending)
	require.NoError(t, err)
	orgList, _ := f.notify.List(ctx, org.ID)
	assert.Len(t, orgList, 1)
}

func TestEventService_ListCarriesCallerFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.user(t, "Org", "org@srec.ac.in", entity.RoleOrganizer)
	a := f.user(t, "Asha", "asha@srec.ac.in", entity.RoleStudent)
	e, err := f.events.Create(ctx, org, CreateEventInput{Title: "Fest", Venue: "Ground", Date: eventDate, Type: entity.EventTypeCollege})
	require.NoError(t, err)
	_, err = f.events.RSVP(ctx, a, e.ID, entity.RSVPAttending)
	require.NoError(t, err)

	mine := f.events.List(ctx, a.ID)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].IsAttending)

	theirs := f.events.List(ctx, org.ID)
	require.Len(t, theirs, 1)
	assert.False(t, theirs[0].IsAttending)
	assert.Equal(t, 1, theirs[0].AttendeeCount)
}

type stubIndex struct {
	ids     []string
	err     error
	indexed []string
}

func (s *stubIndex) IndexEvent(_ context.Context, e *entity.Event) error {
	s.indexed = append(s.indexed, e.ID)
	return nil
}

func (s *stubIndex) SearchEvents(_ context.Context, _ string, _ int) ([]string, error) {
	return s.ids, s.err
}

func TestEventService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.user(t, "Org", "org@srec.ac.in", entity.RoleOrganizer)
	idx := &stubIndex{}
	f.events.Index = idx

	hack, err := f.events.Create(ctx, org, CreateEventInput{Title: "Hack Night", Venue: "Lab 3", Date: eventDate, Type: entity.EventTypeCollege})
	require.NoError(t, err)
	_, err = f.events.Create(ctx, org, CreateEventInput{Title: "Music Fest", Venue: "Open Air", Date: eventDate, Type: entity.EventTypeCollege})
	require.NoError(t, err)
	assert.Len(t, idx.indexed, 2)

	t.Run("index hits resolved in order", func(t *testing.T) {
		idx.ids, idx.err = []string{hack.ID, "stale-id"}, nil
		got, err := f.events.Search(ctx, org.ID, "hack")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, hack.ID, got[0].ID)
	})

	t.Run("index failure falls back to substring match", func(t *testing.T) {
		idx.ids, idx.err = nil, errors.New("es down")
		got, err := f.events.Search(ctx, org.ID, "LAB")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Hack Night", got[0].Title)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := f.events.Search(ctx, org.ID, "  ")
		assert.Equal(t, 400, apperror.HTTPStatus(err))
	})
}
