package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	repo "github.com/campusconnect/campus-connect/internal/domain/repository"
	"github.com/campusconnect/campus-connect/pkg/apperror"
	"github.com/campusconnect/campus-connect/pkg/helpers"
)

type CreateClubInput struct {
	Name        string
	Description string
	Category    string
}

type ClubService struct {
	Clubs    repo.ClubRepository
	Notifier *NotificationService
	Logger   *logrus.Logger
}

func NewClubService(clubs repo.ClubRepository, notifier *NotificationService, logger *logrus.Logger) *ClubService {
	return &ClubService{Clubs: clubs, Notifier: notifier, Logger: logger}
}

func (s *ClubService) List(ctx context.Context) []*entity.Club {
	return s.Clubs.ListClubs()
}

func (s *ClubService) Get(ctx context.Context, name string) (*entity.Club, error) {
	c, err := s.Clubs.GetClub(name)
	if err != nil {
		return nil, storeErr(err, "club")
	}
	return c, nil
}

// Create registers a new club administered by caller, who also becomes its
// first member.
func (s *ClubService) Create(ctx context.Context, caller *entity.User, in CreateClubInput) (*entity.Club, error) {
	if !caller.Role.CanOrganize() {
		return nil, apperror.Forbidden("only faculty and organizers can create clubs")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	c, err := s.Clubs.CreateClub(&entity.Club{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		AdminID:     caller.ID,
	})
	if err != nil {
		return nil, storeErr(err, "club")
	}
	if _, err := s.Clubs.JoinClub(caller.ID, c.Name); err != nil {
		return nil, storeErr(err, "club")
	}
	return s.Get(ctx, c.Name)
}

// Join adds caller to the club. Joining again is a no-op and sends nothing.
func (s *ClubService) Join(ctx context.Context, caller *entity.User, name string) (*entity.Club, error) {
	changed, err := s.Clubs.JoinClub(caller.ID, name)
	if err != nil {
		return nil, storeErr(err, "club")
	}
	c, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if changed && s.Notifier != nil {
		s.notifyJoin(ctx, caller, c)
	}
	return c, nil
}

func (s *ClubService) notifyJoin(ctx context.Context, caller *entity.User, c *entity.Club) {
	if _, err := s.Notifier.Notify(ctx, caller.ID, NotificationInput{
		Title:   "Welcome to " + c.Name,
		Message: fmt.Sprintf("You joined %s. Club events will show up in your notifications.", c.Name),
		Type:    entity.NotificationClub,
	}); err != nil {
		helpers.LogError(s.Logger, "club welcome notification failed", err, logrus.Fields{"club": c.Name, "user_id": caller.ID})
	}
	if c.AdminID == "" || c.AdminID == caller.ID {
		return
	}
	if _, err := s.Notifier.Notify(ctx, c.AdminID, NotificationInput{
		Title:   "New member",
		Message: fmt.Sprintf("%s joined %s.", caller.Name, c.Name),
		Type:    entity.NotificationClub,
	}); err != nil {
		helpers.LogError(s.Logger, "club admin notification failed", err, logrus.Fields{"club": c.Name})
	}
}

// Leave removes caller from the club; leaving a club one is not in succeeds.
func (s *ClubService) Leave(ctx context.Context, caller *entity.User, name string) (*entity.Club, error) {
	if _, err := s.Clubs.LeaveClub(caller.ID, name); err != nil {
		return nil, storeErr(err, "club")
	}
	return s.Get(ctx, name)
}
