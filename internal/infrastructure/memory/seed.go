package memory

import (
	"errors"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/internal/domain/repository"
)

// DefaultClubs is the starter catalog loaded when SEED_CLUBS is on.
var DefaultClubs = []entity.Club{
	{Name: "Coding Club", Category: "technical", Description: "Competitive programming, hackathons and open source."},
	{Name: "Robotics Club", Category: "technical", Description: "Build and program robots."},
	{Name: "Music Club", Category: "cultural", Description: "Jam sessions and campus concerts."},
	{Name: "Drama Club", Category: "cultural", Description: "Theatre, street plays and improv."},
	{Name: "Sports Club", Category: "sports", Description: "Intramural leagues and fitness meetups."},
	{Name: "Literary Club", Category: "literary", Description: "Debates, quizzes and creative writing."},
}

// Seed creates the given clubs, skipping names that already exist.
func Seed(s *Store, clubs []entity.Club) (int, error) {
	created := 0
	for i := range clubs {
		if _, err := s.CreateClub(&clubs[i]); err != nil {
			if errors.Is(err, repository.ErrDuplicateClub) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
