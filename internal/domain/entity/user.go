package entity

import (
	"strings"
	"time"
)

// Role is the closed set of campus roles.
type Role string

const (
	RoleStudent   Role = "student"
	RoleFaculty   Role = "faculty"
	RoleOrganizer Role = "organizer"
)

// ParseRole accepts any casing of the three known roles.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleFaculty:
		return RoleFaculty, true
	case RoleOrganizer:
		return RoleOrganizer, true
	}
	return "", false
}

// CanOrganize reports whether the role may create events and clubs.
func (r Role) CanOrganize() bool {
	return r == RoleFaculty || r == RoleOrganizer
}

// User is the aggregate root for campus accounts.
// Password holds the bcrypt hash and is never serialized.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	Clubs     []string  `json:"clubs"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Verified  bool      `json:"is_verified"`
	CreatedAt time.Time `json:"created_at"`
}

// UserPatch lists the only fields a profile update may touch.
// Nil means "leave as is".
type UserPatch struct {
	Name      *string
	AvatarURL *string
	Verified  *bool
}

// InClub reports whether the user is a member of the named club.
func (u *User) InClub(name string) bool {
	for _, c := range u.Clubs {
		if c == name {
			return true
		}
	}
	return false
}
