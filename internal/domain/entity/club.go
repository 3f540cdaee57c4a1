package entity

import "time"

// Club members mirror User.Clubs; the store keeps both sides in lockstep.
type Club struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	AdminID     string    `json:"admin_id,omitempty"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasMember reports whether userID is listed in Members.
func (c *Club) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}
