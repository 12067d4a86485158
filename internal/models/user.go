package models

import (
	"time"

	"github.com/google/uuid"

	"punkdir/internal/privilege"
)

// User represents a directory account authenticated via OIDC.
type User struct {
	ID          uuid.UUID      `json:"id"`
	Sub         string         `json:"sub"` // OIDC subject identifier
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Picture     string         `json:"picture"`
	AccountType privilege.Tier `json:"account_type"` // 0=user, 1=admin, 2=god
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsModerator returns true if the user may open the moderation queue.
func (u *User) IsModerator() bool {
	return u.AccountType.CanModerate()
}
