package account

import (
	"time"
)

// Account is a player's persistent identity. Token is the external
// sign-in provider's id for the user.
type Account struct {
	ID        string `gorm:"primaryKey;type:text"`
	Token     string `gorm:"uniqueIndex;not null;type:text"`
	Username  string `gorm:"uniqueIndex;not null;type:text"`
	Rank      int    `gorm:"not null;default:0"`
	SessionID string `gorm:"index;type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for the Account entity.
func (Account) TableName() string {
	return "accounts"
}

// Profile is the public view of an account.
type Profile struct {
	Username string `json:"username"`
	Rank     int    `json:"rank"`
}

// Profile returns the public view of a.
func (a *Account) Profile() Profile {
	return Profile{Username: a.Username, Rank: a.Rank}
}

// Session is an issued session token.
type Session struct {
	Token     string    `json:"sessionToken"`
	Username  string    `json:"username"`
	Rank      int       `json:"rank"`
	ExpiresAt time.Time `json:"expiresAt"`
}
