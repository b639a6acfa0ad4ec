package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the application identity record. ExternalID holds the subject
// issued by an external auth provider when the account was provisioned there.
type User struct {
	ID            uuid.UUID  `json:"id"`
	ExternalID    *string    `json:"external_id,omitempty"`
	Name          *string    `json:"name"`
	Email         string     `json:"email"`
	EmailVerified *time.Time `json:"email_verified,omitempty"`
	PasswordHash  string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  *string   `json:"name"`
	Email string    `json:"email,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
