package domain

import (
	"time"

	"github.com/google/uuid"
)

// Verification is a pending proof of email ownership. A user holds at most one.
type Verification struct {
	ID        string
	Code      string
	UserID    string
	CreatedAt time.Time
}

// NewVerification mints a verification with a fresh random code for the user.
func NewVerification(userID string) *Verification {
	return &Verification{
		ID:        uuid.NewString(),
		Code:      uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}
