package domain

import (
	"time"

	"github.com/google/uuid"
)

// PasswordReset is a pending reset request. Only the sha256 of the token
// handed to the user is stored.
type PasswordReset struct {
	ID        string    `db:"id"` // UUID
	UserID    int64     `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func NewPasswordReset(userID int64, tokenHash string, ttl time.Duration) *PasswordReset {
	now := time.Now().UTC()
	return &PasswordReset{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func (r *PasswordReset) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}
