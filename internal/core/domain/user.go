package domain

import (
	"database/sql"
	"strings"
	"time"
)

type User struct {
	ID           int64        `db:"id"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`         // always lower-case
	PasswordHash string       `db:"password_hash"` // bcrypt hashed
	IsAdmin      bool         `db:"is_admin"`
	LastLoginAt  sql.NullTime `db:"last_login_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func NewUser(username, email, hashedPassword string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		Email:        NormalizeEmail(email),
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail returns the lookup key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
