package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                    uuid.UUID      `db:"id" json:"id"`
	GoogleID              sql.NullString `db:"google_id" json:"-"`
	Email                 string         `db:"email" json:"email"`
	Name                  sql.NullString `db:"name" json:"name"`
	PhoneNumber           sql.NullString `db:"phone_number" json:"phone_number"`
	PasswordHash          sql.NullString `db:"password_hash" json:"-"`
	IsGoogleAccount       bool           `db:"is_google_account" json:"is_google_account"`
	IsEmailVerified       bool           `db:"is_email_verified" json:"is_email_verified"`
	EmailVerificationCode sql.NullString `db:"email_verification_code" json:"-"`
	VerificationSentAt    *time.Time     `db:"verification_sent_at" json:"-"`
	VerificationAttempts  int            `db:"verification_attempts" json:"-"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// HasOutstandingChallenge reports whether a code was issued and not yet confirmed.
func (u *User) HasOutstandingChallenge() bool {
	return !u.IsEmailVerified && u.EmailVerificationCode.Valid
}

// ChallengeExpired is false when no code is outstanding.
func (u *User) ChallengeExpired(now time.Time, ttl time.Duration) bool {
	if !u.HasOutstandingChallenge() || ttl <= 0 {
		return false
	}
	if u.VerificationSentAt == nil {
		return true
	}
	return !now.Before(u.VerificationSentAt.Add(ttl))
}

func (u *User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}
