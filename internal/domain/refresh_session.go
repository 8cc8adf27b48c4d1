package domain

import (
	"time"

	"github.com/google/uuid"
)

type RefreshSession struct {
	ID           uuid.UUID  `db:"id"`
	UserID       uuid.UUID  `db:"user_id"`
	RefreshToken uuid.UUID  `db:"refresh_token"`
	UserAgent    string     `db:"user_agent"`
	IP           string     `db:"ip"`
	ExpiresIn    time.Time  `db:"expires_in"`
	CreatedAt    time.Time  `db:"created_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (s *RefreshSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresIn)
}
