package repository

import (
	"context"
	"time"

	"github.com/oshxona/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Repositories struct {
	Users                Users
	RefreshSession       RefreshSession
	Products             Products
	Likes                Likes
	VerificationAttempts VerificationAttempts
	ResendCooldowns      ResendCooldowns
	OAuthStates          OAuthStates
}

func NewRepositories(db *sqlx.DB, rdb redis.UniversalClient) *Repositories {
	verificationState := newVerificationStateRepository(rdb)

	return &Repositories{
		Users:                newUserRepository(db),
		RefreshSession:       newRefreshSessionRepository(db),
		Products:             newProductRepository(db),
		Likes:                newLikeRepository(db),
		VerificationAttempts: verificationState,
		ResendCooldowns:      verificationState,
		OAuthStates:          newOAuthStateRepository(rdb),
	}
}

type Users interface {
	Create(ctx context.Context, user *domain.User) error
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// SetVerificationCode replaces any outstanding code on an unverified user and resets attempts.
	SetVerificationCode(ctx context.Context, id uuid.UUID, code string, sentAt time.Time) error
	// ConfirmVerificationCode verifies the user and clears the code in one statement.
	// It reports false when the user is missing, already verified, the code differs,
	// the code was sent before issuedAfter or maxAttempts is reached. Zero values disable the last two checks.
	ConfirmVerificationCode(ctx context.Context, id uuid.UUID, code string, issuedAfter time.Time, maxAttempts int) (bool, error)
	IncrementVerificationAttempts(ctx context.Context, id uuid.UUID) error
	// ChangeEmail sets a new unverified email with an outstanding code.
	ChangeEmail(ctx context.Context, id uuid.UUID, email string, code string, sentAt time.Time) error
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, phoneNumber string) error
}

type RefreshSession interface {
	Create(ctx context.Context, session *domain.RefreshSession) error
	GetByRefreshToken(ctx context.Context, refreshToken uuid.UUID) (*domain.RefreshSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Products interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetAll(ctx context.Context, limit, offset int, filters *ProductFilters) ([]*domain.Product, error)
	Count(ctx context.Context, filters *ProductFilters) (int64, error)
}

type Likes interface {
	Like(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error
	Unlike(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error
}

// VerificationAttempts counts failed confirmations for challenges that have no row to store them on.
type VerificationAttempts interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)
}

type ResendCooldowns interface {
	// Acquire returns false while key is still cooling down.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type OAuthStates interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume deletes state and reports whether it existed.
	Consume(ctx context.Context, state string) (bool, error)
}
