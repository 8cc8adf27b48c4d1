package service

import (
	"context"

	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/oauth"
	"github.com/oshxona/backend/internal/queue/client"
	"github.com/oshxona/backend/internal/repository"
	"github.com/oshxona/backend/pkg/auth"
	emailProvider "github.com/oshxona/backend/pkg/email"
	"github.com/oshxona/backend/pkg/hash"
	"github.com/oshxona/backend/pkg/otp"

	"github.com/google/uuid"
)

type Services struct {
	Users    Users
	OAuth    OAuth
	Products Products
	Likes    Likes
}

type Deps struct {
	Config           *config.Config
	Hasher           hash.PasswordHasher
	TokenManager     auth.TokenManager
	CandidateManager auth.CandidateTokenManager
	OtpGenerator     otp.Generator
	Repos            *repository.Repositories
	EmailSender      emailProvider.Sender
	OAuthProvider    oauth.Provider
	// Enqueuer may be nil, background emails are then skipped.
	Enqueuer client.Enqueuer
}

func NewServices(deps Deps) *Services {
	emailService := NewEmailService(deps.EmailSender, deps.Config.Email)

	verification := newVerificationService(deps.Repos.Users,
		deps.Repos.VerificationAttempts,
		deps.Repos.ResendCooldowns,
		deps.CandidateManager,
		deps.OtpGenerator,
		emailService,
		deps.Config.Auth.Verification,
	)
	identity := newIdentityResolver(deps.Repos.Users, verification)
	oauthService := newOAuthService(deps.Repos.OAuthStates,
		deps.OAuthProvider,
		deps.OtpGenerator,
		deps.Config.Google.StateTTL,
	)

	return &Services{
		Users: newUserService(deps.Repos.Users,
			deps.Repos.RefreshSession,
			deps.Hasher,
			deps.TokenManager,
			deps.CandidateManager,
			identity,
			verification,
			oauthService,
			deps.Enqueuer,
		),
		OAuth:    oauthService,
		Products: newProductService(deps.Repos.Products),
		Likes:    newLikeService(deps.Repos.Likes, deps.Repos.Products),
	}
}

type Users interface {
	AuthGoogle(ctx context.Context, state string, code string, meta SessionMeta) (*AuthResult, error)
	SignUp(ctx context.Context, input SignUpInput) (*Resolution, error)
	Verify(ctx context.Context, input ConfirmInput, meta SessionMeta) (*VerifyResult, error)
	ResendVerification(ctx context.Context, userID uuid.UUID) (*domain.Challenge, error)
	CompleteRegistration(ctx context.Context, input CompleteRegistrationInput, meta SessionMeta) (*domain.User, *Tokens, error)
	SignIn(ctx context.Context, email string, password string, meta SessionMeta) (*Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken string, meta SessionMeta) (*Tokens, error)
	SignOut(ctx context.Context, refreshToken string) error
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*domain.User, error)
	ChangeEmail(ctx context.Context, id uuid.UUID, email string) (*domain.Challenge, error)
}

type OAuth interface {
	LoginURL(ctx context.Context) (string, string, error)
}

type Products interface {
	GetAll(ctx context.Context, page, limit int, filters *ProductFilters) ([]*domain.Product, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

type Likes interface {
	Like(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error
	Unlike(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error
	GetLiked(ctx context.Context, userID uuid.UUID, page, limit int) ([]*domain.Product, int64, error)
}
