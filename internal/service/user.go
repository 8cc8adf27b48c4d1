package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/queue/client"
	"github.com/oshxona/backend/internal/queue/task"
	"github.com/oshxona/backend/internal/repository"
	"github.com/oshxona/backend/pkg/auth"
	"github.com/oshxona/backend/pkg/email"
	"github.com/oshxona/backend/pkg/hash"
	"github.com/oshxona/backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type userService struct {
	userRepository           repository.Users
	refreshSessionRepository repository.RefreshSession
	hasher                   hash.PasswordHasher
	tokenManager             auth.TokenManager
	candidateManager         auth.CandidateTokenManager
	identity                 *identityResolver
	verification             *verificationService
	oauth                    *oauthService
	enqueuer                 client.Enqueuer
	now                      func() time.Time
}

func newUserService(userRepository repository.Users,
	refreshSessionRepository repository.RefreshSession,
	hasher hash.PasswordHasher,
	tokenManager auth.TokenManager,
	candidateManager auth.CandidateTokenManager,
	identity *identityResolver,
	verification *verificationService,
	oauth *oauthService,
	enqueuer client.Enqueuer,
) *userService {
	return &userService{
		userRepository:           userRepository,
		refreshSessionRepository: refreshSessionRepository,
		hasher:                   hasher,
		tokenManager:             tokenManager,
		candidateManager:         candidateManager,
		identity:                 identity,
		verification:             verification,
		oauth:                    oauth,
		enqueuer:                 enqueuer,
		now:                      time.Now,
	}
}

type Tokens struct {
	AccessToken  string
	AccessTTL    time.Duration
	RefreshToken uuid.UUID
	RefreshTTL   time.Duration
}

type SessionMeta struct {
	UserAgent string
	IP        string
}

// AuthResult carries Tokens only when Resolution.Outcome is OutcomeAuthenticated.
type AuthResult struct {
	Resolution *Resolution
	Tokens     *Tokens
}

// VerifyResult carries Tokens only for a user that got verified by this very call.
type VerifyResult struct {
	Confirmation *Confirmation
	Tokens       *Tokens
}

type SignUpInput struct {
	Email string
	Name  string
}

type CompleteRegistrationInput struct {
	RegistrationToken string
	Password          string
	PhoneNumber       string
}

type UpdateProfileInput struct {
	Name        string
	PhoneNumber string
}

func (s *userService) createSession(ctx context.Context, userID uuid.UUID, meta SessionMeta) (*Tokens, error) {
	var (
		res Tokens
		err error
	)

	res.AccessToken, res.AccessTTL, err = s.tokenManager.NewJWT(userID)
	if err != nil {
		return nil, fmt.Errorf("generate access token failed: %w", err)
	}

	res.RefreshToken, res.RefreshTTL, err = s.tokenManager.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token failed: %w", err)
	}

	refreshSessionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate refresh session id failed: %w", err)
	}
	refreshSession := &domain.RefreshSession{
		ID:           refreshSessionID,
		UserID:       userID,
		RefreshToken: res.RefreshToken,
		UserAgent:    meta.UserAgent,
		IP:           meta.IP,
		ExpiresIn:    s.now().Add(res.RefreshTTL),
	}

	if err := s.refreshSessionRepository.Create(ctx, refreshSession); err != nil {
		return nil, fmt.Errorf("create refresh session failed: %w", err)
	}

	return &res, nil
}

// AuthGoogle finishes the Google redirect. Only an already verified user is signed in;
// everyone else receives a challenge.
func (s *userService) AuthGoogle(ctx context.Context, state string, code string, meta SessionMeta) (*AuthResult, error) {
	profile, err := s.oauth.exchange(ctx, state, code)
	if err != nil {
		return nil, err
	}

	resolution, err := s.identity.Resolve(ctx, Assertion{
		ProviderID:    profile.ProviderUserID,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		DisplayName:   profile.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	result := &AuthResult{Resolution: resolution}
	if resolution.Outcome != OutcomeAuthenticated {
		return result, nil
	}

	result.Tokens, err = s.createSession(ctx, resolution.User.ID, meta)
	if err != nil {
		return nil, fmt.Errorf("create session failed: %w", err)
	}

	return result, nil
}

func (s *userService) SignUp(ctx context.Context, input SignUpInput) (*Resolution, error) {
	return s.identity.ResolveSignup(ctx, input.Email, input.Name)
}

func (s *userService) Verify(ctx context.Context, input ConfirmInput, meta SessionMeta) (*VerifyResult, error) {
	confirmation, err := s.verification.Confirm(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Confirmation: confirmation}
	if confirmation.Outcome != OutcomeVerified || confirmation.AlreadyVerified {
		return result, nil
	}

	result.Tokens, err = s.createSession(ctx, confirmation.User.ID, meta)
	if err != nil {
		return nil, fmt.Errorf("create session failed: %w", err)
	}

	return result, nil
}

func (s *userService) ResendVerification(ctx context.Context, userID uuid.UUID) (*domain.Challenge, error) {
	return s.verification.Resend(ctx, userID)
}

// CompleteRegistration persists a candidate whose email was confirmed.
func (s *userService) CompleteRegistration(ctx context.Context, input CompleteRegistrationInput, meta SessionMeta) (*domain.User, *Tokens, error) {
	claims, err := s.candidateManager.ParseRegistrationToken(input.RegistrationToken)
	if err != nil {
		if errors.Is(err, auth.ErrCandidateTokenExpired) {
			return nil, nil, ErrChallengeExpired
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	candidate := toDomainCandidate(claims.Candidate)
	user := candidate.ToUser()

	user.ID, err = uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("generate user id failed: %w", err)
	}

	if !candidate.IsGoogleAccount && len(input.Password) < minPasswordLength {
		return nil, nil, ErrWeakPassword
	}

	if input.Password != "" {
		if len(input.Password) < minPasswordLength {
			return nil, nil, ErrWeakPassword
		}

		passwordHash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("hash password failed: %w", err)
		}
		user.PasswordHash = sql.NullString{String: passwordHash, Valid: true}
	}

	if phone := strings.TrimSpace(input.PhoneNumber); phone != "" {
		user.PhoneNumber = sql.NullString{String: phone, Valid: true}
	}

	if err := s.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, nil, ErrConflict
		}
		return nil, nil, fmt.Errorf("create user failed: %w", err)
	}

	logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.Bool("google_account", user.IsGoogleAccount),
	)

	s.enqueueWelcomeEmail(ctx, user)

	tokens, err := s.createSession(ctx, user.ID, meta)
	if err != nil {
		return nil, nil, fmt.Errorf("create session failed: %w", err)
	}

	return user, tokens, nil
}

// enqueueWelcomeEmail does not fail registration, the account already exists.
func (s *userService) enqueueWelcomeEmail(ctx context.Context, user *domain.User) {
	if s.enqueuer == nil {
		return
	}

	t, err := task.NewSendWelcomeEmailTask(user.Email, user.Name.String)
	if err != nil {
		logger.Error("create welcome email task failed", zap.Error(err))
		return
	}

	if err := s.enqueuer.Enqueue(ctx, t); err != nil {
		logger.Error("enqueue welcome email failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *userService) SignIn(ctx context.Context, address string, password string, meta SessionMeta) (*Tokens, error) {
	user, err := s.userRepository.GetByEmail(ctx, email.Normalize(address))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email failed: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash.String, password); err != nil {
		if errors.Is(err, hash.ErrMismatchedPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password failed: %w", err)
	}

	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	return s.createSession(ctx, user.ID, meta)
}

// RefreshTokens rotates the refresh session.
func (s *userService) RefreshTokens(ctx context.Context, refreshToken string, meta SessionMeta) (*Tokens, error) {
	session, err := s.getRefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.refreshSessionRepository.Delete(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("delete refresh session failed: %w", err)
	}

	if session.Expired(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	return s.createSession(ctx, session.UserID, meta)
}

func (s *userService) SignOut(ctx context.Context, refreshToken string) error {
	session, err := s.getRefreshSession(ctx, refreshToken)
	if err != nil {
		return err
	}

	if err := s.refreshSessionRepository.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("delete refresh session failed: %w", err)
	}

	return nil
}

func (s *userService) getRefreshSession(ctx context.Context, refreshToken string) (*domain.RefreshSession, error) {
	token, err := s.tokenManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	session, err := s.refreshSessionRepository.GetByRefreshToken(ctx, *token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("get refresh session failed: %w", err)
	}

	return session, nil
}

func (s *userService) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepository.GetOneByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id failed: %w", err)
	}

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	if _, err := s.GetOneByID(ctx, id); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.PhoneNumber)
	if err := s.userRepository.UpdateProfile(ctx, id, name, phone); err != nil {
		return nil, fmt.Errorf("update profile failed: %w", err)
	}

	return s.GetOneByID(ctx, id)
}

// ChangeEmail moves the user back to unverified with a code sent to the new address.
func (s *userService) ChangeEmail(ctx context.Context, id uuid.UUID, address string) (*domain.Challenge, error) {
	address = email.Normalize(address)
	if !email.IsEmailValid(address) {
		return nil, ErrInvalidRequest
	}

	user, err := s.GetOneByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Email == address {
		return nil, ErrInvalidRequest
	}

	return s.verification.issueForEmailChange(ctx, id, address)
}
