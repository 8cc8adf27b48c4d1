package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/repository"
	"github.com/oshxona/backend/pkg/auth"
	"github.com/oshxona/backend/pkg/logger"
	"github.com/oshxona/backend/pkg/otp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type verificationMailer interface {
	SendUserVerificationEmail(input VerificationEmailInput) error
}

type verificationService struct {
	userRepository     repository.Users
	attemptsRepository repository.VerificationAttempts
	cooldownRepository repository.ResendCooldowns
	candidateManager   auth.CandidateTokenManager
	otpGenerator       otp.Generator
	mailer             verificationMailer
	config             config.VerificationConfig
	now                func() time.Time
}

func newVerificationService(userRepository repository.Users,
	attemptsRepository repository.VerificationAttempts,
	cooldownRepository repository.ResendCooldowns,
	candidateManager auth.CandidateTokenManager,
	otpGenerator otp.Generator,
	mailer verificationMailer,
	config config.VerificationConfig,
) *verificationService {
	return &verificationService{
		userRepository:     userRepository,
		attemptsRepository: attemptsRepository,
		cooldownRepository: cooldownRepository,
		candidateManager:   candidateManager,
		otpGenerator:       otpGenerator,
		mailer:             mailer,
		config:             config,
		now:                time.Now,
	}
}

// CandidateChallenge is what the caller keeps between issuance and confirmation.
type CandidateChallenge struct {
	Token     string
	ExpiresAt time.Time
}

type ConfirmInput struct {
	Code           string
	UserID         *uuid.UUID
	CandidateToken string
}

type Confirmation struct {
	Outcome           Outcome
	AlreadyVerified   bool
	User              *domain.User
	Candidate         *domain.Candidate
	RegistrationToken string
}

// issueForUser stores a fresh code on the user before mailing it. A failed delivery leaves
// the stored code in place, so a later reissue or resend simply overwrites it.
func (s *verificationService) issueForUser(ctx context.Context, user *domain.User) (*domain.Challenge, error) {
	code, err := s.otpGenerator.RandomCode()
	if err != nil {
		return nil, fmt.Errorf("generate verification code failed: %w", err)
	}

	now := s.now()
	if err := s.userRepository.SetVerificationCode(ctx, user.ID, code, now); err != nil {
		if errors.Is(err, domain.ErrNoRowsAffected) {
			return nil, ErrAlreadyVerified
		}
		return nil, fmt.Errorf("set verification code failed: %w", err)
	}

	if err := s.deliver(user.Email, code); err != nil {
		logger.Error("verification email delivery failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return s.newUserChallenge(user.Email, code, now), nil
}

// issueForEmailChange makes address the unverified email of the user and sends it a code.
func (s *verificationService) issueForEmailChange(ctx context.Context, userID uuid.UUID, address string) (*domain.Challenge, error) {
	code, err := s.otpGenerator.RandomCode()
	if err != nil {
		return nil, fmt.Errorf("generate verification code failed: %w", err)
	}

	now := s.now()
	if err := s.userRepository.ChangeEmail(ctx, userID, address, code, now); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, ErrConflict
		}
		if errors.Is(err, domain.ErrNoRowsAffected) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("change email failed: %w", err)
	}

	if err := s.deliver(address, code); err != nil {
		logger.Error("verification email delivery failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return s.newUserChallenge(address, code, now), nil
}

func (s *verificationService) newUserChallenge(email string, code string, now time.Time) *domain.Challenge {
	challenge := &domain.Challenge{
		Code:     code,
		Subject:  domain.ChallengeSubjectUser,
		Email:    email,
		IssuedAt: now,
	}
	if s.config.CodeTTL > 0 {
		challenge.ExpiresAt = now.Add(s.config.CodeTTL)
	}
	return challenge
}

// issueForCandidate never touches the store: the code travels hashed inside the returned token.
func (s *verificationService) issueForCandidate(ctx context.Context, candidate domain.Candidate) (*CandidateChallenge, error) {
	code, err := s.otpGenerator.RandomCode()
	if err != nil {
		return nil, fmt.Errorf("generate verification code failed: %w", err)
	}

	token, claims, err := s.candidateManager.NewChallengeToken(toAuthCandidate(candidate), code)
	if err != nil {
		return nil, fmt.Errorf("new candidate token failed: %w", err)
	}

	if err := s.deliver(candidate.Email, code); err != nil {
		logger.Error("verification email delivery failed",
			zap.String("candidate_token_id", claims.ID),
			zap.Error(err),
		)
		return nil, err
	}

	return &CandidateChallenge{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *verificationService) deliver(email string, code string) error {
	err := s.mailer.SendUserVerificationEmail(VerificationEmailInput{
		Email:            email,
		VerificationCode: code,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailure, err)
	}

	return nil
}

// Resend reissues the code of an unverified user, honouring the resend cooldown.
func (s *verificationService) Resend(ctx context.Context, userID uuid.UUID) (*domain.Challenge, error) {
	user, err := s.userRepository.GetOneByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id failed: %w", err)
	}

	if user.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}

	if s.config.ResendCooldown > 0 {
		ok, err := s.cooldownRepository.Acquire(ctx, "user:"+user.ID.String(), s.config.ResendCooldown)
		if err != nil {
			return nil, fmt.Errorf("acquire resend cooldown failed: %w", err)
		}
		if !ok {
			return nil, ErrResendTooSoon
		}
	}

	return s.issueForUser(ctx, user)
}

func (s *verificationService) Confirm(ctx context.Context, input ConfirmInput) (*Confirmation, error) {
	hasUser := input.UserID != nil && *input.UserID != uuid.Nil
	hasCandidate := input.CandidateToken != ""
	if hasUser == hasCandidate || input.Code == "" {
		return nil, ErrInvalidRequest
	}

	if hasUser {
		return s.confirmUser(ctx, *input.UserID, input.Code)
	}

	return s.confirmCandidate(ctx, input.CandidateToken, input.Code)
}

func (s *verificationService) confirmUser(ctx context.Context, userID uuid.UUID, code string) (*Confirmation, error) {
	user, err := s.userRepository.GetOneByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id failed: %w", err)
	}

	if user.IsEmailVerified {
		return &Confirmation{Outcome: OutcomeVerified, AlreadyVerified: true, User: user}, nil
	}

	now := s.now()
	if err := s.checkUserChallenge(user, now); err != nil {
		return nil, err
	}

	var issuedAfter time.Time
	if s.config.CodeTTL > 0 {
		issuedAfter = now.Add(-s.config.CodeTTL)
	}

	confirmed, err := s.userRepository.ConfirmVerificationCode(ctx, userID, code, issuedAfter, s.config.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("confirm verification code failed: %w", err)
	}

	// The row may have changed since it was read, so the outcome is decided on a fresh copy.
	current, err := s.userRepository.GetOneByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload user failed: %w", err)
	}

	if confirmed {
		logger.Info("user email verified", zap.String("user_id", userID.String()))
		return &Confirmation{Outcome: OutcomeVerified, User: current}, nil
	}

	if current.IsEmailVerified {
		return &Confirmation{Outcome: OutcomeVerified, AlreadyVerified: true, User: current}, nil
	}

	if err := s.checkUserChallenge(current, now); err != nil {
		return nil, err
	}

	if err := s.userRepository.IncrementVerificationAttempts(ctx, userID); err != nil {
		return nil, fmt.Errorf("increment verification attempts failed: %w", err)
	}

	return nil, ErrCodeMismatch
}

func (s *verificationService) checkUserChallenge(user *domain.User, now time.Time) error {
	if !user.HasOutstandingChallenge() {
		return ErrCodeMismatch
	}

	if user.ChallengeExpired(now, s.config.CodeTTL) {
		return ErrChallengeExpired
	}

	if s.config.MaxAttempts > 0 && user.VerificationAttempts >= s.config.MaxAttempts {
		return ErrTooManyAttempts
	}

	return nil
}

func (s *verificationService) confirmCandidate(ctx context.Context, token string, code string) (*Confirmation, error) {
	claims, err := s.candidateManager.ParseChallengeToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrCandidateTokenExpired) {
			return nil, ErrChallengeExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	existing, err := s.userRepository.GetByEmail(ctx, claims.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user by email failed: %w", err)
	}

	if existing != nil {
		if existing.IsEmailVerified {
			return &Confirmation{Outcome: OutcomeVerified, AlreadyVerified: true, User: existing}, nil
		}
		return nil, ErrConflict
	}

	// Every submission takes a slot before the compare, so parallel guesses cannot overrun the cap.
	if s.config.MaxAttempts > 0 {
		ttl := claims.ExpiresAt.Sub(s.now())
		if ttl < time.Second {
			ttl = time.Second
		}
		attempts, err := s.attemptsRepository.Increment(ctx, claims.ID, ttl)
		if err != nil {
			return nil, fmt.Errorf("increment candidate attempts failed: %w", err)
		}
		if attempts > s.config.MaxAttempts {
			return nil, ErrTooManyAttempts
		}
	}

	if !s.candidateManager.CodeMatches(claims, code) {
		return nil, ErrCodeMismatch
	}

	registrationToken, err := s.candidateManager.NewRegistrationToken(claims.Candidate)
	if err != nil {
		return nil, fmt.Errorf("new registration token failed: %w", err)
	}

	candidate := toDomainCandidate(claims.Candidate)

	return &Confirmation{
		Outcome:           OutcomeMaterialize,
		Candidate:         &candidate,
		RegistrationToken: registrationToken,
	}, nil
}

func toAuthCandidate(c domain.Candidate) auth.Candidate {
	return auth.Candidate{
		Email:         c.Email,
		Name:          c.Name,
		GoogleID:      c.GoogleID,
		GoogleAccount: c.IsGoogleAccount,
	}
}

func toDomainCandidate(c auth.Candidate) domain.Candidate {
	return domain.Candidate{
		Email:           c.Email,
		Name:            c.Name,
		GoogleID:        c.GoogleID,
		IsGoogleAccount: c.GoogleAccount,
	}
}
