package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/oshxona/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeChallenge    = "candidate_challenge"
	tokenTypeRegistration = "candidate_registration"
)

var (
	ErrCandidateTokenExpired = errors.New("candidate token expired")
	ErrCandidateTokenInvalid = errors.New("candidate token invalid")
)

// Candidate is the account data carried by the caller until it is materialized.
type Candidate struct {
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	GoogleID      string `json:"google_id,omitempty"`
	GoogleAccount bool   `json:"google_account,omitempty"`
}

// CandidateClaims never contains the plain code, only its keyed hash bound to the token id.
type CandidateClaims struct {
	Candidate
	Type     string `json:"typ"`
	CodeHash string `json:"code_hash,omitempty"`
	jwt.RegisteredClaims
}

type CandidateTokenManager interface {
	NewChallengeToken(candidate Candidate, code string) (string, *CandidateClaims, error)
	ParseChallengeToken(token string) (*CandidateClaims, error)
	CodeMatches(claims *CandidateClaims, code string) bool
	NewRegistrationToken(candidate Candidate) (string, error)
	ParseRegistrationToken(token string) (*CandidateClaims, error)
}

type CandidateManager struct {
	signingKey      []byte
	challengeTTL    time.Duration
	registrationTTL time.Duration
	now             func() time.Time
}

func NewCandidateManager(cfg config.CandidateConfig) (*CandidateManager, error) {
	if cfg.SigningKey == "" {
		return nil, errors.New("empty candidate signing key")
	}

	if cfg.ChallengeTTL == 0 || cfg.RegistrationTTL == 0 {
		return nil, errors.New("empty candidate token ttl")
	}

	return &CandidateManager{
		signingKey:      []byte(cfg.SigningKey),
		challengeTTL:    cfg.ChallengeTTL,
		registrationTTL: cfg.RegistrationTTL,
		now:             time.Now,
	}, nil
}

func (m *CandidateManager) NewChallengeToken(candidate Candidate, code string) (string, *CandidateClaims, error) {
	claims, err := m.newClaims(candidate, tokenTypeChallenge, m.challengeTTL)
	if err != nil {
		return "", nil, err
	}
	claims.CodeHash = m.hashCode(claims.ID, code)

	token, err := m.sign(claims)
	if err != nil {
		return "", nil, err
	}

	return token, claims, nil
}

func (m *CandidateManager) ParseChallengeToken(token string) (*CandidateClaims, error) {
	claims, err := m.parse(token, tokenTypeChallenge)
	if err != nil {
		return nil, err
	}

	if claims.CodeHash == "" {
		return nil, ErrCandidateTokenInvalid
	}

	return claims, nil
}

// CodeMatches compares in constant time.
func (m *CandidateManager) CodeMatches(claims *CandidateClaims, code string) bool {
	if claims == nil || claims.CodeHash == "" {
		return false
	}

	want, err := hex.DecodeString(claims.CodeHash)
	if err != nil {
		return false
	}

	got, _ := hex.DecodeString(m.hashCode(claims.ID, code))

	return hmac.Equal(want, got)
}

func (m *CandidateManager) NewRegistrationToken(candidate Candidate) (string, error) {
	claims, err := m.newClaims(candidate, tokenTypeRegistration, m.registrationTTL)
	if err != nil {
		return "", err
	}

	return m.sign(claims)
}

func (m *CandidateManager) ParseRegistrationToken(token string) (*CandidateClaims, error) {
	return m.parse(token, tokenTypeRegistration)
}

func (m *CandidateManager) newClaims(candidate Candidate, tokenType string, ttl time.Duration) (*CandidateClaims, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate candidate token id failed: %w", err)
	}

	now := m.now()

	return &CandidateClaims{
		Candidate: candidate,
		Type:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Subject:   candidate.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}, nil
}

func (m *CandidateManager) sign(claims *CandidateClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign candidate token failed: %w", err)
	}

	return token, nil
}

func (m *CandidateManager) parse(token string, tokenType string) (*CandidateClaims, error) {
	var claims CandidateClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrCandidateTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrCandidateTokenInvalid, err)
	}

	if claims.Type != tokenType || claims.Email == "" || claims.ID == "" {
		return nil, ErrCandidateTokenInvalid
	}

	return &claims, nil
}

func (m *CandidateManager) hashCode(tokenID string, code string) string {
	mac := hmac.New(sha256.New, m.signingKey)
	mac.Write([]byte(tokenID))
	mac.Write([]byte{':'})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}
