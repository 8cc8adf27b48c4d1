package service

import "errors"

var (
	ErrInvalidAssertion = errors.New("invalid identity assertion")
	ErrDeliveryFailure  = errors.New("verification code delivery failed")
	ErrCodeMismatch     = errors.New("verification code mismatch")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrConflict         = errors.New("account already exists")
	ErrChallengeExpired = errors.New("verification challenge expired")
	ErrTooManyAttempts  = errors.New("too many verification attempts")
	ErrResendTooSoon    = errors.New("verification code resend too soon")
	ErrAlreadyVerified  = errors.New("email already verified")

	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrWeakPassword        = errors.New("password too short")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidOAuthState   = errors.New("invalid oauth state")
	ErrUserNotFound        = errors.New("user not found")

	ErrProductNotFound = errors.New("product not found")
)
