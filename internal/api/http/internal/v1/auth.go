package v1

import (
	"net/http"
	"time"

	"github.com/oshxona/backend/internal/service"
	"github.com/oshxona/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const oauthStateCookie = "oauth_state"

func (h *Handler) initAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.GET("/google/login", h.googleLogin)
		auth.GET("/google/callback", h.googleCallback)
		auth.POST("/signup", h.signUp)
		auth.POST("/verify", h.verify)
		auth.POST("/verify/resend", h.resendVerification)
		auth.POST("/register/complete", h.completeRegistration)
		auth.POST("/sign-in", h.signIn)
		auth.POST("/refresh", h.refresh)
		auth.POST("/sign-out", h.signOut)
	}
}

type tokensResponse struct {
	AccessToken  string    `json:"access_token"`
	AccessTTL    int64     `json:"access_ttl"`
	RefreshToken uuid.UUID `json:"refresh_token"`
	RefreshTTL   int64     `json:"refresh_ttl"`
}

// identityResponse is returned by every step that may end in a session or a challenge.
type identityResponse struct {
	Outcome            string          `json:"outcome"`
	Tokens             *tokensResponse `json:"tokens,omitempty"`
	AccountID          *uuid.UUID      `json:"account_id,omitempty"`
	CandidateToken     string          `json:"candidate_token,omitempty"`
	Email              string          `json:"email,omitempty"`
	ChallengeExpiresAt *time.Time      `json:"challenge_expires_at,omitempty"`
}

func newTokensResponse(tokens *service.Tokens) *tokensResponse {
	if tokens == nil {
		return nil
	}

	return &tokensResponse{
		AccessToken:  tokens.AccessToken,
		AccessTTL:    int64(tokens.AccessTTL.Seconds()),
		RefreshToken: tokens.RefreshToken,
		RefreshTTL:   int64(tokens.RefreshTTL.Seconds()),
	}
}

func newIdentityResponse(resolution *service.Resolution, tokens *service.Tokens) identityResponse {
	response := identityResponse{
		Outcome: string(resolution.Outcome),
		Tokens:  newTokensResponse(tokens),
	}

	switch resolution.Outcome {
	case service.OutcomeReverify:
		response.AccountID = &resolution.User.ID
		response.Email = resolution.User.Email
	case service.OutcomeNewCandidate:
		response.CandidateToken = resolution.CandidateToken
		response.Email = resolution.Candidate.Email
	}

	if !resolution.ChallengeExpiresAt.IsZero() {
		expiresAt := resolution.ChallengeExpiresAt
		response.ChallengeExpiresAt = &expiresAt
	}

	return response
}

// @Summary Google OAuth Login
// @Tags Auth
// @Description Redirects to the Google consent page
// @ModuleID googleLogin
// @Produce  json
// @Success 302
// @Failure 500 {object} ErrorStruct
// @Router /auth/google/login [get]
func (h *Handler) googleLogin(c *gin.Context) {
	authURL, state, err := h.services.OAuth.LoginURL(c.Request.Context())
	if err != nil {
		serviceErrorResponse(c, "google login", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, int(h.config.Google.StateTTL.Seconds()), "/", "", h.secureCookies(), true)

	c.Redirect(http.StatusFound, authURL)
}

// @Summary Google OAuth Callback
// @Tags Auth
// @Description Signs in a verified user, otherwise sends a verification code and returns the challenge
// @ModuleID googleCallback
// @Produce  json
// @Param code query string true "Authorization code"
// @Param state query string true "State parameter"
// @Success 200 {object} identityResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 502 {object} ErrorStruct
// @Router /auth/google/callback [get]
func (h *Handler) googleCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	savedState, err := c.Cookie(oauthStateCookie)
	if err != nil || savedState == "" || savedState != state {
		logger.Warn("oauth state cookie mismatch")
		errorResponse(c, http.StatusBadRequest, AuthInvalidStateCode)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secureCookies(), true)

	result, err := h.services.Users.AuthGoogle(c.Request.Context(), state, code, sessionMeta(c))
	if err != nil {
		serviceErrorResponse(c, "google auth", err)
		return
	}

	logger.Info("google callback resolved", zap.String("outcome", string(result.Resolution.Outcome)))

	c.JSON(http.StatusOK, newIdentityResponse(result.Resolution, result.Tokens))
}

type signUpInput struct {
	Email string `json:"email" binding:"required,email,max=255"`
	Name  string `json:"name" binding:"max=255"`
}

// @Summary Sign Up
// @Tags Auth
// @Description Sends a verification code to a new email. Password is set when registration is completed
// @ModuleID signUp
// @Accept  json
// @Produce  json
// @Param input body signUpInput true "sign up info"
// @Success 200 {object} identityResponse
// @Failure 400 {object} ErrorStruct
// @Failure 409 {object} ErrorStruct
// @Failure 502 {object} ErrorStruct
// @Router /auth/signup [post]
func (h *Handler) signUp(c *gin.Context) {
	var input signUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	resolution, err := h.services.Users.SignUp(c.Request.Context(), service.SignUpInput{
		Email: input.Email,
		Name:  input.Name,
	})
	if err != nil {
		serviceErrorResponse(c, "sign up", err)
		return
	}

	c.JSON(http.StatusOK, newIdentityResponse(resolution, nil))
}

type verifyInput struct {
	Code           string     `json:"code" binding:"required,otpcode"`
	AccountID      *uuid.UUID `json:"account_id"`
	CandidateToken string     `json:"candidate_token"`
}

type verifyResponse struct {
	Outcome           string          `json:"outcome"`
	AlreadyVerified   bool            `json:"already_verified"`
	Tokens            *tokensResponse `json:"tokens,omitempty"`
	RegistrationToken string          `json:"registration_token,omitempty"`
	User              *userResponse   `json:"user,omitempty"`
}

// @Summary Verify Email
// @Tags Auth
// @Description Confirms a code for either an account id or a candidate token
// @ModuleID verify
// @Accept  json
// @Produce  json
// @Param input body verifyInput true "code and exactly one of account_id, candidate_token"
// @Success 200 {object} verifyResponse
// @Failure 400 {object} ErrorStruct
// @Failure 409 {object} ErrorStruct
// @Failure 429 {object} ErrorStruct
// @Router /auth/verify [post]
func (h *Handler) verify(c *gin.Context) {
	var input verifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	result, err := h.services.Users.Verify(c.Request.Context(), service.ConfirmInput{
		Code:           input.Code,
		UserID:         input.AccountID,
		CandidateToken: input.CandidateToken,
	}, sessionMeta(c))
	if err != nil {
		serviceErrorResponse(c, "verify", err)
		return
	}

	confirmation := result.Confirmation
	response := verifyResponse{
		Outcome:           string(confirmation.Outcome),
		AlreadyVerified:   confirmation.AlreadyVerified,
		Tokens:            newTokensResponse(result.Tokens),
		RegistrationToken: confirmation.RegistrationToken,
	}
	if result.Tokens != nil && confirmation.User != nil {
		response.User = newUserResponse(confirmation.User)
	}

	c.JSON(http.StatusOK, response)
}

type resendInput struct {
	AccountID uuid.UUID `json:"account_id" binding:"required"`
}

type challengeResponse struct {
	AccountID          uuid.UUID  `json:"account_id"`
	Email              string     `json:"email"`
	ChallengeExpiresAt *time.Time `json:"challenge_expires_at,omitempty"`
}

// @Summary Resend Verification Code
// @Tags Auth
// @Description Issues a new code for an unverified account, the previous code stops working
// @ModuleID resendVerification
// @Accept  json
// @Produce  json
// @Param input body resendInput true "account id"
// @Success 200 {object} challengeResponse
// @Failure 400 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Failure 429 {object} ErrorStruct
// @Failure 502 {object} ErrorStruct
// @Router /auth/verify/resend [post]
func (h *Handler) resendVerification(c *gin.Context) {
	var input resendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	challenge, err := h.services.Users.ResendVerification(c.Request.Context(), input.AccountID)
	if err != nil {
		serviceErrorResponse(c, "resend verification", err)
		return
	}

	c.JSON(http.StatusOK, newChallengeResponse(input.AccountID, challenge.Email, challenge.ExpiresAt))
}

func newChallengeResponse(accountID uuid.UUID, email string, expiresAt time.Time) challengeResponse {
	response := challengeResponse{AccountID: accountID, Email: email}
	if !expiresAt.IsZero() {
		response.ChallengeExpiresAt = &expiresAt
	}
	return response
}

type completeRegistrationInput struct {
	RegistrationToken string `json:"registration_token" binding:"required"`
	Password          string `json:"password" binding:"omitempty,min=8,max=72"`
	PhoneNumber       string `json:"phone_number" binding:"omitempty,phonenumber"`
}

type registrationResponse struct {
	User   *userResponse   `json:"user"`
	Tokens *tokensResponse `json:"tokens"`
}

// @Summary Complete Registration
// @Tags Auth
// @Description Creates the account from a registration token. Password is required unless the account came from Google
// @ModuleID completeRegistration
// @Accept  json
// @Produce  json
// @Param input body completeRegistrationInput true "registration info"
// @Success 201 {object} registrationResponse
// @Failure 400 {object} ErrorStruct
// @Failure 409 {object} ErrorStruct
// @Router /auth/register/complete [post]
func (h *Handler) completeRegistration(c *gin.Context) {
	var input completeRegistrationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	user, tokens, err := h.services.Users.CompleteRegistration(c.Request.Context(), service.CompleteRegistrationInput{
		RegistrationToken: input.RegistrationToken,
		Password:          input.Password,
		PhoneNumber:       input.PhoneNumber,
	}, sessionMeta(c))
	if err != nil {
		serviceErrorResponse(c, "complete registration", err)
		return
	}

	c.JSON(http.StatusCreated, registrationResponse{
		User:   newUserResponse(user),
		Tokens: newTokensResponse(tokens),
	})
}

type signInInput struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

// @Summary Sign In
// @Tags Auth
// @Description Password sign in for verified accounts
// @ModuleID signIn
// @Accept  json
// @Produce  json
// @Param input body signInInput true "credentials"
// @Success 200 {object} tokensResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 403 {object} ErrorStruct
// @Router /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input signInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	tokens, err := h.services.Users.SignIn(c.Request.Context(), input.Email, input.Password, sessionMeta(c))
	if err != nil {
		serviceErrorResponse(c, "sign in", err)
		return
	}

	c.JSON(http.StatusOK, newTokensResponse(tokens))
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// @Summary Refresh Tokens
// @Tags Auth
// @Description Rotates the refresh token
// @ModuleID refresh
// @Accept  json
// @Produce  json
// @Param input body refreshInput true "refresh token"
// @Success 200 {object} tokensResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Router /auth/refresh [post]
func (h *Handler) refresh(c *gin.Context) {
	var input refreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	tokens, err := h.services.Users.RefreshTokens(c.Request.Context(), input.RefreshToken, sessionMeta(c))
	if err != nil {
		serviceErrorResponse(c, "refresh tokens", err)
		return
	}

	c.JSON(http.StatusOK, newTokensResponse(tokens))
}

// @Summary Sign Out
// @Tags Auth
// @Description Revokes the refresh token
// @ModuleID signOut
// @Accept  json
// @Produce  json
// @Param input body refreshInput true "refresh token"
// @Success 204
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Router /auth/sign-out [post]
func (h *Handler) signOut(c *gin.Context) {
	var input refreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	if err := h.services.Users.SignOut(c.Request.Context(), input.RefreshToken); err != nil {
		serviceErrorResponse(c, "sign out", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) secureCookies() bool {
	return h.config.Env != "local" && h.config.Env != "dev"
}
