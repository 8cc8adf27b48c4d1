package v1

import (
	"net/http"
	"time"

	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) initUsersRoutes(api *gin.RouterGroup) {
	users := api.Group("/users", h.userIdentityMiddleware)
	{
		users.GET("/me", h.getMe)
		users.PUT("/me", h.updateMe)
		users.PUT("/me/email", h.changeEmail)
		users.GET("/me/likes", h.getLikedProducts)
	}
}

type userResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name,omitempty"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	IsGoogleAccount bool      `json:"is_google_account"`
	IsEmailVerified bool      `json:"is_email_verified"`
	HasPassword     bool      `json:"has_password"`
	CreatedAt       time.Time `json:"created_at"`
}

func newUserResponse(user *domain.User) *userResponse {
	return &userResponse{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name.String,
		PhoneNumber:     user.PhoneNumber.String,
		IsGoogleAccount: user.IsGoogleAccount,
		IsEmailVerified: user.IsEmailVerified,
		HasPassword:     user.HasPassword(),
		CreatedAt:       user.CreatedAt,
	}
}

// @Summary Get Me
// @Tags Users
// @Description Current user profile
// @ModuleID getMe
// @Produce  json
// @Success 200 {object} userResponse
// @Failure 401 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Security UserAuth
// @Router /users/me [get]
func (h *Handler) getMe(c *gin.Context) {
	userID, ok := h.mustUserUUID(c)
	if !ok {
		return
	}

	user, err := h.services.Users.GetOneByID(c.Request.Context(), userID)
	if err != nil {
		serviceErrorResponse(c, "get user", err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

type updateMeInput struct {
	Name        string `json:"name" binding:"max=255"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,phonenumber"`
}

// @Summary Update Me
// @Tags Users
// @Description Replaces name and phone number, empty values clear them
// @ModuleID updateMe
// @Accept  json
// @Produce  json
// @Param input body updateMeInput true "profile"
// @Success 200 {object} userResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Security UserAuth
// @Router /users/me [put]
func (h *Handler) updateMe(c *gin.Context) {
	userID, ok := h.mustUserUUID(c)
	if !ok {
		return
	}

	var input updateMeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	user, err := h.services.Users.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		Name:        input.Name,
		PhoneNumber: input.PhoneNumber,
	})
	if err != nil {
		serviceErrorResponse(c, "update profile", err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

type changeEmailInput struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// @Summary Change Email
// @Tags Users
// @Description Sets a new unverified email and sends it a code, confirm it with /auth/verify
// @ModuleID changeEmail
// @Accept  json
// @Produce  json
// @Param input body changeEmailInput true "new email"
// @Success 200 {object} challengeResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 409 {object} ErrorStruct
// @Failure 502 {object} ErrorStruct
// @Security UserAuth
// @Router /users/me/email [put]
func (h *Handler) changeEmail(c *gin.Context) {
	userID, ok := h.mustUserUUID(c)
	if !ok {
		return
	}

	var input changeEmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	challenge, err := h.services.Users.ChangeEmail(c.Request.Context(), userID, input.Email)
	if err != nil {
		serviceErrorResponse(c, "change email", err)
		return
	}

	c.JSON(http.StatusOK, newChallengeResponse(userID, challenge.Email, challenge.ExpiresAt))
}

// @Summary Get Liked Products
// @Tags Users
// @Description Products liked by the current user
// @ModuleID getLikedProducts
// @Produce  json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} productsListResponse
// @Failure 401 {object} ErrorStruct
// @Security UserAuth
// @Router /users/me/likes [get]
func (h *Handler) getLikedProducts(c *gin.Context) {
	userID, ok := h.mustUserUUID(c)
	if !ok {
		return
	}

	page, limit := pagination(c)

	products, total, err := h.services.Likes.GetLiked(c.Request.Context(), userID, page, limit)
	if err != nil {
		serviceErrorResponse(c, "get liked products", err)
		return
	}

	c.JSON(http.StatusOK, newProductsListResponse(products, total, page, limit))
}
