package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/oshxona/backend/internal/service"
	"github.com/oshxona/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func errorResponse(c *gin.Context, status int, code ErrorCode) {
	c.AbortWithStatusJSON(status, getErrorStruct(code))
}

var serviceErrors = []struct {
	err    error
	status int
	code   ErrorCode
}{
	{service.ErrInvalidAssertion, http.StatusUnauthorized, AuthInvalidAssertionCode},
	{service.ErrInvalidOAuthState, http.StatusBadRequest, AuthInvalidStateCode},
	{service.ErrDeliveryFailure, http.StatusBadGateway, AuthDeliveryFailureCode},
	{service.ErrCodeMismatch, http.StatusBadRequest, AuthCodeMismatchCode},
	{service.ErrChallengeExpired, http.StatusBadRequest, AuthChallengeExpiredCode},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests, AuthTooManyAttemptsCode},
	{service.ErrResendTooSoon, http.StatusTooManyRequests, AuthResendTooSoonCode},
	{service.ErrInvalidRequest, http.StatusBadRequest, AuthInvalidRequestCode},
	{service.ErrConflict, http.StatusConflict, UserAlreadyExistsCode},
	{service.ErrAlreadyVerified, http.StatusConflict, UserEmailAlreadyVerifiedCode},
	{service.ErrUserNotFound, http.StatusNotFound, UserNotFoundCode},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, UserInvalidCredentialsCode},
	{service.ErrEmailNotVerified, http.StatusForbidden, UserEmailNotVerifiedCode},
	{service.ErrWeakPassword, http.StatusBadRequest, UserWeakPasswordCode},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, UserRefreshTokenInvalidCode},
	{service.ErrProductNotFound, http.StatusNotFound, ProductNotFoundCode},
}

// serviceErrorResponse maps service errors to the error catalogue. Unknown errors are logged and hidden.
func serviceErrorResponse(c *gin.Context, op string, err error) {
	for _, e := range serviceErrors {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				logger.Error(op+" failed", zap.Error(err))
			}
			errorResponse(c, e.status, e.code)
			return
		}
	}

	logger.Error(op+" failed", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, getErrorStruct(UnknownErrorCode))
}

func validationErrorResponse(c *gin.Context, err error) {
	var verr validator.ValidationErrors
	if !errors.As(err, &verr) {
		errorResponse(c, http.StatusBadRequest, AuthInvalidRequestCode)
		return
	}

	out := make([]ValidationError, len(verr))
	for i, ferr := range verr {
		out[i] = ValidationError{ferr.Field(), msgForTag(ferr.Tag(), ferr.Param())}
	}
	response := ValidationErrorStruct{
		ErrorCode:    ValidationErrorCode,
		ErrorMessage: ValidationErrorMessage,
	}
	response.Errors = out
	c.AbortWithStatusJSON(http.StatusBadRequest, response)
}

func msgForTag(tag string, value string) string {
	switch tag {
	case "required":
		return "Bu maydon to'ldirilishi shart"
	case "email":
		return "Elektron pochta formati noto'g'ri"
	case "uuid":
		return "Identifikator formati noto'g'ri"
	case "min":
		return fmt.Sprintf("Maydondagi belgilar soni kamida %v bo'lishi kerak", value)
	case "max":
		return fmt.Sprintf("Maydondagi belgilar soni ko'pi bilan %v bo'lishi kerak", value)
	case "phonenumber":
		return "Raqam 998 bilan boshlanishi va 12 ta raqamdan iborat bo'lishi kerak"
	case "otpcode":
		return "Kod 6 ta raqamdan iborat bo'lishi kerak"
	}
	return tag
}
