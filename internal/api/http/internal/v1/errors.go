package v1

// Errors
const (
	UnknownErrorCode    = 0
	UnknownErrorMessage = "unknown error"

	UserAlreadyExistsCode           = 1001
	UserAlreadyExistsMessage        = "user already exists"
	UserNotFoundCode                = 1002
	UserNotFoundMessage             = "user not found"
	UserInvalidCredentialsCode      = 1003
	UserInvalidCredentialsMessage   = "invalid email or password"
	UserRefreshTokenInvalidCode     = 1004
	UserRefreshTokenInvalidMessage  = "user refresh token invalid or expired"
	UserEmailNotVerifiedCode        = 1005
	UserEmailNotVerifiedMessage     = "email not verified"
	UserWeakPasswordCode            = 1006
	UserWeakPasswordMessage         = "password must be at least 8 characters"
	UserEmailAlreadyVerifiedCode    = 1007
	UserEmailAlreadyVerifiedMessage = "email already verified"

	AuthInvalidAssertionCode    = 2001
	AuthInvalidAssertionMessage = "identity provider assertion rejected"
	AuthInvalidStateCode        = 2002
	AuthInvalidStateMessage     = "invalid oauth state"
	AuthDeliveryFailureCode     = 2003
	AuthDeliveryFailureMessage  = "verification email could not be sent"
	AuthCodeMismatchCode        = 2004
	AuthCodeMismatchMessage     = "verification code is incorrect"
	AuthChallengeExpiredCode    = 2005
	AuthChallengeExpiredMessage = "verification code expired"
	AuthTooManyAttemptsCode     = 2006
	AuthTooManyAttemptsMessage  = "too many verification attempts"
	AuthResendTooSoonCode       = 2007
	AuthResendTooSoonMessage    = "verification code was sent recently"
	AuthInvalidRequestCode      = 2008
	AuthInvalidRequestMessage   = "invalid request"
	AuthUnauthorizedCode        = 2009
	AuthUnauthorizedMessage     = "unauthorized"

	ProductNotFoundCode    = 3001
	ProductNotFoundMessage = "product not found"

	ValidationErrorCode    = 6000
	ValidationErrorMessage = "validation error"
)

type ErrorCode int
type ErrorMessage string

type ErrorStruct struct {
	ErrorCode    `json:"error_code"`
	ErrorMessage `json:"error_message"`
} // @name ErrorStruct

type ValidationErrorStruct struct {
	ErrorCode    int               `json:"error_code"`
	ErrorMessage string            `json:"error_message"`
	Errors       []ValidationError `json:"validation_errors"`
} // @name ValidationErrorStruct

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

var errorMessages = map[ErrorCode]ErrorMessage{
	UserAlreadyExistsCode:        UserAlreadyExistsMessage,
	UserNotFoundCode:             UserNotFoundMessage,
	UserInvalidCredentialsCode:   UserInvalidCredentialsMessage,
	UserRefreshTokenInvalidCode:  UserRefreshTokenInvalidMessage,
	UserEmailNotVerifiedCode:     UserEmailNotVerifiedMessage,
	UserWeakPasswordCode:         UserWeakPasswordMessage,
	UserEmailAlreadyVerifiedCode: UserEmailAlreadyVerifiedMessage,
	AuthInvalidAssertionCode:     AuthInvalidAssertionMessage,
	AuthInvalidStateCode:         AuthInvalidStateMessage,
	AuthDeliveryFailureCode:      AuthDeliveryFailureMessage,
	AuthCodeMismatchCode:         AuthCodeMismatchMessage,
	AuthChallengeExpiredCode:     AuthChallengeExpiredMessage,
	AuthTooManyAttemptsCode:      AuthTooManyAttemptsMessage,
	AuthResendTooSoonCode:        AuthResendTooSoonMessage,
	AuthInvalidRequestCode:       AuthInvalidRequestMessage,
	AuthUnauthorizedCode:         AuthUnauthorizedMessage,
	ProductNotFoundCode:          ProductNotFoundMessage,
}

func getErrorStruct(code ErrorCode) *ErrorStruct {
	message, ok := errorMessages[code]
	if !ok {
		return &ErrorStruct{
			ErrorCode:    UnknownErrorCode,
			ErrorMessage: UnknownErrorMessage,
		}
	}

	return &ErrorStruct{
		ErrorCode:    code,
		ErrorMessage: message,
	}
}
