package httputil

// Machine-readable error codes returned in failure envelopes.
// Clients should branch on these rather than on message text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeUsernameRequired   = "USERNAME_REQUIRED"
	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeOTPRequired        = "OTP_REQUIRED"
	CodeInvalidOTP         = "INVALID_OTP"
	CodeOTPAlreadyUsed     = "OTP_ALREADY_USED"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeResetNotAuthorized = "RESET_NOT_AUTHORIZED"
	CodeNotebookNotFound   = "NOTEBOOK_NOT_FOUND"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternalError      = "INTERNAL_ERROR"
)
