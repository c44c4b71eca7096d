package i18n

var ALLOW_LANG = map[string]bool{
	"en": true,
	"hi": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"

	ERROR_SERVICE_UNAVAILABLE = "error.service.unavailable"
	ERROR_PROFILE_FETCH       = "error.profile.fetch"
	ERROR_SESSION_NOT_FOUND   = "error.session.notfound"

	ERROR_OTP_SEND_FAILED       = "error.otp.send.failed"
	ERROR_OTP_INCORRECT         = "error.otp.incorrect"
	ERROR_MOBILE_MISMATCH       = "error.mobile.mismatch"
	ERROR_PROFILE_UPDATE_FAILED = "error.profile.update.failed"
	ERROR_INVALID_MOBILE        = "error.invalid.mobile"
	ERROR_INVALID_EMAIL         = "error.invalid.email"
	ERROR_INVALID_OTP_FORMAT    = "error.invalid.otp.format"

	MESSAGE_GENERIC_APOLOGY = "message.generic.apology"
)
